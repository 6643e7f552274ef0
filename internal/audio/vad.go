//go:build cgo

package audio

import webrtcvad "github.com/maxhawkins/go-webrtcvad"

type vadProcessor struct {
	vad *webrtcvad.VAD
}

func newVAD(mode int) (*vadProcessor, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	// WebRTC VAD modes: 0 (quality) .. 3 (aggressive).
	if err := vad.SetMode(mode); err != nil {
		return nil, err
	}
	return &vadProcessor{vad: vad}, nil
}

func (v *vadProcessor) Process(sampleRate int, frame []byte) (bool, error) {
	return v.vad.Process(sampleRate, frame)
}

// VADAvailable reports whether voice activity detection was compiled in.
func VADAvailable() bool { return true }
