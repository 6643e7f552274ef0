//go:build !cgo

package audio

import "errors"

var errVADUnavailable = errors.New("webrtcvad unavailable (cgo disabled)")

type vadProcessor struct{}

func newVAD(int) (*vadProcessor, error) {
	return nil, errVADUnavailable
}

func (v *vadProcessor) Process(sampleRate int, frame []byte) (bool, error) {
	return false, errVADUnavailable
}

// VADAvailable reports whether voice activity detection was compiled in.
func VADAvailable() bool { return false }
