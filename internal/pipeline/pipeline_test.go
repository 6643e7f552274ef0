package pipeline_test

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captioner/internal/caption"
	"captioner/internal/config"
	"captioner/internal/pipeline"
	"captioner/internal/queue"
	"captioner/internal/services"
	"captioner/internal/services/whisperx"
	"captioner/internal/testsupport"
)

const videoProbe = `{"streams":[
 {"index":0,"codec_type":"video","codec_name":"h264","width":1280,"height":720,"avg_frame_rate":"25/1","r_frame_rate":"25/1"},
 {"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"48000","channels":2}
],"format":{"filename":"clip.mp4","duration":"4.000000","format_name":"mov,mp4"}}`

const audioOnlyProbe = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3"}],"format":{"duration":"4.0"}}`

type fakeTranscriber struct {
	words  []caption.Word
	err    error
	calls  int
	stream int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, source string, stream int, workDir string) (whisperx.Result, error) {
	f.calls++
	f.stream = stream
	if f.err != nil {
		return whisperx.Result{}, f.err
	}
	audioPath := filepath.Join(workDir, "clip.wav")
	return whisperx.Result{AudioPath: audioPath, Words: f.words}, nil
}

type harness struct {
	cfg    *config.Config
	store  *queue.Store
	source string
	trans  *fakeTranscriber
	burns  [][]string
	pcm    []byte
	probe  string
	decode [][]string
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Audio.VADEnabled = false
	h := &harness{
		cfg:    cfg,
		store:  testsupport.MustOpenStore(t, cfg),
		source: filepath.Join(testsupport.BaseDir(cfg), "media", "clip.mp4"),
		trans: &fakeTranscriber{words: testsupport.Words(
			testsupport.Span{Text: "hello", Start: 0.5, End: 0.8},
			testsupport.Span{Text: "there", Start: 0.9, End: 1.2},
			testsupport.Span{Text: " ", Start: 1.2, End: 1.2},
			testsupport.Span{Text: "again", Start: 2.5, End: 2.8},
		)},
		probe: videoProbe,
	}
	h.pcm = testsupport.PCM16(testsupport.ToneSignal(16000, 4, [2]float64{0.5, 1.5}, [2]float64{2.5, 3.2}))
	testsupport.WriteFile(t, h.source, 16)
	return h
}

func (h *harness) service() *pipeline.Service {
	return pipeline.New(h.cfg, h.store, nil,
		pipeline.WithTranscriber(h.trans),
		pipeline.WithAudioRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
			h.decode = append(h.decode, args)
			return h.pcm, nil
		}),
		pipeline.WithProbeRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
			return []byte(h.probe), nil
		}),
		pipeline.WithBurnRunner(func(_ context.Context, name string, args ...string) error {
			h.burns = append(h.burns, append([]string{name}, args...))
			return nil
		}),
	)
}

func TestGenerateWritesAllFormats(t *testing.T) {
	h := newHarness(t, testsupport.WithFormats("ass", "srt", "frames"), testsupport.WithAnimation("color"))

	res, err := h.service().Generate(context.Background(), pipeline.Request{Source: h.source})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if h.trans.calls != 1 {
		t.Fatalf("transcriber calls = %d", h.trans.calls)
	}
	if len(res.Outputs) != 3 {
		t.Fatalf("outputs = %v", res.Outputs)
	}
	for _, path := range res.Outputs {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing output %s: %v", path, err)
		}
		if filepath.Dir(path) != h.cfg.Paths.OutputDir {
			t.Fatalf("output %s outside output dir", path)
		}
	}

	stored, err := h.store.GetByID(context.Background(), res.Job.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCompleted || stored.CompletedAt == nil {
		t.Fatalf("unexpected job state %+v", stored)
	}
	meta := stored.Metadata
	if meta.Words != 3 || meta.Groups != len(res.Groups) || meta.Groups == 0 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.FrameWidth != 1280 || meta.FrameHeight != 720 || meta.Duration != 4 {
		t.Fatalf("probe not recorded: %+v", meta)
	}
	if meta.Frames != 101 {
		t.Fatalf("frames = %d, want 101 at 25 fps over 4 s", meta.Frames)
	}
	if meta.RefineSkipped != "" || res.Report.Examined != 3 {
		t.Fatalf("refinement did not run: %+v %+v", meta, res.Report)
	}
	if _, err := os.Stat(res.Job.WorkDir(h.cfg.Paths.WorkDir)); !os.IsNotExist(err) {
		t.Fatal("work directory should be removed after completion")
	}

	ass, _ := os.ReadFile(res.Outputs[0])
	if !strings.Contains(string(ass), "PlayResX: 1280") || !strings.Contains(string(ass), `{\k`) {
		t.Fatalf("unexpected ass output:\n%s", ass)
	}
	frames, _ := os.Open(res.Outputs[2])
	defer frames.Close()
	lines := 0
	scanner := bufio.NewScanner(frames)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		lines++
	}
	if lines != 101 {
		t.Fatalf("frame manifest has %d lines", lines)
	}
}

func TestGenerateFailureStatuses(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*testing.T, *harness) pipeline.Request
		wantMarker error
		wantStatus queue.Status
	}{
		{
			name: "transcriber failure",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				h.trans.err = errors.New("cuda out of memory")
				return pipeline.Request{Source: h.source}
			},
			wantMarker: services.ErrExternalTool,
			wantStatus: queue.StatusFailed,
		},
		{
			name: "missing source",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				return pipeline.Request{Source: h.source + ".missing"}
			},
			wantMarker: services.ErrNotFound,
			wantStatus: queue.StatusReview,
		},
		{
			name: "empty transcript",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				path := filepath.Join(testsupport.BaseDir(h.cfg), "words.json")
				if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
					t.Fatal(err)
				}
				return pipeline.Request{Source: h.source, WordsPath: path}
			},
			wantMarker: caption.ErrEmptyInput,
			wantStatus: queue.StatusReview,
		},
		{
			name: "out of order words",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				h.trans.words = testsupport.Words(
					testsupport.Span{Text: "b", Start: 2, End: 2.5},
					testsupport.Span{Text: "a", Start: 1, End: 1.5},
				)
				return pipeline.Request{Source: h.source}
			},
			wantMarker: services.ErrValidation,
			wantStatus: queue.StatusReview,
		},
		{
			name: "no audio to transcribe",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				h.probe = `{"streams":[{"codec_type":"video","width":640,"height":360}],"format":{"duration":"1"}}`
				return pipeline.Request{Source: h.source}
			},
			wantMarker: services.ErrValidation,
			wantStatus: queue.StatusReview,
		},
		{
			name: "burn-in without video",
			setup: func(t *testing.T, h *harness) pipeline.Request {
				h.cfg.Render.BurnIn = true
				h.probe = audioOnlyProbe
				return pipeline.Request{Source: h.source}
			},
			wantMarker: services.ErrValidation,
			wantStatus: queue.StatusReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := tt.setup(t, h)
			res, err := h.service().Generate(context.Background(), req)
			if !errors.Is(err, tt.wantMarker) {
				t.Fatalf("error = %v, want %v", err, tt.wantMarker)
			}
			if res.Job == nil {
				t.Fatal("failed job should still be returned")
			}
			stored, _ := h.store.GetByID(context.Background(), res.Job.ID)
			if stored.Status != tt.wantStatus || stored.ErrorMessage == "" {
				t.Fatalf("status = %s (%q), want %s", stored.Status, stored.ErrorMessage, tt.wantStatus)
			}
		})
	}
}

func TestGenerateWithoutTranscriberNeedsWords(t *testing.T) {
	h := newHarness(t)
	svc := pipeline.New(h.cfg, h.store, nil,
		pipeline.WithProbeRunner(func(context.Context, string, ...string) ([]byte, error) { return []byte(videoProbe), nil }),
	)
	_, err := svc.Generate(context.Background(), pipeline.Request{Source: h.source})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateUnusableAudioKeepsTimestamps(t *testing.T) {
	h := newHarness(t, testsupport.WithFormats("srt"))
	h.pcm = nil

	res, err := h.service().Generate(context.Background(), pipeline.Request{Source: h.source})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Job.Metadata.RefineSkipped == "" || res.Report.Examined != 0 {
		t.Fatalf("expected refinement to be skipped, got %+v", res.Job.Metadata)
	}
	if got := caption.Flatten(res.Groups); got[0].End != 0.8 {
		t.Fatalf("timestamps changed: %+v", got[0])
	}
}

func TestGenerateBurnIn(t *testing.T) {
	h := newHarness(t, testsupport.WithFormats("srt"))
	h.cfg.Render.BurnIn = true

	res, err := h.service().Generate(context.Background(), pipeline.Request{Source: h.source})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(h.burns) != 1 {
		t.Fatalf("burn calls = %d", len(h.burns))
	}
	args := strings.Join(h.burns[0], " ")
	if !strings.Contains(args, "-vf ass=") || !strings.Contains(args, "clip.captioned.mp4") {
		t.Fatalf("unexpected burn args %q", args)
	}
	if last := res.Outputs[len(res.Outputs)-1]; !strings.HasSuffix(last, "clip.captioned.mp4") {
		t.Fatalf("burned video missing from outputs: %v", res.Outputs)
	}
}

func TestRecoverFailsInterruptedJobs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stuck := testsupport.NewJob(t, h.store, h.source)
	stuck.Begin(queue.StatusRefining, "Refining word timings")
	if err := h.store.Update(ctx, stuck); err != nil {
		t.Fatal(err)
	}
	orphan := filepath.Join(h.cfg.Paths.WorkDir, "orphan-run")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := h.service().Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	got, _ := h.store.GetByID(ctx, stuck.ID)
	if got.Status != queue.StatusFailed || got.ErrorMessage != queue.InterruptedReason {
		t.Fatalf("stuck job not failed: %+v", got)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatal("orphaned work directory should be removed")
	}
}

func TestLoadWordsFormats(t *testing.T) {
	dir := t.TempDir()
	arrayPath := filepath.Join(dir, "words.json")
	whisperPath := filepath.Join(dir, "clip.json")
	if err := os.WriteFile(arrayPath, []byte(` [{"word":"hi","start":0.5,"end":0.9,"confidence":0.8}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(whisperPath, []byte(`{"segments":[{"start":0,"end":1,"words":[{"word":" yo","start":0.1,"end":0.3}]}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	words, err := pipeline.LoadWords(arrayPath)
	if err != nil || len(words) != 1 || words[0].Text != "hi" || words[0].Confidence == nil {
		t.Fatalf("array words = %+v, %v", words, err)
	}
	words, err = pipeline.LoadWords(whisperPath)
	if err != nil || len(words) != 1 || words[0].Text != "yo" || words[0].Start != 0.1 {
		t.Fatalf("whisperx words = %+v, %v", words, err)
	}

	var sb strings.Builder
	if err := pipeline.WriteWords(&sb, words); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), `"word": "yo"`) {
		t.Fatalf("unexpected encoding %s", sb.String())
	}
}

func TestAnalyze(t *testing.T) {
	h := newHarness(t)
	analysis, err := h.service().Analyze(context.Background(), h.source)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Source.Width != 1280 || analysis.Samples != 64000 || analysis.Windows == 0 {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
	if len(analysis.Onsets) == 0 {
		t.Fatal("expected onsets at tone starts")
	}
	if analysis.SpeechRatio != nil {
		t.Fatal("speech ratio should be omitted with vad disabled")
	}
}

const dubbedProbe = `{"streams":[
 {"index":0,"codec_type":"video","width":1920,"height":1080,"avg_frame_rate":"24/1"},
 {"index":1,"codec_type":"audio","codec_name":"ac3","channels":6,"tags":{"language":"fre"},"disposition":{"default":1}},
 {"index":2,"codec_type":"audio","codec_name":"aac","channels":2,"tags":{"language":"eng","title":"Commentary"}},
 {"index":3,"codec_type":"audio","codec_name":"aac","channels":2,"tags":{"language":"eng"}}
],"format":{"duration":"4.0"}}`

func TestGenerateSelectsDialogueTrack(t *testing.T) {
	h := newHarness(t, testsupport.WithFormats("srt"))
	h.cfg.Transcription.Language = "en-US"
	h.probe = dubbedProbe
	words := filepath.Join(testsupport.BaseDir(h.cfg), "words.json")
	if err := os.WriteFile(words, []byte(`[{"word":"hello","start":0.5,"end":0.8}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := h.service().Generate(context.Background(), pipeline.Request{Source: h.source, WordsPath: words})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(h.decode) != 1 || !strings.Contains(strings.Join(h.decode[0], " "), "-map 0:a:2") {
		t.Fatalf("expected refinement to decode the third audio stream, got %v", h.decode)
	}
	if got := res.Job.Metadata.AudioStream; !strings.HasPrefix(got, "#2 | English") {
		t.Fatalf("audio stream metadata = %q", got)
	}

	h.trans.words = testsupport.Words(testsupport.Span{Text: "hi", Start: 0.5, End: 0.7})
	if _, err := h.service().Generate(context.Background(), pipeline.Request{Source: h.source}); err != nil {
		t.Fatalf("Generate with transcription: %v", err)
	}
	if h.trans.stream != 2 {
		t.Fatalf("transcriber stream = %d, want 2", h.trans.stream)
	}
}

func TestSelectAudio(t *testing.T) {
	h := newHarness(t)
	h.probe = dubbedProbe
	sel, err := h.service().SelectAudio(context.Background(), h.source)
	if err != nil {
		t.Fatalf("SelectAudio: %v", err)
	}
	if sel.Ordinal != 0 || sel.Candidates != 3 {
		t.Fatalf("without a language the default track wins, got %s", sel.Label())
	}

	h.probe = `{"streams":[{"codec_type":"video","width":640,"height":360}],"format":{"duration":"1"}}`
	if _, err := h.service().SelectAudio(context.Background(), h.source); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without audio, got %v", err)
	}
}
