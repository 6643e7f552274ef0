package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"golang.org/x/sync/errgroup"

	"captioner/internal/compositor"
)

// frameBatch bounds how many rendered layouts are held before writing.
const frameBatch = 512

// FrameOptions control frame sampling.
type FrameOptions struct {
	FPS       float64
	Start     float64
	End       float64
	Workers   int
	SkipEmpty bool
}

// FrameRecord is one line of the frame manifest.
type FrameRecord struct {
	Index int `json:"index"`
	compositor.Layout
}

// FrameSummary describes a sampling run.
type FrameSummary struct {
	Frames   int                   `json:"frames"`
	Written  int                   `json:"written"`
	Captions int                   `json:"captions"`
	Cache    compositor.CacheStats `json:"cache"`
}

// SampleFrames renders every frame in [Start, End] at FPS and writes one JSON
// object per frame, in frame order. Frames are rendered in parallel by up to
// Workers goroutines.
func SampleFrames(ctx context.Context, comp *compositor.Compositor, opts FrameOptions, w io.Writer) (FrameSummary, error) {
	if !(opts.FPS > 0) {
		return FrameSummary{}, fmt.Errorf("sample frames: fps must be positive, got %v", opts.FPS)
	}
	if opts.End < opts.Start {
		return FrameSummary{}, fmt.Errorf("sample frames: end %.3f before start %.3f", opts.End, opts.Start)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	first := int(math.Ceil(opts.Start * opts.FPS))
	last := int(math.Floor(opts.End * opts.FPS))
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	var summary FrameSummary

	layouts := make([]compositor.Layout, frameBatch)
	for batchStart := first; batchStart <= last; batchStart += frameBatch {
		n := last - batchStart + 1
		if n > frameBatch {
			n = frameBatch
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := 0; i < n; i++ {
			frame := batchStart + i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				layouts[i] = comp.Render(float64(frame) / opts.FPS)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return summary, err
		}
		for i := 0; i < n; i++ {
			summary.Frames++
			layout := layouts[i]
			if !layout.Empty() {
				summary.Captions++
			} else if opts.SkipEmpty {
				continue
			}
			if err := enc.Encode(FrameRecord{Index: batchStart + i, Layout: layout}); err != nil {
				return summary, fmt.Errorf("write frame %d: %w", batchStart+i, err)
			}
			summary.Written++
		}
	}
	if err := bw.Flush(); err != nil {
		return summary, err
	}
	summary.Cache = comp.CacheStats()
	return summary, nil
}
