package render

import (
	"time"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/sequence"
)

// Engine composes frames, applies post-processing, then writes to the driver.
type Engine struct {
	Drv Driver

	post PostPipeline

	frame Frame
	count uint64

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		WriteMS  float64
		TotalMS  float64
	}
}

// NewEngine returns an Engine with the default post pipeline.
func NewEngine(drv Driver) *Engine {
	return &Engine{Drv: drv, post: DefaultPost}
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// RenderOnce renders b (or its running preview st) and writes the frame.
func (e *Engine) RenderOnce(b bank.Bank, st *sequence.State) (Frame, error) {
	start := time.Now()
	f := Content(b, st)
	e.post.Apply(&f, EffectsOf(b, st))
	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	e.frame = f
	e.count++

	writeStart := time.Now()
	if e.Drv != nil {
		if err := e.Drv.Write(f); err != nil {
			return f, err
		}
	}
	e.Last.WriteMS = float64(time.Since(writeStart).Microseconds()) / 1000.0
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0
	return f, nil
}

// Frame returns the last rendered frame and how many frames were rendered.
func (e *Engine) Frame() (Frame, uint64) { return e.frame, e.count }
