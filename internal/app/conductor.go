package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Conductor drives a session from a wall-clock ticker.
type Conductor struct {
	S *Session
	// OnFrame, when set, is called after every rendered frame.
	OnFrame func(seq uint64)
}

func NewConductor(s *Session) *Conductor { return &Conductor{S: s} }

// Run ticks the session fps times a second until ctx is done.
func (c *Conductor) Run(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	var failing bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.S.Tick(); err != nil {
				if !failing {
					log.Warn().Err(err).Msg("frame output failing")
				}
				failing = true
				continue
			}
			if failing {
				log.Info().Msg("frame output recovered")
				failing = false
			}
			if c.OnFrame != nil {
				_, n := c.S.Frame()
				c.OnFrame(n)
			}
		}
	}
}
