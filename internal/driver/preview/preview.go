package preview

import (
	"sync"
	"time"

	"github.com/coreman2200/marquee/internal/render"
)

// DefaultThrottle is the window within which a repeated identical frame is
// dropped.
const DefaultThrottle = 50 * time.Millisecond

// Driver forwards rendered frames to a sink. A frame identical to the last one
// sent is dropped inside the throttle window; changed frames always pass.
type Driver struct {
	mu       sync.Mutex
	throttle time.Duration
	lastEmit time.Time
	last     render.Frame
	sent     bool
	sink     func(render.Frame)
	now      func() time.Time
}

func New(throttle time.Duration) *Driver {
	return &Driver{throttle: throttle, now: time.Now}
}

// SetSink replaces the frame consumer. A nil sink discards frames.
func (d *Driver) SetSink(fn func(render.Frame)) {
	d.mu.Lock()
	d.sink = fn
	d.mu.Unlock()
}

func (d *Driver) Write(f render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sink == nil {
		return nil
	}
	now := d.now()
	if d.sent && f == d.last && d.lastEmit.Add(d.throttle).After(now) {
		return nil
	}
	d.lastEmit, d.last, d.sent = now, f, true
	d.sink(f)
	return nil
}
