package fake

import (
	"fmt"
	"io"
	"os"

	"github.com/coreman2200/marquee/internal/render"
)

// Driver prints a compact summary of every frame, useful for headless runs.
type Driver struct {
	Count int
	Out   io.Writer
	// Full prints the whole frame instead of the summary line.
	Full bool
}

func (d *Driver) Write(f render.Frame) error {
	d.Count++
	out := d.Out
	if out == nil {
		out = os.Stdout
	}
	if d.Full {
		_, err := fmt.Fprintf(out, "[frame %04d]\n%s\n", d.Count, f.String())
		return err
	}
	first := -1
	for i, v := range f.Bytes() {
		if v != 0 {
			first = i
			break
		}
	}
	_, err := fmt.Fprintf(out, "[frame %04d] lit=%d first=%d\n", d.Count, f.Lit(), first)
	return err
}
