package render

import (
	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/sequence"
)

// Effects is the cross-cutting state the post stages need.
type Effects struct {
	Blank      bool
	Ants       bool
	AntsOffset int
}

// EffectsOf reads the effect state from a running preview, or from the bank
// flags when idle (blink showing, ants at offset 0).
func EffectsOf(b bank.Bank, st *sequence.State) Effects {
	if st == nil {
		return Effects{Ants: b.Ants}
	}
	return Effects{
		Blank:      st.Blink.Enabled && !st.Blink.On,
		Ants:       st.Ants.Enabled,
		AntsOffset: st.Ants.Offset,
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Blink func(*Frame, Effects)
	Ants  func(*Frame, Effects)
}

var DefaultPost = PostPipeline{Blink: BlinkStage, Ants: AntsStage}

// Apply runs blink, then ants.
func (p PostPipeline) Apply(f *Frame, e Effects) {
	if p.Blink != nil {
		p.Blink(f, e)
	}
	if p.Ants != nil {
		p.Ants(f, e)
	}
}

// BlinkStage blanks the content during the off half of a blink.
func BlinkStage(f *Frame, e Effects) {
	if e.Blank {
		*f = Frame{}
	}
}

// AntsStage ORs a marching dashed border onto the frame. A perimeter pixel is
// lit when (i - offset) mod 4 < 2, i counting clockwise from the top-left.
func AntsStage(f *Frame, e Effects) {
	if !e.Ants {
		return
	}
	for i, p := range perimeter {
		if ((i-e.AntsOffset)%4+4)%4 < 2 {
			f[p.y][p.x] = true
		}
	}
}

type point struct{ x, y int }

// perimeter lists the border pixels clockwise from the top-left corner.
var perimeter = func() []point {
	var ps []point
	for x := 0; x < W; x++ {
		ps = append(ps, point{x, 0})
	}
	for y := 1; y < H; y++ {
		ps = append(ps, point{W - 1, y})
	}
	for x := W - 2; x >= 0; x-- {
		ps = append(ps, point{x, H - 1})
	}
	for y := H - 2; y > 0; y-- {
		ps = append(ps, point{0, y})
	}
	return ps
}()
