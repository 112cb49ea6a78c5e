package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/pattern"
)

// recorder logs every call it receives.
type recorder struct{ calls []string }

func (r *recorder) log(format string, a ...any) error {
	r.calls = append(r.calls, fmt.Sprintf(format, a...))
	return nil
}

func (r *recorder) SetText(text string) error             { return r.log("text %s", text) }
func (r *recorder) SetFont(id string) error               { return r.log("font %s", id) }
func (r *recorder) SetMode(m bank.Mode) error             { return r.log("mode %s", m) }
func (r *recorder) SetSpeed(n int) error                  { return r.log("speed %d", n) }
func (r *recorder) TogglePixel(x, y int) error            { return r.log("pixel %d,%d", x, y) }
func (r *recorder) ClearImage() error                     { return r.log("clear") }
func (r *recorder) InvertImage() error                    { return r.log("invert") }
func (r *recorder) TranslateImage(d bank.Direction) error { return r.log("move %s", d) }
func (r *recorder) ScrollView(d bank.Direction) error     { return r.log("view %s", d) }
func (r *recorder) AddFrame() error                       { return r.log("add") }
func (r *recorder) DeleteFrame() error                    { return r.log("delete") }
func (r *recorder) NextFrame() error                      { return r.log("next") }
func (r *recorder) PrevFrame() error                      { return r.log("prev") }
func (r *recorder) SetBlink(on bool) error                { return r.log("blink %t", on) }
func (r *recorder) SetAnts(on bool) error                 { return r.log("ants %t", on) }
func (r *recorder) SelectBank(i int) error                { return r.log("bank %d", i) }
func (r *recorder) LoadPattern(k pattern.Kind) error      { return r.log("pattern %s", k) }
func (r *recorder) TogglePlayback()                       { _ = r.log("toggle") }
func (r *recorder) StartPlayback()                        { _ = r.log("play") }
func (r *recorder) StopPlayback()                         { _ = r.log("stop") }
func (r *recorder) SetCycling(on bool)                    { _ = r.log("cycle %t", on) }
func (r *recorder) SetBrightness(n int)                   { _ = r.log("brightness %d", n) }
func (r *recorder) Upload(context.Context) error          { return r.log("upload") }

func TestRunDispatches(t *testing.T) {
	r := &recorder{}
	ctx := context.Background()
	for _, line := range []string{
		`text "hello   world"`,
		`text two words`,
		`mode scroll_left`,
		`MODE 8`,
		`speed 3`,
		`pixel 4 10`,
		`move up`,
		`view right`,
		`frame add`,
		`frame del`,
		`blink on`,
		`ants off`,
		`bank 3`,
		`pattern checker`,
		`cycle yes`,
		`brightness 50%`,
		`play`,
		`upload`,
		``,
		`# comment only`,
	} {
		require.NoError(t, Run(ctx, r, line), line)
	}
	assert.Equal(t, []string{
		"text hello   world",
		"text two words",
		"mode scroll-left",
		"mode laser",
		"speed 3",
		"pixel 4,10",
		"move up",
		"view right",
		"add",
		"delete",
		"blink true",
		"ants false",
		"bank 2",
		"pattern checker",
		"cycle true",
		"brightness 50",
		"play",
		"upload",
	}, r.calls)
}

func TestRunErrors(t *testing.T) {
	r := &recorder{}
	ctx := context.Background()
	assert.ErrorIs(t, Run(ctx, r, "dance"), ErrUnknownCommand)
	assert.ErrorIs(t, Run(ctx, r, "pixel 1"), ErrUsage)
	assert.ErrorIs(t, Run(ctx, r, "blink maybe"), ErrUsage)
	assert.ErrorIs(t, Run(ctx, r, "frame spin"), ErrUsage)
	assert.Error(t, Run(ctx, r, "mode sideways"))
	assert.Error(t, Run(ctx, r, "speed fast"))
	assert.Error(t, Run(ctx, r, `text "unterminated`))
	assert.Empty(t, r.calls)
}

func TestName(t *testing.T) {
	for line, want := range map[string]string{
		"upload":         "upload",
		"  UPLOAD  ":     "upload",
		"uploads":        "uploads",
		`"upload" now`:   "upload",
		"# upload":       "",
		"":               "",
		`text "unclosed`: "",
	} {
		assert.Equal(t, want, Name(line), "%q", line)
	}
}

func TestUsageIsSorted(t *testing.T) {
	u := Usage()
	assert.Len(t, u, len(commands))
	assert.IsNonDecreasing(t, u)
}
