// Package command parses editor command lines such as `text "hello world"`
// or `mode laser` and applies them to a session.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/pattern"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Target is the editing surface commands drive; *app.Session satisfies it.
type Target interface {
	SetText(text string) error
	SetFont(id string) error
	SetMode(m bank.Mode) error
	SetSpeed(speed int) error
	TogglePixel(x, y int) error
	ClearImage() error
	InvertImage() error
	TranslateImage(dir bank.Direction) error
	ScrollView(dir bank.Direction) error
	AddFrame() error
	DeleteFrame() error
	NextFrame() error
	PrevFrame() error
	SetBlink(on bool) error
	SetAnts(on bool) error
	SelectBank(i int) error
	LoadPattern(k pattern.Kind) error
	TogglePlayback()
	StartPlayback()
	StopPlayback()
	SetCycling(on bool)
	SetBrightness(pct int)
	Upload(ctx context.Context) error
}

type spec struct {
	usage string
	args  int // minimum argument count
	run   func(ctx context.Context, t Target, args []string) error
}

var commands = map[string]spec{
	"text": {`text "<message>"`, 0, func(_ context.Context, t Target, a []string) error {
		return t.SetText(strings.Join(a, " "))
	}},
	"font": {"font <name>", 1, func(_ context.Context, t Target, a []string) error { return t.SetFont(a[0]) }},
	"mode": {"mode <name>", 1, func(_ context.Context, t Target, a []string) error {
		m, err := bank.ParseMode(a[0])
		if err != nil {
			return err
		}
		return t.SetMode(m)
	}},
	"speed": {"speed <1-8>", 1, func(_ context.Context, t Target, a []string) error {
		n, err := strconv.Atoi(a[0])
		if err != nil {
			return err
		}
		return t.SetSpeed(n)
	}},
	"pixel": {"pixel <x> <y>", 2, func(_ context.Context, t Target, a []string) error {
		x, err := strconv.Atoi(a[0])
		if err != nil {
			return err
		}
		y, err := strconv.Atoi(a[1])
		if err != nil {
			return err
		}
		return t.TogglePixel(x, y)
	}},
	"clear":  {"clear", 0, func(_ context.Context, t Target, _ []string) error { return t.ClearImage() }},
	"invert": {"invert", 0, func(_ context.Context, t Target, _ []string) error { return t.InvertImage() }},
	"move": {"move <up|down|left|right>", 1, func(_ context.Context, t Target, a []string) error {
		d, err := bank.ParseDirection(a[0])
		if err != nil {
			return err
		}
		return t.TranslateImage(d)
	}},
	"view": {"view <left|right>", 1, func(_ context.Context, t Target, a []string) error {
		d, err := bank.ParseDirection(a[0])
		if err != nil {
			return err
		}
		return t.ScrollView(d)
	}},
	"frame": {"frame <add|delete|next|prev>", 1, func(_ context.Context, t Target, a []string) error {
		switch a[0] {
		case "add":
			return t.AddFrame()
		case "delete", "del":
			return t.DeleteFrame()
		case "next":
			return t.NextFrame()
		case "prev":
			return t.PrevFrame()
		}
		return fmt.Errorf("%w: frame <add|delete|next|prev>", ErrUsage)
	}},
	"blink": {"blink <on|off>", 1, func(_ context.Context, t Target, a []string) error {
		on, err := parseSwitch(a[0])
		if err != nil {
			return err
		}
		return t.SetBlink(on)
	}},
	"ants": {"ants <on|off>", 1, func(_ context.Context, t Target, a []string) error {
		on, err := parseSwitch(a[0])
		if err != nil {
			return err
		}
		return t.SetAnts(on)
	}},
	"bank": {"bank <1-8>", 1, func(_ context.Context, t Target, a []string) error {
		n, err := strconv.Atoi(a[0])
		if err != nil {
			return err
		}
		return t.SelectBank(n - 1)
	}},
	"pattern": {"pattern <name>", 1, func(_ context.Context, t Target, a []string) error {
		return t.LoadPattern(pattern.Kind(a[0]))
	}},
	"play":   {"play", 0, func(_ context.Context, t Target, _ []string) error { t.StartPlayback(); return nil }},
	"stop":   {"stop", 0, func(_ context.Context, t Target, _ []string) error { t.StopPlayback(); return nil }},
	"toggle": {"toggle", 0, func(_ context.Context, t Target, _ []string) error { t.TogglePlayback(); return nil }},
	"cycle": {"cycle <on|off>", 1, func(_ context.Context, t Target, a []string) error {
		on, err := parseSwitch(a[0])
		if err != nil {
			return err
		}
		t.SetCycling(on)
		return nil
	}},
	"brightness": {"brightness <0-100>", 1, func(_ context.Context, t Target, a []string) error {
		n, err := strconv.Atoi(strings.TrimSuffix(a[0], "%"))
		if err != nil {
			return err
		}
		t.SetBrightness(n)
		return nil
	}},
	"upload": {"upload", 0, func(ctx context.Context, t Target, _ []string) error { return t.Upload(ctx) }},
}

func split(line string) (name string, args []string, err error) {
	words, err := shlex.Split(line)
	if err != nil {
		return "", nil, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return "", nil, nil
	}
	return strings.ToLower(words[0]), words[1:], nil
}

// Name returns the command word of line, lowercased, or "" for blank lines,
// comments and lines that do not parse.
func Name(line string) string {
	name, _, _ := split(line)
	return name
}

// Run parses line with shell quoting rules and applies it to t. Blank lines
// and comments are ignored.
func Run(ctx context.Context, t Target, line string) error {
	name, args, err := split(line)
	if err != nil || name == "" {
		return err
	}
	c, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if len(args) < c.args {
		return fmt.Errorf("%w: %s", ErrUsage, c.usage)
	}
	return c.run(ctx, t, args)
}

// Usage lists every command's synopsis.
func Usage() []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.usage)
	}
	sort.Strings(out)
	return out
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
}
