package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play, Cycle, Prev, Next key.Binding
	Mode, Faster, Slower    key.Binding
	Blink, Ants             key.Binding
	Invert, Clear           key.Binding
	Upload, Command, Quit   key.Binding
	Enter, Escape           key.Binding
}

var keys = keyMap{
	Play:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play")),
	Cycle:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle")),
	Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "bank")),
	Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "bank")),
	Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	Faster:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "speed")),
	Slower:  key.NewBinding(key.WithKeys("-")),
	Blink:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "blink")),
	Ants:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ants")),
	Invert:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invert")),
	Clear:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
	Upload:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
	Command: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Enter:   key.NewBinding(key.WithKeys("enter")),
	Escape:  key.NewBinding(key.WithKeys("esc")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Cycle, k.Prev, k.Next, k.Mode, k.Faster, k.Blink, k.Ants, k.Upload, k.Command, k.Quit}
}
