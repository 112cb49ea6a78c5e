// Package tui is the terminal editor and preview: it shows the live badge
// frame and maps keys onto the editing session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coreman2200/marquee/internal/app"
	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/command"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
)

type (
	tickMsg   time.Time
	uploadMsg struct{ err error }
	diagMsg   diag.Diagnostic
)

// Model is the bubbletea model. Create it with New.
type Model struct {
	s      *app.Session
	fps    int
	styles styles
	help   help.Model
	prompt textinput.Model

	frame     render.Frame
	status    app.Status
	prompting bool
	message   string
	isError   bool
	quitting  bool

	diags chan diag.Diagnostic
	unsub func()
}

func New(s *app.Session, fps int, ledColor string) *Model {
	if fps <= 0 {
		fps = 30
	}
	in := textinput.New()
	in.Prompt = ":"
	in.CharLimit = 256
	m := &Model{
		s:      s,
		fps:    fps,
		styles: newStyles(ledColor),
		help:   help.New(),
		prompt: in,
		diags:  make(chan diag.Diagnostic, 16),
		status: s.Status(),
	}
	if hub := s.Hub(); hub != nil {
		m.unsub = hub.Subscribe(func(d diag.Diagnostic) {
			select {
			case m.diags <- d:
			default:
			}
		})
	}
	return m
}

// Close drops the diagnostics subscription.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) waitDiag() tea.Cmd {
	ch := m.diags
	return func() tea.Msg { return diagMsg(<-ch) }
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitDiag())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		f, err := m.s.Tick()
		if err == nil {
			m.frame = f
		}
		m.status = m.s.Status()
		return m, m.tick()
	case diagMsg:
		m.notify(msg.Summary, msg.Severity == diag.Err)
		return m, m.waitDiag()
	case uploadMsg:
		if msg.err == nil {
			m.notify("uploaded", false)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, keys.Enter):
		line := m.prompt.Value()
		m.prompting = false
		m.prompt.Blur()
		m.prompt.SetValue("")
		if command.Name(line) == "upload" {
			return m, m.upload()
		}
		m.report(command.Run(context.Background(), m.s, line))
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.status
	var err error
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Command):
		m.prompting = true
		return m, m.prompt.Focus()
	case key.Matches(msg, keys.Upload):
		return m, m.upload()
	case key.Matches(msg, keys.Play):
		m.s.TogglePlayback()
	case key.Matches(msg, keys.Cycle):
		m.s.SetCycling(!st.Cycling)
	case key.Matches(msg, keys.Prev):
		err = m.s.SelectBank((st.Active + layout.Banks - 1) % layout.Banks)
	case key.Matches(msg, keys.Next):
		err = m.s.SelectBank((st.Active + 1) % layout.Banks)
	case key.Matches(msg, keys.Mode):
		var mode bank.Mode
		if mode, err = bank.ParseMode(st.Mode); err == nil {
			err = m.s.SetMode((mode + 1) % (bank.Laser + 1))
		}
	case key.Matches(msg, keys.Faster):
		err = m.s.SetSpeed(min(st.Speed+1, bank.MaxSpeed))
	case key.Matches(msg, keys.Slower):
		err = m.s.SetSpeed(max(st.Speed-1, bank.MinSpeed))
	case key.Matches(msg, keys.Blink):
		err = m.s.SetBlink(!st.Blink)
	case key.Matches(msg, keys.Ants):
		err = m.s.SetAnts(!st.Ants)
	case key.Matches(msg, keys.Invert):
		err = m.s.InvertImage()
	case key.Matches(msg, keys.Clear):
		err = m.s.ClearImage()
	default:
		return m, nil
	}
	m.report(err)
	m.status = m.s.Status()
	return m, nil
}

// upload runs in the background; failures arrive as diagnostics.
func (m *Model) upload() tea.Cmd {
	m.notify("uploading...", false)
	s := m.s
	return func() tea.Msg { return uploadMsg{s.Upload(context.Background())} }
}

func (m *Model) report(err error) {
	if err != nil {
		m.notify(err.Error(), true)
		return
	}
	m.message = ""
}

func (m *Model) notify(s string, isErr bool) {
	m.message, m.isError = s, isErr
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(m.tabs())
	sb.WriteByte('\n')
	sb.WriteString(m.styles.Panel.Render(m.grid()))
	sb.WriteByte('\n')
	sb.WriteString(m.statusLine())
	sb.WriteByte('\n')
	switch {
	case m.prompting:
		sb.WriteString(m.prompt.View())
	case m.message != "" && m.isError:
		sb.WriteString(m.styles.Error.Render(m.message))
	case m.message != "":
		sb.WriteString(m.styles.Message.Render(m.message))
	}
	sb.WriteByte('\n')
	sb.WriteString(m.help.ShortHelpView(keys.ShortHelp()))
	return sb.String()
}

func (m *Model) tabs() string {
	parts := make([]string, layout.Banks)
	for i := range parts {
		label := fmt.Sprintf("%d", i+1)
		if i == m.status.Active {
			parts[i] = m.styles.TabOn.Render("[" + label + "]")
		} else {
			parts[i] = m.styles.Tab.Render(" " + label + " ")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) grid() string {
	on, off := m.styles.On.Render("●"), m.styles.Off.Render("·")
	rows := make([]string, layout.Height)
	for y := range rows {
		var sb strings.Builder
		for x := 0; x < layout.Width; x++ {
			if m.frame[y][x] {
				sb.WriteString(on)
			} else {
				sb.WriteString(off)
			}
		}
		rows[y] = sb.String()
	}
	return strings.Join(rows, "\n")
}

func (m *Model) statusLine() string {
	st := m.status
	state := "editing"
	if st.Playing {
		state = "playing"
	}
	flags := []string{}
	if st.Cycling {
		flags = append(flags, "cycle")
	}
	if st.Blink {
		flags = append(flags, "blink")
	}
	if st.Ants {
		flags = append(flags, "ants")
	}
	if st.Uploading {
		flags = append(flags, "uploading")
	}
	line := fmt.Sprintf("%s  %s  speed %d  frame %d/%d  width %d  mem %.0f%%",
		state, st.Mode, st.Speed, st.Frame+1, st.Frames, st.Width, st.Memory.Percent)
	if len(flags) > 0 {
		line += "  " + strings.Join(flags, " ")
	}
	if st.Memory.Over() {
		return m.styles.Error.Render(line)
	}
	return m.styles.Header.Render(line)
}

// Run starts the full-screen editor and blocks until the user quits.
func Run(s *app.Session, fps int, ledColor string) error {
	m := New(s, fps, ledColor)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
