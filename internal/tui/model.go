package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joekir/ssdeepviz/internal/interp"
	"github.com/joekir/ssdeepviz/internal/session"
)

// Stepper is the part of session.Driver the model drives.
type Stepper interface {
	Start(ctx context.Context, text string) (session.State, error)
	Advance(ctx context.Context) (session.State, error)
}

var _ Stepper = (*session.Driver)(nil)

// resultMsg carries the outcome of a Start or Advance call.
type resultMsg struct {
	state session.State
	err   error
}

// Model is the interactive stepping view.
type Model struct {
	stepper Stepper
	text    string
	timeout time.Duration

	frame    interp.Frame
	err      error
	busy     bool
	quitting bool
}

// NewModel returns a model that starts a session over text on Init.
func NewModel(stepper Stepper, text string, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return Model{
		stepper: stepper,
		text:    text,
		timeout: timeout,
		frame:   interp.NewFrame(session.State{Text: text, Phase: session.PhaseUninitialized, Stream: session.ToByteStream(text)}),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.start()
}

func (m Model) start() tea.Cmd {
	stepper, text, timeout := m.stepper, m.text, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		state, err := stepper.Start(ctx, text)
		return resultMsg{state: state, err: err}
	}
}

func (m Model) advance() tea.Cmd {
	stepper, timeout := m.stepper, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		state, err := stepper.Advance(ctx)
		return resultMsg{state: state, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "right", "l", "n", " ", "enter":
			if m.busy || m.frame.Phase != session.PhaseReady {
				return m, nil
			}
			m.busy = true
			return m, m.advance()
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.err = nil
			return m, m.start()
		}

	case resultMsg:
		m.busy = false
		m.err = msg.err
		m.frame = interp.NewFrame(msg.state)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	out := Render(m.frame)
	if m.err != nil && m.frame.Err == nil {
		out += "\n" + errorStyle.Render(m.err.Error())
	}
	status := "→/space step · r restart · q quit"
	if m.busy {
		status = "working…"
	}
	return out + "\n" + helpStyle.Render(status) + "\n"
}

// Frame returns the frame currently on screen.
func (m Model) Frame() interp.Frame { return m.frame }

// Err returns the error from the last call, if any.
func (m Model) Err() error { return m.err }

// Busy reports whether a call is outstanding.
func (m Model) Busy() bool { return m.busy }
