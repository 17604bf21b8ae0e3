package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joekir/ssdeepviz/internal/client"
	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/stretchr/testify/require"
)

type fakeStepper struct {
	starts   int
	advances int
	err      error
	driver   *session.Driver
}

func newFakeStepper(t *testing.T) *fakeStepper {
	t.Helper()
	d := session.NewDriver(client.LocalEngine{})
	t.Cleanup(func() { _ = d.Close() })
	return &fakeStepper{driver: d}
}

func (f *fakeStepper) Start(ctx context.Context, text string) (session.State, error) {
	f.starts++
	if f.err != nil {
		return session.State{Text: text, Phase: session.PhaseUninitialized}, f.err
	}
	return f.driver.Start(ctx, text)
}

func (f *fakeStepper) Advance(ctx context.Context) (session.State, error) {
	f.advances++
	return f.driver.Advance(ctx)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// run executes cmd and feeds its message back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(k))
	return next.(Model), cmd
}

func TestModelStepsThroughInput(t *testing.T) {
	stepper := newFakeStepper(t)
	m := NewModel(stepper, "AB", 0)
	require.False(t, m.Frame().Started)

	m = run(t, m, m.Init())
	require.Equal(t, session.PhaseReady, m.Frame().Phase)
	require.Equal(t, 0, m.Frame().Cursor)

	m, cmd := press(t, m, "right")
	require.True(t, m.Busy())

	// A second step while busy is ignored.
	m2, ignored := press(t, m, "l")
	require.Nil(t, ignored)
	require.True(t, m2.Busy())

	m = run(t, m, cmd)
	require.False(t, m.Busy())
	require.Equal(t, 1, m.Frame().Cursor)
	require.Equal(t, session.PhaseExhausted, m.Frame().Phase)
	require.Equal(t, "3::", m.Frame().Signature)

	_, cmd = press(t, m, "right")
	require.Nil(t, cmd)
	require.Equal(t, 1, stepper.advances)
}

func TestModelRestart(t *testing.T) {
	stepper := newFakeStepper(t)
	m := NewModel(stepper, "hello", 0)
	m = run(t, m, m.Init())

	m, cmd := press(t, m, "n")
	m = run(t, m, cmd)
	require.Equal(t, 1, m.Frame().Cursor)

	m, cmd = press(t, m, "r")
	m = run(t, m, cmd)
	require.Equal(t, 0, m.Frame().Cursor)
	require.Equal(t, 2, stepper.starts)
}

func TestModelStartError(t *testing.T) {
	stepper := newFakeStepper(t)
	stepper.err = errors.New("engine unavailable: connection refused")

	m := NewModel(stepper, "AB", 0)
	m = run(t, m, m.Init())
	require.EqualError(t, m.Err(), "engine unavailable: connection refused")
	require.Contains(t, m.View(), "connection refused")

	_, cmd := press(t, m, "right")
	require.Nil(t, cmd)
}

func TestModelQuit(t *testing.T) {
	m := NewModel(newFakeStepper(t), "AB", 0)

	for _, k := range []string{"q", "ctrl+c"} {
		next, cmd := press(t, m, k)
		require.NotNil(t, cmd)
		require.IsType(t, tea.QuitMsg{}, cmd())
		require.Empty(t, next.View())
	}
}
