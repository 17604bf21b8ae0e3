// Package tui renders session frames for the terminal.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joekir/ssdeepviz/internal/interp"
)

var (
	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#EF4444")).
			Bold(true)

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#F97316")).
			Bold(true)

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#40E0D0"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(11)

	signatureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	bitOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Bold(true)
	bitOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2563EB")).
			Padding(0, 1)
)

// mark is the one-letter plain-text form of a highlight.
func mark(h interp.Highlight) string {
	switch h {
	case interp.Secondary:
		return "S"
	case interp.Primary:
		return "P"
	case interp.Current:
		return ">"
	default:
		return ""
	}
}

func joinUint32(vs []uint32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, " ")
}

func joinBits(bits [8]uint8) string {
	parts := make([]string, len(bits))
	for i, b := range bits {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, " ")
}

// RenderPlain renders f without styling. Each input byte gets a row with its
// highlight mark: S secondary, P primary, > cursor.
func RenderPlain(f interp.Frame) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", label, value)
	}

	field("input", strconv.Quote(f.Text))
	field("phase", string(f.Phase))
	if f.Err != nil {
		field("error", f.Err.Error())
	}
	if f.Started {
		field("cursor", fmt.Sprintf("%d (%d bytes)", f.Cursor, len(f.Bytes)))
		field("signature", f.Signature)
		field("x", f.X)
		field("y", f.Y)
		field("z", f.Z)
		field("window", joinUint32(f.Window))
		field("bits", joinBits(f.Bits))
	}

	b.WriteString("\n")
	for i, c := range f.Bytes {
		fmt.Fprintf(&b, "%-2s %3d %3d %q\n", mark(f.Highlights[i]), i, c, rune(c))
	}
	return b.String()
}

// Render renders f with colors: red for primary triggers, orange for
// positions that triggered both parts, turquoise for the cursor.
func Render(f interp.Frame) string {
	var rows []string
	row := func(label, value string) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
	}

	row("input", renderStream(f))
	row("phase", string(f.Phase))
	if f.Started {
		row("cursor", fmt.Sprintf("%d of %d", f.Cursor, len(f.Bytes)-1))
		row("byte", fmt.Sprintf("%d %q", f.Bytes[f.Cursor], rune(f.Bytes[f.Cursor])))
		row("bits", renderBits(f.Bits))
		row("window", joinUint32(f.Window))
		row("x", f.X)
		row("y", f.Y)
		row("z", f.Z)
		row("signature", signatureStyle.Render(f.Signature))
	}

	out := boxStyle.Render(strings.Join(rows, "\n"))
	if f.Err != nil {
		out += "\n" + errorStyle.Render(f.Err.Error())
	}
	return out
}

func renderStream(f interp.Frame) string {
	var b strings.Builder
	for i, c := range f.Bytes {
		ch := string(rune(c))
		if c < 0x20 || c == 0x7f {
			ch = "·"
		}
		switch f.Highlights[i] {
		case interp.Secondary:
			b.WriteString(secondaryStyle.Render(ch))
		case interp.Primary:
			b.WriteString(primaryStyle.Render(ch))
		case interp.Current:
			b.WriteString(currentStyle.Render(ch))
		default:
			b.WriteString(ch)
		}
	}
	return b.String()
}

// renderBits shows the byte most significant bit first.
func renderBits(bits [8]uint8) string {
	parts := make([]string, len(bits))
	for i, bit := range bits {
		s := bitOffStyle.Render("0")
		if bit == 1 {
			s = bitOnStyle.Render("1")
		}
		parts[len(bits)-1-i] = s
	}
	return strings.Join(parts, " ")
}
