package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// surface paints text onto one theme background. lipgloss resets the
// background after every styled segment, so unstyled spaces between segments
// would show the terminal colour; surface styles the gaps too.
type surface struct {
	bg    lipgloss.Color
	plain lipgloss.Style
	space string
}

func newSurface(color string) surface {
	bg := lipgloss.Color(color)
	plain := lipgloss.NewStyle().Background(bg)
	return surface{bg: bg, plain: plain, space: plain.Render(" ")}
}

// Render draws text in style on the surface. Runs of spaces are painted
// separately so they keep the background.
func (s surface) Render(text string, style lipgloss.Style) string {
	style = style.Background(s.bg)
	var b strings.Builder
	for text != "" {
		word := strings.IndexByte(text, ' ')
		switch {
		case word < 0:
			b.WriteString(style.Render(text))
			text = ""
		case word > 0:
			b.WriteString(style.Render(text[:word]))
			text = text[word:]
		default:
			n := len(text) - len(strings.TrimLeft(text, " "))
			b.WriteString(s.Pad(n))
			text = text[n:]
		}
	}
	return b.String()
}

// Text draws text with the surface background and no other styling.
func (s surface) Text(text string) string {
	return s.plain.Render(text)
}

func (s surface) Space() string { return s.space }

// Pad returns n spaces painted with the background.
func (s surface) Pad(n int) string {
	if n == 1 {
		return s.space
	}
	return s.plain.Render(strings.Repeat(" ", n))
}

// FillLine extends a rendered line to width with the background.
func (s surface) FillLine(line string, width int) string {
	return s.plain.Width(width).Render(line)
}

// renderTitledBox frames content in a single-line border with title set into
// the top edge. Content is clipped or padded to height-2 rows.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	edge, fill := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		edge, fill = m.theme.BorderFocus, m.theme.FocusBg
	}
	s := newSurface(fill)
	line := lipgloss.NewStyle().Foreground(lipgloss.Color(edge))
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))
	inner := max(width-2, 0)

	label := " " + truncate(title, max(inner-4, 0)) + " "
	dashes := max(inner-lipgloss.Width(label), 0)
	left := dashes / 2

	rows := make([]string, 0, max(height, 2))
	rows = append(rows, s.Render("┌"+strings.Repeat("─", left), line)+
		s.Render(label, heading)+
		s.Render(strings.Repeat("─", dashes-left)+"┐", line))

	side := s.Render("│", line)
	body := s.plain.Width(inner).MaxWidth(inner)
	lines := strings.Split(content, "\n")
	for i := range max(height-2, 0) {
		var text string
		if i < len(lines) {
			text = lines[i]
		}
		rows = append(rows, side+body.Render(text)+side)
	}

	rows = append(rows, s.Render("└"+strings.Repeat("─", inner)+"┘", line))
	return strings.Join(rows, "\n")
}

const ellipsis = "..."

// truncate keeps the first n runes of s, ending with an ellipsis when cut.
func truncate(s string, n int) string { return elide(s, n, 0) }

// truncateMiddle keeps both ends of s, favouring the end where file names sit.
func truncateMiddle(s string, n int) string {
	return elide(s, n, max(n-len(ellipsis), 0)*2/3)
}

// elide cuts s to n runes: tail runes from the end, the rest from the start,
// joined by an ellipsis. Widths that cannot fit the ellipsis get a hard cut.
func elide(s string, n, tail int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return string(r[:n])
	}
	head := n - len(ellipsis) - tail
	return string(r[:head]) + ellipsis + string(r[len(r)-tail:])
}
