package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/foilwatch/internal/report"
	"github.com/five82/foilwatch/internal/state"
	"github.com/five82/foilwatch/internal/watch"
)

const (
	histogramBins = 8
	labelWidth    = 12
)

// renderSession renders the session view: job, live fitness chart and the
// final result once there is one.
func (m Model) renderSession() string {
	contentHeight := m.height - 2 // header + command bar
	title := "Session"
	if m.snapshot.HasSession {
		title = fmt.Sprintf("Session %s", shortID(m.snapshot.SessionID))
	}
	return m.renderTitledBox(title, m.renderSessionContent(), m.width, contentHeight, true)
}

func (m Model) renderSessionContent() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := newSurface(m.theme.FocusBg)
	inner := max(m.width-4, 10)
	snap := m.snapshot

	if !snap.HasSession {
		var b strings.Builder
		if snap.LastError != nil {
			b.WriteString(bg.Render(truncate(snap.Message, inner), styles.DangerText))
			b.WriteString("\n\n")
		}
		b.WriteString(bg.Render("No job yet. Press ", styles.MutedText))
		b.WriteString(bg.Render("n", styles.AccentText))
		b.WriteString(bg.Render(" to submit one to ", styles.MutedText))
		b.WriteString(bg.Render(m.apiBase, styles.Text))
		return b.String()
	}

	row := func(label, value string, style func(string) string) string {
		return bg.Render(padRight(label, labelWidth), styles.MutedText) + style(value)
	}
	plain := func(s string) string { return bg.Render(s, styles.Text) }

	var lines []string
	lines = append(lines,
		row("Job", fmt.Sprintf("%s at velocity %d", snap.Request.SolutionType, snap.Request.Velocity), plain),
		row("Phase", snap.Phase.String(), func(s string) string {
			return styles.PhaseStyle(s).Render(s) + bg.Space() + bg.Render(truncate(snap.Message, inner-labelWidth-14), m.messageStyle(snap, styles))
		}),
		row("Elapsed", formatElapsed(snap), plain),
	)

	if latest, ok := snap.Latest(); ok {
		lines = append(lines, row("Latest", fmt.Sprintf("generation %g  fitness %.6g", latest.Index, latest.Value), plain))
	} else {
		lines = append(lines, row("Latest", "waiting for the first generation", func(s string) string {
			return bg.Render(s, styles.FaintText)
		}))
	}

	if len(snap.Points) > 0 {
		lines = append(lines, "")
		lines = append(lines, row("Fitness", sparkline(snap.Points, inner-labelWidth), func(s string) string {
			return bg.Render(s, styles.InfoText)
		}))
		lines = append(lines, row("Summary", report.Summarize(snap.Points).String(), plain))
	}

	if res := snap.Result; res != nil {
		lines = append(lines, "")
		lines = append(lines, row("AOA", fmt.Sprintf("%.3f°", res.AngleOfAttack), func(s string) string {
			return bg.Render(s, styles.SuccessText)
		}))
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"Velocity", res.Velocity},
			{"d2Yl", res.D2Yl},
			{"y_TE", res.YTE},
			{"a_TE", res.ATE},
		} {
			if f.v != nil {
				lines = append(lines, row(f.name, fmt.Sprintf("%.6g", *f.v), plain))
			}
		}
	}

	switch {
	case snap.ArtifactPath != "":
		lines = append(lines, row("Airfoil", truncateMiddle(snap.ArtifactPath, inner-labelWidth), func(s string) string {
			return bg.Render(s, styles.AccentText)
		}))
	case snap.ArtifactErr != nil:
		lines = append(lines, row("Airfoil", truncate(snap.ArtifactErr.Error(), inner-labelWidth), func(s string) string {
			return bg.Render(s, styles.WarningText)
		}))
	}

	// The histogram only fits on taller terminals.
	used := len(lines) + 4
	if hist := report.Histogram(snap.Points, histogramBins, max(inner-40, 10)); hist != "" && m.height-used > histogramBins+2 {
		lines = append(lines, "", bg.Render("Fitness distribution", styles.MutedText))
		for _, l := range strings.Split(strings.TrimRight(hist, "\n"), "\n") {
			lines = append(lines, bg.Render(truncate(l, inner), styles.FaintText))
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) messageStyle(snap state.Snapshot, styles Styles) lipgloss.Style {
	switch {
	case snap.LastError != nil:
		return styles.DangerText
	case snap.Phase == watch.PhaseCompleted:
		return styles.SuccessText
	default:
		return styles.Text
	}
}

func formatElapsed(snap state.Snapshot) string {
	if snap.StartedAt.IsZero() {
		return "-"
	}
	end := time.Now()
	if !snap.IsRunning() {
		end = snap.LastUpdated
	}
	return end.Sub(snap.StartedAt).Truncate(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
