package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/watch"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	content := m.buildStatusContent(styles, bg)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg surface) string {
	compact := m.width < 100
	snap := m.snapshot

	var parts []string

	parts = append(parts, bg.Render("foilwatch", styles.Logo))

	apiBase := m.apiBase
	if compact {
		apiBase = truncateMiddle(apiBase, 24)
	}
	parts = append(parts, bg.Render(apiBase, styles.MutedText))

	phase := "idle"
	if snap.HasSession {
		phase = snap.Phase.String()
	}
	parts = append(parts, styles.PhaseStyle(phase).Render(strings.ToUpper(phase)))

	if snap.HasSession {
		parts = append(parts,
			bg.Render("Points:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", len(snap.Points)), styles.Text),
		)
	}

	if m.busy != "" {
		parts = append(parts, bg.Render(m.busy+"...", styles.WarningText.Bold(true)))
	}

	if timeStr := m.formatTimestamp(); timeStr != "" {
		parts = append(parts, bg.Render(timeStr, styles.MutedText))
	}

	if snap.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		errText := truncate(snap.LastError.Error(), maxErr)
		parts = append(parts,
			bg.Render(classifyConnectionError(snap.LastError), styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(errText, styles.DangerText),
		)
	} else if m.notice != "" {
		parts = append(parts, bg.Render(truncate(m.notice, 60), styles.InfoText))
	}

	return strings.Join(parts, bg.Pad(2))
}

// formatTimestamp formats the last snapshot update with a relative indicator.
func (m Model) formatTimestamp() string {
	updated := m.snapshot.LastUpdated
	if updated.IsZero() {
		return ""
	}

	timeSince := time.Since(updated)
	timeStr := updated.Format("15:04:05")

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// classifyConnectionError returns a short label for the error badge.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var classErr *optimizer.ClassificationError
	var sinkErr *watch.SinkError
	msg := err.Error()
	switch {
	case errors.As(err, &classErr), errors.Is(err, watch.ErrOutOfOrder):
		return "BAD RESPONSE"
	case errors.As(err, &sinkErr):
		return "SINK"
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"j/k", "Scroll"},
			{"s", "Session"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"n", "New job"},
		}
		if m.lastRequest != nil {
			commands = append(commands, cmd{"r", "Run again"})
		}
		if m.snapshot.IsRunning() {
			commands = append(commands, cmd{"x", "Stop"})
		}
		commands = append(commands,
			cmd{"l", "Logs"},
			cmd{"?", "More"},
		)
	}

	colon := bg.Text(":")
	sep := bg.Pad(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLogs && m.logState.searchQuery != "" {
		pattern := truncate(m.logState.searchQuery, 18)
		segments = append(segments,
			bg.Render("/"+pattern, styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
