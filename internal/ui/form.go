package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/five82/foilwatch/internal/optimizer"
)

const (
	fieldSolution = iota
	fieldVelocity
	fieldCount
)

// jobForm collects a solution type and a velocity before submission.
type jobForm struct {
	focus    int
	typeIdx  int
	velocity textinput.Model
	err      string
}

func newJobForm(initial optimizer.JobRequest) jobForm {
	ti := textinput.New()
	ti.Placeholder = "velocity"
	ti.CharLimit = 5
	ti.Width = 8
	ti.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}
	if initial.Velocity > 0 {
		ti.SetValue(strconv.Itoa(initial.Velocity))
	}

	idx := lo.IndexOf(optimizer.SolutionTypes(), initial.SolutionType)
	if idx < 0 {
		idx = 0
	}
	return jobForm{typeIdx: idx, velocity: ti}
}

func (f *jobForm) focusCmd() tea.Cmd {
	if f.focus == fieldVelocity {
		return f.velocity.Focus()
	}
	f.velocity.Blur()
	return nil
}

func (f *jobForm) moveFocus(delta int) tea.Cmd {
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.focusCmd()
}

func (f *jobForm) cycleType(delta int) {
	types := optimizer.SolutionTypes()
	f.typeIdx = (f.typeIdx + delta + len(types)) % len(types)
}

func (f jobForm) solutionType() optimizer.SolutionType {
	return optimizer.SolutionTypes()[f.typeIdx]
}

// request validates the form and returns the job to submit.
func (f jobForm) request() (optimizer.JobRequest, error) {
	raw := strings.TrimSpace(f.velocity.Value())
	if raw == "" {
		return optimizer.JobRequest{}, fmt.Errorf("velocity is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return optimizer.JobRequest{}, fmt.Errorf("velocity must be a whole number")
	}
	req := optimizer.JobRequest{SolutionType: f.solutionType(), Velocity: v}
	if err := req.Validate(); err != nil {
		return optimizer.JobRequest{}, err
	}
	return req, nil
}

// handleFormKey processes keyboard input while the job form is open.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.showForm = false
		m.form.velocity.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		req, err := m.form.request()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		if m.busy != "" {
			m.form.err = "wait for the previous request to finish"
			return m, nil
		}
		m.showForm = false
		m.form.velocity.Blur()
		return m.submit(req)

	case key.Matches(msg, m.keys.NextField):
		cmd := m.form.moveFocus(1)
		return m, cmd

	case key.Matches(msg, m.keys.PrevField):
		cmd := m.form.moveFocus(-1)
		return m, cmd
	}

	if m.form.focus == fieldSolution {
		switch {
		case key.Matches(msg, m.keys.PrevType):
			m.form.cycleType(-1)
		case key.Matches(msg, m.keys.NextType):
			m.form.cycleType(1)
		default:
			if t, err := optimizer.ParseSolutionType(msg.String()); err == nil {
				m.form.typeIdx = lo.IndexOf(optimizer.SolutionTypes(), t)
			}
		}
		m.form.err = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.form.velocity, cmd = m.form.velocity.Update(msg)
	m.form.err = ""
	return m, cmd
}

// renderForm renders the job form as a centred modal.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New optimisation job"))
	b.WriteString("\n\n")

	label := styles.MutedText.Width(11)
	if m.form.focus == fieldSolution {
		label = focused.Width(11)
	}
	b.WriteString(label.Render("Solution"))
	for i, t := range optimizer.SolutionTypes() {
		name := fmt.Sprintf(" %d %s ", int(t), t)
		if i == m.form.typeIdx {
			b.WriteString(styles.PhaseStyle("polling").Render(strings.TrimSpace(name)))
		} else {
			b.WriteString(styles.FaintText.Render(name))
		}
	}
	b.WriteString("\n\n")

	label = styles.MutedText.Width(11)
	if m.form.focus == fieldVelocity {
		label = focused.Width(11)
	}
	b.WriteString(label.Render("Velocity"))
	b.WriteString(m.form.velocity.View())
	b.WriteString("\n\n")

	if m.form.err != "" {
		b.WriteString(styles.DangerText.Render(m.form.err))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("tab switch field • ←/→ or 1-3 solution • enter submit • esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
