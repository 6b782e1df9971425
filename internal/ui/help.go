package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := newSurface(m.theme.FocusBg)
	modalWidth := 44
	innerWidth := modalWidth - 6

	var lines []string
	lines = append(lines, bg.Render("Keyboard Shortcuts", styles.Text.Bold(true)))
	lines = append(lines, bg.Render(strings.Repeat("─", 30), styles.FaintText))
	lines = append(lines, "")

	for i, section := range m.helpSections() {
		lines = append(lines, bg.Render(section.title, styles.AccentText.Bold(true)))
		for _, item := range section.items {
			keyCol := bg.Render(padRight(item.key, 12), styles.WarningText)
			lines = append(lines, keyCol+bg.Render(item.desc, styles.Text))
		}
		if i < len(m.keys.FullHelp())-1 {
			lines = append(lines, "")
		}
	}

	for i, line := range lines {
		lines[i] = bg.FillLine(line, innerWidth)
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		BorderBackground(lipgloss.Color(m.theme.FocusBg)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(strings.Join(lines, "\n")),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// helpSections groups the enabled key bindings under their titles.
func (m Model) helpSections() []helpSection {
	groups := m.keys.FullHelp()
	sections := make([]helpSection, 0, len(groups))
	for i, group := range groups {
		title := ""
		if i < len(helpSectionTitles) {
			title = helpSectionTitles[i]
		}
		sections = append(sections, helpSection{title: title, items: helpItems(group)})
	}
	return sections
}

func helpItems(bindings []key.Binding) []helpItem {
	items := make([]helpItem, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		items = append(items, helpItem{key: h.Key, desc: h.Desc})
	}
	return items
}
