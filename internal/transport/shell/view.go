package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 0, 1, 0)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	outputBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)
)

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("=== Medical Appointment Scheduler ==="))
	b.WriteString("\n")

	if len(m.output) > 0 {
		b.WriteString(outputBox.Render(m.renderOutput()))
		b.WriteString("\n\n")
	}

	switch m.mode {
	case modePrompt:
		b.WriteString(m.viewPrompt())
	default:
		b.WriteString(m.viewMenu())
	}
	return b.String()
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Menu:"))
	b.WriteString("\n")
	for i, item := range menuItems {
		line := fmt.Sprintf("%d. %s", i+1, item.label)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑/↓ or 1-9 to choose • enter to select • ctrl+c to quit"))
	return b.String()
}

func (m *Model) viewPrompt() string {
	f := m.form
	if f == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d/%d)", f.title, f.step+1, len(f.prompts))))
	b.WriteString("\n")
	for i := 0; i < f.step; i++ {
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s: %s", f.prompts[i].label, f.text[i])))
		b.WriteString("\n")
	}
	b.WriteString(f.current().label + ":\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("enter to confirm • type 'cancel' or press esc to return to the menu"))
	return b.String()
}

func (m *Model) renderOutput() string {
	lines := make([]string, 0, len(m.output))
	for _, l := range m.output {
		switch l.kind {
		case outputHeader:
			lines = append(lines, headerStyle.Render(l.text))
		case outputSuccess:
			lines = append(lines, successStyle.Render(l.text))
		case outputError:
			lines = append(lines, errorStyle.Render(l.text))
		default:
			lines = append(lines, l.text)
		}
	}
	return strings.Join(lines, "\n")
}
