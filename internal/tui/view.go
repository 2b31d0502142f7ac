package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Faint(true)
	selectedStyle  = lipgloss.NewStyle().Reverse(true)
	overrideStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

const listHelp = "tab category  enter edit  a add  m modifier  d remove  r reset  R reset category  ctrl+s save  esc cancel"

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", m.sess.ObjectName(), m.sess.Kind())))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.mode {
	case modeError:
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
		b.WriteString(statusStyle.Render("press any key to continue"))
	case modeAddBasic:
		b.WriteString("add basic value:\n")
		b.WriteString(m.renderPicker())
	case modeAddModifier:
		target := variable.Targets()[m.targetIdx]
		b.WriteString(fmt.Sprintf("add modifier (target %s, left/right to change):\n", target))
		b.WriteString(m.renderPicker())
	default:
		b.WriteString(m.renderEntries())
		b.WriteString("\n")
		if m.mode == modeEditValue {
			b.WriteString(fmt.Sprintf("new value: %s_\n", m.input))
		} else if m.status != "" {
			b.WriteString(statusStyle.Render(m.status))
			b.WriteString("\n")
		}
		b.WriteString(statusStyle.Render(listHelp))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, len(m.sess.Set().Categories()))
	for _, c := range m.sess.Set().Categories() {
		if c == m.sess.Set().Active() {
			parts = append(parts, activeTabStyle.Render(c.String()))
		} else {
			parts = append(parts, tabStyle.Render(c.String()))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderEntries() string {
	if len(m.entries) == 0 {
		return statusStyle.Render("no values set")
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %-24s %-8s %10s %10s\n", "variable", "target", "current", "default"))
	for i, e := range m.entries {
		target := ""
		if e.Target != nil {
			target = e.Target.String()
		}
		line := fmt.Sprintf("  %-24s %-8s %10s %10s", e.ID, target, e.CurrentText(), e.DefaultText())
		if e.HasDefault && e.Current != e.Default {
			line = overrideStyle.Render(line)
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPicker() string {
	var b strings.Builder
	for i, id := range m.pickIDs {
		line := "  " + id
		if i == m.pickCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
