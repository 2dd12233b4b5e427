package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5"))
	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// markdownRenderer renders assistant replies as terminal markdown, falling
// back to the raw text when rendering fails.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(width int) *markdownRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{renderer: r}
}

func (r *markdownRenderer) Render(markdown string) string {
	if r.renderer == nil {
		return markdown
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}

func (m *Model) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userStyle.Render("> " + msg.content))
		case "system":
			sb.WriteString(systemStyle.Render(m.renderer.Render(msg.content)))
		default:
			sb.WriteString(m.renderer.Render(msg.content))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	status := ""
	if m.busy {
		status = statusStyle.Render(m.spin.View() + " thinking")
	}

	return m.viewport.View() + "\n" +
		status + "\n" +
		inputBoxStyle.Width(m.width-2).Render(m.input.View())
}
