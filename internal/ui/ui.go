// Package ui is the interactive chat surface: a Bubble Tea program that feeds
// user input to the agent and renders its markdown answers.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hualet/deepin-term-agent/internal/agent"
	"github.com/hualet/deepin-term-agent/internal/registry"
)

type chatMessage struct {
	role    string // "user" | "assistant" | "system"
	content string
}

type turnDoneMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	agent    *agent.Agent
	registry *registry.Registry

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *markdownRenderer

	messages []chatMessage
	busy     bool
	ready    bool
	width    int
	height   int
}

func New(a *agent.Agent, reg *registry.Registry) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something, or /help"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		agent:    a,
		registry: reg,
		input:    ti,
		spin:     sp,
		renderer: newMarkdownRenderer(80),
		messages: []chatMessage{{role: "system", content: "Connected. Type a request or /help."}},
	}
}

// Run starts the interactive program and blocks until the user quits.
func Run(a *agent.Agent, reg *registry.Registry) error {
	_, err := tea.NewProgram(New(a, reg), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve rows for the input line and status bar.
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.renderer = newMarkdownRenderer(msg.Width - 2)
		m.ready = true
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case turnDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.append("system", "error: "+msg.err.Error())
		} else {
			m.append("assistant", msg.answer)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy {
			return m, nil
		}
		m.input.SetValue("")
		if strings.HasPrefix(text, "/") {
			return m.handleCommand(text)
		}
		m.append("user", text)
		m.busy = true
		return m, tea.Batch(m.spin.Tick, m.runTurn(text))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.Fields(input)[0] {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		m.agent.Reset()
		m.messages = m.messages[:0]
		m.append("system", "Conversation cleared.")
	case "/tools":
		m.append("system", m.toolListing())
	case "/servers":
		m.append("system", m.serverListing())
	case "/help":
		m.append("system", helpText)
	default:
		m.append("system", fmt.Sprintf("Unknown command %q. Try /help.", input))
	}
	return m, nil
}

func (m *Model) runTurn(text string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.agent.RunTurn(context.Background(), text)
		return turnDoneMsg{answer: answer, err: err}
	}
}

func (m *Model) toolListing() string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, desc := range m.agent.Router().ListTools() {
		origin := "builtin"
		if desc.Source.Server != "" {
			origin = desc.Source.Server
		}
		fmt.Fprintf(&sb, "- **%s** (%s): %s\n", desc.Name, origin, desc.Description)
	}
	return sb.String()
}

func (m *Model) serverListing() string {
	conns := m.registry.Connections()
	if len(conns) == 0 {
		return "No MCP servers configured."
	}
	var sb strings.Builder
	sb.WriteString("MCP servers:\n")
	for _, conn := range conns {
		fmt.Fprintf(&sb, "- **%s** %s (%s, %d tools)\n",
			conn.ID, conn.Endpoint, conn.State(), len(conn.Tools()))
	}
	return sb.String()
}

func (m *Model) append(role, content string) {
	m.messages = append(m.messages, chatMessage{role: role, content: content})
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

const helpText = `Commands:
- /tools — list available tools
- /servers — list MCP server connections
- /clear — reset the conversation
- /quit — exit`
