// Package tui is the interactive shell around the RAG pipeline: a query
// input, an answer viewport, and nothing else. All pipeline work happens
// behind the worker pool.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pandadocs/rag-assistant/config"
	"github.com/pandadocs/rag-assistant/rag"
)

type answerMsg rag.TaskResult

// Styles bundles the theme-dependent lipgloss styles.
type Styles struct {
	Header lipgloss.Style
	Answer lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

func newStyles(theme string) Styles {
	accent := lipgloss.Color("63")
	text := lipgloss.Color("235")
	if theme == config.ThemeDark {
		text = lipgloss.Color("252")
	}
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Answer: lipgloss.NewStyle().Foreground(text),
		Status: lipgloss.NewStyle().Faint(true),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
	}
}

// Model is the Bubble Tea model for the assistant shell.
type Model struct {
	pool    *rag.Pool
	session *rag.Session

	input    textinput.Model
	viewport viewport.Model
	styles   Styles

	answer string
	status string
	ready  bool
}

func New(pool *rag.Pool, theme string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		pool:     pool,
		session:  rag.NewSession(),
		input:    ti,
		viewport: viewport.New(0, 0),
		styles:   newStyles(theme),
		status:   "Ready.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			ch, err := m.pool.Submit(context.Background(), m.session, query)
			if err != nil {
				if errors.Is(err, rag.ErrBusy) {
					m.status = "Still answering the previous question..."
				} else {
					m.status = err.Error()
				}
				return m, nil
			}
			m.status = "Thinking..."
			m.input.Reset()
			return m, func() tea.Msg { return answerMsg(<-ch) }
		}

	case answerMsg:
		if msg.Err != nil {
			m.answer = m.styles.Error.Render(msg.Err.Error())
		} else {
			m.answer = msg.Answer
		}
		m.status = "Ready."
		m.viewport.SetContent(m.styles.Answer.Render(m.answer))
		m.viewport.GotoTop()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("RAG Assistant"))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Status.Render(m.status))
	return sb.String()
}
