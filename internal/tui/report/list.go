// Package report is the findings browser: a Bubbletea screen stack that
// renders a finished engine.ProcessReport the way the root menu browses
// servers — a scrollable list with a pushed detail view per selection.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memsieve/pescan/internal/engine"
)

type listKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Help, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Select, k.Help, k.Quit},
	}
}

// ListScreen is the top-level finding list.
type ListScreen struct {
	keys     listKeyMap
	help     help.Model
	report   *engine.ProcessReport
	findings []engine.Finding
	cursor   int
	width    int
	height   int
}

// NewListScreen builds the root screen over report.
func NewListScreen(rep *engine.ProcessReport) ListScreen {
	return ListScreen{
		keys: listKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
			Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
			Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		help:     help.New(),
		report:   rep,
		findings: rep.Findings(),
	}
}

func (m ListScreen) Init() tea.Cmd { return nil }

func (m ListScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.findings)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.findings) > 0 {
				return m, pushScreen(NewDetailScreen(m.findings[m.cursor]))
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ListScreen) View() string {
	var b strings.Builder

	s := m.report.Summary
	b.WriteString(fmt.Sprintf("  pid %d — scanned %d, replaced %d, hooked %d, implanted %d\n\n",
		m.report.PID, s.Scanned, s.Replaced, s.Hooked, s.Implanted))

	if len(m.findings) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render("  No findings.\n"))
	}
	for i, f := range m.findings {
		line := "  " + describeFinding(f)
		style := lipgloss.NewStyle().Foreground(statusColor(f.Status().String()))
		if i == m.cursor {
			style = style.Bold(true)
			line = "> " + strings.TrimPrefix(line, "  ")
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func describeFinding(f engine.Finding) string {
	switch v := f.(type) {
	case engine.HeadersScan:
		return fmt.Sprintf("[%s] headers  %s", v.Status(), v.ModulePath)
	case engine.CodeScan:
		return fmt.Sprintf("[%s] code     %s (%d diffs)", v.Status(), v.ModulePath, len(v.Modifications))
	case engine.MemPageScan:
		return fmt.Sprintf("[%s] page     0x%x", v.Status(), v.Base)
	case engine.UnreachableModule:
		return fmt.Sprintf("[%s] unreach  %s", v.Status(), v.ModulePath)
	default:
		return fmt.Sprintf("[%s] finding", f.Status())
	}
}
