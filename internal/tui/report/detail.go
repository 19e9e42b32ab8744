package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memsieve/pescan/internal/engine"
)

// DetailScreen renders every field of one finding.
type DetailScreen struct {
	finding engine.Finding
	back    key.Binding
	quit    key.Binding
}

// NewDetailScreen builds a detail view over f.
func NewDetailScreen(f engine.Finding) DetailScreen {
	return DetailScreen{
		finding: f,
		back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (m DetailScreen) Init() tea.Cmd { return nil }

func (m DetailScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, m.back):
			return m, popScreen()
		case key.Matches(k, m.quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m DetailScreen) View() string {
	var b strings.Builder
	style := lipgloss.NewStyle().Foreground(statusColor(m.finding.Status().String())).Bold(true)
	b.WriteString(style.Render(fmt.Sprintf("  %s\n\n", m.finding.Status())))

	switch v := m.finding.(type) {
	case engine.HeadersScan:
		fmt.Fprintf(&b, "  module        %s\n", v.ModulePath)
		fmt.Fprintf(&b, "  handle        0x%x\n", v.Module)
		fmt.Fprintf(&b, "  arch mismatch %v\n", v.ArchMismatch)
	case engine.CodeScan:
		fmt.Fprintf(&b, "  module        %s\n", v.ModulePath)
		fmt.Fprintf(&b, "  handle        0x%x\n", v.Module)
		fmt.Fprintf(&b, "  modifications %d\n", len(v.Modifications))
		for i, mod := range v.Modifications {
			if i >= 16 {
				fmt.Fprintf(&b, "  ... %d more\n", len(v.Modifications)-16)
				break
			}
			fmt.Fprintf(&b, "    +0x%-4x  remote=0x%02x  original=0x%02x\n", mod.Offset, mod.Remote, mod.Original)
		}
	case engine.MemPageScan:
		fmt.Fprintf(&b, "  base          0x%x\n", v.Base)
		fmt.Fprintf(&b, "  executable    %v\n", v.IsExecutable)
		fmt.Fprintf(&b, "  manual load   %v\n", v.IsManuallyLoaded)
		fmt.Fprintf(&b, "  protection    0x%x\n", v.Protection)
	case engine.UnreachableModule:
		fmt.Fprintf(&b, "  module        %s\n", v.ModulePath)
		fmt.Fprintf(&b, "  handle        0x%x\n", v.Module)
	}

	b.WriteString("\n  esc back  •  q quit\n")
	return b.String()
}
