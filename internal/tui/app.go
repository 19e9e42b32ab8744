// Package tui hosts pescan's interactive findings browser: a Bubbletea
// screen stack, adapted from the same wizard/menu app shape used
// elsewhere in this project's CLI, specialized down to one root screen
// (the finding list) plus pushed detail screens.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/memsieve/pescan/internal/engine"
	"github.com/memsieve/pescan/internal/tui/report"
)

// App is the top-level Bubbletea model holding a screen stack.
type App struct {
	stack  []tea.Model
	width  int
	height int
}

// NewApp creates a new App rooted at the finding list for rep.
func NewApp(rep *engine.ProcessReport) App {
	return App{
		stack: []tea.Model{report.NewListScreen(rep)},
	}
}

func (a App) Init() tea.Cmd {
	if len(a.stack) > 0 {
		return a.stack[len(a.stack)-1].Init()
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		for i, s := range a.stack {
			updated, _ := s.Update(msg)
			a.stack[i] = updated
		}
		return a, nil

	case report.PushScreenMsg:
		a.stack = append(a.stack, msg.Screen)
		sized, cmd := msg.Screen.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		a.stack[len(a.stack)-1] = sized
		initCmd := a.stack[len(a.stack)-1].Init()
		return a, tea.Batch(cmd, initCmd)

	case report.PopScreenMsg:
		if len(a.stack) <= 1 {
			return a, tea.Quit
		}
		a.stack = a.stack[:len(a.stack)-1]
		return a, nil

	case tea.KeyMsg:
		if len(a.stack) == 1 {
			switch msg.String() {
			case "ctrl+c":
				return a, tea.Quit
			}
		}
	}

	if len(a.stack) > 0 {
		active := a.stack[len(a.stack)-1]
		updated, cmd := active.Update(msg)
		a.stack[len(a.stack)-1] = updated
		return a, cmd
	}

	return a, nil
}

func (a App) View() string {
	if len(a.stack) > 0 {
		return a.stack[len(a.stack)-1].View()
	}
	return ""
}

// StackLen returns the number of screens on the stack (for testing).
func (a App) StackLen() int {
	return len(a.stack)
}
