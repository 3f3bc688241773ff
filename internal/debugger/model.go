package debugger

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

const pageWidth = 16

// Model is the Bubble Tea model driving the debugger's view. It never
// touches the console directly; every state change goes through the
// Runner's command channel so the two goroutines never race on
// processor state.
type Model struct {
	commands chan<- Command
	last     Response
	history  []string
	err      error
}

// New builds a debugger model that issues commands on commands.
func New(commands chan<- Command) Model {
	return Model{commands: commands}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) send(kind CommandKind) Response {
	reply := make(chan Response, 1)
	m.commands <- Command{Kind: kind, Reply: reply}
	return <-reply
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "s":
			resp := m.send(CmdStep)
			m.last = resp
			if resp.TraceLine != "" {
				m.history = append(m.history, resp.TraceLine)
				if len(m.history) > 200 {
					m.history = m.history[len(m.history)-200:]
				}
			}
		case "r":
			m.last = m.send(CmdRun)
		case "p":
			m.last = m.send(CmdPause)
		case "R":
			m.last = m.send(CmdReset)
			m.history = nil
		}
	}
	return m, nil
}

func (m Model) status() string {
	r := m.last
	const bits = "NV_BDIZC"
	var flags strings.Builder
	for i := 0; i < 8; i++ {
		if r.Status&(1<<uint(7-i)) != 0 {
			flags.WriteByte(bits[i])
		} else {
			flags.WriteByte('.')
		}
	}
	state := "stopped"
	if r.Running {
		state = "running"
	}
	return fmt.Sprintf(
		"PC: %04X\nA:  %02X\nX:  %02X\nY:  %02X\nSP: %02X\nP:  %s\n\n%s\nbreakpoints: %v",
		r.PC, r.A, r.X, r.Y, r.SP, flags.String(), state, r.Breakpts,
	)
}

func (m Model) scrollback() string {
	if len(m.history) == 0 {
		return "(press space or s to step, r to run, p to pause, R to reset, q to quit)"
	}
	start := 0
	if len(m.history) > 20 {
		start = len(m.history) - 20
	}
	return strings.Join(m.history[start:], "\n")
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			lipgloss.NewStyle().Padding(0, 2, 0, 0).Render(m.scrollback()),
			m.status(),
		),
		"",
		spew.Sdump(m.last),
	)
}
