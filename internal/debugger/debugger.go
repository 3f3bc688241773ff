package debugger

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tnnz/nesgo/console"
)

// Run starts the processor loop on a background goroutine under the
// debugger's control and blocks running the Bubble Tea program until
// the user quits.
func Run(bus *console.Bus) error {
	runner := NewRunner(bus)
	stop := make(chan struct{})
	go runner.Loop(stop)
	defer close(stop)

	_, err := tea.NewProgram(New(runner.Commands())).Run()
	return err
}
