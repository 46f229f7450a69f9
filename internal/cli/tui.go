package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/rooted/internal/ui"
	"github.com/tgienger/rooted/internal/ui/views"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the dashboard",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	app := ui.NewApp(views.Backend{DB: a.db, Engine: a.engine, Planner: a.planner, Clock: a.clock})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
