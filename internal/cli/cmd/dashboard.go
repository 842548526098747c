package cmd

import (
	"crafthost/internal/cli/ui"
)

func RunDashboard() {
	console := ui.NewConsoleBuffer(500)
	for {
		next := ui.RunDashboard(Container, console)
		if next != ui.ViewBackups {
			break
		}
		if back := ui.RunBackups(Container); !back {
			break
		}
	}
}
