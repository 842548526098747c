package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type item string

func (i item) FilterValue() string { return string(i) }
func (i item) Title() string       { return string(i) }
func (i item) Description() string { return "" }

type errMsg error
type tickMsg time.Time
type clearMessageMsg struct{}

// actionMsg is a one-line result shown in the footer.
type actionMsg string

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearMessageCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}
