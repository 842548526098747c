package ui

import (
	"context"
	"crafthost/internal/app"
	"crafthost/internal/backup"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type snapshotItem struct {
	name string
	desc string
}

func (i snapshotItem) FilterValue() string { return i.name }
func (i snapshotItem) Title() string       { return i.name }
func (i snapshotItem) Description() string { return i.desc }

type backupsLoadedMsg []list.Item

type BackupsModel struct {
	container *app.Container
	list      list.Model
	confirm   string
	message   string
	err       error
	back      bool
	busy      bool
	width     int
	height    int
}

func NewBackupsModel(c *app.Container) BackupsModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Snapshots"
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	return BackupsModel{container: c, list: l}
}

func (m BackupsModel) Init() tea.Cmd {
	return loadBackups(m.container)
}

func (m BackupsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-8, msg.Height-10)
		return m, nil

	case backupsLoadedMsg:
		m.list.SetItems(msg)
		return m, nil

	case actionMsg:
		m.busy = false
		m.message = string(msg)
		m.err = nil
		return m, tea.Batch(loadBackups(m.container), clearMessageCmd())

	case errMsg:
		m.busy = false
		m.err = msg
		m.message = ""
		return m, clearMessageCmd()

	case clearMessageMsg:
		m.message = ""
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		if m.confirm != "" {
			name := m.confirm
			m.confirm = ""
			if msg.String() == "y" {
				m.busy = true
				return m, restoreBackup(m.container, name)
			}
			return m, nil
		}

		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c":
			m.back = false
			return m, tea.Quit
		case "esc", "q":
			m.back = true
			return m, tea.Quit
		}

		if m.busy {
			return m, nil
		}

		switch msg.String() {
		case "c":
			m.busy = true
			return m, createBackup(m.container)
		case "r":
			if i, ok := m.list.SelectedItem().(snapshotItem); ok {
				if _, running := m.container.ServerRunning(); running {
					m.err = errors.New("stop the server before restoring")
					return m, clearMessageCmd()
				}
				m.confirm = i.name
			}
			return m, nil
		case "e":
			if i, ok := m.list.SelectedItem().(snapshotItem); ok {
				m.busy = true
				return m, exportBackup(m.container, i.name)
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BackupsModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Width(m.width).Render("BACKUPS")

	body := m.list.View()
	if m.confirm != "" {
		body = lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("Restore %s?\n\nThe current world will be deleted and replaced.\n\n%s",
				m.confirm, keyHelp("y", "restore", "any key", "cancel")))
	}
	mainBox := baseStyle.Width(m.width - 4).Render(body)

	msg := ""
	switch {
	case m.busy:
		msg = messageStyle.Render("Working...")
	case m.err != nil:
		msg = errorStyle.Render("Error: " + m.err.Error())
	case m.message != "":
		msg = messageStyle.Render(m.message)
	}

	footer := footerStyle.Width(m.width - 4).Render(
		keyHelp("c", "create", "r", "restore", "e", "export zip", "/", "filter", "esc", "back"))

	return lipgloss.JoinVertical(lipgloss.Left, title, mainBox, msg, footer)
}

// RunBackups reports whether the user went back to the dashboard.
func RunBackups(c *app.Container) bool {
	p := tea.NewProgram(NewBackupsModel(c), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Printf("Error running backups view: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(BackupsModel); ok {
		return m.back
	}
	return false
}

func loadBackups(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		names, err := c.BackupManager.ListBackups()
		if err != nil {
			return errMsg(err)
		}

		items := make([]list.Item, 0, len(names))
		for _, name := range backup.SortNewestFirst(names) {
			desc := ""
			if info, err := c.BackupManager.Info(name); err == nil {
				desc = fmt.Sprintf("%s • %s", info.CreatedAt.Format("2006-01-02 15:04:05"), formatBytesShort(info.Size))
			}
			items = append(items, snapshotItem{name: name, desc: desc})
		}
		return backupsLoadedMsg(items)
	}
}

func createBackup(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.BackupManager.CreateBackup()
		if err != nil {
			return errMsg(err)
		}
		if snap == nil {
			return actionMsg("No world to back up")
		}
		return actionMsg("Created " + snap.Name)
	}
}

func restoreBackup(c *app.Container, name string) tea.Cmd {
	return func() tea.Msg {
		if err := c.BackupManager.RestoreBackup(name); err != nil {
			return errMsg(err)
		}
		return actionMsg("Restored " + name)
	}
}

func exportBackup(c *app.Container, name string) tea.Cmd {
	return func() tea.Msg {
		dest := filepath.Join(c.Layout.BackupsPath(), name+".zip")
		if err := c.BackupManager.ExportBackup(context.Background(), name, dest, nil); err != nil {
			return errMsg(err)
		}
		return actionMsg("Exported to " + dest)
	}
}
