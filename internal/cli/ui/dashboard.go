package ui

import (
	"crafthost/internal/app"
	"crafthost/internal/domain"
	"crafthost/internal/firewall"
	"crafthost/internal/runner"
	"crafthost/internal/updater"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// View is the screen the dashboard hands control to when it exits.
type View int

const (
	ViewQuit View = iota
	ViewBackups
)

type sessionState int

const (
	stateMain sessionState = iota
	stateProvision
)

type consoleMsg struct{}

type statusMsg struct {
	inst  *domain.Installation
	state runner.State
	stats *domain.ServerStats
}

type DashboardModel struct {
	container    *app.Container
	console      *ConsoleBuffer
	viewport     viewport.Model
	input        textinput.Model
	provisioning ProvisionModel
	state        sessionState
	inst         *domain.Installation
	serverState  runner.State
	stats        *domain.ServerStats
	message      string
	err          error
	next         View
	width        int
	height       int
}

func NewDashboardModel(c *app.Container, console *ConsoleBuffer) DashboardModel {
	ti := textinput.New()
	ti.Placeholder = "server command (e.g. say hello)"
	ti.Prompt = "> "
	ti.CharLimit = 256

	vp := viewport.New(80, 10)

	return DashboardModel{
		container: c,
		console:   console,
		viewport:  vp,
		input:     ti,
		next:      ViewQuit,
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(refreshStatus(m.container), waitForConsole(m.console), tickCmd())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = max(msg.Height-16, 3)
		m.input.Width = msg.Width - 10
		m.refreshConsole()
		if m.state == stateProvision {
			m.provisioning, cmd = m.provisioning.Update(msg)
			return m, cmd
		}
		return m, nil

	case consoleMsg:
		m.refreshConsole()
		return m, waitForConsole(m.console)

	case tickMsg:
		return m, tea.Batch(refreshStatus(m.container), tickCmd())

	case statusMsg:
		m.inst = msg.inst
		m.serverState = msg.state
		m.stats = msg.stats
		return m, nil

	case ProvisionDoneMsg:
		m.state = stateMain
		m.inst = msg.Installation
		return m, func() tea.Msg {
			return actionMsg(fmt.Sprintf("Provisioned %s build %d", msg.Installation.Version, msg.Installation.Build))
		}

	case ProvisionCancelMsg:
		m.state = stateMain
		return m, refreshStatus(m.container)
	}

	if m.state == stateProvision {
		m.provisioning, cmd = m.provisioning.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case actionMsg:
		m.message = string(msg)
		m.err = nil
		return m, tea.Batch(refreshStatus(m.container), clearMessageCmd())

	case errMsg:
		m.err = msg
		m.message = ""
		return m, clearMessageCmd()

	case clearMessageMsg:
		m.message = ""
		m.err = nil
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.input.Focused() {
		switch key.Type {
		case tea.KeyEsc:
			m.input.Blur()
			return m, nil
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			return m, sendCommand(m.container, m.console, line)
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "q", "ctrl+c":
		m.next = ViewQuit
		return m, tea.Quit
	case "b":
		m.next = ViewBackups
		return m, tea.Quit
	case "/":
		m.input.Focus()
		return m, textinput.Blink
	case "s":
		return m, startServer(m.container, m.console)
	case "x":
		return m, stopServer(m.container)
	case "p":
		if _, running := m.container.ServerRunning(); running {
			return m, func() tea.Msg { return errMsg(errors.New("stop the server before provisioning")) }
		}
		m.state = stateProvision
		m.provisioning = NewProvisionModel(m.container, m.width, m.height)
		return m, m.provisioning.Init()
	case "e":
		return m, acceptEULA(m.container)
	case "f":
		return m, openFirewall(m.container)
	case "u":
		return m, checkUpdates(m.container, m.inst)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DashboardModel) refreshConsole() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.console.Lines(), "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m DashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.state == stateProvision {
		return m.provisioning.View()
	}

	title := headerStyle.Width(m.width).Render("CRAFTHOST")

	status := m.statusLine()
	statusBox := baseStyle.Width(m.width - 4).Render(status)

	consoleBox := baseStyle.Width(m.width - 4).Render(m.viewport.View() + "\n" + m.input.View())

	help := keyHelp("s", "start", "x", "stop", "p", "provision", "b", "backups",
		"e", "eula", "f", "firewall", "u", "update", "/", "command", "q", "quit")
	footer := footerStyle.Width(m.width - 4).Render(help)

	msg := ""
	if m.err != nil {
		msg = errorStyle.Render("Error: " + m.err.Error())
	} else if m.message != "" {
		msg = messageStyle.Render(m.message)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, statusBox, consoleBox, msg, footer)
}

func (m DashboardModel) statusLine() string {
	var b strings.Builder

	if m.inst == nil {
		b.WriteString(labelStyle.Render("Server") + subHeaderStyle.Render("not provisioned (press p)") + "\n")
	} else {
		b.WriteString(labelStyle.Render("Server") + fmt.Sprintf("%s %s build %d\n", m.inst.Project, m.inst.Version, m.inst.Build))
		java := "java (PATH)"
		if m.inst.JavaPath != "" {
			java = fmt.Sprintf("Java %d", m.inst.JavaMajor)
		}
		b.WriteString(labelStyle.Render("Runtime") + fmt.Sprintf("%s • %d-%d MB\n", java, m.inst.MinHeapMB, m.inst.MaxHeapMB))
	}

	b.WriteString(labelStyle.Render("Dir") + m.container.Layout.Root + "\n")
	b.WriteString(labelStyle.Render("Port") + fmt.Sprintf("%d", m.container.Layout.Port()))
	if !m.container.Layout.EULAAccepted() {
		b.WriteString(errorStyle.Render("  eula not accepted"))
	}
	b.WriteString("\n")

	stateText := m.serverState.String()
	switch m.serverState {
	case runner.StateRunning:
		stateText = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(stateText)
	case runner.StateStarting:
		stateText = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(stateText)
	default:
		stateText = descStyle.Render(stateText)
	}
	b.WriteString(labelStyle.Render("State") + stateText)
	if m.stats != nil {
		b.WriteString(fmt.Sprintf("  CPU %.1f%% • RAM %s • up %s",
			m.stats.CPU, formatBytesShort(int64(m.stats.RAM)), m.stats.Uptime.Truncate(time.Second)))
	}

	return b.String()
}

// RunDashboard blocks until the user quits or switches screen.
func RunDashboard(c *app.Container, console *ConsoleBuffer) View {
	p := tea.NewProgram(NewDashboardModel(c, console), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		fmt.Printf("Error running dashboard: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(DashboardModel); ok {
		return m.next
	}
	return ViewQuit
}

func waitForConsole(console *ConsoleBuffer) tea.Cmd {
	return func() tea.Msg {
		<-console.Updated()
		return consoleMsg{}
	}
}

func refreshStatus(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		inst, err := c.Provisioner.Installation()
		if err != nil {
			c.Logger.Warn("could not load installation", zap.Error(err))
		}
		msg := statusMsg{inst: inst, state: c.Supervisor.State()}
		if msg.state == runner.StateRunning {
			if stats, err := c.Supervisor.Stats(); err == nil {
				msg.stats = &stats
			}
		}
		return msg
	}
}

func startServer(c *app.Container, console *ConsoleBuffer) tea.Cmd {
	return func() tea.Msg {
		instance, err := c.StartServer(console)
		if err != nil {
			return errMsg(err)
		}
		return actionMsg(fmt.Sprintf("Server started (PID %d)", instance.PID))
	}
}

func stopServer(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		if err := c.Supervisor.Stop(); err != nil {
			return errMsg(err)
		}
		return actionMsg("Stop signal sent")
	}
}

func sendCommand(c *app.Container, console *ConsoleBuffer, line string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Supervisor.SendCommand(line); err != nil {
			return errMsg(err)
		}
		console.Append("> " + line)
		return nil
	}
}

func acceptEULA(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		if err := c.Layout.AcceptEULA(); err != nil {
			return errMsg(err)
		}
		if err := c.Store.SetEULAAccepted(c.Layout.Root, true); err != nil {
			c.Logger.Warn("could not record eula acceptance", zap.Error(err))
		}
		return actionMsg("EULA accepted")
	}
}

func openFirewall(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		port := c.Layout.Port()
		if err := firewall.OpenPort(port); err != nil {
			return errMsg(err)
		}
		return actionMsg(fmt.Sprintf("Opened TCP port %d", port))
	}
}

func checkUpdates(c *app.Container, inst *domain.Installation) tea.Cmd {
	return func() tea.Msg {
		if inst == nil {
			return errMsg(errors.New("nothing is provisioned"))
		}
		info, err := updater.CheckForUpdates(c.Catalog, inst)
		if err != nil {
			return errMsg(err)
		}
		if info.UpdateAvailable {
			return actionMsg(fmt.Sprintf("Build %d is available for %s (installed %d)", info.LatestBuild, info.Version, info.CurrentBuild))
		}
		if info.NewerVersion {
			return actionMsg(fmt.Sprintf("Build is current; version %s is also available", info.NewestVersion))
		}
		return actionMsg("Up to date")
	}
}
