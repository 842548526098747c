package ui

import (
	"crafthost/internal/app"
	"crafthost/internal/catalog"
	"crafthost/internal/domain"
	"crafthost/internal/jvm"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type StepState int

const (
	StepPending StepState = iota
	StepRunning
	StepDone
	StepFailed
)

type ProgressStep struct {
	Label       string
	State       StepState
	HasProgress bool
}

type WizardStep int

const (
	StepVersion WizardStep = iota
	StepOptions
)

// ProvisionModel picks a version and runs the provisioner with live progress.
type ProvisionModel struct {
	container   *app.Container
	step        WizardStep
	versionList list.Model
	version     string
	installJava bool
	acceptEULA  bool
	width       int
	height      int
	err         error
	running     bool
	progress    progress.Model
	percent     float64
	spinner     spinner.Model
	steps       []ProgressStep
	run         provisionRun
}

type ProvisionDoneMsg struct{ Installation *domain.Installation }
type ProvisionCancelMsg struct{}

type versionsMsg []string
type progressMsg domain.ProgressEvent
type provisionFinishedMsg provisionResult

type provisionResult struct {
	inst *domain.Installation
	err  error
}

type provisionRun struct {
	events chan domain.ProgressEvent
	done   chan provisionResult
}

func NewProvisionModel(c *app.Container, width, height int) ProvisionModel {
	v := list.New([]list.Item{}, list.NewDefaultDelegate(), 30, 20)
	v.Title = "Select Version"
	v.SetShowHelp(false)
	v.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ProvisionModel{
		container:   c,
		step:        StepVersion,
		versionList: v,
		installJava: true,
		width:       width,
		height:      height,
		progress:    progress.New(progress.WithDefaultGradient()),
		spinner:     s,
	}
}

func (m ProvisionModel) Init() tea.Cmd {
	return tea.Batch(fetchVersions(m.container), m.spinner.Tick)
}

func (m ProvisionModel) Update(msg tea.Msg) (ProvisionModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		m.versionList.SetSize(msg.Width-8, msg.Height-14)
		return m, nil
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.running {
		switch msg := msg.(type) {
		case progressMsg:
			m.pushStep(msg.Message)
			if msg.TotalBytes > 0 {
				m.steps[len(m.steps)-1].HasProgress = true
				m.percent = msg.Progress / 100
			}
			return m, waitForProvision(m.run)
		case provisionFinishedMsg:
			m.running = false
			if msg.err != nil {
				m.err = msg.err
				if len(m.steps) > 0 {
					m.steps[len(m.steps)-1].State = StepFailed
				}
				return m, nil
			}
			if len(m.steps) > 0 {
				m.steps[len(m.steps)-1].State = StepDone
			}
			inst := msg.inst
			return m, func() tea.Msg { return ProvisionDoneMsg{Installation: inst} }
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.step > StepVersion {
				m.step--
				return m, nil
			}
			return m, func() tea.Msg { return ProvisionCancelMsg{} }
		case "ctrl+c":
			return m, tea.Quit
		}
	case versionsMsg:
		var items []list.Item
		for _, v := range msg {
			items = append(items, item(v))
		}
		m.versionList.SetItems(items)
		m.versionList.SetSize(m.width-8, m.height-14)
		m.versionList.ResetSelected()
		return m, nil
	case errMsg:
		m.err = msg
		return m, nil
	}

	switch m.step {
	case StepVersion:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter && m.versionList.FilterState() != list.Filtering {
			if i, ok := m.versionList.SelectedItem().(item); ok {
				m.version = string(i)
				m.err = nil
				m.step = StepOptions
				return m, nil
			}
		}
		m.versionList, cmd = m.versionList.Update(msg)
		return m, cmd

	case StepOptions:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "j":
				m.installJava = !m.installJava
			case "e":
				m.acceptEULA = !m.acceptEULA
			case "y", "enter":
				m.running = true
				m.err = nil
				m.steps = nil
				m.percent = 0
				m.run = startProvision(m.container.Provisioner, app.ProvisionRequest{
					Version:     m.version,
					InstallJava: m.installJava,
					AcceptEULA:  m.acceptEULA,
					Port:        m.container.InitialPort(),
					MinHeapMB:   m.container.Config.Memory.MinMB,
					MaxHeapMB:   m.container.Config.Memory.MaxMB,
				})
				return m, waitForProvision(m.run)
			}
		}
	}

	return m, nil
}

func (m *ProvisionModel) pushStep(label string) {
	if len(m.steps) > 0 && m.steps[len(m.steps)-1].Label == label {
		return
	}
	if len(m.steps) > 0 {
		m.steps[len(m.steps)-1].State = StepDone
	}
	m.steps = append(m.steps, ProgressStep{Label: label, State: StepRunning})
}

func (m ProvisionModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := headerStyle.Width(m.width).Render("PROVISION SERVER")

	stepTitle := ""
	content := ""

	if m.err != nil {
		content += errorStyle.Render(fmt.Sprintf("Error: %v\n\n", m.err))
	}

	switch m.step {
	case StepVersion:
		stepTitle = "Select Version"
		content += "\n" + m.versionList.View()
	case StepOptions:
		stepTitle = "Confirm"
		content += fmt.Sprintf("\nVersion: %s\nJava:    %d %s\nEULA:    %s\n\n%s",
			m.version,
			jvm.RequiredMajor(m.version), checkbox(m.installJava),
			checkbox(m.acceptEULA),
			keyHelp("j", "toggle java", "e", "toggle eula", "y/enter", "provision"))
	}

	if m.running || len(m.steps) > 0 {
		content = fmt.Sprintf("\n\nProvisioning %s...\n\n", m.version)
		if m.err != nil {
			content = errorStyle.Render(fmt.Sprintf("Error: %v\n\n", m.err)) + content
		}

		for _, step := range m.steps {
			icon := " "
			lineStyle := lipgloss.NewStyle()

			switch step.State {
			case StepDone:
				icon = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("✓")
				lineStyle = lineStyle.Foreground(lipgloss.Color("240"))
			case StepRunning:
				icon = m.spinner.View()
				lineStyle = lineStyle.Bold(true)
			case StepFailed:
				icon = errorStyle.Render("✗")
				lineStyle = lineStyle.Foreground(lipgloss.Color("196"))
			default:
				icon = "•"
			}

			content += fmt.Sprintf(" %s %s\n", icon, lineStyle.Render(step.Label))

			if step.State == StepRunning && step.HasProgress {
				content += fmt.Sprintf("   %s\n", m.progress.ViewAs(m.percent))
			}
		}
	}

	headerBox := baseStyle.
		Width(m.width - 4).
		Align(lipgloss.Center).
		Padding(1).
		Render(titleStyle.Render(stepTitle))

	mainContainer := baseStyle.
		Width(m.width - 4).
		Height(m.height - 12).
		Align(lipgloss.Center).
		Render(content)

	footerBox := footerStyle.
		Width(m.width - 4).
		Render(keyHelp("esc", "back/cancel", "enter", "next"))

	return lipgloss.JoinVertical(lipgloss.Center,
		title,
		headerBox,
		mainContainer,
		footerBox,
	)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func fetchVersions(c *app.Container) tea.Cmd {
	return func() tea.Msg {
		result := c.Catalog.ListVersions()
		if !result.Available() {
			return errMsg(fmt.Errorf("release catalog unavailable: %w", result.Err))
		}
		return versionsMsg(catalog.SortNewestFirst(catalog.StableVersions(result.Versions)))
	}
}

func startProvision(p *app.Provisioner, req app.ProvisionRequest) provisionRun {
	run := provisionRun{
		events: make(chan domain.ProgressEvent, 16),
		done:   make(chan provisionResult, 1),
	}
	go func() {
		inst, err := p.Provision(req, run.events)
		close(run.events)
		run.done <- provisionResult{inst: inst, err: err}
	}()
	return run
}

func waitForProvision(run provisionRun) tea.Cmd {
	return func() tea.Msg {
		if event, ok := <-run.events; ok {
			return progressMsg(event)
		}
		return provisionFinishedMsg(<-run.done)
	}
}
