package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/terrawave/internal/cli"
	wprogress "github.com/linuxmatters/terrawave/internal/progress"
)

// SampleDone signals the end of a sampling run, successful or not
type SampleDone struct {
	Heights []float64
	Err     error
	Elapsed time.Duration
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// stageState is a stage seen so far
type stageState struct {
	name  string
	total int
	done  int
}

// Model shows the stages of a sampling run as they arrive from a
// progress.Queue, then a profile of the resulting heights
type Model struct {
	progressBar progress.Model
	source      string
	vertices    int

	stages   []stageState
	complete bool
	result   *SampleDone

	width           int
	completionDelay time.Duration
}

// NewModel creates a progress model for sampling source into vertices heights
func NewModel(source string, vertices int) *Model {
	// Terrain gradient: lowland → snowcap
	p := progress.New(
		progress.WithGradient(string(cli.Lowland), string(cli.Snowcap)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		source:          source,
		vertices:        vertices,
		completionDelay: time.Second,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(min(msg.Width-30, 50), 10)
		return m, nil

	case wprogress.Message:
		m.apply(msg)
		return m, nil

	case SampleDone:
		m.result = &msg
		if msg.Err != nil {
			return m, tea.Quit
		}
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.result != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// apply folds a progress message into the stage list
func (m *Model) apply(msg wprogress.Message) {
	switch msg.Kind {
	case wprogress.KindStage:
		m.stages = append(m.stages, stageState{name: msg.Stage, total: msg.Total})
	case wprogress.KindStep:
		if n := len(m.stages); n > 0 {
			m.stages[n-1].done = msg.Done
		}
	case wprogress.KindComplete:
		m.complete = true
	}
}

// Stages returns the stage names seen so far in arrival order
func (m *Model) Stages() []string {
	names := make([]string, len(m.stages))
	for i, s := range m.stages {
		names[i] = s.name
	}
	return names
}

// Complete reports whether the terminal progress message arrived
func (m *Model) Complete() bool {
	return m.complete
}

// Result returns the outcome of the run, or nil if it has not finished
func (m *Model) Result() *SampleDone {
	return m.result
}

// Percent returns the completion of the current stage
func (m *Model) Percent() float64 {
	if len(m.stages) == 0 {
		return 0
	}
	current := m.stages[len(m.stages)-1]
	if current.total == 0 {
		return 0
	}
	return float64(current.done) / float64(current.total)
}

// View renders the UI
func (m *Model) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.Sand).
		Render(cli.AppName)

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.Lowland).Render(
		fmt.Sprintf("Sampling %s into %d vertices", m.source, m.vertices)))
	s.WriteString("\n\n")

	m.renderStages(&s)

	if m.result != nil && m.result.Err == nil && len(m.result.Heights) > 0 {
		s.WriteString("\n")
		m.renderProfile(&s)
	}

	border := cli.Foothill
	if m.result != nil && m.result.Err == nil {
		border = cli.Sand
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderStages(s *strings.Builder) {
	if len(m.stages) == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Opening audio..."))
		s.WriteString("\n")
		return
	}

	doneStyle := lipgloss.NewStyle().Foreground(cli.Lowland)
	for i, st := range m.stages {
		current := i == len(m.stages)-1 && !m.complete
		if !current {
			s.WriteString(doneStyle.Render("✓ "))
			s.WriteString(st.name)
			s.WriteString("\n")
			continue
		}

		percent := m.Percent()
		s.WriteString(lipgloss.NewStyle().Bold(true).Render(st.name))
		s.WriteString("\n")
		s.WriteString(m.progressBar.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%  ", int(percent*100)))
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("%d of %d", st.done, st.total)))
		s.WriteString("\n")
	}
}

func (m *Model) renderProfile(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(cli.Lowland).Render("Profile:"))
	s.WriteString("\n")

	width := 64
	if m.width > 10 {
		width = min(m.width-10, 64)
	}
	s.WriteString(cli.RenderProfile(m.result.Heights, width))
	s.WriteString("\n\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("%d heights in %s", len(m.result.Heights), cli.FormatDuration(m.result.Elapsed))))
}
