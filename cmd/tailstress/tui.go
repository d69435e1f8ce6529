package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/tailcall-stress/stress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type progressMsg stress.Progress

type doneMsg struct{}

type progressModel struct {
	stop     context.CancelFunc
	bar      progress.Model
	last     stress.Progress
	stopping bool
	done     bool
}

func newProgressModel(total int, stop context.CancelFunc) *progressModel {
	return &progressModel{
		stop: stop,
		bar:  progress.New(progress.WithDefaultGradient()),
		last: stress.Progress{Total: total},
	}
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.stopping = true
			m.stop()
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 80)
	case progressMsg:
		m.last = stress.Progress(msg)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *progressModel) View() string {
	p := m.last
	pct := 0.0
	if p.Total > 0 {
		pct = float64(p.Processed) / float64(p.Total)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("tailstress"))
	sb.WriteString("\n\n")
	sb.WriteString(m.bar.ViewAs(pct))
	sb.WriteString("\n\n")
	sb.WriteString(statStyle.Render(fmt.Sprintf("trials      %d / %d (%d skipped)", p.Processed, p.Total, p.Skipped)))
	sb.WriteByte('\n')
	sb.WriteString(okStyle.Render(fmt.Sprintf("tail calls  %d of %d observed", p.Succeeded, p.Observed)))
	sb.WriteByte('\n')
	mismatches := fmt.Sprintf("mismatches  %d", p.Mismatches)
	if p.Mismatches > 0 {
		sb.WriteString(errorStyle.Render(mismatches))
	} else {
		sb.WriteString(statStyle.Render(mismatches))
	}
	sb.WriteString("\n\n")
	switch {
	case m.done:
	case m.stopping:
		sb.WriteString(helpStyle.Render("stopping after the current trial..."))
	default:
		sb.WriteString(helpStyle.Render("q: stop"))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// runTUI runs the loop on one goroutine and the progress view on another.
// Quitting the view cancels the loop; the loop finishing closes the view.
func runTUI(ctx context.Context, r *stress.Runner, cfg *stress.Config) (*stress.Summary, error) {
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	prog := tea.NewProgram(newProgressModel(cfg.Iterations, stop), tea.WithContext(ctx))

	var sum *stress.Summary
	var g errgroup.Group
	g.Go(func() error {
		defer prog.Send(doneMsg{})
		var err error
		sum, err = r.Run(loopCtx, func(p stress.Progress) {
			prog.Send(progressMsg(p))
		})
		return err
	})
	g.Go(func() error {
		_, err := prog.Run()
		if err != nil {
			stop()
			if ctx.Err() != nil {
				// Interrupted by a signal; the loop reports it.
				return nil
			}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sum, nil
}
