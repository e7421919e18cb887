// Package tui provides a live terminal monitor for a running batch:
// a mean-position trace across all environments plus a per-environment
// state table.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/arghyasur1991/mujoco-unity/internal/batch"
	"github.com/arghyasur1991/mujoco-unity/internal/config"
	"github.com/arghyasur1991/mujoco-unity/internal/engine"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const (
	stepsPerFrame = 8
	maxHistory    = 120
	maxTableEnvs  = 8
)

type model struct {
	batch    *batch.Batch
	sim      *engine.Model
	cfg      *config.Config
	controls []float64
	history  []float64
	step     int
	paused   bool
	err      error
	width    int
}

// Run opens the live monitor over an already-created batch and blocks
// until the user quits. The batch is driven exclusively by the
// monitor while it runs.
func Run(b *batch.Batch, cfg *config.Config) error {
	m := model{
		batch:    b,
		sim:      b.Model(),
		cfg:      cfg,
		controls: make([]float64, b.NumEnvs()*b.Model().Nu()),
		history:  make([]float64, 0, maxHistory),
		width:    80,
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			return m, nil
		case "r":
			mask := make([]bool, m.batch.NumEnvs())
			for i := range mask {
				mask[i] = true
			}
			m.err = m.batch.Reset(mask)
			m.step = 0
			m.history = m.history[:0]
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if m.paused || m.err != nil {
			return m, tick()
		}
		dt := m.sim.Timestep()
		for k := 0; k < stepsPerFrame; k++ {
			m.cfg.Control.Fill(m.step, dt, m.batch.NumEnvs(), m.sim.Nu(), m.controls)
			if err := m.batch.Step(m.controls); err != nil {
				m.err = err
				return m, tick()
			}
			m.step++
		}
		qpos, err := m.batch.Gather(engine.FieldQpos)
		if err != nil {
			m.err = err
			return m, tick()
		}
		m.history = append(m.history, mean(qpos))
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	simTime := float64(m.step) * m.sim.Timestep()
	header := fmt.Sprintf("%s  %s  %s",
		cyan.Render(m.sim.Name()),
		dim.Render(fmt.Sprintf("envs=%d", m.batch.NumEnvs())),
		dim.Render(fmt.Sprintf("t=%.2fs", simTime)))
	if m.paused {
		header += "  " + yellow.Render("paused")
	}
	b.WriteString(header + "\n\n")

	if m.err != nil {
		b.WriteString(red.Render("error: "+m.err.Error()) + "\n")
		b.WriteString(dim.Render("q quit") + "\n")
		return b.String()
	}

	if len(m.history) > 1 {
		width := m.width - 12
		if width > 100 {
			width = 100
		}
		if width < 20 {
			width = 20
		}
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(width),
			asciigraph.Caption("mean qpos")))
		b.WriteString("\n\n")
	}

	nq := m.sim.Nq()
	shown := m.batch.NumEnvs()
	if shown > maxTableEnvs {
		shown = maxTableEnvs
	}
	for i := 0; i < shown; i++ {
		d := m.batch.Env(i)
		if d == nil {
			break
		}
		row := fmt.Sprintf("env %2d  ", i)
		for j := 0; j < nq && j < 4; j++ {
			row += fmt.Sprintf("q%d=%+.3f  ", j, d.Qpos[j])
		}
		if d.WarningCount(engine.WarnBadQpos) > 0 {
			b.WriteString(red.Render(row + "diverged"))
		} else {
			b.WriteString(green.Render(row))
		}
		b.WriteString("\n")
	}
	if m.batch.NumEnvs() > shown {
		b.WriteString(dim.Render(fmt.Sprintf("… %d more\n", m.batch.NumEnvs()-shown)))
	}

	b.WriteString("\n" + dim.Render("space pause · r reset · q quit") + "\n")
	return b.String()
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
