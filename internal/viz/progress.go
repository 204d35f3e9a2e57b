package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/pipeline"
	"github.com/san-kum/rossby/internal/render"
	"github.com/sirupsen/logrus"
)

const barWidth = 40

type stageMsg struct {
	stage   pipeline.Stage
	section string
}

type frameMsg struct {
	section string
	frame   render.FrameID
	total   int
}

type doneMsg struct {
	report *pipeline.Report
	err    error
}

// Progress follows a pipeline run frame by frame.
type Progress struct {
	stage    pipeline.Stage
	section  string
	sections []string
	rendered map[string]int
	total    int
	started  time.Time
	report   *pipeline.Report
	err      error
	finished bool
	cancel   context.CancelFunc
}

func NewProgress(total int, cancel context.CancelFunc) Progress {
	return Progress{
		rendered: make(map[string]int),
		total:    total,
		started:  time.Now(),
		cancel:   cancel,
	}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case stageMsg:
		m.stage, m.section = msg.stage, msg.section
		if msg.stage == pipeline.StageRender && !m.seen(msg.section) {
			m.sections = append(m.sections, msg.section)
		}
	case frameMsg:
		m.rendered[msg.section] = msg.frame.Index
		m.total = msg.total
	case doneMsg:
		m.report, m.err, m.finished = msg.report, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m Progress) seen(section string) bool {
	for _, s := range m.sections {
		if s == section {
			return true
		}
	}
	return false
}

func (m Progress) View() string {
	var b strings.Builder
	b.WriteString(Title.Render("rossby"))
	b.WriteString("\n")

	stage := m.stage.String()
	if m.section != "" {
		stage += " " + m.section
	}
	b.WriteString(MetricLabel.Render("stage") + MetricValue.Render(stage) + "\n\n")

	for _, s := range m.sections {
		n := m.rendered[s]
		frac := 0.0
		if m.total > 0 {
			frac = float64(n) / float64(m.total)
		}
		fmt.Fprintf(&b, "%s%s %s\n", MetricLabel.Render(s), ProgressBar(frac, barWidth), Subtle.Render(fmt.Sprintf("%d/%d", n, m.total)))
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(StatusError.Render("failed: "+m.err.Error()) + "\n")
	case m.finished && m.report != nil:
		b.WriteString(RunSummary(m.report) + "\n")
	default:
		b.WriteString(Subtle.Render(fmt.Sprintf("elapsed %s", time.Since(m.started).Round(time.Second))) + "\n")
		b.WriteString(KeyHint.Render("q: cancel") + "\n")
	}
	return b.String()
}

// ProgramObserver forwards pipeline events to a running Bubble Tea program.
type ProgramObserver struct {
	Program *tea.Program
}

func (o *ProgramObserver) OnStage(stage pipeline.Stage, section string) {
	o.Program.Send(stageMsg{stage: stage, section: section})
}

func (o *ProgramObserver) OnFrame(section string, frame render.FrameID, total int) {
	o.Program.Send(frameMsg{section: section, frame: frame, total: total})
}

// RunTUI runs the pipeline in a goroutine while a progress view follows it.
// Quitting the view cancels the run.
func RunTUI(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, opts ...tea.ProgramOption) (*pipeline.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewProgress(cfg.Frames.Count, cancel), opts...)
	p := pipeline.New(cfg)
	p.Log = log
	p.AddObserver(&ProgramObserver{Program: prog})

	type outcome struct {
		report *pipeline.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := p.Run(ctx)
		done <- outcome{report, err}
		prog.Send(doneMsg{report: report, err: err})
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	cancel()
	res := <-done
	return res.report, res.err
}
