package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/san-kum/rossby/internal/anim"
	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
	"github.com/san-kum/rossby/internal/render"
	"github.com/san-kum/rossby/internal/strat"
	"github.com/san-kum/rossby/internal/workdir"
	"github.com/sirupsen/logrus"
)

var (
	ErrGridMismatch = errors.New("pipeline: dataset shape does not match grid")
	ErrTooFewSteps  = errors.New("pipeline: dataset has fewer timesteps than frames")
)

type Pipeline struct {
	cfg       *config.Config
	renderer  *render.Renderer
	observers []Observer

	// Field, when set, is used instead of loading cfg.Dataset.
	Field *dataset.Field
	Log   logrus.FieldLogger
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		renderer:  render.NewRenderer(cfg.Frames),
		observers: make([]Observer, 0),
		Log:       logrus.StandardLogger(),
	}
}

func (p *Pipeline) AddObserver(o Observer) { p.observers = append(p.observers, o) }

// Run executes a full pipeline for cfg with the given observers.
func Run(ctx context.Context, cfg *config.Config, observers ...Observer) (*Report, error) {
	p := New(cfg)
	for _, o := range observers {
		p.AddObserver(o)
	}
	return p.Run(ctx)
}

// Run loads the field, evaluates the stratification, resets the output
// directories, renders and assembles both sections, and removes the frame
// directory. Stages run strictly in that order.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	cfg := p.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	report := &Report{
		Config:  cfg,
		Started: time.Now(),
		Frames:  make(map[string]int),
	}

	p.stage(StageLoad, "")
	field, err := p.load()
	if err != nil {
		return nil, err
	}

	p.stage(StageStratify, "")
	if err := p.stratify(field, report); err != nil {
		return nil, err
	}

	// Earlier outputs survive any failure up to here.
	p.stage(StageReset, "")
	for _, dir := range []string{cfg.FrameDir, cfg.GIFDir} {
		if err := workdir.Reset(dir); err != nil {
			return nil, err
		}
	}

	for _, sec := range render.Sections(cfg) {
		n, err := p.renderSection(ctx, field, sec)
		if err != nil {
			return nil, err
		}

		p.stage(StageAssemble, sec.Prefix())
		out := filepath.Join(cfg.GIFDir, sec.Prefix()+".gif")
		written, err := anim.Assemble(ctx, cfg.FrameDir, sec.Prefix(), out, anim.Options{FPS: cfg.Frames.Rate, Expected: n})
		if err != nil {
			return nil, err
		}
		report.Frames[sec.Prefix()] = written
		report.Outputs = append(report.Outputs, out)
		p.Log.WithFields(logrus.Fields{"section": sec.Prefix(), "frames": written, "out": out}).Info("animation written")
	}

	p.stage(StageCleanup, "")
	if err := workdir.Remove(cfg.FrameDir); err != nil {
		return nil, err
	}

	report.Elapsed = time.Since(report.Started)
	p.stage(StageDone, "")
	return report, nil
}

func (p *Pipeline) load() (*dataset.Field, error) {
	cfg := p.cfg
	field := p.Field
	if field == nil {
		var err error
		if field, err = dataset.Load(cfg.Dataset, cfg.Variable); err != nil {
			return nil, err
		}
	}

	nt, nz, ny, nx := field.Shape()
	p.Log.WithFields(logrus.Fields{
		"dataset": cfg.Dataset, "variable": cfg.Variable,
		"nt": nt, "nz": nz, "ny": ny, "nx": nx,
	}).Info("dataset loaded")

	if nz != cfg.Grid.NZ || ny != cfg.Grid.NY || nx != cfg.Grid.NX {
		return nil, fmt.Errorf("%w: field (%d, %d, %d), grid (%d, %d, %d)",
			ErrGridMismatch, nz, ny, nx, cfg.Grid.NZ, cfg.Grid.NY, cfg.Grid.NX)
	}
	if nt < cfg.Frames.Count {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooFewSteps, nt, cfg.Frames.Count)
	}
	return field, nil
}

func (p *Pipeline) stratify(field *dataset.Field, report *Report) error {
	cfg := p.cfg
	consts := strat.FromConfig(cfg.Constants)
	levels := strat.LevelsFromConfig(cfg.Strat)

	res, err := strat.Compute(field, cfg.Strat.Timestep, levels, consts)
	unstable := errors.Is(err, strat.ErrUnstableStratification)
	if err != nil && !unstable {
		return err
	}
	report.Stratification = res

	entry := p.Log.WithFields(logrus.Fields{
		"timestep": res.Timestep, "dtemp": res.DTemp, "dTdz": res.DTdz,
		"drhodz": res.DRhodz, "N2": res.N2, "N": res.N, "R": res.R,
	})
	if unstable {
		if cfg.Strict {
			return err
		}
		report.Warning = err
		entry.Warn("unstable stratification, Rossby radius undefined")
	} else {
		entry.Info("stratification")
	}

	if report.Profile, err = strat.Profile(field, levels, consts); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) renderSection(ctx context.Context, field *dataset.Field, sec render.Section) (int, error) {
	p.stage(StageRender, sec.Prefix())
	frames := render.Frames(sec.Prefix(), p.cfg.Frames.Count)
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := p.renderer.WriteFrame(field, sec, frame, p.cfg.FrameDir); err != nil {
			return 0, err
		}
		for _, o := range p.observers {
			o.OnFrame(sec.Prefix(), frame, len(frames))
		}
	}
	return len(frames), nil
}

func (p *Pipeline) stage(s Stage, section string) {
	for _, o := range p.observers {
		o.OnStage(s, section)
	}
}
