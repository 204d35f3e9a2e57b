package pipeline

import (
	"time"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/render"
	"github.com/san-kum/rossby/internal/strat"
)

// Stage is one sequential step of a run.
type Stage int

const (
	StageLoad Stage = iota
	StageStratify
	StageReset
	StageRender
	StageAssemble
	StageCleanup
	StageDone
)

var stageNames = [...]string{"load", "stratify", "reset", "render", "assemble", "cleanup", "done"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Observer receives progress of a run. Calls arrive on the goroutine
// executing Run.
type Observer interface {
	OnStage(stage Stage, section string)
	OnFrame(section string, frame render.FrameID, total int)
}

// Report summarizes a finished run.
type Report struct {
	Config  *config.Config
	Started time.Time
	Elapsed time.Duration

	Stratification strat.Result
	// Warning is set when the stratification was unstable in a
	// non-strict run.
	Warning error
	Profile []strat.Result

	Frames  map[string]int
	Outputs []string
}

func (r *Report) Stable() bool {
	return r.Warning == nil && r.Stratification.Stable()
}
