package pipeline

import (
	"github.com/san-kum/rossby/internal/render"
	"github.com/sirupsen/logrus"
)

// LogObserver reports stages at Info level and every frame at Debug level.
type LogObserver struct {
	Log logrus.FieldLogger
}

func NewLogObserver(log logrus.FieldLogger) *LogObserver {
	return &LogObserver{Log: log}
}

func (o *LogObserver) OnStage(stage Stage, section string) {
	e := o.Log.WithField("stage", stage.String())
	if section != "" {
		e = e.WithField("section", section)
	}
	e.Info("stage")
}

func (o *LogObserver) OnFrame(section string, frame render.FrameID, total int) {
	o.Log.WithField("section", section).Debugf("Time Step %d/%d", frame.Index, total)
}
