package pipeline_test

import (
	"context"
	"errors"
	"image/gif"
	"io"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
	"github.com/san-kum/rossby/internal/pipeline"
	"github.com/san-kum/rossby/internal/render"
	"github.com/san-kum/rossby/internal/strat"
)

type counter struct {
	stages []pipeline.Stage
	frames map[string][]render.FrameID
}

func newCounter() *counter {
	return &counter{frames: make(map[string][]render.FrameID)}
}

func (c *counter) OnStage(stage pipeline.Stage, section string) { c.stages = append(c.stages, stage) }

func (c *counter) OnFrame(section string, frame render.FrameID, total int) {
	c.frames[section] = append(c.frames[section], frame)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func gifFrames(path string) int {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	g, err := gif.DecodeAll(f)
	Expect(err).NotTo(HaveOccurred())
	Expect(g.LoopCount).To(Equal(0))
	return len(g.Image)
}

var _ = Describe("Pipeline", func() {
	var (
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = config.DefaultConfig()
		cfg.FrameDir = filepath.Join(dir, "img")
		cfg.GIFDir = filepath.Join(dir, "GIF")
		cfg.Frames.DPI = 20
	})

	run := func(field *dataset.Field, observers ...pipeline.Observer) (*pipeline.Report, error) {
		p := pipeline.New(cfg)
		p.Field = field
		p.Log = quietLogger()
		for _, o := range observers {
			p.AddObserver(o)
		}
		return p.Run(context.Background())
	}

	Context("with an all-zero tank field", func() {
		It("produces two animations of 100 frames and removes the frames", func() {
			field := dataset.NewField(100, 6, 35, 200)
			c := newCounter()

			report, err := run(field, c)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Stable()).To(BeTrue())
			Expect(report.Stratification.DTemp).To(BeZero())
			Expect(report.Stratification.DTdz).To(BeZero())
			Expect(report.Stratification.N2).To(BeZero())
			Expect(report.Stratification.N).To(BeZero())
			Expect(report.Stratification.R).To(BeZero())
			Expect(report.Profile).To(HaveLen(100))

			Expect(report.Frames).To(Equal(map[string]int{"Txy": 100, "Tyz": 100}))
			Expect(report.Outputs).To(ConsistOf(
				filepath.Join(cfg.GIFDir, "Txy.gif"),
				filepath.Join(cfg.GIFDir, "Tyz.gif"),
			))
			Expect(gifFrames(filepath.Join(cfg.GIFDir, "Txy.gif"))).To(Equal(100))
			Expect(gifFrames(filepath.Join(cfg.GIFDir, "Tyz.gif"))).To(Equal(100))

			_, err = os.Stat(cfg.FrameDir)
			Expect(os.IsNotExist(err)).To(BeTrue())

			Expect(c.frames["Txy"]).To(HaveLen(100))
			Expect(c.frames["Tyz"]).To(HaveLen(100))
			Expect(c.frames["Txy"][0].Name).To(Equal("Txy001.png"))
			Expect(c.frames["Tyz"][99].Name).To(Equal("Tyz100.png"))
			Expect(c.stages[0]).To(Equal(pipeline.StageLoad))
			Expect(c.stages).To(ContainElement(pipeline.StageReset))
			Expect(c.stages[len(c.stages)-1]).To(Equal(pipeline.StageDone))
		})
	})

	Context("with a small synthetic field", func() {
		var field *dataset.Field

		BeforeEach(func() {
			cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ = 12, 5, 4
			cfg.Sections.DepthIndex, cfg.Sections.XIndex = 2, 6
			cfg.Strat.Timestep = 3
			var err error
			field, err = dataset.Synthetic("coldtop", 100, 4, 5, 12)
			Expect(err).NotTo(HaveOccurred())
		})

		It("is idempotent across reruns and clears stale frames", func() {
			Expect(os.MkdirAll(cfg.FrameDir, 0755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(cfg.FrameDir, "Txy101.png"), []byte("stale"), 0644)).To(Succeed())

			for i := 0; i < 2; i++ {
				report, err := run(field)
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Frames["Txy"]).To(Equal(100))
				Expect(report.Frames["Tyz"]).To(Equal(100))
				Expect(gifFrames(filepath.Join(cfg.GIFDir, "Txy.gif"))).To(Equal(100))
				Expect(gifFrames(filepath.Join(cfg.GIFDir, "Tyz.gif"))).To(Equal(100))
			}

			entries, err := os.ReadDir(cfg.GIFDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("renders only the configured number of frames", func() {
			cfg.Frames.Count = 7
			c := newCounter()

			report, err := run(field, c)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Frames).To(Equal(map[string]int{"Txy": 7, "Tyz": 7}))
			Expect(c.frames["Txy"][6].Name).To(Equal("Txy007.png"))
		})

		It("reads the field from a NetCDF file", func() {
			cfg.Frames.Count = 5
			cfg.Dataset = filepath.Join(dir, "tank.cdf")
			Expect(dataset.WriteFile(cfg.Dataset, cfg.Variable, field)).To(Succeed())

			report, err := pipeline.Run(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Stable()).To(BeTrue())
			Expect(report.Stratification.Timestep).To(Equal(3))
			Expect(report.Frames["Tyz"]).To(Equal(5))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			p := pipeline.New(cfg)
			p.Field = field
			p.Log = quietLogger()

			_, err := p.Run(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("rejects a field that does not match the grid", func() {
			cfg.Grid.NX = 20
			_, err := run(field)
			Expect(errors.Is(err, pipeline.ErrGridMismatch)).To(BeTrue())
		})

		It("rejects a field with fewer timesteps than frames", func() {
			short, err := dataset.Synthetic("coldtop", 10, 4, 5, 12)
			Expect(err).NotTo(HaveOccurred())
			_, err = run(short)
			Expect(errors.Is(err, pipeline.ErrTooFewSteps)).To(BeTrue())
		})
	})

	Context("with an unstable stratification", func() {
		var field *dataset.Field

		BeforeEach(func() {
			cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ = 12, 5, 4
			cfg.Sections.DepthIndex, cfg.Sections.XIndex = 2, 6
			cfg.Strat.Timestep = 1
			cfg.Frames.Count = 3
			var err error
			field, err = dataset.Synthetic("layers", 3, 4, 5, 12)
			Expect(err).NotTo(HaveOccurred())
		})

		It("warns and still renders when not strict", func() {
			report, err := run(field)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Stable()).To(BeFalse())
			Expect(errors.Is(report.Warning, strat.ErrUnstableStratification)).To(BeTrue())
			Expect(report.Stratification.N).To(Satisfy(math.IsNaN))
			Expect(report.Frames["Txy"]).To(Equal(3))
		})

		It("aborts before rendering when strict", func() {
			cfg.Strict = true
			c := newCounter()

			_, err := run(field, c)
			Expect(errors.Is(err, strat.ErrUnstableStratification)).To(BeTrue())
			Expect(c.frames).To(BeEmpty())
			Expect(c.stages).NotTo(ContainElement(pipeline.StageRender))
			Expect(c.stages).NotTo(ContainElement(pipeline.StageReset))
		})
	})

	It("fails on a missing dataset", func() {
		cfg.Dataset = filepath.Join(dir, "absent.cdf")
		_, err := pipeline.Run(context.Background(), cfg)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})

	It("keeps earlier animations when a run fails at load", func() {
		previous := filepath.Join(cfg.GIFDir, "Txy.gif")
		Expect(os.MkdirAll(cfg.GIFDir, 0755)).To(Succeed())
		Expect(os.WriteFile(previous, []byte("previous"), 0644)).To(Succeed())

		cfg.Dataset = filepath.Join(dir, "absent.cdf")
		_, err := pipeline.Run(context.Background(), cfg)
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())

		data, err := os.ReadFile(previous)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("previous"))
		_, err = os.Stat(cfg.FrameDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("keeps earlier animations when the grid does not match", func() {
		previous := filepath.Join(cfg.GIFDir, "Tyz.gif")
		Expect(os.MkdirAll(cfg.GIFDir, 0755)).To(Succeed())
		Expect(os.WriteFile(previous, []byte("previous"), 0644)).To(Succeed())

		_, err := run(dataset.NewField(100, 4, 5, 12))
		Expect(errors.Is(err, pipeline.ErrGridMismatch)).To(BeTrue())
		Expect(previous).To(BeAnExistingFile())
		_, err = os.Stat(cfg.FrameDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("rejects an invalid configuration", func() {
		cfg.Frames.Count = 0
		_, err := pipeline.Run(context.Background(), cfg)
		Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
	})
})

var _ = Describe("Stage", func() {
	It("names every stage", func() {
		Expect(pipeline.StageLoad.String()).To(Equal("load"))
		Expect(pipeline.StageReset.String()).To(Equal("reset"))
		Expect(pipeline.StageDone.String()).To(Equal("done"))
		Expect(pipeline.Stage(42).String()).To(Equal("unknown"))
	})
})
