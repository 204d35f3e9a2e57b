package render

import (
	"errors"
	"image"
	"image/color"
	"os"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
	"github.com/san-kum/rossby/internal/workdir"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const paletteSize = 255

var ErrTooSmall = errors.New("render: heat map needs at least 2x2 cells")

// Renderer draws cross-sections as heat maps with a per-frame colour scale.
type Renderer struct {
	Width   vg.Length
	Height  vg.Length
	DPI     int
	Palette palette.Palette
}

func NewRenderer(cfg config.FramesConfig) *Renderer {
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(0)
	cm.SetMax(1)
	return &Renderer{
		Width:   vg.Length(cfg.WidthIn) * vg.Inch,
		Height:  vg.Length(cfg.HeightIn) * vg.Inch,
		DPI:     cfg.DPI,
		Palette: cm.Palette(paletteSize),
	}
}

// Plot builds the heat-map plot of one slice.
func (r *Renderer) Plot(s Section, g *dataset.Grid) (*plot.Plot, error) {
	if g.Rows < 2 || g.Cols < 2 {
		return nil, ErrTooSmall
	}
	cols, rows := s.Axes()

	hm := plotter.NewHeatMap(gridXYZ{grid: g, x: cols, y: rows}, r.Palette)
	lo, hi, ok := g.Range()
	if !ok {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = s.Title()
	p.X.Label.Text = s.XLabel()
	p.Y.Label.Text = s.YLabel()
	p.Add(hm)
	return p, nil
}

// Image renders one slice into memory.
func (r *Renderer) Image(s Section, g *dataset.Grid) (image.Image, error) {
	p, err := r.Plot(s, g)
	if err != nil {
		return nil, err
	}
	c := r.canvas()
	p.Draw(draw.New(c))
	return c.Image(), nil
}

// WriteFrame renders frame of s from f and writes it as a PNG into dir.
func (r *Renderer) WriteFrame(f *dataset.Field, s Section, frame FrameID, dir string) (err error) {
	defer func() {
		if err != nil {
			err = &FrameError{Section: s.Prefix(), Frame: frame, Wrapped: err}
		}
	}()

	g, err := s.Slice(f, frame.Timestep)
	if err != nil {
		return err
	}

	p, err := r.Plot(s, g)
	if err != nil {
		return err
	}
	c := r.canvas()
	p.Draw(draw.New(c))

	out, err := os.Create(workdir.Path(dir, frame.Name))
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (r *Renderer) canvas() *vgimg.Canvas {
	return vgimg.NewWith(vgimg.UseWH(r.Width, r.Height), vgimg.UseDPI(r.DPI))
}

// gridXYZ adapts a slice and its axes to plotter.GridXYZ.
type gridXYZ struct {
	grid *dataset.Grid
	x, y []float64
}

func (g gridXYZ) Dims() (c, r int)   { return g.grid.Cols, g.grid.Rows }
func (g gridXYZ) Z(c, r int) float64 { return g.grid.At(r, c) }
func (g gridXYZ) X(c int) float64    { return g.x[c] }
func (g gridXYZ) Y(r int) float64    { return g.y[r] }
