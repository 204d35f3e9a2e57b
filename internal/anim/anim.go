// Package anim stitches rendered PNG frames into looping GIF animations.
package anim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"

	"github.com/san-kum/rossby/internal/workdir"
)

var (
	ErrFrameCount = errors.New("anim: unexpected number of frames")
	ErrFrameRate  = errors.New("anim: frame rate must be positive")
)

// Options controls how frames become a GIF.
type Options struct {
	FPS int
	// Expected is the number of frames that must be present. Zero accepts
	// any non-empty set.
	Expected int
}

// Delay is the per-frame delay in hundredths of a second.
func (o Options) Delay() int {
	d := 100 / o.FPS
	if d < 1 {
		d = 1
	}
	return d
}

// Assemble reads every file in dir whose name starts with prefix, in
// lexicographic order, and writes them to out as an infinitely looping GIF.
// It returns the number of frames written.
func Assemble(ctx context.Context, dir, prefix, out string, opts Options) (int, error) {
	if opts.FPS <= 0 {
		return 0, ErrFrameRate
	}
	names, err := workdir.List(dir, prefix)
	if err != nil {
		return 0, fmt.Errorf("anim: list %s: %w", dir, err)
	}
	if len(names) == 0 || (opts.Expected > 0 && len(names) != opts.Expected) {
		return 0, fmt.Errorf("%w: %s has %d, want %d", ErrFrameCount, prefix, len(names), opts.Expected)
	}

	g := gif.GIF{LoopCount: 0}
	delay := opts.Delay()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		img, err := decode(workdir.Path(dir, name))
		if err != nil {
			return 0, err
		}
		g.Image = append(g.Image, quantize(img))
		g.Delay = append(g.Delay, delay)
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("anim: %w", err)
	}
	if err := gif.EncodeAll(f, &g); err != nil {
		f.Close()
		return 0, fmt.Errorf("anim: encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("anim: %w", err)
	}
	return len(g.Image), nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("anim: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("anim: decode %s: %w", path, err)
	}
	return img, nil
}

func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}
