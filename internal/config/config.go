package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDataset   = "TankDimensionPablo.cdf"
	DefaultVariable  = "temp"
	DefaultFrameDir  = "img"
	DefaultGIFDir    = "GIF"
	DefaultDepth     = 0.07
	DefaultAlpha     = 4e-4
	DefaultGravity   = 9.81
	DefaultRho0      = 1e3
	DefaultInertial  = 0.5
	DefaultSpacing   = 0.01
	DefaultNX        = 200
	DefaultNY        = 35
	DefaultNZ        = 6
	DefaultFrames    = 100
	DefaultFrameRate = 10
	DefaultStratStep = 50
	DefaultTopLevel  = 0
	DefaultBotLevel  = -1
	DefaultDepthIdx  = 3
	DefaultXIdx      = 10
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Dataset   string          `json:"dataset" yaml:"dataset"`
	Variable  string          `json:"variable" yaml:"variable"`
	FrameDir  string          `json:"frame_dir" yaml:"frame_dir"`
	GIFDir    string          `json:"gif_dir" yaml:"gif_dir"`
	Strict    bool            `json:"strict" yaml:"strict"`
	Constants ConstantsConfig `json:"constants" yaml:"constants"`
	Strat     StratConfig     `json:"stratification" yaml:"stratification"`
	Grid      GridConfig      `json:"grid" yaml:"grid"`
	Sections  SectionsConfig  `json:"sections" yaml:"sections"`
	Frames    FramesConfig    `json:"frames" yaml:"frames"`
}

// ConstantsConfig holds the physical constants of the tank experiment.
type ConstantsConfig struct {
	Depth             float64 `json:"depth" yaml:"depth"`
	ThermalExpansion  float64 `json:"thermal_expansion" yaml:"thermal_expansion"`
	Gravity           float64 `json:"gravity" yaml:"gravity"`
	ReferenceDensity  float64 `json:"reference_density" yaml:"reference_density"`
	InertialFrequency float64 `json:"inertial_frequency" yaml:"inertial_frequency"`
}

// GridConfig describes the plotting axes. Extents are sample counts.
type GridConfig struct {
	Spacing float64 `json:"spacing" yaml:"spacing"`
	NX      int     `json:"nx" yaml:"nx"`
	NY      int     `json:"ny" yaml:"ny"`
	NZ      int     `json:"nz" yaml:"nz"`
}

// StratConfig selects where the stratification is evaluated. Negative
// levels count from the last depth level.
type StratConfig struct {
	Timestep    int `json:"timestep" yaml:"timestep"`
	TopLevel    int `json:"top_level" yaml:"top_level"`
	BottomLevel int `json:"bottom_level" yaml:"bottom_level"`
}

type SectionsConfig struct {
	DepthIndex int `json:"depth_index" yaml:"depth_index"`
	XIndex     int `json:"x_index" yaml:"x_index"`
}

type FramesConfig struct {
	Count    int     `json:"count" yaml:"count"`
	Rate     int     `json:"rate" yaml:"rate"`
	WidthIn  float64 `json:"width_in" yaml:"width_in"`
	HeightIn float64 `json:"height_in" yaml:"height_in"`
	DPI      int     `json:"dpi" yaml:"dpi"`
}

func DefaultConfig() *Config {
	return &Config{
		Dataset:  DefaultDataset,
		Variable: DefaultVariable,
		FrameDir: DefaultFrameDir,
		GIFDir:   DefaultGIFDir,
		Constants: ConstantsConfig{
			Depth:             DefaultDepth,
			ThermalExpansion:  DefaultAlpha,
			Gravity:           DefaultGravity,
			ReferenceDensity:  DefaultRho0,
			InertialFrequency: DefaultInertial,
		},
		Strat: StratConfig{
			Timestep:    DefaultStratStep,
			TopLevel:    DefaultTopLevel,
			BottomLevel: DefaultBotLevel,
		},
		Grid: GridConfig{
			Spacing: DefaultSpacing,
			NX:      DefaultNX,
			NY:      DefaultNY,
			NZ:      DefaultNZ,
		},
		Sections: SectionsConfig{
			DepthIndex: DefaultDepthIdx,
			XIndex:     DefaultXIdx,
		},
		Frames: FramesConfig{
			Count:    DefaultFrames,
			Rate:     DefaultFrameRate,
			WidthIn:  6.4,
			HeightIn: 4.8,
			DPI:      100,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay applies the keys present in the YAML file at path on top of cfg.
func Overlay(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first parameter that cannot produce a run.
func (c *Config) Validate() error {
	switch {
	case c.Dataset == "":
		return fmt.Errorf("%w: empty dataset path", ErrInvalid)
	case c.Variable == "":
		return fmt.Errorf("%w: empty variable name", ErrInvalid)
	case c.FrameDir == "" || c.GIFDir == "":
		return fmt.Errorf("%w: frame and gif directories are required", ErrInvalid)
	case c.FrameDir == c.GIFDir:
		return fmt.Errorf("%w: frame_dir and gif_dir must differ", ErrInvalid)
	case c.Constants.Depth <= 0:
		return fmt.Errorf("%w: depth must be positive, got %g", ErrInvalid, c.Constants.Depth)
	case c.Constants.ReferenceDensity <= 0:
		return fmt.Errorf("%w: reference_density must be positive, got %g", ErrInvalid, c.Constants.ReferenceDensity)
	case c.Constants.InertialFrequency == 0:
		return fmt.Errorf("%w: inertial_frequency must be non-zero", ErrInvalid)
	case c.Grid.Spacing <= 0:
		return fmt.Errorf("%w: grid spacing must be positive, got %g", ErrInvalid, c.Grid.Spacing)
	case c.Grid.NX < 2 || c.Grid.NY < 2 || c.Grid.NZ < 2:
		return fmt.Errorf("%w: grid extents must be at least 2", ErrInvalid)
	case c.Frames.Count <= 0 || c.Frames.Count > 999:
		return fmt.Errorf("%w: frame count must be in [1, 999], got %d", ErrInvalid, c.Frames.Count)
	case c.Frames.Rate <= 0 || c.Frames.Rate > 100:
		return fmt.Errorf("%w: frame rate must be in [1, 100], got %d", ErrInvalid, c.Frames.Rate)
	case c.Strat.Timestep < 0:
		return fmt.Errorf("%w: stratification timestep must be non-negative", ErrInvalid)
	case c.Strat.TopLevel == c.Strat.BottomLevel:
		return fmt.Errorf("%w: top and bottom levels must differ", ErrInvalid)
	case c.Frames.WidthIn <= 0 || c.Frames.HeightIn <= 0 || c.Frames.DPI <= 0:
		return fmt.Errorf("%w: frame size must be positive", ErrInvalid)
	}
	return nil
}

// Axis returns n samples spaced by the grid spacing, starting at zero.
func (g GridConfig) Axis(n int) []float64 {
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i) * g.Spacing
	}
	return axis
}

func (g GridConfig) X() []float64 { return g.Axis(g.NX) }
func (g GridConfig) Y() []float64 { return g.Axis(g.NY) }
func (g GridConfig) Z() []float64 { return g.Axis(g.NZ) }
