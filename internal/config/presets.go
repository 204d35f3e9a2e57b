package config

import "sort"

// Presets are named adjustments applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"tank": func(c *Config) {},
	"preview": func(c *Config) {
		c.Frames.Count = 20
		c.Frames.DPI = 50
	},
	"poster": func(c *Config) {
		c.Frames.WidthIn = 12.8
		c.Frames.HeightIn = 9.6
		c.Frames.DPI = 150
	},
	"strict": func(c *Config) {
		c.Strict = true
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
