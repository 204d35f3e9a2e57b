package strat

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/dataset"
)

func tankConstants() Constants {
	return FromConfig(config.DefaultConfig().Constants)
}

// twoLevelField has depth 0 at 20 degC, depth 5 at 18 degC and 19 degC between.
func twoLevelField(t *testing.T) *dataset.Field {
	f, err := dataset.Synthetic("layers", 60, 6, 35, 20)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestComputeStableOrientation(t *testing.T) {
	c := tankConstants()
	f := twoLevelField(t)

	// Depth index 5 as the top level.
	r, err := Compute(f, 50, Levels{Top: 5, Bottom: 0}, c)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	top, bottom, depth := 18.0, 20.0, 0.07
	wantDTdz := (top - bottom) / depth
	if r.DTdz != wantDTdz {
		t.Errorf("expected dTdz %v, got %v", wantDTdz, r.DTdz)
	}

	wantN := math.Sqrt(-9.81 / 1000 * 4e-4 * wantDTdz)
	if math.Abs(r.N-wantN) > 1e-12 {
		t.Errorf("expected N %v, got %v", wantN, r.N)
	}

	wantR := wantN * 0.07 / 0.5
	if math.Abs(r.R-wantR) > 1e-12 {
		t.Errorf("expected R %v, got %v", wantR, r.R)
	}
	if r.Timestep != 50 {
		t.Errorf("expected timestep 50, got %d", r.Timestep)
	}
	if !r.Stable() {
		t.Error("expected stable result")
	}
}

func TestComputeUnstableIsObservable(t *testing.T) {
	c := tankConstants()
	f := twoLevelField(t)

	r, err := Compute(f, 50, SurfaceFirst, c)
	if !errors.Is(err, ErrUnstableStratification) {
		t.Fatalf("expected ErrUnstableStratification, got %v", err)
	}
	top, bottom, depth := 20.0, 18.0, 0.07
	if want := (top - bottom) / depth; r.DTdz != want {
		t.Errorf("expected dTdz %v, got %v", want, r.DTdz)
	}
	if r.N2 >= 0 {
		t.Errorf("expected negative N2, got %v", r.N2)
	}
	if !math.IsNaN(r.N) || !math.IsNaN(r.R) {
		t.Errorf("expected NaN N and R, got %v %v", r.N, r.R)
	}
	if r.Stable() {
		t.Error("expected unstable result")
	}
}

func TestComputeZeroField(t *testing.T) {
	f, err := dataset.Synthetic("zero", 100, 6, 35, 200)
	if err != nil {
		t.Fatal(err)
	}

	r, err := Compute(f, 50, SurfaceFirst, tankConstants())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	for name, v := range map[string]float64{
		"dtemp": r.DTemp, "dTdz": r.DTdz, "drhodz": r.DRhodz,
		"N2": r.N2, "N": r.N, "R": r.R,
	} {
		if v != 0 {
			t.Errorf("expected %s = 0, got %v", name, v)
		}
	}
}

func TestFromDifferenceSign(t *testing.T) {
	c := tankConstants()

	tests := []struct {
		name     string
		dtemp    float64
		unstable bool
	}{
		{"negative difference", -2, false},
		{"zero difference", 0, false},
		{"positive difference", 2, true},
		{"nan difference", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDifference(tt.dtemp, c)
			if got := errors.Is(err, ErrUnstableStratification); got != tt.unstable {
				t.Errorf("unstable = %v, want %v (err %v)", got, tt.unstable, err)
			}
		})
	}
}

func TestNegativeInertialFrequency(t *testing.T) {
	c := tankConstants()
	c.InertialFrequency = -0.5

	r, err := FromDifference(-2, c)
	if err != nil {
		t.Fatal(err)
	}
	if r.R <= 0 {
		t.Errorf("expected positive R for negative f, got %v", r.R)
	}
}

func TestComputeInvalid(t *testing.T) {
	f := twoLevelField(t)

	tests := []struct {
		name   string
		mutate func(*Constants)
	}{
		{"zero depth", func(c *Constants) { c.Depth = 0 }},
		{"zero density", func(c *Constants) { c.ReferenceDensity = 0 }},
		{"zero inertial", func(c *Constants) { c.InertialFrequency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tankConstants()
			tt.mutate(&c)
			if _, err := Compute(f, 0, SurfaceFirst, c); !errors.Is(err, ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}

	if _, err := Compute(f, 60, SurfaceFirst, tankConstants()); !errors.Is(err, dataset.ErrIndex) {
		t.Errorf("expected dataset.ErrIndex for timestep out of range, got %v", err)
	}

	shallow := dataset.NewField(1, 1, 2, 2)
	if _, err := Compute(shallow, 0, SurfaceFirst, tankConstants()); !errors.Is(err, ErrTooShallow) {
		t.Errorf("expected ErrTooShallow, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	f, err := dataset.Synthetic("coldtop", 8, 6, 4, 10)
	if err != nil {
		t.Fatal(err)
	}

	rs, err := Profile(f, SurfaceFirst, tankConstants())
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if len(rs) != 8 {
		t.Fatalf("expected 8 results, got %d", len(rs))
	}
	for i, r := range rs {
		if r.Timestep != i {
			t.Errorf("result %d has timestep %d", i, r.Timestep)
		}
		if !r.Stable() {
			t.Errorf("timestep %d should be stable, N2 = %v", i, r.N2)
		}
	}
}

func TestResultJSONNaN(t *testing.T) {
	r, err := FromDifference(2, tankConstants())
	if !errors.Is(err, ErrUnstableStratification) {
		t.Fatalf("expected unstable result, got %v", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"N":null`) || !strings.Contains(string(data), `"R":null`) {
		t.Errorf("expected null N and R, got %s", data)
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !math.IsNaN(back.N) || !math.IsNaN(back.R) {
		t.Errorf("expected NaN N and R, got %v %v", back.N, back.R)
	}
	if back.DTemp != 2 || back.N2 != r.N2 {
		t.Errorf("scalars changed: %+v vs %+v", back, r)
	}
}
