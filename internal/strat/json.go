package strat

import (
	"encoding/json"
	"math"
)

type resultJSON struct {
	Timestep int      `json:"timestep"`
	DTemp    *float64 `json:"dtemp"`
	DTdz     *float64 `json:"dTdz"`
	DRhodz   *float64 `json:"drhodz"`
	N2       *float64 `json:"N2"`
	N        *float64 `json:"N"`
	R        *float64 `json:"R"`
}

// MarshalJSON writes NaN and infinite scalars as null.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Timestep: r.Timestep,
		DTemp:    finite(r.DTemp),
		DTdz:     finite(r.DTdz),
		DRhodz:   finite(r.DRhodz),
		N2:       finite(r.N2),
		N:        finite(r.N),
		R:        finite(r.R),
	})
}

// UnmarshalJSON reads null scalars back as NaN.
func (r *Result) UnmarshalJSON(data []byte) error {
	var v resultJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Result{
		Timestep: v.Timestep,
		DTemp:    orNaN(v.DTemp),
		DTdz:     orNaN(v.DTdz),
		DRhodz:   orNaN(v.DRhodz),
		N2:       orNaN(v.N2),
		N:        orNaN(v.N),
		R:        orNaN(v.R),
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
