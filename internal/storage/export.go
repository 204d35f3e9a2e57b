package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rossby/internal/strat"
)

type ExportData struct {
	RunMetadata
	Steps   int            `json:"steps"`
	Profile []strat.Result `json:"profile"`
}

// ExportJSON writes the run and its stratification profile as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, profile []strat.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Steps:       len(profile),
		Profile:     profile,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, profile []strat.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, meta, profile); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
