package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/rossby/internal/config"
	"github.com/san-kum/rossby/internal/strat"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one finished pipeline run.
type RunMetadata struct {
	ID             string         `json:"id"`
	Dataset        string         `json:"dataset"`
	Variable       string         `json:"variable"`
	Timestamp      time.Time      `json:"timestamp"`
	Elapsed        float64        `json:"elapsed_seconds"`
	Stable         bool           `json:"stable"`
	Stratification strat.Result   `json:"stratification"`
	Frames         map[string]int `json:"frames"`
	Outputs        []string       `json:"outputs"`
	Config         *config.Config `json:"config,omitempty"`
}

var profileHeader = []string{"timestep", "dtemp", "dTdz", "drhodz", "N2", "N", "R"}

// Save writes metadata.json and profile.csv under a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, profile []strat.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	name := strings.TrimSuffix(filepath.Base(meta.Dataset), filepath.Ext(meta.Dataset))
	if name == "" || name == "." {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixMilli())
	meta.ID = runID
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "profile.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeProfile(csvFile, profile); err != nil {
		return "", err
	}
	return runID, nil
}

func writeProfile(w io.Writer, profile []strat.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(profileHeader); err != nil {
		return err
	}
	for _, r := range profile {
		row := []string{strconv.Itoa(r.Timestep)}
		for _, v := range []float64{r.DTemp, r.DTdz, r.DRhodz, r.N2, r.N, r.R} {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadProfile(runID string) ([]strat.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "profile.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []strat.Result{}, nil
	}

	profile := make([]strat.Result, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(profileHeader) {
			return nil, fmt.Errorf("storage: profile row has %d fields, want %d", len(record), len(profileHeader))
		}
		ts, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("storage: timestep %q: %w", record[0], err)
		}
		vals := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("storage: %s %q: %w", profileHeader[i+1], field, err)
			}
		}
		profile = append(profile, strat.Result{
			Timestep: ts,
			DTemp:    vals[0],
			DTdz:     vals[1],
			DRhodz:   vals[2],
			N2:       vals[3],
			N:        vals[4],
			R:        vals[5],
		})
	}
	return profile, nil
}
