package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/experiment"
)

const (
	metadataFile    = "metadata.json"
	derivativesFile = "derivatives.csv"
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

type RunMetadata struct {
	ID         string                       `json:"id"`
	Scene      string                       `json:"scene"`
	Kind       string                       `json:"kind"`
	Timestamp  time.Time                    `json:"timestamp"`
	Score      float64                      `json:"score"`
	Restraints []experiment.RestraintResult `json:"restraints"`
	History    []float64                    `json:"history,omitempty"`
	Metrics    map[string]float64           `json:"metrics,omitempty"`
}

// ParticleRow is one line of derivatives.csv.
type ParticleRow struct {
	Name        string
	Coordinates algebra.Vector3D
	Derivatives algebra.Vector3D
}

// Save writes a run under a fresh id. kind is "eval", "minimize" or
// "grid"; history holds the scores of a minimization and metrics its
// summary, both may be nil. A failed save leaves no run directory behind.
func (s *Store) Save(scene, kind string, result *experiment.Result, history []float64, metrics map[string]float64) (runID string, err error) {
	runID = uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	meta := RunMetadata{
		ID:         runID,
		Scene:      scene,
		Kind:       kind,
		Timestamp:  time.Now(),
		Score:      result.Score,
		Restraints: result.Restraints,
		History:    history,
		Metrics:    metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeDerivatives(filepath.Join(runDir, derivativesFile), result.Particles); err != nil {
		return "", err
	}

	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	return f.Close()
}

func writeDerivatives(path string, particles []experiment.ParticleResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"particle", "x", "y", "z", "dx", "dy", "dz"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range particles {
		row := []string{p.Name}
		for _, v := range [...]float64{
			p.Coordinates.X, p.Coordinates.Y, p.Coordinates.Z,
			p.Derivatives.X, p.Derivatives.Y, p.Derivatives.Z,
		} {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns all runs, oldest first.
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
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadDerivatives(runID string) ([]ParticleRow, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, derivativesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]ParticleRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 7 {
			return nil, fmt.Errorf("%s line %d: want 7 fields, got %d", derivativesFile, i+2, len(rec))
		}
		var vals [6]float64
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", derivativesFile, i+2, err)
			}
			vals[j] = v
		}
		rows = append(rows, ParticleRow{
			Name:        rec[0],
			Coordinates: algebra.NewVector3D(vals[0], vals[1], vals[2]),
			Derivatives: algebra.NewVector3D(vals[3], vals[4], vals[5]),
		})
	}

	return rows, nil
}
