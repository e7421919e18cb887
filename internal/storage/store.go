// Package storage persists batched rollout runs: one directory per
// run holding metadata.json and an environment-major CSV of gathered
// frames.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
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
	ID               string             `json:"id"`
	Model            string             `json:"model"`
	Timestamp        time.Time          `json:"timestamp"`
	NumEnvs          int                `json:"num_envs"`
	Steps            int                `json:"steps"`
	Dt               float64            `json:"dt"`
	SolverIterations int                `json:"solver_iterations"`
	Field            string             `json:"field"`
	PerEnvDim        int                `json:"per_env_dim"`
	Seed             int64              `json:"seed"`
	Metrics          map[string]float64 `json:"metrics"`
}

// Save writes one run: metadata plus the per-step gathered frames of
// the recorded field. Each frame must have length NumEnvs*PerEnvDim.
// Returns the generated run ID.
func (s *Store) Save(meta RunMetadata, frames [][]float64) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

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

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(frames) == 0 {
		return runID, nil
	}

	header := []string{"step"}
	for e := 0; e < meta.NumEnvs; e++ {
		for j := 0; j < meta.PerEnvDim; j++ {
			header = append(header, fmt.Sprintf("e%d_%s%d", e, meta.Field, j))
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for step, frame := range frames {
		row := make([]string, 0, len(frame)+1)
		row = append(row, strconv.Itoa(step))
		for _, v := range frame {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

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

// LoadFrames reads a run's gathered frames back, one flat buffer per
// step.
func (s *Store) LoadFrames(runID string) ([][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	frames := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		frame := make([]float64, 0, len(record)-1)
		for _, cell := range record[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			frame = append(frame, v)
		}
		frames = append(frames, frame)
	}

	return frames, nil
}
