package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/trajopt/internal/transcribe"
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
	ID            string             `json:"id"`
	Model         string             `json:"model"`
	Scheme        string             `json:"scheme"`
	Degree        int                `json:"degree"`
	MeshIntervals int                `json:"mesh_intervals"`
	Timestamp     time.Time          `json:"timestamp"`
	Objective     float64            `json:"objective"`
	Status        string             `json:"status"`
	Success       bool               `json:"success"`
	Terms         map[string]float64 `json:"terms"`
}

// Save writes one solved trajectory as a run directory holding
// metadata.json and trajectory.csv, and returns the run ID.
func (s *Store) Save(model, scheme string, degree, meshIntervals int, sol *transcribe.Solution) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	terms := make(map[string]float64, len(sol.Terms))
	for _, term := range sol.Terms {
		terms[term.Name] = term.Value
	}
	meta := RunMetadata{
		ID:            runID,
		Model:         model,
		Scheme:        scheme,
		Degree:        degree,
		MeshIntervals: meshIntervals,
		Timestamp:     time.Now(),
		Objective:     sol.Objective,
		Status:        sol.Status,
		Success:       sol.Success,
		Terms:         terms,
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

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	header = append(header, sol.StateNames...)
	header = append(header, sol.ControlNames...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, t := range sol.Times {
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for r := range sol.StateNames {
			row = append(row, strconv.FormatFloat(sol.States.At(r, i), 'f', 6, 64))
		}
		for r := range sol.ControlNames {
			row = append(row, strconv.FormatFloat(sol.Controls.At(r, i), 'f', 6, 64))
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

// Trajectory is a loaded trajectory.csv: one row of values per named
// column, sampled at Times.
type Trajectory struct {
	Times   []float64
	Columns []string
	Values  [][]float64
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
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
		return &Trajectory{}, nil
	}

	columns := records[0][1:]
	traj := &Trajectory{
		Columns: columns,
		Values:  make([][]float64, len(columns)),
	}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != len(columns)+1 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		traj.Times = append(traj.Times, t)
		for j := range columns {
			val, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				val = 0
			}
			traj.Values[j] = append(traj.Values[j], val)
		}
	}

	return traj, nil
}
