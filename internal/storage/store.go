package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Store keeps one trajectory file per system under a base directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Path returns the file the trajectory of system is kept in.
func (s *Store) Path(system string) string {
	return filepath.Join(s.baseDir, system+".txt")
}

// Save overwrites the trajectory file of system and returns its path.
func (s *Store) Save(system string, traj dynamo.Trajectory) (string, error) {
	path := s.Path(system)
	if err := WriteTrajectory(path, traj); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) Load(system string) (dynamo.Trajectory, error) {
	return ReadTrajectory(s.Path(system))
}

// WriteTrajectory writes one line per sample, "t\tx\ty\tz", with no header.
// Parent directories are created as needed.
func WriteTrajectory(path string, traj dynamo.Trajectory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, traj); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes traj to w in the trajectory file layout.
func Encode(w io.Writer, traj dynamo.Trajectory) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	row := make([]string, 4)
	for _, s := range traj {
		row[0] = formatFloat(s.T)
		for i, v := range s.State {
			row[i+1] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTrajectory loads a file written by WriteTrajectory. Empty files and
// blank lines are accepted.
func ReadTrajectory(path string) (dynamo.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traj, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return traj, nil
}

// Decode parses the trajectory file layout from r.
func Decode(r io.Reader) (dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = 4
	cr.ReuseRecord = true

	traj := dynamo.Trajectory{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return traj, nil
		}
		if err != nil {
			return nil, err
		}

		var vals [4]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}
		traj = append(traj, dynamo.Sample{T: vals[0], State: dynamo.State{vals[1], vals[2], vals[3]}})
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
