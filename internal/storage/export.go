package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/sim"
)

type ExportData struct {
	Metadata RunMetadata `json:"metadata"`
	Frames   []sim.Frame `json:"frames"`
}

// ExportJSON writes a stored run, metadata and frames, as one JSON document.
func (s *Store) ExportJSON(path, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return encode(file, ExportData{Metadata: *meta, Frames: frames})
}

// WriteParticles writes a particle set as indented JSON.
func WriteParticles(w io.Writer, ps []particle.Particle) error {
	return encode(w, ps)
}

func ReadParticles(r io.Reader) ([]particle.Particle, error) {
	var ps []particle.Particle
	if err := json.NewDecoder(r).Decode(&ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
