package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var frameHeader = []string{"step", "id", "mass", "diameter", "x", "y", "vx", "vy", "r", "g", "b"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was set up.
type RunInfo struct {
	Preset string
	Seed   int64
	World  dynamo.Region
	Params sim.Params
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Particles    int                `json:"particles"`
	Steps        int                `json:"steps"`
	World        WorldRecord        `json:"world"`
	Params       ParamsRecord       `json:"params"`
	Interactions int                `json:"interactions"`
	Clamped      int                `json:"clamped"`
	Metrics      map[string]float64 `json:"metrics"`
}

type WorldRecord struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ParamsRecord keeps the opening angle as text because +Inf is a valid
// setting that JSON numbers cannot carry.
type ParamsRecord struct {
	Gravity      float64 `json:"gravity"`
	Epsilon      float64 `json:"epsilon"`
	Scale        float64 `json:"scale"`
	OpeningAngle string  `json:"opening_angle"`
	Method       string  `json:"method"`
	Bounds       string  `json:"bounds"`
	MaxDepth     int     `json:"max_depth"`
}

func (m *RunMetadata) Region() dynamo.Region {
	return dynamo.NewRegion(dynamo.Vector{X: m.World.X, Y: m.World.Y}, m.World.Width, m.World.Height)
}

// SimParams rebuilds the parameters the run used. Workers is not recorded.
func (m *RunMetadata) SimParams() (sim.Params, error) {
	theta, err := strconv.ParseFloat(m.Params.OpeningAngle, 64)
	if err != nil {
		return sim.Params{}, fmt.Errorf("opening angle: %w", err)
	}
	p := sim.DefaultParams()
	p.Law.Gravity = m.Params.Gravity
	p.Law.Epsilon = m.Params.Epsilon
	p.Law.Scale = m.Params.Scale
	p.OpeningAngle = theta
	p.Method = sim.Method(m.Params.Method)
	p.Bounds = sim.BoundsPolicy(m.Params.Bounds)
	p.MaxDepth = m.Params.MaxDepth
	return p, nil
}

func NewRunID(preset string) string {
	if preset == "" {
		preset = "run"
	}
	return fmt.Sprintf("%s_%s", preset, uuid.NewString()[:8])
}

// Save writes the run's metadata and every recorded frame into a new run
// directory and returns its ID.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := NewRunID(info.Preset)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    info.Preset,
		Timestamp: time.Now(),
		Seed:      info.Seed,
		Steps:     result.StepsTaken,
		World: WorldRecord{
			X:      info.World.Origin.X,
			Y:      info.World.Origin.Y,
			Width:  info.World.Width,
			Height: info.World.Height,
		},
		Params: ParamsRecord{
			Gravity:      info.Params.Law.Gravity,
			Epsilon:      info.Params.Law.Epsilon,
			Scale:        info.Params.Law.Scale,
			OpeningAngle: strconv.FormatFloat(info.Params.OpeningAngle, 'g', -1, 64),
			Method:       string(info.Params.Method),
			Bounds:       string(info.Params.Bounds),
			MaxDepth:     info.Params.MaxDepth,
		},
		Interactions: result.Interactions,
		Clamped:      result.Clamped,
		Metrics:      finiteMetrics(result.Metrics),
	}
	if len(result.Frames) > 0 {
		meta.Particles = len(result.Frames[0].Particles)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFrames(csvFile, result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteFrames writes frames as CSV, one row per particle per frame.
func WriteFrames(out io.Writer, frames []sim.Frame) error {
	w := csv.NewWriter(out)
	if err := w.Write(frameHeader); err != nil {
		return err
	}

	for _, f := range frames {
		for _, p := range f.Particles {
			row := []string{
				strconv.Itoa(f.Step),
				strconv.FormatUint(p.ID, 10),
				formatFloat(p.Mass),
				formatFloat(p.Diameter),
				formatFloat(p.Position.X),
				formatFloat(p.Position.Y),
				formatFloat(p.Velocity.X),
				formatFloat(p.Velocity.Y),
				strconv.FormatFloat(float64(p.Color[0]), 'g', -1, 32),
				strconv.FormatFloat(float64(p.Color[1]), 'g', -1, 32),
				strconv.FormatFloat(float64(p.Color[2]), 'g', -1, 32),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer file.Close()

	return ReadFrames(file)
}

// ReadFrames parses the output of WriteFrames. Rows of the same step must be
// contiguous.
func ReadFrames(in io.Reader) ([]sim.Frame, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0)
	for i, record := range records[1:] {
		step, p, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(frames); n == 0 || frames[n-1].Step != step {
			frames = append(frames, sim.Frame{Step: step})
		}
		last := &frames[len(frames)-1]
		last.Particles = append(last.Particles, p)
	}
	return frames, nil
}

func parseRow(record []string) (int, particle.Particle, error) {
	var p particle.Particle

	step, err := strconv.Atoi(record[0])
	if err != nil {
		return 0, p, err
	}
	if p.ID, err = strconv.ParseUint(record[1], 10, 64); err != nil {
		return 0, p, err
	}

	floats := []*float64{&p.Mass, &p.Diameter, &p.Position.X, &p.Position.Y, &p.Velocity.X, &p.Velocity.Y}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(record[2+i], 64); err != nil {
			return 0, p, err
		}
	}
	for i := range p.Color {
		c, err := strconv.ParseFloat(record[8+i], 32)
		if err != nil {
			return 0, p, err
		}
		p.Color[i] = float32(c)
	}
	return step, p, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
