package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/quadtree"
	"github.com/san-kum/quadsim/internal/sim"
	"go.uber.org/zap"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	// energy is a pairwise sum; above this it costs more than the step
	energyLimit = 2000
	// grid cells smaller than this many pixels are not drawn
	minCellPixels = 3
)

type TickMsg time.Time

// Model steps a particle set on every tick and renders it.
type Model struct {
	title     string
	world     dynamo.Region
	params    sim.Params
	seeder    sim.Seeder
	seed      int64
	particles []particle.Particle

	canvas     *Canvas
	projection Projection
	tickRate   time.Duration
	log        *zap.Logger

	running      bool
	showGrid     bool
	step         int
	stats        sim.StepStats
	energy       []float64
	interactions []float64
	err          error
}

type Option func(*Model)

func WithTitle(title string) Option { return func(m *Model) { m.title = title } }

func WithTickRate(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tickRate = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// NewModel seeds the first particle set with seeder(seed).
func NewModel(world dynamo.Region, params sim.Params, seeder sim.Seeder, seed int64, opts ...Option) (Model, error) {
	if err := world.Validate(); err != nil {
		return Model{}, err
	}
	if err := params.Validate(); err != nil {
		return Model{}, err
	}

	canvas := NewCanvas(width, height)
	m := Model{
		title:        "quadsim",
		world:        world,
		params:       params,
		seeder:       seeder,
		seed:         seed,
		canvas:       canvas,
		projection:   NewProjection(world, canvas),
		tickRate:     time.Second / 30,
		log:          zap.NewNop(),
		running:      true,
		energy:       make([]float64, 0, historyCapacity),
		interactions: make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}

	if err := m.reseed(m.seed); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance()
			}
		case "g":
			m.showGrid = !m.showGrid
		case "r":
			if err := m.reseed(m.seed + 1); err != nil {
				m.fail(err)
			}
		case "m":
			if m.params.Method == sim.Direct {
				m.params.Method = sim.BarnesHut
			} else {
				m.params.Method = sim.Direct
			}
		case "+", "=":
			if m.params.OpeningAngle == 0 {
				m.params.OpeningAngle = 0.1
			} else {
				m.params.OpeningAngle *= 1.25
			}
		case "-", "_":
			m.params.OpeningAngle /= 1.25
			if m.params.OpeningAngle < 0.01 {
				m.params.OpeningAngle = 0
			}
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, m.tickCmd()
	}
	return m, nil
}

// advance runs one simulation step. A failed step pauses the view and
// keeps the last good particle set on screen.
func (m *Model) advance() {
	next, stats, err := sim.Step(m.particles, m.world, m.params)
	if err != nil {
		m.fail(err)
		return
	}
	m.particles = next
	m.stats = stats
	m.step++

	m.interactions = pushBounded(m.interactions, stats.MeanInteractions(len(next)))
	if len(next) <= energyLimit {
		m.energy = pushBounded(m.energy, physics.TotalEnergy(next, m.params.Law))
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
	m.log.Warn("live view paused", zap.Int("step", m.step), zap.Error(err))
}

func (m *Model) reseed(seed int64) error {
	ps, err := m.seeder(seed)
	if err != nil {
		return err
	}
	m.seed = seed
	m.particles = ps
	m.step = 0
	m.stats = sim.StepStats{}
	m.energy = m.energy[:0]
	m.interactions = m.interactions[:0]
	m.err = nil
	return nil
}

func pushBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.showGrid {
		m.drawGrid()
	}
	for _, p := range m.particles {
		x, y, ok := m.projection.Pixel(p.Position)
		if !ok {
			continue
		}
		m.canvas.Set(x, y)
		if p.Diameter > m.world.Size()/float64(m.projection.Width) {
			m.canvas.Set(x+1, y)
			m.canvas.Set(x, y+1)
			m.canvas.Set(x+1, y+1)
		}
	}
}

// drawGrid outlines the quad-tree cells for the particles on screen.
func (m *Model) drawGrid() {
	tree := quadtree.New(m.world, quadtree.WithMaxDepth(m.params.MaxTreeDepth()))
	for _, p := range m.particles {
		p.Position = m.world.Clamp(p.Position)
		tree.Insert(p)
	}
	cell := m.world.Size() / float64(max(m.projection.Width, m.projection.Height))
	tree.Walk(func(t *quadtree.Tree) bool {
		r := t.Region()
		if r.Size() < minCellPixels*cell {
			return false
		}
		m.canvas.DrawRegion(m.projection, r)
		return true
	})
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusError.Render("ERROR")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.step))
	row("Particles", fmt.Sprintf("%d", len(m.particles)))
	row("Seed", fmt.Sprintf("%d", m.seed))
	row("Method", string(m.params.Method))
	row("Theta", fmt.Sprintf("%.3g", m.params.OpeningAngle))
	row("Calls/body", fmt.Sprintf("%.1f", m.stats.MeanInteractions(len(m.particles))))
	row("Tree depth", fmt.Sprintf("%d (%d nodes)", m.stats.TreeDepth, m.stats.TreeNodes))
	row("Clamped", fmt.Sprintf("%d", m.stats.Clamped))
	row("Step time", m.stats.Duration.Round(time.Microsecond).String())
	s.WriteString("\n" + SparklineChart(m.interactions, 30) + "\n")

	if m.err != nil {
		s.WriteString("\n" + StatusError.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause N:Step G:Grid R:Reseed\nM:Method +/-:Theta Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Run starts the live view and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
