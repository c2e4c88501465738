package router

import "sync"

// Rating is the user's verdict on a response.
type Rating string

// Known ratings.
const (
	RatingGood   Rating = "good"
	RatingBad    Rating = "bad"
	RatingGlitch Rating = "glitch"
)

// Feedback update constants. The learning rate and slow-response penalty are
// contractual: changing them changes how fast the matrix converges.
const (
	learningRate        = 0.1
	slowResponsePenalty = 0.2
	slowResponseMs      = 10000
)

var rewardByRating = map[Rating]float64{
	RatingGood:   1.0,
	RatingBad:    -0.5,
	RatingGlitch: -1.0,
}

// PayoffMatrix is the process-wide learned effectiveness table, keyed by
// task type and model name. All reads and writes go through the mutex; the
// reinforcement update is last-write-wins, so no stronger isolation is
// needed.
type PayoffMatrix struct {
	mu    sync.RWMutex
	cells map[TaskType]map[string]float64
}

// NewPayoffMatrix creates an empty payoff matrix.
func NewPayoffMatrix() *PayoffMatrix {
	return &PayoffMatrix{cells: make(map[TaskType]map[string]float64)}
}

// NewPayoffMatrixFrom creates a matrix seeded with the given cells.
func NewPayoffMatrixFrom(seed map[TaskType]map[string]float64) *PayoffMatrix {
	m := NewPayoffMatrix()
	for task, models := range seed {
		for model, payoff := range models {
			m.Set(task, model, payoff)
		}
	}
	return m
}

// SeedUniform creates a matrix with every (task, model) cell set to the same
// initial payoff.
func SeedUniform(registry *Registry, initial float64) *PayoffMatrix {
	m := NewPayoffMatrix()
	tasks := []TaskType{TaskSimple, TaskComplex, TaskCode, TaskResearch, TaskVision}
	for _, task := range tasks {
		for _, p := range registry.Profiles() {
			m.Set(task, p.Name, initial)
		}
	}
	return m
}

// Get returns the payoff for a (task, model) cell.
func (m *PayoffMatrix) Get(task TaskType, model string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	models, ok := m.cells[task]
	if !ok {
		return 0, false
	}
	payoff, ok := models[model]
	return payoff, ok
}

// Set writes a payoff cell, clamped to [0,1]. This is the only way cells are
// created; feedback never creates them.
func (m *PayoffMatrix) Set(task TaskType, model string, payoff float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	models, ok := m.cells[task]
	if !ok {
		models = make(map[string]float64)
		m.cells[task] = models
	}
	models[model] = clamp01(payoff)
}

// Update applies reinforcement-style feedback to an existing cell. Unknown
// (task, model) pairs are a no-op.
func (m *PayoffMatrix) Update(task TaskType, model string, rating Rating, responseTimeMs int64) {
	reward, ok := rewardByRating[rating]
	if !ok {
		return
	}
	if responseTimeMs > slowResponseMs {
		reward -= slowResponsePenalty
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	models, ok := m.cells[task]
	if !ok {
		return
	}
	current, ok := models[model]
	if !ok {
		return
	}
	models[model] = clamp01(current + learningRate*(reward-current))
}

// Snapshot returns a deep copy of the matrix contents.
func (m *PayoffMatrix) Snapshot() map[TaskType]map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[TaskType]map[string]float64, len(m.cells))
	for task, models := range m.cells {
		copied := make(map[string]float64, len(models))
		for model, payoff := range models {
			copied[model] = payoff
		}
		out[task] = copied
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
