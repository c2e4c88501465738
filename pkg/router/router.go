package router

import (
	"errors"
	"log"
	"sort"
)

// ErrEmptyRegistry is returned when routing with no registered profiles.
var ErrEmptyRegistry = errors.New("router: no model profiles registered")

// Scoring constants. The blend weights, specialty bonus, and parallel
// thresholds are contractual; they reproduce the tuned behavior exactly.
const (
	payoffWeight       = 0.4
	attributeWeight    = 0.6
	balancedWeight     = 0.5
	specialtyBonus     = 1.2
	defaultPayoff      = 0.5
	parallelConfidence = 0.85
	parallelScoreGap   = 0.15
)

// Router scores candidate models against a task descriptor and the payoff
// matrix. Given a snapshot of the matrix it is pure: identical inputs yield
// identical decisions.
type Router struct {
	registry *Registry
	matrix   *PayoffMatrix
	debug    bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDebug enables debug logging.
func WithDebug(debug bool) RouterOption {
	return func(r *Router) {
		r.debug = debug
	}
}

// NewRouter creates a router over the given registry and payoff matrix.
func NewRouter(registry *Registry, matrix *PayoffMatrix, opts ...RouterOption) *Router {
	r := &Router{registry: registry, matrix: matrix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type scoredModel struct {
	name  string
	score float64
	index int // registry position, stable tie-break
}

// Route picks the primary and fallback models for a task and decides whether
// to fan out in parallel.
func (r *Router) Route(tc TaskContext) (*Decision, error) {
	profiles := r.registry.Profiles()
	if len(profiles) == 0 {
		return nil, ErrEmptyRegistry
	}

	scored := make([]scoredModel, 0, len(profiles))
	for i, p := range profiles {
		score := r.scoreModel(tc, p)
		scored = append(scored, scoredModel{name: p.Name, score: score, index: i})
		if r.debug {
			log.Printf("[router] %s score=%.3f for task=%s priority=%s", p.Name, score, tc.Type, tc.Priority)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	primary := scored[0]
	fallback := primary
	if len(scored) > 1 {
		fallback = scored[1]
	}

	decision := &Decision{
		PrimaryModel:  primary.name,
		FallbackModel: fallback.name,
		Confidence:    primary.score,
	}

	gap := primary.score - fallback.score
	switch {
	case tc.RequiresParallel:
		decision.UseParallel = true
	case tc.Type == TaskComplex && decision.Confidence < parallelConfidence:
		decision.UseParallel = true
	case tc.Priority == PriorityQuality && len(scored) > 1 && gap < parallelScoreGap:
		decision.UseParallel = true
	}

	if decision.UseParallel {
		decision.ParallelModels = []string{primary.name}
		if len(scored) > 1 {
			decision.ParallelModels = append(decision.ParallelModels, fallback.name)
		}
	}

	return decision, nil
}

// scoreModel blends the learned payoff with the priority-selected static
// attribute, then applies the specialty bonus.
func (r *Router) scoreModel(tc TaskContext, p ModelProfile) float64 {
	base := defaultPayoff
	if payoff, ok := r.matrix.Get(tc.Type, p.Name); ok {
		base = payoff
	}

	var score float64
	switch tc.Priority {
	case PriorityQuality:
		score = payoffWeight*base + attributeWeight*p.Quality
	case PrioritySpeed:
		score = payoffWeight*base + attributeWeight*p.Speed
	case PriorityCost:
		score = payoffWeight*base + attributeWeight*(1-p.CostWeight)
	default: // balanced
		score = balancedWeight*base + balancedWeight*(p.Quality*p.Speed/(p.CostWeight+0.1))
	}

	if p.HasSpecialty(tc.Type) {
		score *= specialtyBonus
	}

	return clamp01(score)
}
