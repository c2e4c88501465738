package router

// TaskType categorizes a user request.
type TaskType string

// Known task types.
const (
	TaskSimple   TaskType = "simple"
	TaskComplex  TaskType = "complex"
	TaskCode     TaskType = "code"
	TaskResearch TaskType = "research"
	TaskVision   TaskType = "vision"
)

// Priority expresses what the caller wants optimized.
type Priority string

// Known priorities.
const (
	PriorityQuality  Priority = "quality"
	PrioritySpeed    Priority = "speed"
	PriorityCost     Priority = "cost"
	PriorityBalanced Priority = "balanced"
)

// TaskContext describes a classified request.
type TaskContext struct {
	Type             TaskType `json:"type"`
	Priority         Priority `json:"priority"`
	RequiresParallel bool     `json:"requires_parallel,omitempty"`
}

// Decision captures the outcome of routing a task.
type Decision struct {
	PrimaryModel   string   `json:"primary_model"`
	FallbackModel  string   `json:"fallback_model"`
	UseParallel    bool     `json:"use_parallel"`
	ParallelModels []string `json:"parallel_models,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// ModelProfile holds the static capability attributes of one backend model.
// Quality, Speed and CostWeight are all in [0,1]; higher CostWeight means
// more expensive.
type ModelProfile struct {
	Name        string     `json:"name" yaml:"name"`
	Quality     float64    `json:"quality" yaml:"quality"`
	Speed       float64    `json:"speed" yaml:"speed"`
	CostWeight  float64    `json:"cost_weight" yaml:"cost_weight"`
	Specialties []TaskType `json:"specialties,omitempty" yaml:"specialties,omitempty"`
}

// HasSpecialty reports whether the profile lists the task type as a specialty.
func (p ModelProfile) HasSpecialty(t TaskType) bool {
	for _, s := range p.Specialties {
		if s == t {
			return true
		}
	}
	return false
}
