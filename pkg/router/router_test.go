package router

import (
	"math"
	"testing"
)

func testRegistry() *Registry {
	return NewRegistry(
		ModelProfile{
			Name:        "model-a",
			Quality:     0.95,
			Speed:       0.6,
			CostWeight:  0.8,
			Specialties: []TaskType{TaskCode},
		},
		ModelProfile{
			Name:       "model-b",
			Quality:    0.85,
			Speed:      0.95,
			CostWeight: 0.3,
		},
	)
}

func TestRouteEmptyRegistry(t *testing.T) {
	r := NewRouter(NewRegistry(), NewPayoffMatrix())
	if _, err := r.Route(TaskContext{Type: TaskSimple, Priority: PrioritySpeed}); err != ErrEmptyRegistry {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestRouteCodeQuality(t *testing.T) {
	// With an empty matrix every base payoff is 0.5.
	// model-a: 0.4*0.5 + 0.6*0.95 = 0.77, specialty bonus *1.2 = 0.924
	// model-b: 0.4*0.5 + 0.6*0.85 = 0.71
	r := NewRouter(testRegistry(), NewPayoffMatrix())

	d, err := r.Route(TaskContext{Type: TaskCode, Priority: PriorityQuality})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if d.PrimaryModel != "model-a" {
		t.Fatalf("expected model-a primary, got %s", d.PrimaryModel)
	}
	if d.FallbackModel != "model-b" {
		t.Fatalf("expected model-b fallback, got %s", d.FallbackModel)
	}
	if math.Abs(d.Confidence-0.924) > 1e-9 {
		t.Fatalf("confidence mismatch: got %.6f want 0.924", d.Confidence)
	}
	// Gap 0.924-0.71 = 0.214 >= 0.15, so no quality-driven parallelism.
	if d.UseParallel {
		t.Fatalf("expected useParallel=false, got true")
	}
}

func TestRouteQualityCloseScoresParallel(t *testing.T) {
	reg := NewRegistry(
		ModelProfile{Name: "model-a", Quality: 0.9, Speed: 0.5, CostWeight: 0.5},
		ModelProfile{Name: "model-b", Quality: 0.85, Speed: 0.5, CostWeight: 0.5},
	)
	r := NewRouter(reg, NewPayoffMatrix())

	d, err := r.Route(TaskContext{Type: TaskSimple, Priority: PriorityQuality})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	// Scores 0.74 vs 0.71, gap 0.03 < 0.15.
	if !d.UseParallel {
		t.Fatalf("expected parallel routing for close quality scores")
	}
	if len(d.ParallelModels) != 2 {
		t.Fatalf("expected two parallel models, got %v", d.ParallelModels)
	}
}

func TestRouteComplexLowConfidenceParallel(t *testing.T) {
	reg := NewRegistry(
		ModelProfile{Name: "model-a", Quality: 0.5, Speed: 0.5, CostWeight: 0.5},
		ModelProfile{Name: "model-b", Quality: 0.5, Speed: 0.5, CostWeight: 0.5},
	)
	r := NewRouter(reg, NewPayoffMatrix())

	d, err := r.Route(TaskContext{Type: TaskComplex, Priority: PriorityBalanced})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if d.Confidence >= 0.85 {
		t.Fatalf("setup broken: confidence %.3f too high", d.Confidence)
	}
	if !d.UseParallel {
		t.Fatalf("expected parallel routing for low-confidence complex task")
	}
}

func TestRouteRequiresParallel(t *testing.T) {
	r := NewRouter(testRegistry(), NewPayoffMatrix())
	d, err := r.Route(TaskContext{Type: TaskSimple, Priority: PrioritySpeed, RequiresParallel: true})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if !d.UseParallel {
		t.Fatalf("expected explicit parallel request to be honored")
	}
}

func TestRouteSingleProfileFallbackEqualsPrimary(t *testing.T) {
	reg := NewRegistry(ModelProfile{Name: "only", Quality: 0.9, Speed: 0.9, CostWeight: 0.5})
	r := NewRouter(reg, NewPayoffMatrix())
	d, err := r.Route(TaskContext{Type: TaskSimple, Priority: PrioritySpeed})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if d.FallbackModel != d.PrimaryModel {
		t.Fatalf("expected fallback==primary with one profile, got %s", d.FallbackModel)
	}
}

func TestRouteScoresStayInRange(t *testing.T) {
	// Balanced blending can overshoot before the clamp: quality*speed/(cost+0.1)
	// exceeds 1 for cheap high-quality models.
	reg := NewRegistry(
		ModelProfile{Name: "cheap", Quality: 0.95, Speed: 0.95, CostWeight: 0.05, Specialties: []TaskType{TaskCode}},
		ModelProfile{Name: "flat", Quality: 0, Speed: 0, CostWeight: 1},
	)
	r := NewRouter(reg, NewPayoffMatrix())

	tasks := []TaskType{TaskSimple, TaskComplex, TaskCode, TaskResearch, TaskVision}
	priorities := []Priority{PriorityQuality, PrioritySpeed, PriorityCost, PriorityBalanced}
	for _, task := range tasks {
		for _, prio := range priorities {
			d, err := r.Route(TaskContext{Type: task, Priority: prio})
			if err != nil {
				t.Fatalf("route failed: %v", err)
			}
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Fatalf("confidence out of range for %s/%s: %.4f", task, prio, d.Confidence)
			}
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	reg := DefaultRegistry()
	m := SeedUniform(reg, 0.5)
	m.Set(TaskCode, "deepseek-chat", 0.8)
	r := NewRouter(reg, m)

	tc := TaskContext{Type: TaskCode, Priority: PriorityBalanced}
	first, err := r.Route(tc)
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.Route(tc)
		if err != nil {
			t.Fatalf("route failed: %v", err)
		}
		if again.PrimaryModel != first.PrimaryModel ||
			again.FallbackModel != first.FallbackModel ||
			again.UseParallel != first.UseParallel ||
			again.Confidence != first.Confidence {
			t.Fatalf("routing not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestRoutePayoffInfluencesChoice(t *testing.T) {
	reg := NewRegistry(
		ModelProfile{Name: "model-a", Quality: 0.8, Speed: 0.8, CostWeight: 0.5},
		ModelProfile{Name: "model-b", Quality: 0.8, Speed: 0.8, CostWeight: 0.5},
	)
	m := NewPayoffMatrix()
	m.Set(TaskSimple, "model-a", 0.2)
	m.Set(TaskSimple, "model-b", 0.9)
	r := NewRouter(reg, m)

	d, err := r.Route(TaskContext{Type: TaskSimple, Priority: PrioritySpeed})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if d.PrimaryModel != "model-b" {
		t.Fatalf("expected learned payoff to promote model-b, got %s", d.PrimaryModel)
	}
}

func TestRouteTieBreakByRegistryOrder(t *testing.T) {
	reg := NewRegistry(
		ModelProfile{Name: "first", Quality: 0.8, Speed: 0.8, CostWeight: 0.5},
		ModelProfile{Name: "second", Quality: 0.8, Speed: 0.8, CostWeight: 0.5},
	)
	r := NewRouter(reg, NewPayoffMatrix())
	d, err := r.Route(TaskContext{Type: TaskSimple, Priority: PrioritySpeed})
	if err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if d.PrimaryModel != "first" {
		t.Fatalf("expected registry order to break ties, got %s", d.PrimaryModel)
	}
}
