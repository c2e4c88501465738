package router

// Registry holds the known model profiles in registration order. Order
// matters: the router breaks score ties by position, so the slice is the
// stable tie-break.
type Registry struct {
	profiles []ModelProfile
}

// NewRegistry creates a registry from the given profiles.
func NewRegistry(profiles ...ModelProfile) *Registry {
	r := &Registry{}
	for _, p := range profiles {
		r.Register(p)
	}
	return r
}

// Register appends a profile, replacing any existing profile with the same
// name in place so positional tie-breaking stays stable.
func (r *Registry) Register(p ModelProfile) {
	for i, existing := range r.profiles {
		if existing.Name == p.Name {
			r.profiles[i] = p
			return
		}
	}
	r.profiles = append(r.profiles, p)
}

// Profiles returns a copy of the registered profiles in order.
func (r *Registry) Profiles() []ModelProfile {
	out := make([]ModelProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (ModelProfile, bool) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return ModelProfile{}, false
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// DefaultRegistry returns the built-in model capability registry.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ModelProfile{
			Name:        "claude-sonnet-4-20250514",
			Quality:     0.95,
			Speed:       0.6,
			CostWeight:  0.8,
			Specialties: []TaskType{TaskCode, TaskComplex},
		},
		ModelProfile{
			Name:        "gpt-5.2-instant",
			Quality:     0.85,
			Speed:       0.95,
			CostWeight:  0.3,
			Specialties: []TaskType{TaskSimple},
		},
		ModelProfile{
			Name:        "gemini-2.0-pro",
			Quality:     0.85,
			Speed:       0.8,
			CostWeight:  0.5,
			Specialties: []TaskType{TaskResearch, TaskVision},
		},
		ModelProfile{
			Name:        "deepseek-chat",
			Quality:     0.8,
			Speed:       0.7,
			CostWeight:  0.1,
			Specialties: []TaskType{TaskCode},
		},
	)
}
