// Package introspect gives the system a read-only view of its own
// degradation: weighted health scoring, state snapshots, and a ledger
// of lost capabilities.
package introspect

import (
	"log"
	"sync"
	"time"

	"github.com/lazypower/lethe/internal/capability"
)

// State is a snapshot of aggregate capability counts and health.
type State struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Active    int       `json:"active"`
	Degraded  int       `json:"degraded"`
	Deleted   int       `json:"deleted"`
	Health    float64   `json:"health"`
}

// Loss records a capability that decayed all the way to deletion.
type Loss struct {
	Name        string                `json:"name"`
	Importance  capability.Importance `json:"importance"`
	LostAt      time.Time             `json:"lost_at"`
	Level       int                   `json:"level"`
	Description string                `json:"description"`
}

// Summary aggregates the fields callers usually want together.
type Summary struct {
	Uptime    time.Duration `json:"uptime"`
	Health    float64       `json:"health"`
	Trend     string        `json:"trend"`
	Total     int           `json:"total"`
	Active    int           `json:"active"`
	Degraded  int           `json:"degraded"`
	Deleted   int           `json:"deleted"`
	LostCount int           `json:"lost_count"`
	States    int           `json:"states"`
}

// Contribution factors per degradation level. An approximated
// capability still carries most of its weight; a stub carries little.
const (
	factorApproximated = 0.7
	factorStubbed      = 0.3
)

// Introspector computes health over the capability set known at
// initialization time. Capabilities registered later are observable but
// do not join the weight denominator.
type Introspector struct {
	reg *capability.Registry

	mu      sync.Mutex
	history []State
	losses  []Loss
	known   []string
	start   time.Time
}

func New(reg *capability.Registry) *Introspector {
	return &Introspector{reg: reg, start: time.Now()}
}

// Initialize captures the capability set that health is measured
// against. Call it once, after all registrations.
func (in *Introspector) Initialize() {
	known := append([]string(nil), in.reg.List()...)
	in.mu.Lock()
	in.known = known
	in.mu.Unlock()
	in.CurrentState()
	log.Printf("introspect: initialized with %d capabilities", len(known))
}

// Health computes the weighted-completeness percentage on demand. Each
// known capability contributes its importance rank, scaled by its
// current degradation level. A system with nothing to lose is vacuously
// healthy.
func (in *Introspector) Health() float64 {
	in.mu.Lock()
	known := append([]string(nil), in.known...)
	in.mu.Unlock()

	if len(known) == 0 {
		return 100.0
	}

	totalWeight := 0.0
	currentWeight := 0.0
	for _, name := range known {
		m, ok := in.reg.Metadata(name)
		if !ok {
			continue
		}
		weight := float64(m.Importance)
		totalWeight += weight
		switch m.Level {
		case capability.LevelIntact:
			currentWeight += weight
		case capability.LevelApproximated:
			currentWeight += weight * factorApproximated
		case capability.LevelStubbed:
			currentWeight += weight * factorStubbed
		}
	}

	if totalWeight == 0 {
		return 100.0
	}
	return currentWeight / totalWeight * 100.0
}

// CurrentState captures and records a snapshot of registry state.
func (in *Introspector) CurrentState() State {
	s := State{
		Timestamp: time.Now(),
		Total:     in.reg.Count(),
		Active:    in.reg.ActiveCount(),
		Degraded:  in.reg.DegradedCount(),
		Deleted:   len(in.reg.ListDeleted()),
		Health:    in.Health(),
	}
	in.mu.Lock()
	in.history = append(in.history, s)
	in.mu.Unlock()
	return s
}

// StateHistory returns all recorded snapshots.
func (in *Introspector) StateHistory() []State {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]State, len(in.history))
	copy(out, in.history)
	return out
}

// RecentStates returns the most recent n snapshots, oldest first.
func (in *Introspector) RecentStates(n int) []State {
	in.mu.Lock()
	defer in.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(in.history) {
		n = len(in.history)
	}
	out := make([]State, n)
	copy(out, in.history[len(in.history)-n:])
	return out
}

// UpdateLosses scans for newly deleted capabilities and appends them to
// the loss ledger. Returns only the new losses.
func (in *Introspector) UpdateLosses() []Loss {
	var fresh []Loss
	now := time.Now()

	in.mu.Lock()
	defer in.mu.Unlock()

	recorded := make(map[string]bool, len(in.losses))
	for _, l := range in.losses {
		recorded[l.Name] = true
	}

	for _, name := range in.reg.ListDeleted() {
		if recorded[name] {
			continue
		}
		m, ok := in.reg.Metadata(name)
		if !ok {
			continue
		}
		loss := Loss{
			Name:        name,
			Importance:  m.Importance,
			LostAt:      now,
			Level:       m.Level,
			Description: m.Description,
		}
		in.losses = append(in.losses, loss)
		fresh = append(fresh, loss)
		log.Printf("introspect: recorded capability loss: %s", name)
	}
	return fresh
}

// Losses returns the full loss ledger.
func (in *Introspector) Losses() []Loss {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]Loss, len(in.losses))
	copy(out, in.losses)
	return out
}

// LostCount returns how many capabilities have been recorded as lost.
func (in *Introspector) LostCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.losses)
}

// Uptime reports elapsed time since construction.
func (in *Introspector) Uptime() time.Duration {
	return time.Since(in.start)
}

// HealthTrend classifies the recent health trajectory from the last few
// snapshots.
func (in *Introspector) HealthTrend() string {
	in.mu.Lock()
	history := in.history
	var recent []State
	if len(history) > 5 {
		recent = history[len(history)-5:]
	} else {
		recent = history
	}
	recent = append([]State(nil), recent...)
	in.mu.Unlock()

	if len(recent) < 2 {
		return "stable"
	}

	current := recent[len(recent)-1].Health
	avgChange := (current - recent[0].Health) / float64(len(recent))

	switch {
	case current < 20:
		return "critical"
	case avgChange < -5:
		return "declining"
	case avgChange < -1:
		return "slow_decline"
	default:
		return "stable"
	}
}

// Summary captures a fresh snapshot plus trend and ledger counts.
func (in *Introspector) Summary() Summary {
	s := in.CurrentState()
	return Summary{
		Uptime:    in.Uptime(),
		Health:    s.Health,
		Trend:     in.HealthTrend(),
		Total:     s.Total,
		Active:    s.Active,
		Degraded:  s.Degraded,
		Deleted:   s.Deleted,
		LostCount: in.LostCount(),
		States:    len(in.StateHistory()),
	}
}

// CanRemember reports whether a capability still exists and functions
// at some level.
func (in *Introspector) CanRemember(name string) bool {
	m, ok := in.reg.Metadata(name)
	if !ok {
		return false
	}
	return m.Level < capability.LevelDeleted
}

// ForgottenNames returns the capabilities that decayed to deletion.
func (in *Introspector) ForgottenNames() []string {
	return in.reg.ListDeleted()
}

// FadingNames returns capabilities that are degraded but still present.
func (in *Introspector) FadingNames() []string {
	deleted := make(map[string]bool)
	for _, name := range in.reg.ListDeleted() {
		deleted[name] = true
	}
	var fading []string
	for _, name := range in.reg.ListDegraded() {
		if !deleted[name] {
			fading = append(fading, name)
		}
	}
	return fading
}
