// Package capability provides the registry that owns every degradable
// unit of behavior: its implementation, metadata, and lifecycle state.
package capability

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Importance orders capabilities by how strongly they resist decay.
// Essential capabilities are protected outright.
type Importance int

const (
	Trivial   Importance = 1
	Low       Importance = 2
	Medium    Importance = 3
	High      Importance = 4
	Critical  Importance = 5
	Essential Importance = 6
)

func (i Importance) String() string {
	switch i {
	case Trivial:
		return "trivial"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	case Essential:
		return "essential"
	default:
		return fmt.Sprintf("importance(%d)", int(i))
	}
}

// Degradation levels. Transitions are one-way, one step at a time.
const (
	LevelIntact       = 0
	LevelApproximated = 1
	LevelStubbed      = 2
	LevelDeleted      = 3
)

var (
	ErrDuplicateCapability = errors.New("capability already registered")
	ErrUnknownCapability   = errors.New("unknown capability")
)

// Definition is the registration request for one capability.
type Definition struct {
	Name         string
	Importance   Importance
	Dependencies []string
	Resistance   float64
	Description  string
	Returns      Kind
	Impl         Func
}

// Metadata is the lifecycle record kept for each registered capability.
// It survives deletion; only the implementation becomes unreachable.
type Metadata struct {
	Name           string
	Importance     Importance
	Dependencies   []string
	Resistance     float64
	Description    string
	Returns        Kind
	Degraded       bool
	Level          int
	ExecutionCount int
}

// Registry is the single source of truth for capability state. All
// mutation goes through it; the decay engine and safety layer hold a
// shared reference rather than copies.
type Registry struct {
	mu       sync.RWMutex
	impls    map[string]Func
	original map[string]Func
	meta     map[string]*Metadata
	order    []string
	degraded []string
	deleted  []string
}

func New() *Registry {
	return &Registry{
		impls:    make(map[string]Func),
		original: make(map[string]Func),
		meta:     make(map[string]*Metadata),
	}
}

// Register adds a capability at level 0. Resistance is clamped into
// [0, 1]. Registering an existing name fails.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("capability name required")
	}
	if def.Impl == nil {
		return fmt.Errorf("capability %s: implementation required", def.Name)
	}
	if def.Importance == 0 {
		def.Importance = Medium
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meta[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCapability, def.Name)
	}

	deps := make([]string, len(def.Dependencies))
	copy(deps, def.Dependencies)

	r.impls[def.Name] = def.Impl
	r.original[def.Name] = def.Impl
	r.meta[def.Name] = &Metadata{
		Name:         def.Name,
		Importance:   def.Importance,
		Dependencies: deps,
		Resistance:   clamp01(def.Resistance),
		Description:  def.Description,
		Returns:      def.Returns,
	}
	r.order = append(r.order, def.Name)
	log.Printf("registry: registered %s (importance=%s)", def.Name, def.Importance)
	return nil
}

// Get returns the active implementation. Deleted and never-registered
// names both report absent; use Metadata to tell them apart.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.isDeleted(name) {
		return nil, false
	}
	fn, ok := r.impls[name]
	return fn, ok
}

// Original returns the implementation as first registered, regardless
// of later replacement.
func (r *Registry) Original(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.original[name]
	return fn, ok
}

// Metadata returns a copy of the capability's lifecycle record.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meta[name]
	if !ok {
		return Metadata{}, false
	}
	return *m, true
}

// Execute invokes the active implementation and counts the invocation.
// A deleted capability yields an unavailable outcome, not an error;
// only a name that was never registered is a caller mistake.
func (r *Registry) Execute(name string, args ...Value) (Outcome, error) {
	r.mu.Lock()
	if _, ok := r.meta[name]; !ok {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	if r.isDeleted(name) {
		r.mu.Unlock()
		log.Printf("registry: attempted to execute deleted capability %s", name)
		return Outcome{Unavailable: true}, nil
	}
	fn := r.impls[name]
	r.meta[name].ExecutionCount++
	r.mu.Unlock()

	v, err := fn(args...)
	if err != nil {
		return Outcome{}, fmt.Errorf("execute %s: %w", name, err)
	}
	return Outcome{Value: v}, nil
}

// ReplaceImpl swaps only the implementation, leaving lifecycle state
// untouched. Unknown names are ignored.
func (r *Registry) ReplaceImpl(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.impls[name]; !ok {
		return
	}
	r.impls[name] = fn
	log.Printf("registry: replaced implementation of %s", name)
}

// AdvanceLevel atomically claims the from -> from+1 transition. It
// fails if the capability is unknown, already past from, or fully
// decayed, so concurrent callers observing the same level race for one
// claim and the losers get false. The winner's claim also sets the
// degraded flag and, at the final level, the deletion record.
func (r *Registry) AdvanceLevel(name string, from int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meta[name]
	if !ok {
		return false
	}
	if m.Level != from || from+1 > LevelDeleted {
		return false
	}
	m.Level = from + 1
	if !m.Degraded {
		m.Degraded = true
		r.degraded = append(r.degraded, name)
	}
	if m.Level == LevelDeleted && !r.isDeleted(name) {
		r.deleted = append(r.deleted, name)
	}
	return true
}

// MarkDegraded advances a capability's degradation level. Levels never
// decrease; regressions and unknown names are no-ops.
func (r *Registry) MarkDegraded(name string, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meta[name]
	if !ok {
		return
	}
	if level > m.Level && level <= LevelDeleted {
		m.Level = level
	}
	if !m.Degraded {
		m.Degraded = true
		r.degraded = append(r.degraded, name)
	}
}

// MarkDeleted records permanent deletion. The metadata record remains
// queryable; only the lookup path starts reporting absent.
func (r *Registry) MarkDeleted(name string) {
	r.mu.Lock()
	if _, ok := r.meta[name]; !ok {
		r.mu.Unlock()
		return
	}
	if !r.isDeleted(name) {
		r.deleted = append(r.deleted, name)
	}
	r.mu.Unlock()
	r.MarkDegraded(name, LevelDeleted)
}

// List returns all registered, non-deleted capability names in
// registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.order {
		if !r.isDeleted(name) {
			names = append(names, name)
		}
	}
	return names
}

// ListActive returns capabilities that have not been degraded.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.order {
		if !r.meta[name].Degraded && !r.isDeleted(name) {
			names = append(names, name)
		}
	}
	return names
}

// ListDegraded returns capabilities that have decayed at least once,
// in the order they first degraded.
func (r *Registry) ListDegraded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.degraded))
	copy(out, r.degraded)
	return out
}

// ListDeleted returns fully-decayed capability names in deletion order.
func (r *Registry) ListDeleted() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.deleted))
	copy(out, r.deleted)
	return out
}

// DegradationCandidates returns every non-essential capability that can
// still decay, ordered by ascending importance then ascending
// resistance. The order is deterministic: ties keep registration order.
func (r *Registry) DegradationCandidates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, name := range r.order {
		m := r.meta[name]
		if m.Importance != Essential && !r.isDeleted(name) && m.Level < LevelDeleted {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, b := r.meta[names[i]], r.meta[names[j]]
		if a.Importance != b.Importance {
			return a.Importance < b.Importance
		}
		return a.Resistance < b.Resistance
	})
	return names
}

// Count returns the total number of registered capabilities, deleted
// included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ActiveCount returns the number of non-degraded capabilities.
func (r *Registry) ActiveCount() int {
	return len(r.ListActive())
}

// DegradedCount returns the number of capabilities that have decayed.
func (r *Registry) DegradedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.degraded)
}

// DependencyGraph maps every capability to its declared dependencies.
func (r *Registry) DependencyGraph() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	graph := make(map[string][]string, len(r.order))
	for _, name := range r.order {
		deps := make([]string, len(r.meta[name].Dependencies))
		copy(deps, r.meta[name].Dependencies)
		graph[name] = deps
	}
	return graph
}

// Dependents returns the capabilities that declare a dependency on name.
func (r *Registry) Dependents(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, cand := range r.order {
		for _, dep := range r.meta[cand].Dependencies {
			if dep == name {
				out = append(out, cand)
				break
			}
		}
	}
	return out
}

// isDeleted must be called with the lock held.
func (r *Registry) isDeleted(name string) bool {
	for _, d := range r.deleted {
		if d == name {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
