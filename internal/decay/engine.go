// Package decay implements the engine that progressively degrades
// registered capabilities through approximation, stubbing, and deletion.
package decay

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/lazypower/lethe/internal/capability"
)

// Decay kinds, matching the three level transitions.
const (
	DecayApproximate = "approximate"
	DecayStub        = "stub"
	DecayDelete      = "delete"
)

const (
	minInterval      = time.Second
	defaultErrorRate = 0.1
	minWeight        = 0.01
)

// Event is the immutable record of one applied degradation transition.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Capability string    `json:"capability"`
	Type       string    `json:"type"`
	OldLevel   int       `json:"old_level"`
	NewLevel   int       `json:"new_level"`
}

// Stats summarizes the engine's activity so far.
type Stats struct {
	TotalDecays    int           `json:"total_decays"`
	Interval       time.Duration `json:"interval"`
	Probability    float64       `json:"probability"`
	Enabled        bool          `json:"enabled"`
	Approximations int           `json:"approximations"`
	Stubs          int           `json:"stubs"`
	Deletions      int           `json:"deletions"`
	HistoryLength  int           `json:"history_length"`
}

// Engine drives degradation over a shared registry. Each tick it decides
// whether to act (enabled, interval elapsed, probability draw), which
// capability to hit (importance- and resistance-weighted roulette), and
// applies the next level transition.
type Engine struct {
	reg *capability.Registry

	mu          sync.Mutex
	interval    time.Duration
	probability float64
	errorRate   float64
	rng         *rand.Rand
	history     []Event
	lastDecay   time.Time
	total       int
	enabled     bool
}

// New creates an engine over the given registry. The same seed over the
// same registrations reproduces the same decay sequence.
func New(reg *capability.Registry, interval time.Duration, probability float64, seed int64) *Engine {
	if interval < minInterval {
		interval = minInterval
	}
	return &Engine{
		reg:         reg,
		interval:    interval,
		probability: clamp01(probability),
		errorRate:   defaultErrorRate,
		rng:         rand.New(rand.NewSource(seed)),
		lastDecay:   time.Now(),
		enabled:     true,
	}
}

// Interval returns the minimum time between successful decays.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// SetInterval updates the decay interval, floored at one second.
func (e *Engine) SetInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d < minInterval {
		d = minInterval
	}
	e.interval = d
}

// Probability returns the per-tick decay probability.
func (e *Engine) Probability() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probability
}

// SetProbability updates the decay probability, clamped into [0, 1].
func (e *Engine) SetProbability(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probability = clamp01(p)
}

// Enabled reports whether ticks may decay.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Engine) Enable() {
	e.mu.Lock()
	e.enabled = true
	e.mu.Unlock()
	log.Printf("decay: engine enabled")
}

func (e *Engine) Disable() {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
	log.Printf("decay: engine disabled")
}

// ShouldDecay gates a tick on three conditions: the engine is enabled,
// the interval has elapsed since the last decay, and a uniform draw
// lands under the probability. Failing any aborts the tick silently.
func (e *Engine) ShouldDecay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled {
		return false
	}
	if time.Since(e.lastDecay) < e.interval {
		return false
	}
	return e.rng.Float64() < e.probability
}

// SelectTarget picks a degradation target by roulette-wheel selection.
// Weight is importanceWeight * resistanceWeight, scaled down for
// already-degraded candidates so damage spreads rather than finishing
// one target off. Every candidate keeps a small positive floor weight.
func (e *Engine) SelectTarget() (string, bool) {
	candidates := e.reg.DegradationCandidates()
	if len(candidates) == 0 {
		return "", false
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for i, name := range candidates {
		w := minWeight
		if m, ok := e.reg.Metadata(name); ok {
			importanceWeight := float64(7-int(m.Importance)) / 6.0
			resistanceWeight := 1.0 - m.Resistance
			w = importanceWeight * resistanceWeight
			if m.Degraded {
				w *= float64(3-m.Level) / 3.0
			}
			w = math.Max(minWeight, w)
		}
		weights[i] = w
		total += w
	}

	e.mu.Lock()
	r := e.rng.Float64() * total
	e.mu.Unlock()

	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return candidates[i], true
		}
	}
	return candidates[len(candidates)-1], true
}

// ApplyDecay advances the named capability by one level and installs the
// matching replacement behavior. Essential capabilities and fully
// decayed capabilities yield no event; both are expected outcomes, not
// errors.
func (e *Engine) ApplyDecay(name string) (Event, bool) {
	meta, ok := e.reg.Metadata(name)
	if !ok {
		return Event{}, false
	}
	if meta.Importance == capability.Essential {
		log.Printf("decay: refusing to decay essential capability %s", name)
		return Event{}, false
	}

	oldLevel := meta.Level
	newLevel := oldLevel + 1
	if newLevel > capability.LevelDeleted {
		return Event{}, false
	}

	// Claim the transition first. A concurrent caller that observed the
	// same level loses the claim and reports no event, so each level
	// step is recorded exactly once.
	if !e.reg.AdvanceLevel(name, oldLevel) {
		return Event{}, false
	}

	var decayType string
	switch newLevel {
	case capability.LevelApproximated:
		if orig, ok := e.reg.Original(name); ok {
			e.reg.ReplaceImpl(name, e.approximate(orig))
		}
		decayType = DecayApproximate
		log.Printf("decay: approximated %s", name)
	case capability.LevelStubbed:
		e.reg.ReplaceImpl(name, e.stub(name, meta.Returns))
		decayType = DecayStub
		log.Printf("decay: stubbed %s", name)
	case capability.LevelDeleted:
		decayType = DecayDelete
		log.Printf("decay: deleted %s", name)
	}

	ev := Event{
		Timestamp:  time.Now(),
		Capability: name,
		Type:       decayType,
		OldLevel:   oldLevel,
		NewLevel:   newLevel,
	}

	e.mu.Lock()
	e.history = append(e.history, ev)
	e.total++
	e.lastDecay = ev.Timestamp
	e.mu.Unlock()

	return ev, true
}

// Tick attempts a gated decay. Most ticks do nothing.
func (e *Engine) Tick() (Event, bool) {
	if !e.ShouldDecay() {
		return Event{}, false
	}
	target, ok := e.SelectTarget()
	if !ok {
		return Event{}, false
	}
	return e.ApplyDecay(target)
}

// ForceDecay bypasses the interval and probability gate. An empty name
// uses the same weighted selection as a normal tick; essential
// protection still applies.
func (e *Engine) ForceDecay(name string) (Event, bool) {
	if name == "" {
		var ok bool
		name, ok = e.SelectTarget()
		if !ok {
			return Event{}, false
		}
	}
	return e.ApplyDecay(name)
}

// History returns a copy of the full, ordered decay history.
func (e *Engine) History() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.history))
	copy(out, e.history)
	return out
}

// Recent returns the most recent n events, oldest first.
func (e *Engine) Recent(n int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(e.history) {
		n = len(e.history)
	}
	out := make([]Event, n)
	copy(out, e.history[len(e.history)-n:])
	return out
}

// Stats returns aggregate decay statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{
		TotalDecays:   e.total,
		Interval:      e.interval,
		Probability:   e.probability,
		Enabled:       e.enabled,
		HistoryLength: len(e.history),
	}
	for _, ev := range e.history {
		switch ev.Type {
		case DecayApproximate:
			s.Approximations++
		case DecayStub:
			s.Stubs++
		case DecayDelete:
			s.Deletions++
		}
	}
	return s
}

// Reset clears engine bookkeeping. Capability levels are untouched;
// degradation is irreversible.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.history = nil
	e.total = 0
	e.lastDecay = time.Now()
	e.mu.Unlock()
	log.Printf("decay: engine reset")
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
