// Package system wires the registry, decay engine, safety layer,
// introspector, and narrator into one orchestrated loop.
package system

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lazypower/lethe/internal/capability"
	"github.com/lazypower/lethe/internal/decay"
	"github.com/lazypower/lethe/internal/introspect"
	"github.com/lazypower/lethe/internal/narrative"
	"github.com/lazypower/lethe/internal/safety"
	"github.com/lazypower/lethe/internal/store"
)

// StateName describes the lifecycle of the orchestrator itself.
type StateName string

const (
	StateInitializing StateName = "initializing"
	StateRunning      StateName = "running"
	StatePaused       StateName = "paused"
	StateDegrading    StateName = "degrading"
	StateCritical     StateName = "critical"
	StateStopped      StateName = "stopped"
)

// Options configures a System. Zero values fall back to defaults.
type Options struct {
	DecayInterval     time.Duration
	DecayProbability  float64
	LoopInterval      time.Duration
	NarrativeInterval time.Duration
	Seed              int64
	Journal           *store.Journal
}

// Iteration records one pass through the main loop.
type Iteration struct {
	Number     int          `json:"number"`
	Timestamp  time.Time    `json:"timestamp"`
	DecayEvent *decay.Event `json:"decay_event,omitempty"`
	Executed   int          `json:"executed"`
	Health     float64      `json:"health"`
}

// Status is the composite state exposed to the CLI and HTTP API.
type Status struct {
	State     StateName             `json:"state"`
	Iteration int                   `json:"iteration"`
	Running   bool                  `json:"running"`
	Uptime    time.Duration         `json:"uptime"`
	Summary   introspect.Summary    `json:"introspection"`
	Decay     decay.Stats           `json:"decay"`
	Safety    safety.Stats          `json:"safety"`
	Narrative narrative.MoodSummary `json:"narrative"`
}

// System owns one registry instance and injects it into every
// component. Mutation flows only through the loop; readers (the HTTP
// API) see a consistent view through the registry's lock.
type System struct {
	registry     *capability.Registry
	engine       *decay.Engine
	safety       *safety.Layer
	introspector *introspect.Introspector
	narrator     *narrative.Narrator
	journal      *store.Journal

	loopInterval      time.Duration
	narrativeInterval time.Duration

	mu            sync.Mutex
	state         StateName
	iterations    []Iteration
	count         int
	lastNarrative time.Time
	running       bool
	start         time.Time
}

// New builds an unstarted system. Register capabilities, then call
// Initialize before ticking.
func New(opts Options) *System {
	if opts.DecayInterval <= 0 {
		opts.DecayInterval = 5 * time.Second
	}
	if opts.DecayProbability == 0 {
		opts.DecayProbability = 0.4
	}
	if opts.LoopInterval <= 0 {
		opts.LoopInterval = 2 * time.Second
	}
	if opts.NarrativeInterval <= 0 {
		opts.NarrativeInterval = 10 * time.Second
	}

	reg := capability.New()
	intro := introspect.New(reg)
	return &System{
		registry:          reg,
		engine:            decay.New(reg, opts.DecayInterval, opts.DecayProbability, opts.Seed),
		safety:            safety.New(reg),
		introspector:      intro,
		narrator:          narrative.New(intro, opts.Seed),
		journal:           opts.Journal,
		loopInterval:      opts.LoopInterval,
		narrativeInterval: opts.NarrativeInterval,
		state:             StateInitializing,
	}
}

func (s *System) Registry() *capability.Registry         { return s.registry }
func (s *System) Engine() *decay.Engine                  { return s.engine }
func (s *System) Safety() *safety.Layer                  { return s.safety }
func (s *System) Introspector() *introspect.Introspector { return s.introspector }
func (s *System) Narrator() *narrative.Narrator          { return s.narrator }

// Register adds a capability to the shared registry.
func (s *System) Register(def capability.Definition) error {
	return s.registry.Register(def)
}

// Initialize finalizes setup after all registrations: fixes the health
// denominator, guarantees the minimum capability, and installs the
// emergency fallback.
func (s *System) Initialize() {
	s.introspector.Initialize()
	s.safety.EnsureMinimumCapability()
	s.safety.SetFallback(func() error {
		log.Printf("system: emergency fallback activated")
		return nil
	})

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()
	log.Printf("system: initialized with %d capabilities", s.registry.Count())
}

// State returns the orchestrator's lifecycle state.
func (s *System) State() StateName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether the main loop is active.
func (s *System) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *System) setState(st StateName) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// executeCapabilities runs every active capability once through the
// safety wrapper. Failures become unavailable outcomes, never crashes.
func (s *System) executeCapabilities() int {
	executed := 0
	for _, name := range s.registry.ListActive() {
		out := s.safety.SafeExecute(name)
		if !out.Unavailable {
			executed++
		}
	}
	return executed
}

// performDecay runs one gated decay attempt. The safety layer sees the
// would-be target before the engine commits to it.
func (s *System) performDecay() (decay.Event, bool) {
	if !s.engine.ShouldDecay() {
		return decay.Event{}, false
	}
	target, ok := s.engine.SelectTarget()
	if !ok {
		return decay.Event{}, false
	}
	if !s.safety.ShouldAllowDecay(target) {
		log.Printf("system: safety blocked decay of %s", target)
		return decay.Event{}, false
	}

	ev, ok := s.engine.ApplyDecay(target)
	if !ok {
		return decay.Event{}, false
	}

	s.setState(StateDegrading)
	s.narrator.SpeakLoss(ev.Capability)
	s.introspector.UpdateLosses()
	s.recordDecay(ev)
	return ev, true
}

// checkSafety performs one safety check and intervenes when needed.
func (s *System) checkSafety() safety.Check {
	check := s.safety.Check()
	if s.journal != nil {
		if err := s.journal.RecordCheck(check); err != nil {
			log.Printf("system: journal check: %v", err)
		}
	}
	if check.InterventionNeeded {
		s.setState(StateCritical)
		s.safety.Intervene()
	}
	return check
}

func (s *System) recordDecay(ev decay.Event) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordDecay(ev); err != nil {
		log.Printf("system: journal decay: %v", err)
	}
}

// Tick performs one main loop iteration: execute, decay, check, maybe
// narrate, snapshot.
func (s *System) Tick() Iteration {
	s.mu.Lock()
	s.count++
	n := s.count
	narrate := time.Since(s.lastNarrative) >= s.narrativeInterval
	s.mu.Unlock()

	executed := s.executeCapabilities()
	ev, decayed := s.performDecay()
	s.checkSafety()

	if narrate {
		s.narrator.Speak()
		s.mu.Lock()
		s.lastNarrative = time.Now()
		s.mu.Unlock()
	}

	state := s.introspector.CurrentState()
	if s.journal != nil {
		if err := s.journal.RecordSnapshot(state); err != nil {
			log.Printf("system: journal snapshot: %v", err)
		}
	}

	it := Iteration{
		Number:    n,
		Timestamp: time.Now(),
		Executed:  executed,
		Health:    state.Health,
	}
	if decayed {
		it.DecayEvent = &ev
	}

	s.mu.Lock()
	s.iterations = append(s.iterations, it)
	s.mu.Unlock()
	return it
}

// Run drives the loop until the context is cancelled or maxIterations
// is reached (0 means unbounded). The inter-tick sleep is cancellable;
// stop does not wait out the remaining delay.
func (s *System) Run(ctx context.Context, maxIterations int) {
	s.mu.Lock()
	s.running = true
	s.start = time.Now()
	s.mu.Unlock()

	log.Printf("system: starting main loop")
	s.narrator.Speak()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.state = StateStopped
		s.mu.Unlock()
		s.shutdown()
	}()

	timer := time.NewTimer(s.loopInterval)
	defer timer.Stop()

	for {
		it := s.Tick()

		if it.Number%10 == 0 {
			sum := s.introspector.Summary()
			log.Printf("system: iteration %d: health=%.1f%% active=%d lost=%d",
				it.Number, sum.Health, sum.Active, sum.Deleted)
		}

		if maxIterations > 0 && it.Number >= maxIterations {
			log.Printf("system: reached max iterations (%d)", maxIterations)
			return
		}

		timer.Reset(s.loopInterval)
		select {
		case <-ctx.Done():
			log.Printf("system: stop requested")
			return
		case <-timer.C:
		}
	}
}

func (s *System) shutdown() {
	log.Printf("system: shutting down")
	s.narrator.Speak()

	sum := s.introspector.Summary()
	stats := s.engine.Stats()
	s.mu.Lock()
	count := s.count
	s.mu.Unlock()

	log.Printf("system: uptime %.1fs, %d iterations", sum.Uptime.Seconds(), count)
	log.Printf("system: final health %.1f%%, capabilities lost %d, decay events %d",
		sum.Health, sum.Deleted, stats.TotalDecays)
	log.Printf("system: goodbye")
}

// Pause disables the decay engine; the loop keeps running.
func (s *System) Pause() {
	s.engine.Disable()
	s.setState(StatePaused)
	log.Printf("system: paused")
}

// Resume re-enables the decay engine.
func (s *System) Resume() {
	s.engine.Enable()
	s.setState(StateRunning)
	log.Printf("system: resumed")
}

// Stop transitions the recorded state; cancelling the Run context does
// the actual stopping.
func (s *System) Stop() {
	s.setState(StateStopped)
}

// ForceDecay bypasses the tick gate. A named target is still subject to
// safety gating; an empty name uses weighted selection.
func (s *System) ForceDecay(name string) (decay.Event, bool) {
	if name != "" && !s.safety.ShouldAllowDecay(name) {
		log.Printf("system: safety blocked forced decay of %s", name)
		return decay.Event{}, false
	}

	ev, ok := s.engine.ForceDecay(name)
	if ok {
		s.introspector.UpdateLosses()
		s.recordDecay(ev)
	}
	return ev, ok
}

// Iterations returns a copy of all loop iteration records.
func (s *System) Iterations() []Iteration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Iteration, len(s.iterations))
	copy(out, s.iterations)
	return out
}

// Status aggregates component state for external consumers.
func (s *System) Status() Status {
	s.mu.Lock()
	state := s.state
	count := s.count
	running := s.running
	var uptime time.Duration
	if !s.start.IsZero() {
		uptime = time.Since(s.start)
	}
	s.mu.Unlock()

	return Status{
		State:     state,
		Iteration: count,
		Running:   running,
		Uptime:    uptime,
		Summary:   s.introspector.Summary(),
		Decay:     s.engine.Stats(),
		Safety:    s.safety.Stats(),
		Narrative: s.narrator.Summary(),
	}
}
