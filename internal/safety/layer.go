// Package safety enforces the invariants that keep a degrading system
// alive: essential-tier protection, a minimum-capability floor, and an
// emergency fallback of last resort.
package safety

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lazypower/lethe/internal/capability"
)

// Status classifies aggregate system health.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusCaution   Status = "caution"
	StatusWarning   Status = "warning"
	StatusCritical  Status = "critical"
	StatusEmergency Status = "emergency"
)

// Percentage thresholds: a status applies when active/total (as a
// percentage) is at or above its threshold and below the next one up.
const (
	thresholdNormal   = 60.0
	thresholdCaution  = 40.0
	thresholdWarning  = 25.0
	thresholdCritical = 10.0
)

var statusMessages = map[Status]string{
	StatusNormal:    "System operating within normal parameters.",
	StatusCaution:   "Degradation detected. Monitoring closely.",
	StatusWarning:   "Significant capability loss. Consider intervention.",
	StatusCritical:  "Critical degradation! Minimal functionality remaining.",
	StatusEmergency: "EMERGENCY: System at minimum viable state!",
}

// Check is an immutable snapshot of one safety evaluation.
type Check struct {
	Timestamp          time.Time `json:"timestamp"`
	Status             Status    `json:"status"`
	Message            string    `json:"message"`
	ActiveCount        int       `json:"active_count"`
	EssentialCount     int       `json:"essential_count"`
	InterventionNeeded bool      `json:"intervention_needed"`
}

// Stats summarizes the layer's activity.
type Stats struct {
	IsActive      bool `json:"is_active"`
	IsEmergency   bool `json:"is_emergency"`
	Interventions int  `json:"interventions"`
	CheckCount    int  `json:"check_count"`
	HasFallback   bool `json:"has_fallback"`
}

// Layer monitors the registry and gates decay decisions. It holds no
// capability state of its own beyond counters and the check history.
type Layer struct {
	reg *capability.Registry

	mu            sync.Mutex
	history       []Check
	interventions int
	active        bool
	emergency     bool
	fallback      func() error
	minCaps       int
}

// New creates an active safety layer with a minimum floor of one
// capability.
func New(reg *capability.Registry) *Layer {
	return &Layer{
		reg:     reg,
		active:  true,
		minCaps: 1,
	}
}

// Active reports whether the layer is enforcing.
func (l *Layer) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Emergency reports whether the layer has entered emergency mode. The
// flag latches once set.
func (l *Layer) Emergency() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.emergency
}

func (l *Layer) Activate() {
	l.mu.Lock()
	l.active = true
	l.mu.Unlock()
	log.Printf("safety: layer activated")
}

// Deactivate turns off all gating. Decay then proceeds unchecked.
func (l *Layer) Deactivate() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
	log.Printf("safety: layer deactivated - system at risk")
}

// SetFallback registers the last-resort behavior invoked during an
// emergency intervention.
func (l *Layer) SetFallback(fn func() error) {
	l.mu.Lock()
	l.fallback = fn
	l.mu.Unlock()
	log.Printf("safety: fallback configured")
}

// EssentialCapabilities returns every registered essential-tier name
// that has not been deleted.
func (l *Layer) EssentialCapabilities() []string {
	var essential []string
	for _, name := range l.reg.List() {
		if m, ok := l.reg.Metadata(name); ok && m.Importance == capability.Essential {
			essential = append(essential, name)
		}
	}
	return essential
}

func (l *Layer) classify(activeCount, essentialActive int) Status {
	total := l.reg.Count()
	if total == 0 {
		return StatusEmergency
	}
	if essentialActive == 0 || activeCount <= l.minCaps {
		return StatusEmergency
	}

	health := float64(activeCount) / float64(total) * 100
	switch {
	case health >= thresholdNormal:
		return StatusNormal
	case health >= thresholdCaution:
		return StatusCaution
	case health >= thresholdWarning:
		return StatusWarning
	case health >= thresholdCritical:
		return StatusCritical
	default:
		return StatusEmergency
	}
}

// Check evaluates current registry state, records the result, and
// latches emergency mode when reached.
func (l *Layer) Check() Check {
	active := l.reg.ListActive()
	activeSet := make(map[string]bool, len(active))
	for _, name := range active {
		activeSet[name] = true
	}

	essentialActive := 0
	for _, name := range l.EssentialCapabilities() {
		if activeSet[name] {
			essentialActive++
		}
	}

	status := l.classify(len(active), essentialActive)
	check := Check{
		Timestamp:          time.Now(),
		Status:             status,
		Message:            statusMessages[status],
		ActiveCount:        len(active),
		EssentialCount:     essentialActive,
		InterventionNeeded: status == StatusCritical || status == StatusEmergency,
	}

	l.mu.Lock()
	l.history = append(l.history, check)
	if status == StatusEmergency && !l.emergency {
		l.emergency = true
		l.mu.Unlock()
		log.Printf("safety: entering emergency mode")
	} else {
		l.mu.Unlock()
	}

	return check
}

// ShouldAllowDecay decides whether the named capability may decay now.
// Always true while deactivated; always false for essential names, at
// the minimum floor, and for the last active units in a dangerous state.
func (l *Layer) ShouldAllowDecay(name string) bool {
	if !l.Active() {
		return true
	}

	if m, ok := l.reg.Metadata(name); ok && m.Importance == capability.Essential {
		return false
	}

	active := l.reg.ListActive()
	if len(active) <= l.minCaps {
		log.Printf("safety: at minimum capability count, blocking all decay")
		return false
	}

	if len(active) <= 2 {
		isActive := false
		for _, a := range active {
			if a == name {
				isActive = true
				break
			}
		}
		if isActive {
			check := l.Check()
			if check.Status == StatusCritical || check.Status == StatusEmergency {
				log.Printf("safety: blocking decay of %s in %s state", name, check.Status)
				return false
			}
		}
	}

	return true
}

// Intervene responds to a critical or emergency state. In emergency it
// runs the fallback and reports whether it succeeded; otherwise the
// intervention is a counted monitoring no-op.
func (l *Layer) Intervene() bool {
	if !l.Active() {
		return false
	}

	l.mu.Lock()
	l.interventions++
	n := l.interventions
	fallback := l.fallback
	l.mu.Unlock()
	log.Printf("safety: intervention #%d", n)

	check := l.Check()
	if check.Status == StatusEmergency && fallback != nil {
		log.Printf("safety: emergency intervention, activating fallback")
		if err := fallback(); err != nil {
			log.Printf("safety: fallback failed: %v", err)
			return false
		}
	}
	return true
}

// Status runs a check and returns its classification.
func (l *Layer) Status() Status {
	return l.Check().Status
}

// History returns a copy of all recorded checks.
func (l *Layer) History() []Check {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Check, len(l.history))
	copy(out, l.history)
	return out
}

// Recent returns the most recent n checks, oldest first.
func (l *Layer) Recent(n int) []Check {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > len(l.history) {
		n = len(l.history)
	}
	out := make([]Check, n)
	copy(out, l.history[len(l.history)-n:])
	return out
}

// Stats returns aggregate safety statistics.
func (l *Layer) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		IsActive:      l.active,
		IsEmergency:   l.emergency,
		Interventions: l.interventions,
		CheckCount:    len(l.history),
		HasFallback:   l.fallback != nil,
	}
}

// EnsureMinimumCapability guarantees the registry is never empty. When
// no active capability exists it registers a protected heartbeat.
func (l *Layer) EnsureMinimumCapability() {
	if l.reg.ActiveCount() > 0 {
		return
	}
	log.Printf("safety: no capabilities remain, registering emergency heartbeat")
	err := l.reg.Register(capability.Definition{
		Name:        "emergency_heartbeat",
		Importance:  capability.Essential,
		Resistance:  1.0,
		Description: "Emergency heartbeat - last resort function",
		Returns:     capability.KindText,
		Impl: func(args ...capability.Value) (capability.Value, error) {
			return capability.Text("I am still here."), nil
		},
	})
	if err != nil {
		log.Printf("safety: register emergency heartbeat: %v", err)
	}
}

// SafeExecute runs a capability and converts every failure mode,
// including panics inside the implementation, into an unavailable
// outcome. Execution must never crash the host loop.
func (l *Layer) SafeExecute(name string, args ...capability.Value) (out capability.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("safety: recovered panic in %s: %v", name, r)
			out = capability.Outcome{Unavailable: true}
		}
	}()

	result, err := l.reg.Execute(name, args...)
	if err != nil {
		log.Printf("safety: caught failure in %s: %v", name, err)
		return capability.Outcome{Unavailable: true}
	}
	return result
}

// String implements fmt.Stringer for log lines.
func (s Check) String() string {
	return fmt.Sprintf("%s (active=%d essential=%d)", s.Status, s.ActiveCount, s.EssentialCount)
}
