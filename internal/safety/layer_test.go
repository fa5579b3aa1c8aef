package safety

import (
	"errors"
	"testing"

	"github.com/lazypower/lethe/internal/capability"
)

func echo(v capability.Value) capability.Func {
	return func(args ...capability.Value) (capability.Value, error) { return v, nil }
}

// registryWith builds a registry of n capabilities, the first essential.
func registryWith(t *testing.T, n int) *capability.Registry {
	t.Helper()
	r := capability.New()
	for i := 0; i < n; i++ {
		def := capability.Definition{
			Name:       name(i),
			Importance: capability.Medium,
			Returns:    capability.KindText,
			Impl:       echo(capability.Text("ok")),
		}
		if i == 0 {
			def.Importance = capability.Essential
		}
		if err := r.Register(def); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return r
}

func name(i int) string {
	return string(rune('a' + i))
}

func TestClassifyThresholds(t *testing.T) {
	// 10 capabilities; degrade some and confirm the status boundaries.
	cases := []struct {
		degrade int
		want    Status
	}{
		{0, StatusNormal},   // 100%
		{4, StatusNormal},   // 60%
		{5, StatusCaution},  // 50%
		{6, StatusCaution},  // 40%
		{7, StatusWarning},  // 30%
		{8, StatusCritical}, // 20%, above the 1-capability floor
	}
	for _, c := range cases {
		r := registryWith(t, 10)
		for i := 1; i <= c.degrade; i++ {
			r.MarkDegraded(name(i), capability.LevelApproximated)
		}
		l := New(r)
		check := l.Check()
		if check.Status != c.want {
			t.Errorf("degrade %d: status = %s, want %s", c.degrade, check.Status, c.want)
		}
	}
}

func TestClassifyEmergencyOverrides(t *testing.T) {
	// Empty registry.
	l := New(capability.New())
	if got := l.Check().Status; got != StatusEmergency {
		t.Errorf("empty registry: status = %s, want emergency", got)
	}

	// No essential capability active.
	r := registryWith(t, 10)
	r.MarkDegraded("a", capability.LevelApproximated)
	l = New(r)
	if got := l.Check().Status; got != StatusEmergency {
		t.Errorf("no active essential: status = %s, want emergency", got)
	}

	// Active count at the minimum floor.
	r = registryWith(t, 3)
	r.MarkDegraded("b", capability.LevelApproximated)
	r.MarkDegraded("c", capability.LevelApproximated)
	l = New(r)
	if got := l.Check().Status; got != StatusEmergency {
		t.Errorf("at minimum floor: status = %s, want emergency", got)
	}
}

func TestEmergencyLatches(t *testing.T) {
	l := New(capability.New())
	l.Check()
	if !l.Emergency() {
		t.Fatal("emergency flag not set")
	}
}

func TestShouldAllowDecay(t *testing.T) {
	r := registryWith(t, 10)
	l := New(r)

	if l.ShouldAllowDecay("a") {
		t.Error("essential capability should never be allowed to decay")
	}
	if !l.ShouldAllowDecay("b") {
		t.Error("healthy system should allow decay of non-essential capability")
	}

	l.Deactivate()
	if !l.ShouldAllowDecay("a") {
		t.Error("deactivated layer should allow everything")
	}
	l.Activate()

	// Shrink to the floor: only one active capability remains.
	for i := 1; i < 9; i++ {
		r.MarkDegraded(name(i), capability.LevelApproximated)
	}
	r.MarkDegraded("a", capability.LevelApproximated)
	if l.ShouldAllowDecay("j") {
		t.Error("decay at minimum capability count should be blocked")
	}
}

func TestInterveneCountsAndFallback(t *testing.T) {
	r := registryWith(t, 10)
	l := New(r)

	if !l.Intervene() {
		t.Error("intervention on healthy system should succeed")
	}
	if l.Stats().Interventions != 1 {
		t.Errorf("interventions = %d, want 1", l.Stats().Interventions)
	}

	l.Deactivate()
	if l.Intervene() {
		t.Error("intervention while deactivated should report false")
	}
}

func TestInterveneFailingFallback(t *testing.T) {
	l := New(capability.New()) // empty registry, always emergency
	l.SetFallback(func() error { return errors.New("no power") })

	if l.Intervene() {
		t.Error("intervention with failing fallback should report false")
	}
}

func TestEnsureMinimumCapability(t *testing.T) {
	r := capability.New()
	l := New(r)

	l.EnsureMinimumCapability()

	fn, ok := r.Get("emergency_heartbeat")
	if !ok {
		t.Fatal("emergency heartbeat not registered")
	}
	v, err := fn()
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if v.Text == "" {
		t.Error("heartbeat returned empty text")
	}

	m, _ := r.Metadata("emergency_heartbeat")
	if m.Importance != capability.Essential {
		t.Errorf("heartbeat importance = %s, want essential", m.Importance)
	}

	// Idempotent when something is already active.
	l.EnsureMinimumCapability()
	if r.Count() != 1 {
		t.Errorf("count = %d after second call, want 1", r.Count())
	}
}

func TestSafeExecute(t *testing.T) {
	r := capability.New()
	r.Register(capability.Definition{
		Name: "ok", Returns: capability.KindText,
		Impl: echo(capability.Text("fine")),
	})
	r.Register(capability.Definition{
		Name: "fails", Returns: capability.KindText,
		Impl: func(args ...capability.Value) (capability.Value, error) {
			return capability.Value{}, errors.New("boom")
		},
	})
	r.Register(capability.Definition{
		Name: "panics", Returns: capability.KindText,
		Impl: func(args ...capability.Value) (capability.Value, error) {
			panic("unexpected")
		},
	})
	l := New(r)

	if out := l.SafeExecute("ok"); out.Unavailable || out.Value.Text != "fine" {
		t.Errorf("SafeExecute(ok) = %v", out)
	}
	if out := l.SafeExecute("fails"); !out.Unavailable {
		t.Error("SafeExecute(fails) should be unavailable")
	}
	if out := l.SafeExecute("panics"); !out.Unavailable {
		t.Error("SafeExecute(panics) should be unavailable")
	}
	if out := l.SafeExecute("missing"); !out.Unavailable {
		t.Error("SafeExecute(missing) should be unavailable")
	}
}

func TestHistoryAndStats(t *testing.T) {
	r := registryWith(t, 5)
	l := New(r)

	l.Check()
	l.Check()
	l.Check()

	if got := len(l.History()); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
	recent := l.Recent(2)
	if len(recent) != 2 {
		t.Errorf("Recent(2) length = %d", len(recent))
	}
	if got := l.Recent(-3); len(got) != 0 {
		t.Errorf("Recent(-3) length = %d, want 0", len(got))
	}

	s := l.Stats()
	if s.CheckCount != 3 || !s.IsActive || s.HasFallback {
		t.Errorf("stats = %+v", s)
	}
}
