package capability

import (
	"errors"
	"testing"
)

func echo(v Value) Func {
	return func(args ...Value) (Value, error) { return v, nil }
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	defs := []Definition{
		{Name: "pulse", Importance: Essential, Resistance: 1.0, Returns: KindText, Impl: echo(Text("pulse"))},
		{Name: "count", Importance: Critical, Resistance: 0.8, Returns: KindNumber, Impl: echo(Number(1))},
		{Name: "compare", Importance: High, Resistance: 0.5, Returns: KindBool, Impl: echo(Bool(true))},
		{Name: "sort_numbers", Importance: Medium, Resistance: 0.3, Returns: KindSequence, Impl: echo(Sequence([]string{"1", "2"}))},
		{Name: "joke_telling", Importance: Low, Resistance: 0.2, Returns: KindText, Impl: echo(Text("ha"))},
		{Name: "fortune_cookie", Importance: Trivial, Resistance: 0.0, Returns: KindText, Impl: echo(Text("luck"))},
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			t.Fatalf("Register(%s): %v", def.Name, err)
		}
	}
	return r
}

func TestRegisterDuplicate(t *testing.T) {
	r := testRegistry(t)

	err := r.Register(Definition{Name: "pulse", Returns: KindText, Impl: echo(Text("x"))})
	if !errors.Is(err, ErrDuplicateCapability) {
		t.Fatalf("duplicate register err = %v, want ErrDuplicateCapability", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := New()

	if err := r.Register(Definition{Name: "", Impl: echo(None())}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register(Definition{Name: "no_impl"}); err == nil {
		t.Error("expected error for nil implementation")
	}
}

func TestRegisterClampsResistance(t *testing.T) {
	r := New()
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"below", -0.5, 0},
		{"above", 1.5, 1},
		{"inside", 0.4, 0.4},
	}
	for _, c := range cases {
		if err := r.Register(Definition{Name: c.name, Returns: KindText, Impl: echo(Text("x")), Resistance: c.in}); err != nil {
			t.Fatalf("Register(%s): %v", c.name, err)
		}
		m, _ := r.Metadata(c.name)
		if m.Resistance != c.want {
			t.Errorf("%s: resistance = %v, want %v", c.name, m.Resistance, c.want)
		}
	}
}

func TestRegisterDefaultsImportance(t *testing.T) {
	r := New()
	if err := r.Register(Definition{Name: "plain", Returns: KindText, Impl: echo(Text("x"))}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	m, _ := r.Metadata("plain")
	if m.Importance != Medium {
		t.Errorf("importance = %v, want medium", m.Importance)
	}
}

func TestExecuteCountsInvocations(t *testing.T) {
	r := testRegistry(t)

	for i := 0; i < 3; i++ {
		out, err := r.Execute("count")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if out.Unavailable {
			t.Fatal("outcome unavailable, want value")
		}
	}

	m, _ := r.Metadata("count")
	if m.ExecutionCount != 3 {
		t.Errorf("execution count = %d, want 3", m.ExecutionCount)
	}
}

func TestExecuteUnknown(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Execute("nonexistent")
	if !errors.Is(err, ErrUnknownCapability) {
		t.Fatalf("err = %v, want ErrUnknownCapability", err)
	}
}

func TestExecuteDeleted(t *testing.T) {
	r := testRegistry(t)
	r.MarkDeleted("joke_telling")

	out, err := r.Execute("joke_telling")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.Unavailable {
		t.Error("expected unavailable outcome for deleted capability")
	}

	if _, ok := r.Get("joke_telling"); ok {
		t.Error("Get should report deleted capability absent")
	}
	if _, ok := r.Metadata("joke_telling"); !ok {
		t.Error("Metadata should survive deletion")
	}
}

func TestAdvanceLevelClaims(t *testing.T) {
	r := testRegistry(t)

	if !r.AdvanceLevel("compare", LevelIntact) {
		t.Fatal("fresh claim 0 -> 1 failed")
	}
	// Stale from: the level already moved on.
	if r.AdvanceLevel("compare", LevelIntact) {
		t.Error("stale claim 0 -> 1 succeeded")
	}
	m, _ := r.Metadata("compare")
	if m.Level != LevelApproximated || !m.Degraded {
		t.Errorf("metadata = level %d degraded %v, want 1 true", m.Level, m.Degraded)
	}

	if !r.AdvanceLevel("compare", LevelApproximated) {
		t.Fatal("claim 1 -> 2 failed")
	}
	if !r.AdvanceLevel("compare", LevelStubbed) {
		t.Fatal("claim 2 -> 3 failed")
	}
	// Past deletion nothing is claimable.
	if r.AdvanceLevel("compare", LevelDeleted) {
		t.Error("claim past level 3 succeeded")
	}

	if _, ok := r.Get("compare"); ok {
		t.Error("capability advanced to level 3 still reachable")
	}
	deleted := r.ListDeleted()
	if len(deleted) != 1 || deleted[0] != "compare" {
		t.Errorf("deleted = %v, want [compare]", deleted)
	}

	if r.AdvanceLevel("nonexistent", LevelIntact) {
		t.Error("claim on unknown capability succeeded")
	}
}

func TestMarkDegradedMonotonic(t *testing.T) {
	r := testRegistry(t)

	r.MarkDegraded("compare", LevelStubbed)
	r.MarkDegraded("compare", LevelApproximated) // regression, ignored

	m, _ := r.Metadata("compare")
	if m.Level != LevelStubbed {
		t.Errorf("level = %d, want %d", m.Level, LevelStubbed)
	}
	if !m.Degraded {
		t.Error("expected degraded flag set")
	}
}

func TestReplaceImplKeepsOriginal(t *testing.T) {
	r := testRegistry(t)

	r.ReplaceImpl("compare", echo(Bool(false)))

	fn, ok := r.Get("compare")
	if !ok {
		t.Fatal("Get: capability missing")
	}
	v, _ := fn()
	if v.Bool {
		t.Error("active impl should be the replacement")
	}

	orig, ok := r.Original("compare")
	if !ok {
		t.Fatal("Original: capability missing")
	}
	v, _ = orig()
	if !v.Bool {
		t.Error("original impl should be untouched")
	}
}

func TestDegradationCandidatesOrdering(t *testing.T) {
	r := testRegistry(t)

	got := r.DegradationCandidates()
	want := []string{"fortune_cookie", "joke_telling", "sort_numbers", "compare", "count"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDegradationCandidatesExcludeEssentialAndDeleted(t *testing.T) {
	r := testRegistry(t)
	r.MarkDeleted("fortune_cookie")

	for _, name := range r.DegradationCandidates() {
		if name == "pulse" {
			t.Error("essential capability offered as candidate")
		}
		if name == "fortune_cookie" {
			t.Error("deleted capability offered as candidate")
		}
	}
}

func TestCounts(t *testing.T) {
	r := testRegistry(t)

	if r.Count() != 6 {
		t.Errorf("Count = %d, want 6", r.Count())
	}
	if r.ActiveCount() != 6 {
		t.Errorf("ActiveCount = %d, want 6", r.ActiveCount())
	}

	r.MarkDegraded("compare", LevelApproximated)
	r.MarkDeleted("joke_telling")

	if r.Count() != 6 {
		t.Errorf("Count after decay = %d, want 6", r.Count())
	}
	if r.ActiveCount() != 4 {
		t.Errorf("ActiveCount = %d, want 4", r.ActiveCount())
	}
	if r.DegradedCount() != 2 {
		t.Errorf("DegradedCount = %d, want 2", r.DegradedCount())
	}
	if len(r.List()) != 5 {
		t.Errorf("List length = %d, want 5", len(r.List()))
	}
}

func TestDependents(t *testing.T) {
	r := New()
	r.Register(Definition{Name: "base", Returns: KindNumber, Impl: echo(Number(1))})
	r.Register(Definition{Name: "uses_base", Dependencies: []string{"base"}, Returns: KindNumber, Impl: echo(Number(2))})
	r.Register(Definition{Name: "unrelated", Returns: KindNumber, Impl: echo(Number(3))})

	deps := r.Dependents("base")
	if len(deps) != 1 || deps[0] != "uses_base" {
		t.Errorf("Dependents(base) = %v, want [uses_base]", deps)
	}

	graph := r.DependencyGraph()
	if len(graph) != 3 {
		t.Errorf("graph size = %d, want 3", len(graph))
	}
	if len(graph["uses_base"]) != 1 {
		t.Errorf("graph[uses_base] = %v, want one dep", graph["uses_base"])
	}
}
