package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultBankLoads(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(b.List(KindCircuit)) < 3 {
		t.Errorf("expected at least 3 circuit scenarios, got %d", len(b.List(KindCircuit)))
	}
	if len(b.List(KindCrisis)) < 3 {
		t.Errorf("expected at least 3 crisis scenarios, got %d", len(b.List(KindCrisis)))
	}
	if b.Len() != len(b.List("")) {
		t.Errorf("Len = %d, List(\"\") = %d", b.Len(), len(b.List("")))
	}

	soil, err := b.Get("soil-moisture")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if soil.Pools.Range == nil || soil.Pools.Range.Min != 100 || soil.Pools.Range.Max != 1000 {
		t.Errorf("soil-moisture range pool = %+v", soil.Pools.Range)
	}
	if soil.Requirements.MinVolts != 3.3 {
		t.Errorf("MinVolts = %v, want 3.3", soil.Requirements.MinVolts)
	}
}

func TestDefaultBankResolvesEveryTemplate(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	r := NewSeededRandomizer(11)
	for _, tmpl := range b.List("") {
		res := r.Resolve(tmpl)
		if res.Narrative == "" {
			t.Errorf("%s: empty narrative", tmpl.ID)
		}
		if tmpl.Kind == KindCrisis && res.SequenceLength() == 0 {
			t.Errorf("%s: empty optimal sequence", tmpl.ID)
		}
	}
}

func TestBank_GetMissing(t *testing.T) {
	b, _ := Default()
	_, err := b.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBank_NextWraps(t *testing.T) {
	b, _ := Default()
	crisis := b.List(KindCrisis)
	last := crisis[len(crisis)-1]
	next, err := b.Next(last.ID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.ID != crisis[0].ID {
		t.Errorf("Next(%s) = %s, want %s", last.ID, next.ID, crisis[0].ID)
	}
}

func TestParse_SchemaViolation(t *testing.T) {
	_, err := Parse([]byte(`
scenarios:
  - id: bad
    kind: spaceship
    title: Bad
    difficulty: easy
    narrative: x
`))
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestParse_UnknownPlaceholder(t *testing.T) {
	_, err := Parse([]byte(`
scenarios:
  - id: bad
    kind: circuit
    title: Bad
    difficulty: easy
    narrative: "wire {colour}"
`))
	if err == nil {
		t.Fatal("expected placeholder error")
	}
}

func TestParse_CrisisUnknownOptimalAction(t *testing.T) {
	_, err := Parse([]byte(`
scenarios:
  - id: c
    kind: crisis
    title: C
    difficulty: easy
    narrative: x
    actions:
      - {id: a, label: A}
    optimal: [a, b]
`))
	if err == nil {
		t.Fatal("expected unknown action error")
	}
}

func TestLoadDir_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	doc := []byte(`
scenarios:
  - id: same
    kind: circuit
    title: Same
    difficulty: easy
    narrative: x
`)
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), doc, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yml"), doc, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadDir(dir)
	var be *BankError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BankError", err)
	}
	if be.File != "b.yml" {
		t.Errorf("BankError.File = %q, want b.yml", be.File)
	}
}
