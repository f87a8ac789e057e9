package replay

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

func basicCase(expected Expected) *Fixture {
	return &Fixture{Cases: []FixtureCase{{
		Name: "basic",
		Witnesses: []witness.Witness{
			witness.Scored(10, "a"),
			witness.Scored(10, "a", "b"),
			witness.Scored(15, "c"),
			witness.Scored(20, "c"),
		},
		Expected: expected,
	}}}
}

func failing(results []CaseResult) []string {
	var fields []string
	for _, r := range results {
		for _, c := range r.Checks {
			if !c.OK {
				fields = append(fields, c.Field)
			}
		}
	}
	return fields
}

// 1. Matching expectations produce only OK checks.
func TestReplay_AllMatch(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Global:    map[string]any{"optimal": 10.0, "numInS": 3.0},
		Atoms:     map[string]map[string]any{"a": {"penalty": -5.0}},
	}))
	if len(results) != 1 || !results[0].Passed() {
		t.Fatalf("expected pass, failing fields: %v", failing(results))
	}
	if n := len(results[0].Checks); n != 4 {
		t.Errorf("expected 4 checks, got %d", n)
	}
}

// 2. A wrong number is reported with both sides formatted.
func TestReplay_DetectsDiff(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Global:    map[string]any{"optimal": 11.0},
	}))
	got := failing(results)
	if len(got) != 1 || got[0] != "global.optimal" {
		t.Fatalf("failing = %v, want [global.optimal]", got)
	}
	c := results[0].Checks[1]
	if c.Expected != "11" || c.Actual != "10" {
		t.Errorf("formatted check = %+v", c)
	}
}

// 3. An explicit null requires the value to be absent.
func TestReplay_NullExpectation(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Atoms: map[string]map[string]any{
			"a": {"Pi_S": nil, "contrary": nil},
			"b": {"penalty": nil},
		},
	}))
	got := failing(results)
	if len(got) != 1 || got[0] != "atoms.b.penalty" {
		t.Fatalf("failing = %v, want [atoms.b.penalty]", got)
	}
}

// 4. Missing atoms and global keys are reported, not skipped.
func TestReplay_MissingEntries(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Global:    map[string]any{"bogus": 1.0},
		Atoms:     map[string]map[string]any{"zzz": {"brave_S": true}},
	}))
	got := failing(results)
	if len(got) != 2 {
		t.Fatalf("failing = %v, want 2 entries", got)
	}
	for _, c := range results[0].Checks {
		if !c.OK && c.Actual != "<missing>" {
			t.Errorf("%s: actual = %q, want <missing>", c.Field, c.Actual)
		}
	}
}

// 5. Availability mismatch stops comparison after the first check.
func TestReplay_AvailabilityMismatch(t *testing.T) {
	f := &Fixture{Cases: []FixtureCase{{
		Name:     "empty",
		Expected: Expected{Available: true, Global: map[string]any{"optimal": 1.0}},
	}}}
	results := Replay(f)
	if len(results[0].Checks) != 1 || results[0].Checks[0].OK {
		t.Fatalf("checks = %+v", results[0].Checks)
	}
}

// 6. Lists compare element-wise within tolerance.
func TestReplay_ListTolerance(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Global: map[string]any{
			"allowedLevels": []any{10.0 + Tolerance/2, 15.0},
			"members":       []any{0.0, 1.0, 2.0},
		},
	}))
	if !results[0].Passed() {
		t.Fatalf("failing = %v", failing(results))
	}

	results = Replay(basicCase(Expected{
		Available: true,
		Global:    map[string]any{"allowedLevels": []any{10.0}},
	}))
	if results[0].Passed() {
		t.Fatal("length mismatch should fail")
	}
}

// 7. A captured report matches a recomputation of the same input.
func TestExpectedFromReport_RoundTrip(t *testing.T) {
	ws := []witness.Witness{
		witness.Scored(1, "a"),
		witness.Scored(2, "a", "b"),
		{Score: ptr(3.0), Accepted: []string{"c"}, Support: map[string]float64{"c": 0.5}},
	}
	engine := metrics.NewEngine(metrics.DefaultConfig())
	exp, err := ExpectedFromReport(engine.Compute(ws))
	if err != nil {
		t.Fatalf("ExpectedFromReport: %v", err)
	}
	if len(exp.Atoms) != 3 || exp.Global["numInS"] != 3.0 {
		t.Fatalf("unexpected capture: %+v", exp)
	}

	checks := Compare(exp, engine.Compute(ws))
	for _, c := range checks {
		if !c.OK {
			t.Errorf("%s: expected=%s actual=%s", c.Field, c.Expected, c.Actual)
		}
	}

	checks = Compare(exp, engine.Compute(ws[:2]))
	var diffs []string
	for _, c := range checks {
		if !c.OK {
			diffs = append(diffs, c.Field)
		}
	}
	if len(diffs) == 0 || !strings.Contains(strings.Join(diffs, ","), "atoms.c") {
		t.Errorf("expected a diff on atoms.c, got %v", diffs)
	}
}

func TestExpectedFromReport_NoData(t *testing.T) {
	exp, err := ExpectedFromReport(metrics.NoData())
	if err != nil {
		t.Fatalf("ExpectedFromReport: %v", err)
	}
	if exp.Available || exp.Global != nil || exp.Atoms != nil {
		t.Fatalf("unexpected capture: %+v", exp)
	}
}

func ptr(v float64) *float64 { return &v }

// 8. A recomputed atom absent from a captured report is a divergence.
func TestCompare_ExtraAtomInRecomputation(t *testing.T) {
	engine := metrics.NewEngine(metrics.DefaultConfig())
	exp, err := ExpectedFromReport(engine.Compute([]witness.Witness{witness.Scored(1, "a")}))
	if err != nil {
		t.Fatalf("ExpectedFromReport: %v", err)
	}

	checks := Compare(exp, engine.Compute([]witness.Witness{witness.Scored(1, "a", "zzz")}))
	var diffs []Check
	for _, c := range checks {
		if !c.OK {
			diffs = append(diffs, c)
		}
	}
	if len(diffs) != 1 || diffs[0].Field != "atoms.zzz" || diffs[0].Expected != "<missing>" {
		t.Fatalf("diffs = %+v, want one on atoms.zzz", diffs)
	}
}

// 9. A captured report flags keys the recomputation carries but it lacks.
func TestCompare_CompleteFlagsUnlistedKeys(t *testing.T) {
	report := metrics.NewEngine(metrics.DefaultConfig()).Compute([]witness.Witness{witness.Scored(1, "a")})
	exp, err := ExpectedFromReport(report)
	if err != nil {
		t.Fatalf("ExpectedFromReport: %v", err)
	}
	delete(exp.Global, "diversity")
	delete(exp.Atoms["a"], "regret")

	var failed []string
	for _, c := range Compare(exp, report) {
		if !c.OK {
			failed = append(failed, c.Field)
		}
	}
	if strings.Join(failed, ",") != "global.diversity,atoms.a.regret" {
		t.Fatalf("failing = %v", failed)
	}
}

// 10. A misspelled expected key never matches silently.
func TestReplay_MisspelledAtomKey(t *testing.T) {
	results := Replay(basicCase(Expected{
		Available: true,
		Atoms:     map[string]map[string]any{"a": {"PI_S": nil}},
	}))
	got := failing(results)
	if len(got) != 1 || got[0] != "atoms.a.PI_S" {
		t.Fatalf("failing = %v, want [atoms.a.PI_S]", got)
	}
	if c := results[0].Checks[1]; c.Actual != "<missing>" {
		t.Errorf("actual = %q, want <missing>", c.Actual)
	}
}
