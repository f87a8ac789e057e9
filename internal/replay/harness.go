package replay

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
)

// Tolerance is the absolute difference under which two numbers match.
const Tolerance = 1e-9

// #region types

// Check is one compared field.
type Check struct {
	Field    string // "available", "global.optimal", "atoms.a.penalty"
	Expected string
	Actual   string
	OK       bool
}

// CaseResult captures the outcome of replaying one case through the engine.
type CaseResult struct {
	Name   string
	Report metrics.Report
	Checks []Check
}

// Passed reports whether every check matched.
func (r CaseResult) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Cases       int
	PassedCases int
	Checks      int
	Matches     int
	Diffs       int
}

// #endregion types

// #region replay

// Replay computes every case of the fixture and compares the reports with
// the expectations. Operates entirely in-memory.
func Replay(f *Fixture, opts ...metrics.Option) []CaseResult {
	results := make([]CaseResult, 0, len(f.Cases))
	for _, c := range f.Cases {
		engine := metrics.NewEngine(c.Config.ToEngineConfig(), opts...)
		report := engine.Compute(c.Witnesses)
		results = append(results, CaseResult{
			Name:   c.Name,
			Report: report,
			Checks: Compare(c.Expected, report),
		})
	}
	return results
}

// Compare checks report against exp. Keys are visited in sorted order so
// the output is stable.
func Compare(exp Expected, report metrics.Report) []Check {
	checks := []Check{check("available", exp.Available, report.Available)}
	if !exp.Available || !report.Available {
		return checks
	}

	var global map[string]any
	if err := roundTrip(report.Global, &global); err != nil {
		return append(checks, Check{Field: "global", Expected: "decodable", Actual: err.Error()})
	}
	checks = append(checks, compareFields("global.", exp.Global, global, exp.Complete)...)

	var atoms map[string]map[string]any
	if err := roundTrip(report.Atoms, &atoms); err != nil {
		return append(checks, Check{Field: "atoms", Expected: "decodable", Actual: err.Error()})
	}
	for _, name := range sortedKeys(exp.Atoms) {
		actualAtom, ok := atoms[name]
		if !ok {
			checks = append(checks, Check{Field: "atoms." + name, Expected: "present", Actual: missing})
			continue
		}
		checks = append(checks, compareFields("atoms."+name+".", exp.Atoms[name], actualAtom, exp.Complete)...)
	}
	if exp.Complete {
		for _, name := range sortedKeys(atoms) {
			if _, ok := exp.Atoms[name]; !ok {
				checks = append(checks, Check{Field: "atoms." + name, Expected: missing, Actual: "present"})
			}
		}
	}
	return checks
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) Summary {
	s := Summary{Cases: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.PassedCases++
		}
		for _, c := range r.Checks {
			s.Checks++
			if c.OK {
				s.Matches++
			} else {
				s.Diffs++
			}
		}
	}
	return s
}

// #endregion replay

// #region compare
const missing = "<missing>"

// compareFields checks every expected key against actual. A key absent from
// actual fails. With complete set, keys only actual carries fail too.
func compareFields(prefix string, want, actual map[string]any, complete bool) []Check {
	var checks []Check
	for _, key := range sortedKeys(want) {
		got, ok := actual[key]
		if !ok {
			checks = append(checks, Check{Field: prefix + key, Expected: format(want[key]), Actual: missing})
			continue
		}
		checks = append(checks, check(prefix+key, want[key], got))
	}
	if complete {
		for _, key := range sortedKeys(actual) {
			if _, ok := want[key]; !ok {
				checks = append(checks, Check{Field: prefix + key, Expected: missing, Actual: format(actual[key])})
			}
		}
	}
	return checks
}

func check(field string, expected, actual any) Check {
	return Check{
		Field:    field,
		Expected: format(expected),
		Actual:   format(actual),
		OK:       equal(expected, actual),
	}
}

// equal compares decoded JSON values, numbers within Tolerance.
func equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		return ok && math.Abs(av-bv) <= Tolerance
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func format(v any) string {
	if v == nil {
		return "null"
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.6g", f)
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion compare
