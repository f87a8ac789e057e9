// Package rules exposes a computed report as Mangle facts so that callers can
// ask Datalog questions about a run.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// ErrUnknownPredicate is returned by Query for a predicate the program
// neither declares nor derives.
var ErrUnknownPredicate = errors.New("unknown predicate")

// #region schema
// Schema declares the base predicates filled from a report.
const Schema = `
Decl witness(W).
Decl accepted(W, A).
Decl in_near_optimal(W).
Decl rank(W, R).
Decl atom(A).
Decl brave(A).
Decl cautious(A).
Decl regret_free(A).
Decl contrary(A, C).
`

// Library holds derived predicates that are always available.
const Library = `
robust(A) :- cautious(A), regret_free(A).
optional(A) :- brave(A), !cautious(A).
contested(A) :- brave(A), contrary(A, C), brave(C).
`

// #endregion schema

// #region program
// Program is an evaluated Mangle program over one report.
type Program struct {
	info  *analysis.ProgramInfo
	store factstore.FactStore
}

// Evaluate loads the facts for report, parses Schema, Library and the user
// source, and evaluates to a fixed point. witnesses must be the input the
// report was computed from.
func Evaluate(witnesses []witness.Witness, report metrics.Report, source string) (*Program, error) {
	var src strings.Builder
	src.WriteString(Schema)
	src.WriteString(Library)
	if source != "" {
		src.WriteString("\n")
		src.WriteString(source)
	}

	unit, err := parse.Unit(strings.NewReader(src.String()))
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze rules: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	for _, fact := range Facts(witnesses, report) {
		store.Add(fact)
	}
	if _, err := engine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}
	return &Program{info: info, store: store}, nil
}

// Query returns every fact of predicate as rows of string or int64 values,
// sorted for stable output.
func (p *Program) Query(predicate string) ([][]any, error) {
	sym, ok := p.lookup(predicate)
	if !ok {
		return nil, fmt.Errorf("query %s: %w", predicate, ErrUnknownPredicate)
	}

	var rows [][]any
	err := p.store.GetFacts(ast.NewQuery(sym), func(a ast.Atom) error {
		row := make([]any, len(a.Args))
		for i, arg := range a.Args {
			row[i] = termValue(arg)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", predicate, err)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rowKey(rows[i]) < rowKey(rows[j])
	})
	return rows, nil
}

// Predicates lists every declared or derived predicate name, sorted.
func (p *Program) Predicates() []string {
	names := make([]string, 0, len(p.info.Decls))
	for sym := range p.info.Decls {
		names = append(names, sym.Symbol)
	}
	sort.Strings(names)
	return names
}

func (p *Program) lookup(predicate string) (ast.PredicateSym, bool) {
	for sym := range p.info.Decls {
		if sym.Symbol == predicate {
			return sym, true
		}
	}
	return ast.PredicateSym{}, false
}

// #endregion program

// #region facts
// Facts translates a report into base atoms. An unavailable report yields
// no facts.
func Facts(witnesses []witness.Witness, report metrics.Report) []ast.Atom {
	if !report.Available || report.Global == nil {
		return nil
	}

	models, vocab := witness.Normalize(witnesses)
	rank := make(map[float64]int64, len(report.Global.Levels))
	for i, level := range report.Global.Levels {
		rank[level] = int64(i)
	}
	inS := make(map[int]bool, len(report.Global.Members))
	for _, idx := range report.Global.Members {
		inS[idx] = true
	}

	var facts []ast.Atom
	for _, m := range models {
		id := ast.String(WitnessID(m))
		facts = append(facts, ast.NewAtom("witness", id))
		facts = append(facts, ast.NewAtom("rank", id, ast.Number(rank[m.Score])))
		if inS[m.Index] {
			facts = append(facts, ast.NewAtom("in_near_optimal", id))
		}
		m.AcceptedAtoms(func(a string) {
			facts = append(facts, ast.NewAtom("accepted", id, ast.String(a)))
		})
	}

	for _, name := range report.AtomNames() {
		am := report.Atoms[name]
		a := ast.String(name)
		facts = append(facts, ast.NewAtom("atom", a))
		if am.BraveS {
			facts = append(facts, ast.NewAtom("brave", a))
		}
		if am.CautiousS {
			facts = append(facts, ast.NewAtom("cautious", a))
		}
		if am.Regret != nil && *am.Regret == 0 {
			facts = append(facts, ast.NewAtom("regret_free", a))
		}
	}

	for a, c := range vocab.ContraryPairs() {
		facts = append(facts, ast.NewAtom("contrary", ast.String(a), ast.String(c)))
	}
	return facts
}

// WitnessID is the fact identifier of a model: its id when set, otherwise
// "w" followed by its input position.
func WitnessID(m witness.Model) string {
	if m.ID != "" {
		return m.ID
	}
	return "w" + strconv.Itoa(m.Index)
}

// #endregion facts

// #region helpers
func termValue(term ast.BaseTerm) any {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch c.Type {
	case ast.StringType, ast.NameType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	default:
		return c.String()
	}
}

func rowKey(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x00")
}

// #endregion helpers
