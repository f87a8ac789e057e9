package witness

// #region witness
// Witness is one candidate solution as produced by the external solver.
// Every field is optional; the normalizer fills in defaults.
type Witness struct {
	ID         string             `json:"id,omitempty" yaml:"id,omitempty"`
	Score      *float64           `json:"score,omitempty" yaml:"score,omitempty"`
	Accepted   []string           `json:"accepted,omitempty" yaml:"accepted,omitempty"`
	Support    map[string]float64 `json:"support,omitempty" yaml:"support,omitempty"`
	Contraries map[string]string  `json:"contraries,omitempty" yaml:"contraries,omitempty"`
}

// Scored is a convenience constructor used by fixtures and tests.
func Scored(score float64, accepted ...string) Witness {
	return Witness{Score: &score, Accepted: accepted}
}

// #endregion witness

// #region model
// Model is the normalized, read-only form of a Witness.
type Model struct {
	Index      int
	ID         string
	Score      float64
	accepted   map[string]struct{}
	support    map[string]float64
	contraries map[string]string
}

// Accepts reports whether the atom is in the model's accepted set.
func (m Model) Accepts(atom string) bool {
	_, ok := m.accepted[atom]
	return ok
}

// AcceptedCount returns the size of the accepted set.
func (m Model) AcceptedCount() int {
	return len(m.accepted)
}

// AcceptedAtoms calls fn for every accepted atom in unspecified order.
func (m Model) AcceptedAtoms(fn func(atom string)) {
	for a := range m.accepted {
		fn(a)
	}
}

// Support returns the recorded support for atom, or 0 when none is recorded.
func (m Model) Support(atom string) float64 {
	return m.support[atom]
}

// HasSupport reports whether the model carries any support data.
func (m Model) HasSupport() bool {
	return len(m.support) > 0
}

// SupportAtoms calls fn for every atom with a recorded support value.
func (m Model) SupportAtoms(fn func(atom string)) {
	for a := range m.support {
		fn(a)
	}
}

// Contraries returns the number of contrary pairs the witness declared.
func (m Model) Contraries() int {
	return len(m.contraries)
}

// #endregion model

// #region vocabulary
// Vocabulary holds atom-level facts shared by every model of a run.
type Vocabulary struct {
	contraries map[string]string
}

// Contrary returns the registered contrary of atom.
func (v Vocabulary) Contrary(atom string) (string, bool) {
	c, ok := v.contraries[atom]
	return c, ok
}

// ContraryPairs returns a copy of the contrary table.
func (v Vocabulary) ContraryPairs() map[string]string {
	out := make(map[string]string, len(v.contraries))
	for k, c := range v.contraries {
		out[k] = c
	}
	return out
}

// Len returns the number of atoms with a registered contrary.
func (v Vocabulary) Len() int {
	return len(v.contraries)
}

// #endregion vocabulary
