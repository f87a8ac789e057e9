package witness

// #region normalize
// Normalize converts raw witnesses into models, preserving input order, and
// collects the contrary vocabulary.
//
// Contraries are a property of the atom vocabulary. The first witness that
// registers a contrary for an atom wins; later witnesses only add atoms that
// are not registered yet.
func Normalize(witnesses []Witness) ([]Model, Vocabulary) {
	models := make([]Model, len(witnesses))
	vocab := Vocabulary{contraries: make(map[string]string)}

	for i, w := range witnesses {
		m := Model{
			Index:      i,
			ID:         w.ID,
			accepted:   make(map[string]struct{}, len(w.Accepted)),
			support:    make(map[string]float64, len(w.Support)),
			contraries: make(map[string]string, len(w.Contraries)),
		}
		if w.Score != nil {
			m.Score = *w.Score
		}
		for _, a := range w.Accepted {
			m.accepted[a] = struct{}{}
		}
		for a, s := range w.Support {
			m.support[a] = s
		}
		for a, c := range w.Contraries {
			m.contraries[a] = c
			if _, seen := vocab.contraries[a]; !seen {
				vocab.contraries[a] = c
			}
		}
		models[i] = m
	}

	return models, vocab
}

// #endregion normalize
