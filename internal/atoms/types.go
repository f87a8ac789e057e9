package atoms

// #region atom-metrics
// Metrics is the per-atom record. Nil pointers mean "not applicable" and are
// serialized as null so they are never mistaken for zero.
type Metrics struct {
	BraveS    bool `json:"brave_S"`
	CautiousS bool `json:"cautious_S"`

	// Computed over every model, not only S.
	BestWith    *float64 `json:"bestWith"`
	BestWithout *float64 `json:"bestWithout"`
	Regret      *float64 `json:"regret"`
	Penalty     *float64 `json:"penalty"`

	// Possibilistic measures over S; nil when no model carries support data.
	PiS      *float64 `json:"Pi_S"`
	NS       *float64 `json:"N_S"`
	NetS     *float64 `json:"net_S"`
	Contrary *string  `json:"contrary"`
}

// #endregion atom-metrics
