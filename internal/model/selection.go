package model

// Pick is one instrument that passed the selection rule, with the feature
// values it was judged on.
type Pick struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Close      float64 `json:"close"`
	ChangePct  float64 `json:"change_pct"`
	J          float64 `json:"j"`
	RangePct   float64 `json:"range_pct"`
	ShortTrend float64 `json:"short_trend"`
	MultiTrend float64 `json:"multi_trend"`
}

// SelectionResult is the outcome of one selection run.
type SelectionResult struct {
	Strategy     string `json:"strategy"`
	Date         string `json:"date"` // YYYYMMDD as-of date
	Picks        []Pick `json:"picks"`
	Evaluated    int    `json:"evaluated"`
	ArtifactPath string `json:"artifact_path,omitempty"`
}
