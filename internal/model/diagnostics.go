package model

import "sort"

// Skip reasons recorded by the parser. Keys are "<record kind>.<reason>".
const (
	SkipMetricSuperseded = "metric.superseded"
	SkipMetricMalformed  = "metric.malformed"
	SkipMetricNoObject   = "metric.no_object"
	SkipMetricUnknown    = "metric.unknown_type"
	SkipMetricTruncated  = "metric.truncated"
	SkipShareFiltered    = "share.filtered"
	SkipUserMalformed    = "user.malformed"
	SkipWorkerMalformed  = "worker.malformed"
	SkipPoolMalformed    = "pool.malformed"
)

// Diagnostics counts what one parse kept and what it dropped. The parser
// never fails; this is the only place lossy input becomes visible.
type Diagnostics struct {
	LogPath        string         `json:"log_path"`
	LinesRead      int            `json:"lines_read"`
	MetricEvents   int            `json:"metric_events"`
	Repaired       int            `json:"repaired"`
	SharesAccepted int            `json:"shares_accepted"`
	WorkerLines    int            `json:"worker_lines"`
	UserFound      bool           `json:"user_found"`
	PoolLines      int            `json:"pool_lines"`
	Skipped        map[string]int `json:"skipped"`
	ReadError      string         `json:"read_error,omitempty"`
}

// NewDiagnostics returns an empty diagnostics record for path.
func NewDiagnostics(path string) *Diagnostics {
	return &Diagnostics{
		LogPath: path,
		Skipped: make(map[string]int),
	}
}

// Skip records one dropped record under reason.
func (d *Diagnostics) Skip(reason string) {
	if d.Skipped == nil {
		d.Skipped = make(map[string]int)
	}
	d.Skipped[reason]++
}

// TotalSkipped sums every skip reason.
func (d *Diagnostics) TotalSkipped() int {
	total := 0
	for _, n := range d.Skipped {
		total += n
	}
	return total
}

// SkipReasons returns the recorded reasons in sorted order.
func (d *Diagnostics) SkipReasons() []string {
	reasons := make([]string, 0, len(d.Skipped))
	for r := range d.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}
