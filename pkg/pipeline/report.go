package pipeline

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Report is the fold of all outcomes from one pass. It has no
// identity of its own and is recomputed each run.
type Report struct {
	// TotalSavedBytes sums saved bytes across all outcomes. Negative
	// when codecs grew more content than they shrank.
	TotalSavedBytes int64 `json:"total_saved_bytes"`

	// FailureCount counts failed transforms, regardless of whether
	// they were logged.
	FailureCount int `json:"failure_count"`
}

// Aggregate folds outcomes into a report.
func Aggregate(outcomes []Outcome) Report {
	var report Report
	for _, outcome := range outcomes {
		if !outcome.Succeeded {
			report.FailureCount++
			continue
		}
		report.TotalSavedBytes += outcome.SavedBytes
	}
	return report
}

// FormatSavings renders a signed byte count in human units. Pure
// presentation: not part of the report's data contract.
func FormatSavings(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// Summary renders the one-line pass summary.
func (r Report) Summary() string {
	return fmt.Sprintf("saved %s across pass (%d failed)", FormatSavings(r.TotalSavedBytes), r.FailureCount)
}
