package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/aryankumar/mermaidfleet/internal/render"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

// KindSuccess labels results without an error in GroupByKind
const KindSuccess render.Kind = "Success"

func succeeded(r Result) bool { return r.Error == nil }
func failed(r Result) bool    { return r.Error != nil }

func count(results []Result, keep func(Result) bool) int {
	n := 0
	for _, r := range results {
		if keep(r) {
			n++
		}
	}
	return n
}

func filter(results []Result, keep func(Result) bool) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// CountSuccessful returns the number of rendered diagrams
func CountSuccessful(results []Result) int {
	return count(results, succeeded)
}

// CountFailed returns the number of failed requests
func CountFailed(results []Result) int {
	return count(results, failed)
}

// FilterSuccessful returns the results that carry an artifact
func FilterSuccessful(results []Result) []Result {
	return filter(results, succeeded)
}

// FilterFailed returns the results that carry an error
func FilterFailed(results []Result) []Result {
	return filter(results, failed)
}

// FilterByKind returns the failed results of one failure kind
func FilterByKind(results []Result, kind render.Kind) []Result {
	return filter(results, func(r Result) bool {
		return r.Error != nil && render.IsKind(r.Error, kind)
	})
}

// ResultKind returns the failure kind of r, KindSuccess for successful results,
// or an empty kind for errors that are not render failures
func ResultKind(r Result) render.Kind {
	if r.Error == nil {
		return KindSuccess
	}
	kind, _ := render.KindOf(r.Error)
	return kind
}

// GroupByKind groups results by ResultKind
func GroupByKind(results []Result) map[render.Kind][]Result {
	grouped := make(map[render.Kind][]Result)
	for _, r := range results {
		kind := ResultKind(r)
		grouped[kind] = append(grouped[kind], r)
	}
	return grouped
}

// FindByID returns the result for a request ID
func FindByID(results []Result, id string) (Result, bool) {
	for _, r := range results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

// durationStats returns the mean, longest and shortest render time.
// All three are zero for an empty batch.
func durationStats(results []Result) (avg, longest, shortest time.Duration) {
	if len(results) == 0 {
		return 0, 0, 0
	}

	var total time.Duration
	longest, shortest = results[0].Duration, results[0].Duration
	for _, r := range results {
		total += r.Duration
		longest = max(longest, r.Duration)
		shortest = min(shortest, r.Duration)
	}
	return total / time.Duration(len(results)), longest, shortest
}

// AverageDuration returns the mean render time
func AverageDuration(results []Result) time.Duration {
	avg, _, _ := durationStats(results)
	return avg
}

// MaxDuration returns the longest render time
func MaxDuration(results []Result) time.Duration {
	_, longest, _ := durationStats(results)
	return longest
}

// MinDuration returns the shortest render time
func MinDuration(results []Result) time.Duration {
	_, _, shortest := durationStats(results)
	return shortest
}

// GetErrors returns the error of every failed result, tagged with its request ID
func GetErrors(results []Result) []error {
	errs := make([]error, 0, CountFailed(results))
	for _, r := range FilterFailed(results) {
		errs = append(errs, util.WrapItemError(r.ID, r.Error))
	}
	return errs
}

// GetIDs returns the request IDs in result order
func GetIDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// Summary condenses a finished batch
type Summary struct {
	Total      int
	Successful int
	Failed     int

	// ByKind counts failures per kind; successful results are not included
	ByKind map[render.Kind]int

	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
}

// Summarize creates a summary of the results
func Summarize(results []Result) Summary {
	s := Summary{
		Total:  len(results),
		ByKind: make(map[render.Kind]int),
	}
	for _, r := range results {
		if r.Error == nil {
			s.Successful++
			continue
		}
		s.Failed++
		s.ByKind[ResultKind(r)]++
	}
	s.AvgDuration, s.MaxDuration, s.MinDuration = durationStats(results)
	return s
}

// String renders the summary on one line
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %d, Successful: %d, Failed: %d", s.Total, s.Successful, s.Failed)

	if s.Total > 0 {
		fmt.Fprintf(&sb, ", Avg: %s, Max: %s, Min: %s",
			s.AvgDuration.Round(time.Millisecond),
			s.MaxDuration.Round(time.Millisecond),
			s.MinDuration.Round(time.Millisecond))
	}

	return sb.String()
}

// HasErrors reports whether any request failed
func HasErrors(results []Result) bool {
	return CountFailed(results) > 0
}

// AllSuccessful reports whether every request rendered
func AllSuccessful(results []Result) bool {
	return !HasErrors(results)
}

// SuccessRate returns the percentage of rendered requests (0 to 100)
func SuccessRate(results []Result) float64 {
	return percentage(CountSuccessful(results), len(results))
}

// FailureRate returns the percentage of failed requests (0 to 100)
func FailureRate(results []Result) float64 {
	return percentage(CountFailed(results), len(results))
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
