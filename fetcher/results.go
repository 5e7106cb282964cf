package fetcher

import (
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Status is the terminal state of one lineage's processing.
type Status string

const (
	StatusUpdated    Status = "updated"
	StatusNotUpdated Status = "not updated"
	StatusFailed     Status = "failed to update"
)

// Result is the outcome for a single lineage in a single run.
type Result struct {
	Status Status
	Reason string
}

// Report accumulates per-lineage results for one run. It exists for the
// run's duration only; nothing in it is persisted.
type Report struct {
	results map[string]Result

	// reloadFailed records a webserver reload that did not succeed. It does
	// not retract installed staples, but it does fail the run.
	reloadFailed bool
}

func newReport() *Report {
	return &Report{results: make(map[string]Result)}
}

func (r *Report) add(name string, res Result) {
	r.results[name] = res
}

// Result returns the recorded result for a lineage.
func (r *Report) Result(name string) (Result, bool) {
	res, ok := r.results[name]
	return res, ok
}

// UpdatedCount returns how many lineages had their staple replaced.
func (r *Report) UpdatedCount() int {
	return r.count(StatusUpdated)
}

func (r *Report) count(status Status) int {
	n := 0
	for _, res := range r.results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether the run as a whole should exit non-zero: any
// lineage failed, or the webserver reload did.
func (r *Report) Failed() bool {
	return r.reloadFailed || r.count(StatusFailed) > 0
}

// RenderTable renders the per-lineage outcomes as a table with one row per
// lineage, sorted by lineage name.
func (r *Report) RenderTable() string {
	names := make([]string, 0, len(r.results))
	for name := range r.results {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		res := r.results[name]
		rows = append(rows, []string{name, string(res.Status), res.Reason})
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf)
	table.Header([]string{"LINEAGE", "RESULT", "REASON"})
	table.Bulk(rows)
	table.Render()
	return buf.String()
}
