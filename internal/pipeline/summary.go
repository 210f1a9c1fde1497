package pipeline

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// RunSummary carries the per-stage counts of one pipeline run. It is the
// operator-facing companion of the persisted last-run state: the state file
// records what was saved, the summary records how the run went.
type RunSummary struct {
	Started  time.Time
	Finished time.Time

	LinksDiscovered int // archive links found on the index page
	Known           int // identifiers skipped because the ledger has them
	Deferred        int // distributions whose process date has not arrived
	Fetched         int // archives durably saved this run
	Extracted       int // archives fully unpacked into the raw workspace
	Converted       int // raw sources normalized and merged
	EmptySources    int // sources preserved after an empty outcome
	RowsKept        int // normalized records across converted sources
	RowsMerged      int // lines newly added to the master store
	Periods         int // aggregated periods written
	Failures        int // fetch, extract, merge and write failures
}

// Duration returns the wall-clock time of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.Finished.Sub(s.Started).Round(time.Millisecond)
}

// Render writes the summary to w, as a table when w is an interactive
// terminal and as plain aligned lines otherwise (cron mail, log capture).
func (s *RunSummary) Render(w io.Writer) {
	labels, values := s.rows()
	if isTerminal(w) {
		fmt.Fprintln(w, renderSummaryTable(labels, values))
		return
	}
	for i, label := range labels {
		fmt.Fprintf(w, "  %-20s %s\n", label+":", values[i])
	}
}

func (s *RunSummary) rows() ([]string, []string) {
	labels := []string{
		"links discovered",
		"already ledgered",
		"deferred",
		"archives fetched",
		"archives extracted",
		"sources converted",
		"empty sources",
		"rows kept",
		"rows merged",
		"periods written",
		"failures",
		"run time",
	}
	values := []string{
		strconv.Itoa(s.LinksDiscovered),
		strconv.Itoa(s.Known),
		strconv.Itoa(s.Deferred),
		strconv.Itoa(s.Fetched),
		strconv.Itoa(s.Extracted),
		strconv.Itoa(s.Converted),
		strconv.Itoa(s.EmptySources),
		strconv.Itoa(s.RowsKept),
		strconv.Itoa(s.RowsMerged),
		strconv.Itoa(s.Periods),
		strconv.Itoa(s.Failures),
		s.Duration().String(),
	}
	return labels, values
}

func renderSummaryTable(labels, values []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Count"})
	for i, label := range labels {
		tw.AppendRow(table.Row{label, values[i]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
