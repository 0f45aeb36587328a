// Package template holds the pre-authored summarization programs keyed by
// data shape, plus the mapping from data-source identifiers to templates.
//
// Every template is a deterministic pure function of a variable named
// "data": it computes a bounded summary, prints it to stdout as a single
// JSON object, and writes the same object to a file named output.json so
// the orchestrator can recover the result even if stdout capture fails.
package template

import "sort"

// LanguagePython identifies the template language.
const LanguagePython = "python"

// Built-in template identifiers.
const (
	SummarizeMetrics    = "summarize_metrics"
	SummarizeTimeseries = "summarize_timeseries"
	SummarizeLogs       = "summarize_logs"
	SummarizeTraces     = "summarize_traces"
	Generic             = "generic"
)

// Template is an immutable pre-authored summarization program.
type Template struct {
	ID       string
	Language string
	Body     string
}

var catalog = map[string]Template{
	SummarizeMetrics:    {ID: SummarizeMetrics, Language: LanguagePython, Body: summarizeMetricsBody},
	SummarizeTimeseries: {ID: SummarizeTimeseries, Language: LanguagePython, Body: summarizeTimeseriesBody},
	SummarizeLogs:       {ID: SummarizeLogs, Language: LanguagePython, Body: summarizeLogsBody},
	SummarizeTraces:     {ID: SummarizeTraces, Language: LanguagePython, Body: summarizeTracesBody},
	Generic:             {ID: Generic, Language: LanguagePython, Body: genericBody},
}

// sourceMap maps originating data-source identifiers to template ids.
// Curated per known data-source kind.
var sourceMap = map[string]string{
	"list_metric_descriptors": SummarizeMetrics,
	"list_timeseries":         SummarizeTimeseries,
	"query_timeseries":        SummarizeTimeseries,
	"list_log_entries":        SummarizeLogs,
	"search_log_entries":      SummarizeLogs,
	"list_traces":             SummarizeTraces,
	"search_traces":           SummarizeTraces,
}

// Lookup returns the template registered under id.
func Lookup(id string) (Template, bool) {
	t, ok := catalog[id]
	return t, ok
}

// ForSource returns the template curated for a data-source identifier.
func ForSource(sourceID string) (Template, bool) {
	id, ok := sourceMap[sourceID]
	if !ok {
		return Template{}, false
	}
	return catalog[id], true
}

// IDs returns the registered template ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
