package diag

import (
	"sort"
	"sync"
)

// Diagnostic is one finding about one type. Diagnostics are pure
// observations: they never mutate the model and are returned as data,
// not raised as errors.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Type     string   `json:"type,omitempty"`
	Detail   string   `json:"detail"`
}

// Aggregator collects findings from every component into one ordered,
// severity-tagged set. It is the only place severities are applied and
// the only producer of the final diagnostic list.
type Aggregator struct {
	enabled    bool
	severities map[string]Severity

	mu    sync.Mutex
	items []Diagnostic
}

// NewAggregator builds an aggregator from the default severity table
// with the given per-code overrides applied. Disabled aggregators drop
// everything.
func NewAggregator(enabled bool, overrides map[string]Severity) *Aggregator {
	severities := DefaultSeverities()
	for code, sev := range overrides {
		severities[code] = sev
	}
	return &Aggregator{enabled: enabled, severities: severities}
}

// Add tags the diagnostic with its configured severity and appends it.
// Diagnostics configured off are dropped.
func (a *Aggregator) Add(d Diagnostic) {
	if a == nil || !a.enabled || d.Code == "" {
		return
	}
	sev, ok := a.severities[d.Code]
	if !ok {
		sev = SeverityWarning
	}
	if sev == SeverityOff {
		return
	}
	d.Severity = sev

	a.mu.Lock()
	a.items = append(a.items, d)
	a.mu.Unlock()
}

// Extend appends a batch of diagnostics.
func (a *Aggregator) Extend(ds []Diagnostic) {
	for _, d := range ds {
		a.Add(d)
	}
}

// Items returns the deduplicated findings in output order: severity
// rank descending, then type, code, and detail. The explicit sort keys
// keep the list byte-stable across runs.
func (a *Aggregator) Items() []Diagnostic {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[Diagnostic]bool, len(a.items))
	out := make([]Diagnostic, 0, len(a.items))
	for _, d := range a.items {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}

// Count returns the number of collected findings at the given severity.
func (a *Aggregator) Count(sev Severity) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, d := range a.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-severity finding was collected.
func (a *Aggregator) HasErrors() bool {
	return a.Count(SeverityError) > 0
}
