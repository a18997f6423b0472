package diag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportSignal is one run-level observation surfaced in the report,
// separate from per-type diagnostics.
type ReportSignal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

// StageMetric records one pipeline stage execution.
type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ReportSummary aggregates the run for quick inspection.
type ReportSummary struct {
	StageCount           int            `json:"stage_count"`
	FailedStages         int            `json:"failed_stages"`
	Plans                int            `json:"plans"`
	Registrations        int            `json:"registrations"`
	DiagnosticsBySeverity map[string]int `json:"diagnostics_by_severity"`
	SignalsBySeverity    map[string]int `json:"signals_by_severity"`
}

// RunReport is the machine-readable record of one analysis run.
type RunReport struct {
	Version     string         `json:"version"`
	RunID       string         `json:"run_id"`
	Fingerprint string         `json:"fingerprint"`
	GeneratedAt string         `json:"generated_at"`
	Stages      []StageMetric  `json:"stages"`
	Signals     []ReportSignal `json:"signals,omitempty"`
	Summary     ReportSummary  `json:"summary"`
}

// StageHandle pairs a stage name with its start time.
type StageHandle struct {
	name    string
	started time.Time
}

// NewRunReport starts a report for the given input fingerprint.
func NewRunReport(fingerprint string) *RunReport {
	return &RunReport{
		Version:     "v1",
		RunID:       uuid.New().String(),
		Fingerprint: fingerprint,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:      []StageMetric{},
		Signals:     []ReportSignal{},
	}
}

// BeginStage marks the start of a named stage.
func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

// EndStage records the stage outcome.
func (r *RunReport) EndStage(h StageHandle, status string, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	if strings.TrimSpace(status) == "" {
		status = "ok"
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
	}
	if err != nil {
		m.Error = err.Error()
		if status == "ok" {
			m.Status = "error"
		}
	}
	r.Stages = append(r.Stages, m)
}

// AddSignal records one run-level signal.
func (r *RunReport) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// Finalize sorts the signals by severity priority and fills the summary
// from the produced artifacts.
func (r *RunReport) Finalize(plans, registrations int, diagnostics []Diagnostic) {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	sort.Slice(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})

	signalCount := map[string]int{}
	for _, s := range r.Signals {
		signalCount[s.Severity]++
	}
	diagCount := map[string]int{}
	for _, d := range diagnostics {
		diagCount[string(d.Severity)]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	r.Summary = ReportSummary{
		StageCount:            len(r.Stages),
		FailedStages:          failed,
		Plans:                 plans,
		Registrations:         registrations,
		DiagnosticsBySeverity: diagCount,
		SignalsBySeverity:     signalCount,
	}
}

// Save writes the report as indented JSON, creating parent directories.
func (r *RunReport) Save(path string) error {
	if r == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "error":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
