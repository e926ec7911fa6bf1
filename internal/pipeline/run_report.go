package pipeline

import (
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"
)

// Signal flags something a reader of the scan should look at.
type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type RunSummary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport records how a scan went, stage by stage.
type RunReport struct {
	Version     string        `json:"version"`
	Entry       string        `json:"entry"`
	Framework   string        `json:"framework"`
	GeneratedAt string        `json:"generated_at"`
	Stages      []StageMetric `json:"stages"`
	Signals     []Signal      `json:"signals"`
	Summary     RunSummary    `json:"summary"`
}

type stageHandle struct {
	name    string
	started time.Time
}

func newRunReport(framework string) *RunReport {
	return &RunReport{
		Version:   "v1",
		Framework: framework,
		Stages:    []StageMetric{},
		Signals:   []Signal{},
	}
}

func (r *RunReport) beginStage(name string) stageHandle {
	return stageHandle{name: name, started: time.Now().UTC()}
}

func (r *RunReport) endStage(h stageHandle, counters map[string]float64, err error) {
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		DurationMS: time.Since(h.started).Milliseconds(),
		Counters:   counters,
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

func (r *RunReport) addSignal(code, stage, severity, message string, value float64) {
	r.Signals = append(r.Signals, Signal{
		Code:     code,
		Stage:    stage,
		Severity: strings.ToLower(severity),
		Message:  message,
		Value:    value,
	})
}

func (r *RunReport) lastStage() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Name
}

// finalize orders signals most severe first and fills the summary.
func (r *RunReport) finalize() {
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi, pj := signalPriority(r.Signals[i].Severity), signalPriority(r.Signals[j].Severity)
		if pi == pj {
			return r.Signals[i].Code < r.Signals[j].Code
		}
		return pi > pj
	})

	bySeverity := map[string]int{"critical": 0, "warning": 0, "info": 0}
	for _, s := range r.Signals {
		bySeverity[s.Severity]++
	}
	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}
	r.Summary = RunSummary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		SignalsBySeverity: bySeverity,
	}
}

// Write encodes the report as indented JSON.
func (r *RunReport) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
