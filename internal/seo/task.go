package seo

import (
	"fmt"
	"time"
)

// Action describes what kind of change a task proposes.
type Action string

// Supported task actions.
const (
	ActionReport Action = "report"
	ActionModify Action = "modify"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// Priority bands used by analyzers when creating tasks.
const (
	PriorityCritical      = 100
	PriorityHigh          = 75
	PriorityMedium        = 50
	PriorityLow           = 25
	PriorityInformational = 10
)

// Risk bands used by analyzers when creating tasks.
const (
	RiskHigh    = 75
	RiskMedium  = 50
	RiskLow     = 25
	RiskMinimal = 10
)

// Task is a single proposed unit of work emitted by an analyzer.
// Tasks are created once and never mutated afterwards, except for the
// Executed/ExecutionResult fields which the execution engine sets.
type Task struct {
	ID              string         `json:"id"`
	Analyzer        string         `json:"analyzer"`
	Description     string         `json:"description"`
	Priority        int            `json:"priority"`
	Risk            int            `json:"risk"`
	Action          Action         `json:"action_type"`
	TargetFile      string         `json:"target_file,omitempty"`
	TargetURL       string         `json:"target_url,omitempty"`
	Changes         map[string]any `json:"changes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	Executed        bool           `json:"executed"`
	ExecutionResult string         `json:"execution_result,omitempty"`
}

// Score combines priority and inverted risk into a single admission value.
// It is a pure function of the task's priority and risk, recomputed on
// every call and never cached.
func (t *Task) Score() float64 {
	return float64(t.Priority)*0.6 + float64(100-t.Risk)*0.4
}

// TaskBuilder creates tasks on behalf of one analyzer, numbering them
// within the run so IDs stay unique and traceable to their origin.
type TaskBuilder struct {
	analyzer string
	clock    Clock
	counter  int
}

// NewTaskBuilder returns a builder scoped to the named analyzer.
func NewTaskBuilder(analyzer string, clock Clock) *TaskBuilder {
	return &TaskBuilder{analyzer: analyzer, clock: clock}
}

// Options carries the optional fields of a new task.
type Options struct {
	Action     Action
	TargetFile string
	TargetURL  string
	Changes    map[string]any
	Metadata   map[string]any
}

// New creates a task with the next sequence number for this analyzer.
func (b *TaskBuilder) New(description string, priority, risk int, opts Options) *Task {
	b.counter++
	now := b.clock.Now()
	action := opts.Action
	if action == "" {
		action = ActionReport
	}
	return &Task{
		ID:          fmt.Sprintf("%s_%d_%s", b.analyzer, b.counter, now.Format("20060102150405")),
		Analyzer:    b.analyzer,
		Description: description,
		Priority:    priority,
		Risk:        risk,
		Action:      action,
		TargetFile:  opts.TargetFile,
		TargetURL:   opts.TargetURL,
		Changes:     opts.Changes,
		Metadata:    opts.Metadata,
		CreatedAt:   now,
	}
}
