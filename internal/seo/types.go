// Package seo defines the core types and interfaces shared by the audit
// pipeline: crawl snapshots, tasks, plans, and run-level results.
package seo

import (
	"time"
)

// Image describes a single <img> element found on a page.
type Image struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Loading string `json:"loading,omitempty"`
}

// PageRecord is the crawl snapshot entry for one page. It is produced once
// during the crawl phase and read-only for the rest of the run.
type PageRecord struct {
	URL           string    `json:"url"`
	StatusCode    int       `json:"status_code"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	H1            string    `json:"h1"`
	Canonical     string    `json:"canonical"`
	RobotsMeta    string    `json:"robots_meta"`
	InternalLinks []string  `json:"internal_links,omitempty"`
	ExternalLinks []string  `json:"external_links,omitempty"`
	Images        []Image   `json:"images,omitempty"`
	SchemaTypes   []string  `json:"schema_types,omitempty"`
	WordCount     int       `json:"word_count"`
	FetchedAt     time.Time `json:"fetched_at"`
	Error         string    `json:"error,omitempty"`
}

// Snapshot maps normalized URLs to their page records for one run.
type Snapshot map[string]PageRecord

// Report is what one analyzer returns for one run.
type Report struct {
	Analyzer  string             `json:"analyzer"`
	Success   bool               `json:"success"`
	Tasks     []*Task            `json:"tasks"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	KPIs      map[string]float64 `json:"kpis,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
	Summary   string             `json:"summary,omitempty"`
	Duration  time.Duration      `json:"duration_ns"`
	Timestamp time.Time          `json:"timestamp"`
}

// Plan is the admitted/blocked partition of one run's task pool, bounded
// by the risk and volume ceilings. Immutable once produced.
type Plan struct {
	Tasks               []*Task   `json:"tasks"`
	BlockedTasks        []*Task   `json:"blocked_tasks"`
	MaxTasks            int       `json:"max_tasks"`
	RequireManualReview bool      `json:"require_manual_review"`
	Timestamp           time.Time `json:"timestamp"`
}

// ExecutionResult captures what the execution engine did with a plan.
type ExecutionResult struct {
	Success          bool     `json:"success"`
	TasksExecuted    int      `json:"tasks_executed"`
	TasksBlocked     int      `json:"tasks_blocked"`
	FilesModified    []string `json:"files_modified"`
	PatchesGenerated []string `json:"patches_generated"`
	Errors           []string `json:"errors,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	RollbackRequired bool     `json:"rollback_required"`
}

// RunMetrics aggregates per-analyzer metrics and KPIs for one run.
type RunMetrics struct {
	RunDate      string                        `json:"run_date"`
	PagesCrawled int                           `json:"pages_crawled"`
	TotalTasks   int                           `json:"total_tasks"`
	Analyzers    map[string]map[string]float64 `json:"analyzers"`
	KPIs         map[string]map[string]float64 `json:"kpis"`
	Timestamp    time.Time                     `json:"timestamp"`
}

// RunSummary is the externally visible artifact of one pipeline run.
type RunSummary struct {
	Success          bool       `json:"success"`
	RunID            string     `json:"run_id"`
	RunDate          string     `json:"run_date"`
	DryRun           bool       `json:"dry_run"`
	PagesCrawled     int        `json:"pages_crawled"`
	AnalyzersRun     int        `json:"analyzers_run"`
	TotalTasksFound  int        `json:"total_tasks_found"`
	TasksExecuted    int        `json:"tasks_executed"`
	TasksBlocked     int        `json:"tasks_blocked"`
	FilesModified    []string   `json:"files_modified"`
	PatchesGenerated int        `json:"patches_generated"`
	ValidationPassed bool       `json:"validation_passed"`
	RollbackRequired bool       `json:"rollback_required"`
	Errors           []string   `json:"errors,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
	Metrics          RunMetrics `json:"metrics"`
	Error            string     `json:"error,omitempty"`
}

// Baseline is the slice of the previous run kept for change detection.
type Baseline struct {
	Timestamp time.Time               `json:"timestamp"`
	PageCount int                     `json:"page_count"`
	Pages     map[string]BaselinePage `json:"pages"`
}

// BaselinePage is the per-URL state persisted for cross-run comparison.
type BaselinePage struct {
	StatusCode  int    `json:"status_code"`
	Title       string `json:"title"`
	RobotsMeta  string `json:"robots"`
	ContentHash string `json:"content_hash,omitempty"`
}
