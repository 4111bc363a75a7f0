// Package types holds the payloads exchanged between pipeline workflows and activities.
package types

import "time"

// Application error types. All of them are non-retryable.
const (
	ErrTypeStagingFailed      = "staging_failed"
	ErrTypeIntermediateFailed = "intermediate_failed"
	ErrTypeMartsFailed        = "marts_failed"
	ErrTypeInvalidInput       = "invalid_input"
)

// Run outcomes recorded in the run history.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// PipelineInput starts one full run.
type PipelineInput struct {
	// RunID identifies the run in logs, notifications and the run history.
	RunID string `json:"runId"`
	// Anchor overrides the recency reference of the customer segments.
	Anchor *time.Time `json:"anchor,omitempty"`
}

type PipelineOutput struct {
	RunID        string            `json:"runId"`
	Staging      StageRawOutput    `json:"staging"`
	Intermediate LayerOutput       `json:"intermediate"`
	Marts        LayerOutput       `json:"marts"`
	DurationMs   float64           `json:"durationMs"`
	Rows         map[string]int    `json:"rows"`
	Warnings     map[string]string `json:"warnings,omitempty"`
}

type StageRawInput struct {
	RunID string `json:"runId"`
}

type StageRawOutput struct {
	Rows map[string]int `json:"rows"`
	// RecordErrors counts malformed records that were nulled or dropped.
	RecordErrors   int            `json:"recordErrors"`
	ErrorsBySource map[string]int `json:"errorsBySource"`
	DurationMs     float64        `json:"durationMs"`
}

type BuildLayerInput struct {
	RunID  string     `json:"runId"`
	Anchor *time.Time `json:"anchor,omitempty"`
}

type LayerOutput struct {
	Rows       map[string]int `json:"rows"`
	DurationMs float64        `json:"durationMs"`
}

// RefreshMartInput rebuilds a single view from the published intermediate layer.
type RefreshMartInput struct {
	RunID string `json:"runId"`
	// View is a mart table name or alias, e.g. "seller_scorecard".
	View   string     `json:"view"`
	Anchor *time.Time `json:"anchor,omitempty"`
}

type RecordRunInput struct {
	RunID        string    `json:"runId"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	RecordErrors int       `json:"recordErrors"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}
