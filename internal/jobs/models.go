package jobs

import (
	"encoding/json"
	"time"
)

// Kind identifies what produced a job.
type Kind string

const (
	KindTalkingHead Kind = "talkinghead"
	KindTTS         Kind = "tts"
	KindStudio      Kind = "studio"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ParseKind validates a user-supplied kind filter.
func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case KindTalkingHead, KindTTS, KindStudio:
		return Kind(value), true
	}
	return "", false
}

// ParseStatus validates a user-supplied status filter.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusSucceeded, StatusFailed:
		return Status(value), true
	}
	return "", false
}

// Job is one ledger row.
type Job struct {
	ID           string          `json:"id"`
	Kind         Kind            `json:"kind"`
	Status       Status          `json:"status"`
	Inputs       json.RawMessage `json:"inputs,omitempty"`
	OutputPath   string          `json:"output_path,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Duration reports how long the job ran, or has been running.
func (j Job) Duration(now time.Time) time.Duration {
	if j.Status == StatusRunning {
		return now.Sub(j.CreatedAt)
	}
	return j.UpdatedAt.Sub(j.CreatedAt)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Kind   Kind
	Status Status
	Limit  int
}
