package model

import "time"

// LogStatus is the outcome status of an audit record
type LogStatus string

// Log statuses
const (
	StatusSuccess              LogStatus = "success"
	StatusFailed               LogStatus = "failed"
	StatusPending              LogStatus = "pending"
	StatusRequiresConfirmation LogStatus = "requires_confirmation"
)

// ItemLog is the outcome for one target of an execution
type ItemLog struct {
	ItemID   string `json:"itemId"`
	Title    string `json:"title"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ExecutionResult is what the execution engine returns for a confirmed command
type ExecutionResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	ItemLogs []ItemLog `json:"itemLogs,omitempty"`
}

// Counts returns how many item logs succeeded and failed
func (r ExecutionResult) Counts() (succeeded, failed int) {
	for _, l := range r.ItemLogs {
		if l.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// LogEntry is an immutable audit record of one confirmed execution attempt
type LogEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	RawInput   string    `json:"raw_input"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Status     LogStatus `json:"status"`
	Details    string    `json:"details"`
	ItemLogs   []ItemLog `json:"itemLogs,omitempty"`
}

// DiffLine is one row of a pre-execution preview
type DiffLine struct {
	Label   string `json:"label"`
	Before  string `json:"before,omitempty"`
	After   string `json:"after,omitempty"`
	Warning string `json:"warning,omitempty"`
	Info    string `json:"info,omitempty"`
}

// Preview is the projected effect of a command
type Preview struct {
	Lines   []DiffLine `json:"lines"`
	Loading bool       `json:"loading"`
}
