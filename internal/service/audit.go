package service

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"sellerctl/internal/model"
)

// AuditLog is the append-only record of confirmed executions in one session
type AuditLog struct {
	mu      sync.RWMutex
	entries []model.LogEntry
	now     func() time.Time
}

// NewAuditLog creates an empty log
func NewAuditLog(now func() time.Time) *AuditLog {
	if now == nil {
		now = time.Now
	}
	return &AuditLog{now: now}
}

// Record appends exactly one entry describing cmd and its result
func (a *AuditLog) Record(cmd model.ParsedCommand, rawInput string, result model.ExecutionResult) model.LogEntry {
	status := model.StatusFailed
	if result.Success {
		status = model.StatusSuccess
	}
	entry := model.LogEntry{
		ID:         uuid.NewString(),
		Timestamp:  a.now(),
		RawInput:   rawInput,
		Intent:     cmd.Intent,
		Confidence: cmd.Confidence,
		Status:     status,
		Details:    result.Message,
		ItemLogs:   slices.Clone(result.ItemLogs),
	}

	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()

	return copyEntry(entry)
}

// List returns every entry, most recent first
func (a *AuditLog) List() []model.LogEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.LogEntry, 0, len(a.entries))
	for i := len(a.entries) - 1; i >= 0; i-- {
		out = append(out, copyEntry(a.entries[i]))
	}
	return out
}

// Len returns the number of recorded entries
func (a *AuditLog) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

func copyEntry(e model.LogEntry) model.LogEntry {
	e.ItemLogs = slices.Clone(e.ItemLogs)
	return e
}
