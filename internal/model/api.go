package model

// ResolveRequest asks the pipeline to interpret a raw instruction
type ResolveRequest struct {
	Text string `json:"text" binding:"required"`
}

// FieldUpdateRequest is a manual correction of one command field
type FieldUpdateRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// PendingCommandResponse describes a resolved, not yet confirmed command
type PendingCommandResponse struct {
	ID              string        `json:"id"`
	RawInput        string        `json:"raw_input"`
	Command         ParsedCommand `json:"command"`
	Summary         string        `json:"summary"`
	MissingRequired []string      `json:"missing_required"`
	Meta            *IntentMeta   `json:"meta,omitempty"`
}

// ConfirmResponse is returned after a confirmed execution
type ConfirmResponse struct {
	Result ExecutionResult `json:"result"`
	Entry  LogEntry        `json:"entry"`
}

// IntentDescriptor documents one intent for API clients
type IntentDescriptor struct {
	Intent Intent      `json:"intent"`
	Meta   IntentMeta  `json:"meta"`
	Fields FieldSchema `json:"fields"`
}

// SessionResponse identifies a session
type SessionResponse struct {
	ID string `json:"id"`
}
