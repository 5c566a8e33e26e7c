package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sellerctl/internal/model"
)

// Pipeline bundles the stages every session runs through
type Pipeline struct {
	Resolver  *IntentResolver
	Previewer *Previewer
	Engine    *Engine
	Logger    *zap.Logger
	Now       func() time.Time
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Sessions tracks open seller sessions
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	pipeline *Pipeline
}

// NewSessions creates an empty session table
func NewSessions(pipeline *Pipeline) *Sessions {
	return &Sessions{sessions: make(map[string]*Session), pipeline: pipeline}
}

// Create opens a session with its own audit log
func (s *Sessions) Create() *Session {
	sess := NewSession(s.pipeline)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.pipeline.logger().Info("session opened", zap.String("session", sess.ID))
	return sess
}

// Get looks up an open session
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess, nil
}

// Close tears a session down; its audit log goes with it
func (s *Sessions) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return model.ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.pipeline.logger().Info("session closed", zap.String("session", id))
	return nil
}

// Session is one seller's command lifecycle: resolve, correct, preview,
// then confirm or cancel
type Session struct {
	ID string

	pipeline *Pipeline
	audit    *AuditLog

	mu      sync.Mutex
	pending map[string]*pendingCommand
}

type pendingCommand struct {
	id       string
	rawInput string
	command  model.ParsedCommand
	missing  []string
}

// NewSession creates a standalone session
func NewSession(pipeline *Pipeline) *Session {
	return &Session{
		ID:       uuid.NewString(),
		pipeline: pipeline,
		audit:    NewAuditLog(pipeline.Now),
		pending:  make(map[string]*pendingCommand),
	}
}

// Audit returns the session's audit entries, most recent first
func (s *Session) Audit() []model.LogEntry {
	return s.audit.List()
}

// Resolve interprets raw text and holds the result until it is confirmed or cancelled
func (s *Session) Resolve(ctx context.Context, raw string) model.PendingCommandResponse {
	cmd := s.pipeline.Resolver.Resolve(ctx, raw)
	res := s.pipeline.Resolver.Registry().Validate(cmd.Intent, cmd.Fields)

	pc := &pendingCommand{
		id:       uuid.NewString(),
		rawInput: raw,
		command:  cmd,
		missing:  res.MissingRequired,
	}

	s.mu.Lock()
	s.pending[pc.id] = pc
	s.mu.Unlock()

	s.pipeline.logger().Info("command resolved",
		zap.String("session", s.ID),
		zap.String("command", pc.id),
		zap.String("intent", string(cmd.Intent)),
		zap.Float64("confidence", cmd.Confidence),
		zap.Strings("missing", pc.missing))

	return s.describe(pc)
}

// Pending returns a command awaiting confirmation
func (s *Session) Pending(id string) (model.PendingCommandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.pending[id]
	if !ok {
		return model.PendingCommandResponse{}, model.ErrCommandNotFound
	}
	return s.describe(pc), nil
}

// UpdateField applies a manual correction to one schema field.
// A nil or blank value clears the field.
func (s *Session) UpdateField(id, field string, value any) (model.PendingCommandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pc, ok := s.pending[id]
	if !ok {
		return model.PendingCommandResponse{}, model.ErrCommandNotFound
	}

	registry := s.pipeline.Resolver.Registry()
	spec, ok := registry.Schema(pc.command.Intent).Field(field)
	if !ok {
		return model.PendingCommandResponse{}, fmt.Errorf("%w: %s", model.ErrUnknownField, field)
	}
	v, err := CoerceField(spec, value)
	if err != nil {
		return model.PendingCommandResponse{}, fmt.Errorf("field %s: %w", field, err)
	}

	fields := pc.command.Fields.Clone()
	fields[field] = v
	res := registry.Validate(pc.command.Intent, fields)
	pc.command.Fields = res.Fields
	pc.missing = res.MissingRequired

	return s.describe(pc), nil
}

// Preview computes the diff for a pending command. Incomplete commands are
// not previewed.
func (s *Session) Preview(ctx context.Context, id string) (model.Preview, error) {
	job, err := s.StartPreview(ctx, id)
	if err != nil {
		return model.Preview{}, err
	}
	return job.Wait(ctx)
}

// StartPreview begins an asynchronous preview of a pending command
func (s *Session) StartPreview(ctx context.Context, id string) (*PreviewJob, error) {
	s.mu.Lock()
	pc, ok := s.pending[id]
	var cmd model.ParsedCommand
	var missing []string
	if ok {
		cmd = pc.command
		cmd.Fields = pc.command.Fields.Clone()
		missing = pc.missing
	}
	s.mu.Unlock()

	if !ok {
		return nil, model.ErrCommandNotFound
	}
	if len(missing) > 0 {
		return finishedJob(model.Preview{Lines: []model.DiffLine{{
			Label: "Incomplete command",
			Info:  "missing " + strings.Join(missing, ", "),
		}}}), nil
	}
	typed, err := DecodeCommand(cmd.Intent, cmd.Fields)
	if err != nil {
		return finishedJob(model.Preview{Lines: []model.DiffLine{}}), nil
	}
	return s.pipeline.Previewer.Start(ctx, typed), nil
}

// Confirm executes a pending command and records the attempt. The command is
// consumed even if execution fails.
func (s *Session) Confirm(ctx context.Context, id string, progress ProgressFunc) (model.ConfirmResponse, error) {
	s.mu.Lock()
	pc, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok {
		return model.ConfirmResponse{}, model.ErrCommandNotFound
	}

	result := s.execute(ctx, pc, progress)
	entry := s.audit.Record(pc.command, pc.rawInput, result)

	s.pipeline.logger().Info("command confirmed",
		zap.String("session", s.ID),
		zap.String("command", pc.id),
		zap.String("intent", string(pc.command.Intent)),
		zap.String("status", string(entry.Status)))

	return model.ConfirmResponse{Result: result, Entry: entry}, nil
}

func (s *Session) execute(ctx context.Context, pc *pendingCommand, progress ProgressFunc) model.ExecutionResult {
	if pc.command.Intent == model.IntentUnknown {
		return failure(fmt.Sprintf("Unknown intent: %s", model.IntentUnknown))
	}
	if len(pc.missing) > 0 {
		return failure(fmt.Sprintf("Cannot execute, missing %s.", strings.Join(pc.missing, ", ")))
	}
	typed, err := DecodeCommand(pc.command.Intent, pc.command.Fields)
	if err != nil {
		return failure(err.Error())
	}
	return s.pipeline.Engine.ExecuteStream(ctx, typed, progress)
}

// Cancel discards a pending command. Nothing is recorded.
func (s *Session) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return model.ErrCommandNotFound
	}
	delete(s.pending, id)
	return nil
}

func (s *Session) describe(pc *pendingCommand) model.PendingCommandResponse {
	resp := model.PendingCommandResponse{
		ID:              pc.id,
		RawInput:        pc.rawInput,
		Command:         model.ParsedCommand{Intent: pc.command.Intent, Confidence: pc.command.Confidence, Fields: pc.command.Fields.Clone()},
		Summary:         Summarize(pc.command),
		MissingRequired: append([]string{}, pc.missing...),
	}
	if meta, ok := s.pipeline.Resolver.Registry().Meta(pc.command.Intent); ok {
		resp.Meta = &meta
	}
	return resp
}

func finishedJob(p model.Preview) *PreviewJob {
	job := &PreviewJob{result: p, done: make(chan struct{})}
	close(job.done)
	return job
}
