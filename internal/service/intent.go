package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"sellerctl/internal/model"
)

// DefaultClassifyTimeout bounds a single classifier call
const DefaultClassifyTimeout = 20 * time.Second

// IntentResolver turns raw seller text into a schema-conformant ParsedCommand
type IntentResolver struct {
	classifier    Classifier
	registry      *SchemaRegistry
	timeout       time.Duration
	minConfidence float64
	logger        *zap.Logger
}

// ResolverOption configures an IntentResolver
type ResolverOption func(*IntentResolver)

// WithClassifyTimeout overrides the classifier deadline
func WithClassifyTimeout(d time.Duration) ResolverOption {
	return func(r *IntentResolver) { r.timeout = d }
}

// WithMinConfidence demotes answers below threshold to UNKNOWN
func WithMinConfidence(threshold float64) ResolverOption {
	return func(r *IntentResolver) { r.minConfidence = threshold }
}

// NewIntentResolver creates a new intent resolver
func NewIntentResolver(classifier Classifier, registry *SchemaRegistry, logger *zap.Logger, opts ...ResolverOption) *IntentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &IntentResolver{
		classifier: classifier,
		registry:   registry,
		timeout:    DefaultClassifyTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the schema registry the resolver validates against
func (r *IntentResolver) Registry() *SchemaRegistry {
	return r.registry
}

// Resolve classifies raw and validates the answer. It never fails: any
// classifier problem yields the UNKNOWN command.
func (r *IntentResolver) Resolve(ctx context.Context, raw string) model.ParsedCommand {
	text := strings.TrimSpace(raw)
	if text == "" || r.classifier == nil {
		return model.UnknownCommand()
	}

	cctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.classify(cctx, text)
	if err != nil {
		r.logger.Warn("classification failed, substituting UNKNOWN", zap.Error(err))
		return model.UnknownCommand()
	}
	if out == nil {
		r.logger.Warn("classifier returned no answer, substituting UNKNOWN")
		return model.UnknownCommand()
	}

	intent := model.ParseIntent(out.Intent)
	if intent == model.IntentUnknown {
		return model.UnknownCommand()
	}

	confidence := clampConfidence(out.Confidence)
	if confidence < r.minConfidence {
		r.logger.Info("confidence below threshold",
			zap.String("intent", string(intent)),
			zap.Float64("confidence", confidence),
			zap.Float64("threshold", r.minConfidence))
		return model.UnknownCommand()
	}

	res := r.registry.Validate(intent, out.Fields)
	if len(res.Dropped) > 0 || len(res.Invalid) > 0 {
		r.logger.Info("classifier output violated schema",
			zap.String("intent", string(intent)),
			zap.Strings("dropped", res.Dropped),
			zap.Strings("invalid", res.Invalid))
	}

	return model.ParsedCommand{Intent: intent, Confidence: confidence, Fields: res.Fields}
}

var errClassifierPanic = errors.New("classifier panicked")

// classify runs the classifier under ctx. An adapter that ignores
// cancellation or panics is treated like any other failure.
func (r *IntentResolver) classify(ctx context.Context, text string) (*ClassifierOutput, error) {
	type answer struct {
		out *ClassifierOutput
		err error
	}
	done := make(chan answer, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("classifier panicked", zap.Any("panic", p))
				done <- answer{err: errClassifierPanic}
			}
		}()
		o, e := r.classifier.Classify(ctx, text)
		done <- answer{out: o, err: e}
	}()

	select {
	case a := <-done:
		return a.out, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0
	}
	return math.Min(1, math.Max(0, c))
}
