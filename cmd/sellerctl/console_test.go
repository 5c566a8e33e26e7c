package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerctl/internal/model"
	"sellerctl/internal/service"
)

func TestRenderPreview(t *testing.T) {
	var buf bytes.Buffer
	renderPreview(&buf, model.Preview{Lines: []model.DiffLine{
		{Label: "Vintage Lens", Before: "$100.00", After: "ENDED"},
		{Label: "⚠ Caution", Warning: "3 watchers will be lost"},
		{Label: "2 watchers", Info: "will receive this targeted offer"},
	}})

	assert.Equal(t, "Preview:\n"+
		"  Vintage Lens: $100.00 → ENDED\n"+
		"  ⚠ Caution: 3 watchers will be lost\n"+
		"  2 watchers: will receive this targeted offer\n", buf.String())

	buf.Reset()
	renderPreview(&buf, model.Preview{Lines: []model.DiffLine{}})
	assert.Empty(t, buf.String())
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	assert.Equal(t, "No commands executed yet.\n", buf.String())

	buf.Reset()
	renderHistory(&buf, []model.LogEntry{{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RawInput:  "end listing 9",
		Intent:    model.IntentEndListing,
		Status:    model.StatusSuccess,
		Details:   "Listing 9 ended.",
	}})
	assert.Contains(t, buf.String(), `END_LISTING`)
	assert.Contains(t, buf.String(), `"end listing 9"`)
	assert.Contains(t, buf.String(), "    Listing 9 ended.\n")
}

func TestDescribeField(t *testing.T) {
	tests := []struct {
		name string
		spec model.FieldSpec
		want string
	}{
		{"plain", model.FieldSpec{Name: "title", Type: model.FieldString}, "string"},
		{"required", model.FieldSpec{Name: "new_price", Type: model.FieldNumber, Required: true}, "number, required"},
		{
			"enum with note",
			model.FieldSpec{Name: "reason", Type: model.FieldEnum, EnumValues: []string{"a", "b"}, Note: "why"},
			"enum [a|b], why",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeField(tt.spec))
		})
	}
}

func TestFillMissingKeepsCommandOnRejectedValue(t *testing.T) {
	registry := service.NewSchemaRegistry()
	classifier := service.ClassifierFunc(func(ctx context.Context, text string) (*service.ClassifierOutput, error) {
		return &service.ClassifierOutput{Intent: "UPDATE_PRICE", Confidence: 0.9, Fields: map[string]any{"listing_id": "42"}}, nil
	})
	sess := service.NewSession(&service.Pipeline{Resolver: service.NewIntentResolver(classifier, registry, nil)})

	resolved := sess.Resolve(context.Background(), "reprice 42")
	require.Equal(t, []string{"new_price"}, resolved.MissingRequired)

	c := &console{
		out:      &bytes.Buffer{},
		registry: registry,
		session:  sess,
		ask:      func(model.FieldSpec) (string, error) { return "cheap", nil },
	}
	pending, err := c.fillMissing(resolved)
	require.ErrorIs(t, err, model.ErrInvalidValue)
	assert.Equal(t, resolved.ID, pending.ID)

	require.NoError(t, sess.Cancel(pending.ID))
	_, err = sess.Pending(resolved.ID)
	assert.ErrorIs(t, err, model.ErrCommandNotFound)
}

func TestFillMissingCompletesCommand(t *testing.T) {
	registry := service.NewSchemaRegistry()
	classifier := service.ClassifierFunc(func(ctx context.Context, text string) (*service.ClassifierOutput, error) {
		return &service.ClassifierOutput{Intent: "UPDATE_PRICE", Confidence: 0.9, Fields: map[string]any{"listing_id": "42"}}, nil
	})
	sess := service.NewSession(&service.Pipeline{Resolver: service.NewIntentResolver(classifier, registry, nil)})

	c := &console{
		out:      &bytes.Buffer{},
		registry: registry,
		session:  sess,
		ask:      func(model.FieldSpec) (string, error) { return "$19.99", nil },
	}
	pending, err := c.fillMissing(sess.Resolve(context.Background(), "reprice 42"))
	require.NoError(t, err)
	assert.Empty(t, pending.MissingRequired)
	assert.Equal(t, 19.99, pending.Command.Fields["new_price"])
}
