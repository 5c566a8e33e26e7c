package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sellerctl/internal/model"
)

func TestIntentResolver_Resolve(t *testing.T) {
	registry := NewSchemaRegistry()

	tests := []struct {
		name       string
		classifier Classifier
		input      string
		want       model.ParsedCommand
	}{
		{
			name:       "well formed answer",
			classifier: staticClassifier("UPDATE_PRICE", 0.93, map[string]any{"listing_id": "12345", "new_price": 50}),
			input:      "set 12345 to $50",
			want: model.ParsedCommand{
				Intent:     model.IntentUpdatePrice,
				Confidence: 0.93,
				Fields:     model.Fields{"listing_id": "12345", "new_price": 50.0},
			},
		},
		{
			name:       "invented fields are stripped",
			classifier: staticClassifier("end-listing", 0.8, map[string]any{"listing_id": "7", "refund": true}),
			input:      "end 7",
			want: model.ParsedCommand{
				Intent:     model.IntentEndListing,
				Confidence: 0.8,
				Fields:     model.Fields{"listing_id": "7"},
			},
		},
		{
			name:       "missing required stays explicit",
			classifier: staticClassifier("UPDATE_PRICE", 0.7, map[string]any{"listing_id": "7"}),
			input:      "change the price of 7",
			want: model.ParsedCommand{
				Intent:     model.IntentUpdatePrice,
				Confidence: 0.7,
				Fields:     model.Fields{"listing_id": "7", "new_price": nil},
			},
		},
		{
			name:       "unknown label forces zero confidence",
			classifier: staticClassifier("UNKNOWN", 0.9, map[string]any{"listing_id": "7"}),
			input:      "hello",
			want:       model.UnknownCommand(),
		},
		{
			name:       "label outside the closed set",
			classifier: staticClassifier("DELETE_ACCOUNT", 0.99, nil),
			input:      "delete my account",
			want:       model.UnknownCommand(),
		},
		{
			name:       "confidence is clamped",
			classifier: staticClassifier("BULK_END_LISTINGS", 1.7, map[string]any{}),
			input:      "end everything",
			want: model.ParsedCommand{
				Intent:     model.IntentBulkEndListings,
				Confidence: 1,
				Fields:     model.Fields{},
			},
		},
		{
			name:       "transport failure",
			classifier: failingClassifier(errBoom),
			input:      "raise prices 5%",
			want:       model.UnknownCommand(),
		},
		{
			name:       "blank input never reaches the classifier",
			classifier: failingClassifier(errBoom),
			input:      "   ",
			want:       model.UnknownCommand(),
		},
		{
			name: "panicking classifier",
			classifier: ClassifierFunc(func(ctx context.Context, text string) (*ClassifierOutput, error) {
				panic("adapter bug")
			}),
			input: "end 7",
			want:  model.UnknownCommand(),
		},
		{
			name: "nil answer",
			classifier: ClassifierFunc(func(ctx context.Context, text string) (*ClassifierOutput, error) {
				return nil, nil
			}),
			input: "end 7",
			want:  model.UnknownCommand(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewIntentResolver(tt.classifier, registry, nil)
			got := r.Resolve(context.Background(), tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntentResolver_Timeout(t *testing.T) {
	slow := ClassifierFunc(func(ctx context.Context, text string) (*ClassifierOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := NewIntentResolver(slow, NewSchemaRegistry(), nil, WithClassifyTimeout(20*time.Millisecond))

	start := time.Now()
	got := r.Resolve(context.Background(), "decrease all prices by 5%")
	assert.Equal(t, model.UnknownCommand(), got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestIntentResolver_MinConfidence(t *testing.T) {
	c := staticClassifier("END_LISTING", 0.4, map[string]any{"listing_id": "1"})
	r := NewIntentResolver(c, NewSchemaRegistry(), nil, WithMinConfidence(0.5))
	assert.Equal(t, model.UnknownCommand(), r.Resolve(context.Background(), "end 1"))

	r = NewIntentResolver(c, NewSchemaRegistry(), nil)
	assert.Equal(t, model.IntentEndListing, r.Resolve(context.Background(), "end 1").Intent)
}

func TestIntentResolver_FieldsAreSchemaSubset(t *testing.T) {
	registry := NewSchemaRegistry()
	noise := map[string]any{
		"listing_id": "1", "new_price": 3, "title": "x", "price": 2, "condition": "new",
		"adjustment_type": "fixed", "adjustment_value": 1, "message": "hi", "bogus": 1,
		"discount_type": "percentage", "discount_value": 5, "older_than_days": 2,
	}
	for _, in := range model.KnownIntents {
		r := NewIntentResolver(staticClassifier(string(in), 0.9, noise), registry, nil)
		got := r.Resolve(context.Background(), "anything")
		for k := range got.Fields {
			_, ok := registry.Schema(in).Field(k)
			assert.True(t, ok, "%s: field %s not in schema", in, k)
		}
	}
}

func TestIntentResolver_Idempotent(t *testing.T) {
	c := staticClassifier("BULK_PRICE_ADJUST", 0.88, map[string]any{"adjustment_type": "percentage", "adjustment_value": -5})
	r := NewIntentResolver(c, NewSchemaRegistry(), nil)
	first := r.Resolve(context.Background(), "decrease all prices by 5%")
	second := r.Resolve(context.Background(), "decrease all prices by 5%")
	assert.Equal(t, first, second)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(math.NaN()))
	assert.Equal(t, 0.0, clampConfidence(-0.2))
	assert.Equal(t, 0.42, clampConfidence(0.42))
	assert.Equal(t, 1.0, clampConfidence(3))
}
