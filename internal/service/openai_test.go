package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellerctl/internal/config"
	"sellerctl/internal/model"
)

func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func testOpenAIConfig(base string) *config.OpenAIConfig {
	return &config.OpenAIConfig{
		APIKey:    "test-key",
		APIBase:   base + "/v1",
		ChatModel: "test-model",
		Timeout:   5 * time.Second,
		Enabled:   true,
	}
}

func TestOpenAIClassifier_Classify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
		want    *ClassifierOutput
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"intent":"UPDATE_PRICE","confidence":0.91,"fields":{"listing_id":"123","new_price":50}}`,
			status:  http.StatusOK,
			want: &ClassifierOutput{
				Intent:     "UPDATE_PRICE",
				Confidence: 0.91,
				Fields:     map[string]any{"listing_id": "123", "new_price": 50.0},
			},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"intent\":\"END_LISTING\",\"confidence\":0.8,\"fields\":{\"listing_id\":\"9\",}}\n```",
			status:  http.StatusOK,
			want: &ClassifierOutput{
				Intent:     "END_LISTING",
				Confidence: 0.8,
				Fields:     map[string]any{"listing_id": "9"},
			},
		},
		{
			name:    "prose instead of json",
			content: "I think you want to end the listing.",
			status:  http.StatusOK,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content, tt.status)
			defer srv.Close()

			c := NewOpenAIClassifier(testOpenAIConfig(srv.URL), NewSchemaRegistry(), nil)
			got, err := c.Classify(context.Background(), "some command")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAIClassifier_ResolverFallback(t *testing.T) {
	srv := chatServer(t, "not json at all", http.StatusOK)
	defer srv.Close()

	registry := NewSchemaRegistry()
	r := NewIntentResolver(NewOpenAIClassifier(testOpenAIConfig(srv.URL), registry, nil), registry, nil)
	assert.Equal(t, model.UnknownCommand(), r.Resolve(context.Background(), "end listing 5"))
}

func TestOpenAIClassifier_Disabled(t *testing.T) {
	cfg := &config.OpenAIConfig{ChatModel: "m", Timeout: time.Second}
	c := NewOpenAIClassifier(cfg, NewSchemaRegistry(), nil)
	assert.False(t, c.IsEnabled())
	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClassifierDisabled)
}

func TestBuildClassifierPrompt(t *testing.T) {
	prompt := BuildClassifierPrompt(NewSchemaRegistry())
	for _, in := range model.KnownIntents {
		assert.Contains(t, prompt, string(in)+" fields:")
	}
	assert.Contains(t, prompt, `condition: enum["new","used","refurbished"] (required)`)
	assert.Contains(t, prompt, "adjustment_value: number (required - negative for decrease, positive for increase)")
	assert.Contains(t, prompt, `return intent: "UNKNOWN"`)
}
