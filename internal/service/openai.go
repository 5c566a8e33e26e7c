package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"sellerctl/internal/config"
	"sellerctl/internal/model"
	"sellerctl/internal/utils"
)

// ClassifierOutput is the raw, untrusted answer of a classifier
type ClassifierOutput struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Fields     map[string]any `json:"fields"`
}

// Classifier turns free text into an intent with fields
type Classifier interface {
	Classify(ctx context.Context, text string) (*ClassifierOutput, error)
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(ctx context.Context, text string) (*ClassifierOutput, error)

// Classify calls f
func (f ClassifierFunc) Classify(ctx context.Context, text string) (*ClassifierOutput, error) {
	return f(ctx, text)
}

// ErrClassifierDisabled is returned when no API key is configured
var ErrClassifierDisabled = errors.New("classifier is not enabled (missing OPENAI_API_KEY)")

// OpenAIClassifier classifies commands through an OpenAI-compatible chat API
type OpenAIClassifier struct {
	config       *config.OpenAIConfig
	client       *openai.Client
	systemPrompt string
	logger       *zap.Logger
}

// NewOpenAIClassifier creates a classifier whose policy prompt is generated from the registry
func NewOpenAIClassifier(cfg *config.OpenAIConfig, registry *SchemaRegistry, logger *zap.Logger) *OpenAIClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.APIBase, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClassifier{
		config:       cfg,
		client:       openai.NewClientWithConfig(clientCfg),
		systemPrompt: BuildClassifierPrompt(registry),
		logger:       logger,
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClassifier) IsEnabled() bool {
	return c.config.Enabled
}

// Classify sends text with the fixed policy prompt and decodes the JSON answer
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (*ClassifierOutput, error) {
	if !c.config.Enabled {
		return nil, ErrClassifierDisabled
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature:    float32(c.config.ChatTemperature),
		TopP:           float32(c.config.ChatTopP),
		MaxTokens:      c.config.ChatMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in classifier response")
	}

	content := resp.Choices[0].Message.Content
	var out ClassifierOutput
	if err := utils.ParseAIJSON(content, &out); err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	c.logger.Debug("classifier answered",
		zap.String("intent", out.Intent),
		zap.Float64("confidence", out.Confidence),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return &out, nil
}

// BuildClassifierPrompt renders the fixed classification policy with every
// intent's schema, so the prompt and Validate can never disagree.
func BuildClassifierPrompt(registry *SchemaRegistry) string {
	var b strings.Builder
	b.WriteString(`You are a strict intent classifier and structured field extractor for a marketplace seller control plane.
You must:
Select exactly one intent from the allowed list.
Extract only fields defined in the schema for that intent.
Output valid JSON only - no markdown, no explanations, no text outside JSON.
Never invent fields not defined in the schema.
If uncertain about intent, return intent: "UNKNOWN".
If required fields are missing, still return the intent and include null for missing required fields.
Confidence must be a float between 0 and 1.

Allowed intents:`)
	for _, in := range model.KnownIntents {
		b.WriteString(" ")
		b.WriteString(string(in))
	}
	b.WriteString(" ")
	b.WriteString(string(model.IntentUnknown))
	b.WriteString("\n\nSchemas:\n")

	for _, in := range model.KnownIntents {
		fmt.Fprintf(&b, "\n%s fields:\n", in)
		for _, f := range registry.Schema(in) {
			typ := string(f.Type)
			if f.Type == model.FieldEnum {
				typ = fmt.Sprintf(`enum["%s"]`, strings.Join(f.EnumValues, `","`))
			}
			req := "optional"
			if f.Required {
				req = "required"
			}
			if f.Note != "" {
				req += " - " + f.Note
			}
			fmt.Fprintf(&b, "%s: %s (%s)\n", f.Name, typ, req)
		}
	}

	b.WriteString("\nOutput format:\n{ \"intent\": \"INTENT_NAME\", \"confidence\": 0.00, \"fields\": { ... } }")
	return b.String()
}
