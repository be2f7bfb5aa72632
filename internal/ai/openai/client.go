package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spigell/coldmail/internal/ai"
)

type chatCompletions interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Generator sends single-message chat completions to OpenAI or a compatible endpoint.
type Generator struct {
	completions chatCompletions
	modelName   string
	temperature float32
}

// New satisfies ai.Factory.
func New(_ context.Context, settings ai.Settings) (ai.Generator, error) {
	generator, err := NewGenerator(settings.APIKey, settings.Model, settings.BaseURL, settings.Temperature)
	if err != nil {
		return nil, err
	}
	return generator, nil
}

func NewGenerator(apiKey, model, baseURL string, temperature float32) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key: %w", ai.ErrCredentialMissing)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := sdk.NewClient(opts...)

	if model = strings.TrimSpace(model); model == "" {
		model = ai.DefaultModels[ai.ProviderOpenAI]
	}

	return &Generator{
		completions: &client.Chat.Completions,
		modelName:   model,
		temperature: temperature,
	}, nil
}

// GenerateContent returns the content of the first choice.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.completions == nil {
		return "", errors.New("openai generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.modelName),
		Messages:    []sdk.ChatCompletionMessageParamUnion{sdk.UserMessage(prompt)},
		Temperature: sdk.Float(float64(g.temperature)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := resp.Choices[0].Message.Content
	if strings.TrimSpace(output) == "" {
		return "", errors.New("openai api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func (g *Generator) Provider() ai.Provider {
	return ai.ProviderOpenAI
}
