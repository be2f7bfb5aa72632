package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/coldmail/internal/ai"
	"google.golang.org/genai"
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models      contentModels
	modelName   string
	temperature float32
}

// New satisfies ai.Factory.
func New(ctx context.Context, settings ai.Settings) (ai.Generator, error) {
	generator, err := NewGenerator(ctx, settings.APIKey, settings.Model, settings.Temperature)
	if err != nil {
		return nil, err
	}
	return generator, nil
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, temperature float32) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key: %w", ai.ErrCredentialMissing)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = ai.DefaultModels[ai.ProviderGemini]
	}

	return &Generator{models: client.Models, modelName: model, temperature: temperature}, nil
}

// GenerateContent sends the prompt to Gemini and returns the text parts concatenated as received.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	output := builder.String()
	if strings.TrimSpace(output) == "" {
		return "", errors.New("gemini api returned empty response")
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
	return ai.ProviderGemini
}
