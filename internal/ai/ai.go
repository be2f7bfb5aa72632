package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names a hosted text-generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Temperature is used for every generation request.
const Temperature float32 = 0.7

// DefaultModels holds the model used for a provider when no override is configured.
var DefaultModels = map[Provider]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-1.5-flash",
}

var (
	ErrCredentialMissing   = errors.New("credential is missing")
	ErrProviderUnavailable = errors.New("no llm provider available")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrUnknownProvider     = errors.New("unknown llm provider")
)

// Generator turns a prompt into model text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
	Provider() Provider
}

// ParseProvider normalizes a configured provider name. Empty input selects OpenAI.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(ProviderOpenAI):
		return ProviderOpenAI, nil
	case string(ProviderGemini), "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// Alternate returns the other supported provider.
func (p Provider) Alternate() Provider {
	if p == ProviderGemini {
		return ProviderOpenAI
	}
	return ProviderGemini
}

func (p Provider) String() string {
	return string(p)
}
