package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/coldmail/internal/logger"
	"go.uber.org/zap"
)

// Settings is everything a client factory needs to build a Generator.
type Settings struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
}

// Factory constructs a Generator. It must not perform network I/O.
type Factory func(ctx context.Context, settings Settings) (Generator, error)

// SelectorConfig is resolved once at process start.
type SelectorConfig struct {
	Preferred   Provider
	Credentials map[Provider]string
	Models      map[Provider]string
	BaseURLs    map[Provider]string
	// CredentialErrors holds credentials that were configured but could not be read.
	// Such a provider is skipped like one without a credential.
	CredentialErrors map[Provider]error
}

// Selector picks the first provider that has a credential and can be constructed.
type Selector struct {
	cfg       SelectorConfig
	factories map[Provider]Factory
	logger    *zap.Logger
}

func NewSelector(cfg SelectorConfig, factories map[Provider]Factory, log *zap.Logger) *Selector {
	if cfg.Preferred == "" {
		cfg.Preferred = ProviderOpenAI
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Selector{
		cfg:       cfg,
		factories: factories,
		logger:    log,
	}
}

// Candidates returns the providers in the order they are tried.
func (s *Selector) Candidates() []Provider {
	return []Provider{s.cfg.Preferred, s.cfg.Preferred.Alternate()}
}

// ModelFor returns the configured model override or the provider default.
func (s *Selector) ModelFor(p Provider) string {
	if model := strings.TrimSpace(s.cfg.Models[p]); model != "" {
		return model
	}
	return DefaultModels[p]
}

// Select returns a Generator for the first usable candidate. When every
// candidate fails the error matches ErrProviderUnavailable and wraps the last
// candidate failure.
func (s *Selector) Select(ctx context.Context) (Generator, error) {
	var lastErr error

	for _, provider := range s.Candidates() {
		log := logger.WithCommonFields(s.logger, provider.String(), s.ModelFor(provider))

		if loadErr := s.cfg.CredentialErrors[provider]; loadErr != nil {
			lastErr = fmt.Errorf("%s: %w: %w", provider, ErrCredentialMissing, loadErr)
			log.Warn("skipping llm provider", zap.Error(lastErr))
			continue
		}

		key := strings.TrimSpace(s.cfg.Credentials[provider])
		if key == "" {
			lastErr = fmt.Errorf("%s: %w", provider, ErrCredentialMissing)
			log.Warn("skipping llm provider", zap.Error(lastErr))
			continue
		}

		factory, ok := s.factories[provider]
		if !ok || factory == nil {
			lastErr = fmt.Errorf("%s: no client factory registered", provider)
			log.Warn("skipping llm provider", zap.Error(lastErr))
			continue
		}

		generator, err := factory(ctx, Settings{
			APIKey:      key,
			Model:       s.ModelFor(provider),
			BaseURL:     strings.TrimSpace(s.cfg.BaseURLs[provider]),
			Temperature: Temperature,
		})
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", provider, err)
			log.Warn("llm provider initialization failed", zap.Error(err))
			continue
		}

		log.Info("selected llm provider")
		return generator, nil
	}

	if lastErr == nil {
		return nil, ErrProviderUnavailable
	}

	return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, lastErr)
}
