package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeGenerator struct {
	provider Provider
	settings Settings
}

func (f *fakeGenerator) GenerateContent(context.Context, string) (string, error) {
	return "ok", nil
}

func (f *fakeGenerator) Model() string {
	return f.settings.Model
}

func (f *fakeGenerator) Provider() Provider {
	return f.provider
}

type factoryCalls struct {
	calls []Provider
}

func (c *factoryCalls) factory(p Provider, err error) Factory {
	return func(_ context.Context, s Settings) (Generator, error) {
		c.calls = append(c.calls, p)
		if err != nil {
			return nil, err
		}
		return &fakeGenerator{provider: p, settings: s}, nil
	}
}

func (c *factoryCalls) factories() map[Provider]Factory {
	return map[Provider]Factory{
		ProviderOpenAI: c.factory(ProviderOpenAI, nil),
		ProviderGemini: c.factory(ProviderGemini, nil),
	}
}

func TestSelectWithoutCredentials(t *testing.T) {
	t.Parallel()

	calls := &factoryCalls{}
	selector := NewSelector(SelectorConfig{Preferred: ProviderOpenAI}, calls.factories(), zap.NewNop())

	gen, err := selector.Select(context.Background())
	if gen != nil {
		t.Fatalf("expected no generator, got %v", gen)
	}
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("expected last candidate error to be wrapped, got %v", err)
	}
	if len(calls.calls) != 0 {
		t.Fatalf("expected no factory calls, got %v", calls.calls)
	}
}

func TestSelectUsesAlternateWhenOnlyItHasCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		preferred Provider
		creds     map[Provider]string
		expect    Provider
	}{
		{
			name:      "openai preferred, only gemini key",
			preferred: ProviderOpenAI,
			creds:     map[Provider]string{ProviderGemini: "g-key"},
			expect:    ProviderGemini,
		},
		{
			name:      "gemini preferred, only openai key",
			preferred: ProviderGemini,
			creds:     map[Provider]string{ProviderOpenAI: "o-key"},
			expect:    ProviderOpenAI,
		},
		{
			name:      "both keys, preference wins",
			preferred: ProviderGemini,
			creds:     map[Provider]string{ProviderOpenAI: "o-key", ProviderGemini: "g-key"},
			expect:    ProviderGemini,
		},
		{
			name:      "whitespace key counts as missing",
			preferred: ProviderOpenAI,
			creds:     map[Provider]string{ProviderOpenAI: "   ", ProviderGemini: "g-key"},
			expect:    ProviderGemini,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := &factoryCalls{}
			selector := NewSelector(SelectorConfig{Preferred: tt.preferred, Credentials: tt.creds}, calls.factories(), nil)

			gen, err := selector.Select(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen.Provider() != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, gen.Provider())
			}
			if len(calls.calls) != 1 {
				t.Fatalf("expected a single construction, got %v", calls.calls)
			}
		})
	}
}

func TestSelectFallsBackOnConstructionFailure(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	calls := &factoryCalls{}
	factories := map[Provider]Factory{
		ProviderOpenAI: calls.factory(ProviderOpenAI, errors.New("boom")),
		ProviderGemini: calls.factory(ProviderGemini, nil),
	}
	creds := map[Provider]string{ProviderOpenAI: "o-key", ProviderGemini: "g-key"}

	selector := NewSelector(SelectorConfig{Preferred: ProviderOpenAI, Credentials: creds}, factories, zap.New(core))

	gen, err := selector.Select(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Provider() != ProviderGemini {
		t.Fatalf("expected gemini, got %s", gen.Provider())
	}
	if len(calls.calls) != 2 {
		t.Fatalf("expected 2 constructions, got %v", calls.calls)
	}
	if observed.Len() != 1 {
		t.Fatalf("expected one warning, got %d", observed.Len())
	}
}

func TestSelectReturnsLastError(t *testing.T) {
	t.Parallel()

	lastErr := errors.New("gemini init failed")
	calls := &factoryCalls{}
	factories := map[Provider]Factory{
		ProviderOpenAI: calls.factory(ProviderOpenAI, errors.New("openai init failed")),
		ProviderGemini: calls.factory(ProviderGemini, lastErr),
	}
	creds := map[Provider]string{ProviderOpenAI: "o-key", ProviderGemini: "g-key"}

	_, err := NewSelector(SelectorConfig{Credentials: creds}, factories, nil).Select(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !errors.Is(err, lastErr) {
		t.Fatalf("expected last error to be wrapped, got %v", err)
	}
}

func TestSelectModelAndTemperature(t *testing.T) {
	t.Parallel()

	calls := &factoryCalls{}
	cfg := SelectorConfig{
		Preferred:   ProviderGemini,
		Credentials: map[Provider]string{ProviderGemini: "g-key", ProviderOpenAI: "o-key"},
		Models:      map[Provider]string{ProviderOpenAI: "gpt-custom"},
	}
	selector := NewSelector(cfg, calls.factories(), nil)

	gen, err := selector.Select(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fake := gen.(*fakeGenerator)
	if fake.settings.Model != DefaultModels[ProviderGemini] {
		t.Fatalf("expected default gemini model, got %q", fake.settings.Model)
	}
	if fake.settings.Temperature != Temperature {
		t.Fatalf("expected temperature %v, got %v", Temperature, fake.settings.Temperature)
	}
	if fake.settings.APIKey != "g-key" {
		t.Fatalf("unexpected api key %q", fake.settings.APIKey)
	}
	if got := selector.ModelFor(ProviderOpenAI); got != "gpt-custom" {
		t.Fatalf("expected override model, got %q", got)
	}
}

func TestParseProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		expect  Provider
		wantErr bool
	}{
		{input: "", expect: ProviderOpenAI},
		{input: " OpenAI ", expect: ProviderOpenAI},
		{input: "gemini", expect: ProviderGemini},
		{input: "google", expect: ProviderGemini},
		{input: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownProvider) {
					t.Fatalf("expected ErrUnknownProvider, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestSelectSkipsUnreadableCredential(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	calls := &factoryCalls{}
	readErr := errors.New("open /nonexistent/key: no such file or directory")

	selector := NewSelector(SelectorConfig{
		Preferred:        ProviderOpenAI,
		Credentials:      map[Provider]string{ProviderGemini: "g-key"},
		CredentialErrors: map[Provider]error{ProviderOpenAI: readErr},
	}, calls.factories(), zap.New(core))

	gen, err := selector.Select(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Provider() != ProviderGemini {
		t.Fatalf("expected gemini, got %s", gen.Provider())
	}
	if len(calls.calls) != 1 || calls.calls[0] != ProviderGemini {
		t.Fatalf("expected only the gemini factory to run, got %v", calls.calls)
	}
	if logs.FilterMessage("skipping llm provider").Len() != 1 {
		t.Fatalf("expected one skip warning, got %d", logs.Len())
	}
}

func TestSelectUnreadableCredentialIsCredentialMissing(t *testing.T) {
	t.Parallel()

	readErr := errors.New("permission denied")
	selector := NewSelector(SelectorConfig{
		Preferred:        ProviderGemini,
		CredentialErrors: map[Provider]error{ProviderOpenAI: readErr},
	}, (&factoryCalls{}).factories(), zap.NewNop())

	_, err := selector.Select(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) || !errors.Is(err, ErrCredentialMissing) || !errors.Is(err, readErr) {
		t.Fatalf("unexpected error chain: %v", err)
	}
}
