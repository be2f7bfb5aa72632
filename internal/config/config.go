// Package config builds the single configuration record used by every command.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/email"
	"github.com/spigell/coldmail/internal/portfolio"
	"github.com/spigell/coldmail/internal/scraper"
	"github.com/spigell/coldmail/internal/secrets"
)

type Config struct {
	LLM       *LLMConfig       `mapstructure:"llm"`
	Portfolio *PortfolioConfig `mapstructure:"portfolio"`
	Scraper   *ScraperConfig   `mapstructure:"scraper"`
	Server    *ServerConfig    `mapstructure:"server"`
	Email     email.Sender     `mapstructure:"email"`
}

type LLMConfig struct {
	Provider     string          `mapstructure:"provider"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	OpenAI       *ProviderConfig `mapstructure:"openai"`
	Gemini       *ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

type PortfolioConfig struct {
	CSV       string `mapstructure:"csv"`
	StorePath string `mapstructure:"store-path"`
	Links     int    `mapstructure:"links"`
}

type ScraperConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Browser   bool          `mapstructure:"browser"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var envBindings = map[string][]string{
	"llm.provider":            {"LLM_PROVIDER"},
	"llm.openai.api-key":      {"OPENAI_API_KEY"},
	"llm.openai.api-key-file": {"OPENAI_API_KEY_FILE"},
	"llm.openai.model":        {"OPENAI_MODEL"},
	"llm.openai.base-url":     {"OPENAI_BASE_URL"},
	"llm.gemini.api-key":      {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"llm.gemini.api-key-file": {"GEMINI_API_KEY_FILE"},
	"llm.gemini.model":        {"GEMINI_MODEL"},
	"portfolio.csv":           {"PORTFOLIO_CSV"},
	"portfolio.store-path":    {"PORTFOLIO_STORE_PATH"},
	"scraper.user-agent":      {"USER_AGENT"},
	"server.listen":           {"LISTEN_ADDR"},
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", string(ai.ProviderOpenAI))
	v.SetDefault("llm.max-log-length", 200)
	v.SetDefault("llm.openai.model", ai.DefaultModels[ai.ProviderOpenAI])
	v.SetDefault("llm.gemini.model", ai.DefaultModels[ai.ProviderGemini])
	v.SetDefault("portfolio.csv", "my_portfolio.csv")
	v.SetDefault("portfolio.store-path", "vectorstore")
	v.SetDefault("portfolio.links", portfolio.DefaultLimit)
	v.SetDefault("scraper.user-agent", scraper.DefaultUserAgent)
	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("scraper.browser", false)
	v.SetDefault("server.listen", ":5000")
}

// BindEnv binds the supported environment variables on v.
func BindEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding %v environment variables: %w", envs, err)
		}
	}
	return nil
}

// Load unmarshals and validates the configuration held by v. Defaults and
// environment bindings must already be registered.
func Load(v *viper.Viper) (*Config, error) {
	var cfg *Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.LLM == nil {
		cfg.LLM = &LLMConfig{}
	}
	if cfg.LLM.OpenAI == nil {
		cfg.LLM.OpenAI = &ProviderConfig{}
	}
	if cfg.LLM.Gemini == nil {
		cfg.LLM.Gemini = &ProviderConfig{}
	}
	if cfg.Portfolio == nil {
		cfg.Portfolio = &PortfolioConfig{}
	}
	if cfg.Scraper == nil {
		cfg.Scraper = &ScraperConfig{}
	}
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}

	if _, err := ai.ParseProvider(cfg.LLM.Provider); err != nil {
		return nil, err
	}

	if cfg.Portfolio.Links < 0 {
		return nil, fmt.Errorf("portfolio.links must not be negative, got %d", cfg.Portfolio.Links)
	}

	return cfg, nil
}

// SelectorConfig resolves the credentials and returns the provider selector settings.
// An unset credential is left empty and an unreadable one is recorded in
// CredentialErrors; the selector skips either provider.
func (c *Config) SelectorConfig() (ai.SelectorConfig, error) {
	preferred, err := ai.ParseProvider(c.LLM.Provider)
	if err != nil {
		return ai.SelectorConfig{}, err
	}

	providers := map[ai.Provider]*ProviderConfig{
		ai.ProviderOpenAI: c.LLM.OpenAI,
		ai.ProviderGemini: c.LLM.Gemini,
	}

	out := ai.SelectorConfig{
		Preferred:        preferred,
		Credentials:      make(map[ai.Provider]string, len(providers)),
		Models:           make(map[ai.Provider]string, len(providers)),
		BaseURLs:         make(map[ai.Provider]string, len(providers)),
		CredentialErrors: make(map[ai.Provider]error),
	}

	for provider, pc := range providers {
		key, err := secrets.Load(secrets.Source{
			Name:  provider.String() + " api key",
			Value: pc.APIKey,
			File:  pc.APIKeyFile,
		})
		if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
			out.CredentialErrors[provider] = err
		}

		out.Credentials[provider] = key
		out.Models[provider] = pc.Model
		out.BaseURLs[provider] = pc.BaseURL
	}

	return out, nil
}
