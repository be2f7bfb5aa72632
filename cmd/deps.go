package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/ai/gemini"
	"github.com/spigell/coldmail/internal/ai/openai"
	"github.com/spigell/coldmail/internal/config"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/pipeline"
	"github.com/spigell/coldmail/internal/portfolio"
	"github.com/spigell/coldmail/internal/scraper"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var providerFactories = map[ai.Provider]ai.Factory{
	ai.ProviderOpenAI: openai.New,
	ai.ProviderGemini: gemini.New,
}

// setup builds the logger and configuration shared by every command.
func setup() (*zap.Logger, *config.Config) {
	logger, err := logger.New(app, viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, cfg
}

func newSelector(cfg *config.Config, logger *zap.Logger) (*ai.Selector, error) {
	selectorConfig, err := cfg.SelectorConfig()
	if err != nil {
		return nil, fmt.Errorf("resolving llm credentials: %w", err)
	}

	return ai.NewSelector(selectorConfig, providerFactories, logger), nil
}

// openPortfolio opens the store and makes sure it holds the CSV contents.
func openPortfolio(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*portfolio.Store, error) {
	store, err := portfolio.Open(cfg.Portfolio.StorePath, logger)
	if err != nil {
		return nil, err
	}

	count, err := store.Count()
	if err != nil {
		store.Close()
		return nil, err
	}

	if count > 0 {
		return store, nil
	}

	items, err := portfolio.LoadCSV(cfg.Portfolio.CSV)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}

	if _, err := store.Populate(ctx, items); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// closeStore flushes pending writes and releases the store lock.
func closeStore(store *portfolio.Store, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("closing portfolio store", zap.Error(err))
	}
}

func newScraper(cfg *config.Config, logger *zap.Logger) *scraper.Client {
	client := scraper.New(logger)
	client.UserAgent = cfg.Scraper.UserAgent
	client.Browser = cfg.Scraper.Browser
	if cfg.Scraper.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Scraper.Timeout
		client.Timeout = cfg.Scraper.Timeout
	}
	return client
}

func newPipeline(cfg *config.Config, selector *ai.Selector, store *portfolio.Store, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		Links:        cfg.Portfolio.Links,
		Sender:       cfg.Email,
		MaxLogLength: cfg.LLM.MaxLogLength,
	}, pipeline.Deps{
		Selector: selector,
		Store:    store,
		Scraper:  newScraper(cfg, logger),
		Logger:   logger,
	})
}
