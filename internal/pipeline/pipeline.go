// Package pipeline wires scraping, extraction, portfolio lookup and email
// composition into single calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/email"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/logger"
	"github.com/spigell/coldmail/internal/portfolio"
	"go.uber.org/zap"
)

type generatorSelector interface {
	Select(ctx context.Context) (ai.Generator, error)
}

type linkStore interface {
	Query(ctx context.Context, skills []string, k int) ([]portfolio.Link, error)
}

type pageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

type Config struct {
	Links        int
	Sender       email.Sender
	MaxLogLength int
}

type Deps struct {
	Selector generatorSelector
	Store    linkStore
	Scraper  pageScraper
	Logger   *zap.Logger
}

type Pipeline struct {
	cfg      Config
	selector generatorSelector
	store    linkStore
	scraper  pageScraper
	logger   *zap.Logger
}

// Result is one composed email together with its inputs.
type Result struct {
	Posting jobs.Posting
	Links   []string
	Email   string
}

func New(cfg Config, deps Deps) *Pipeline {
	if cfg.Links <= 0 {
		cfg.Links = portfolio.DefaultLimit
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:      cfg,
		selector: deps.Selector,
		store:    deps.Store,
		scraper:  deps.Scraper,
		logger:   deps.Logger,
	}
}

// ComposeForJob selects a provider, looks up matching portfolio links and
// writes the email for posting.
func (p *Pipeline) ComposeForJob(ctx context.Context, posting jobs.Posting) (*Result, error) {
	generator, err := p.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	return p.compose(ctx, generator, posting)
}

// ExtractFromURL scrapes url and extracts the job postings found there.
func (p *Pipeline) ExtractFromURL(ctx context.Context, url string) ([]jobs.Posting, error) {
	generator, err := p.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	return p.extract(ctx, generator, url)
}

// RunURL extracts every posting from url and composes an email for each.
func (p *Pipeline) RunURL(ctx context.Context, url string) ([]*Result, error) {
	generator, err := p.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	postings, err := p.extract(ctx, generator, url)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(postings))
	for _, posting := range postings {
		result, err := p.compose(ctx, generator, posting)
		if err != nil {
			return results, fmt.Errorf("compose email for %q: %w", posting.Role, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Render returns the email prompt for posting without calling a provider.
func (p *Pipeline) Render(ctx context.Context, posting jobs.Posting) (string, error) {
	links, err := p.relevantLinks(ctx, posting)
	if err != nil {
		return "", err
	}

	return email.NewComposer(nil, p.cfg.Sender, p.logger, p.cfg.MaxLogLength).Render(posting, links), nil
}

func (p *Pipeline) extract(ctx context.Context, generator ai.Generator, url string) ([]jobs.Posting, error) {
	if p.scraper == nil {
		return nil, errors.New("page scraper is not configured")
	}

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("url is required")
	}

	text, err := p.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("scrape page: %w", err)
	}

	logger.WithJob(p.logger, "", url).Info("scraped careers page", zap.Int("text_length", len(text)))

	log := logger.WithJob(logger.WithCommonFields(p.logger, generator.Provider().String(), generator.Model()), "", url)
	return jobs.NewExtractor(generator, log, p.cfg.MaxLogLength).Extract(ctx, text)
}

func (p *Pipeline) compose(ctx context.Context, generator ai.Generator, posting jobs.Posting) (*Result, error) {
	links, err := p.relevantLinks(ctx, posting)
	if err != nil {
		return nil, err
	}

	log := logger.WithJob(logger.WithCommonFields(p.logger, generator.Provider().String(), generator.Model()), posting.Role, "")

	text, err := email.NewComposer(generator, p.cfg.Sender, log, p.cfg.MaxLogLength).Compose(ctx, posting, links)
	if err != nil {
		return nil, err
	}

	log.Info("composed email", zap.Int("links", len(links)))

	return &Result{Posting: posting, Links: links, Email: text}, nil
}

func (p *Pipeline) relevantLinks(ctx context.Context, posting jobs.Posting) ([]string, error) {
	if p.store == nil {
		return nil, fmt.Errorf("%w: store is not configured", portfolio.ErrStoreUnavailable)
	}

	found, err := p.store.Query(ctx, posting.Skills, p.cfg.Links)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(found))
	for _, link := range found {
		links = append(links, link.Links)
	}

	return links, nil
}
