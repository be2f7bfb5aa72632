// Package portfolio keeps past-work entries in a persisted bleve collection and
// ranks them against job skills.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CollectionName is the name of the index inside the store directory.
	CollectionName = "portfolio"
	// FallbackSuffix is appended to the store path when the primary location is unhealthy.
	FallbackSuffix = "_fresh"
	// DefaultLimit is the number of results returned when the caller passes k <= 0.
	DefaultLimit = 2

	fieldTechStack = "techstack"
	fieldLinks     = "links"
)

var ErrStoreUnavailable = errors.New("portfolio store unavailable")

// Item is one portfolio entry. Its id is assigned when it is stored.
type Item struct {
	TechStack string `mapstructure:"techstack"`
	Links     string `mapstructure:"links"`
}

// Link is a ranked query result.
type Link struct {
	ID    string
	Links string
}

type document struct {
	TechStack string `json:"techstack"`
	Links     string `json:"links"`
}

type opener func(dir string) (bleve.Index, error)

// Store is an opened portfolio collection.
type Store struct {
	mu     sync.Mutex
	index  bleve.Index
	path   string
	logger *zap.Logger
}

// Open opens or creates the collection under path. If the collection cannot be
// opened or counted, Open logs the failure and retries once at path+FallbackSuffix.
func Open(path string, logger *zap.Logger) (*Store, error) {
	return open(path, logger, openIndex)
}

func open(path string, logger *zap.Logger, openFn opener) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path = filepath.Clean(strings.TrimSpace(path))

	index, err := probe(path, openFn)
	if err == nil {
		logger.Debug("portfolio store opened", zap.String("path", path))
		return &Store{index: index, path: path, logger: logger}, nil
	}

	fallback := path + FallbackSuffix
	logger.Warn("portfolio store health check failed, switching to fallback location",
		zap.String("path", path),
		zap.String("fallback", fallback),
		zap.Error(err),
	)

	index, err = probe(fallback, openFn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, fallback, err)
	}

	logger.Info("portfolio store opened at fallback location", zap.String("path", fallback))
	return &Store{index: index, path: fallback, logger: logger}, nil
}

func probe(dir string, openFn opener) (bleve.Index, error) {
	index, err := openFn(dir)
	if err != nil {
		return nil, err
	}

	if _, err := index.DocCount(); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("count documents: %w", err)
	}

	return index, nil
}

func openIndex(dir string) (bleve.Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	indexPath := filepath.Join(dir, CollectionName+".bleve")

	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		index, err := bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create bleve index: %w", err)
		}
		return index, nil
	}

	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}

	return index, nil
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	techStack := bleve.NewTextFieldMapping()
	techStack.Analyzer = standard.Name

	links := bleve.NewKeywordFieldMapping()

	docMapping.AddFieldMappingsAt(fieldTechStack, techStack)
	docMapping.AddFieldMappingsAt(fieldLinks, links)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Path is the directory actually in use, which differs from the requested one after a fallback.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Count() (uint64, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("%w: count documents: %w", ErrStoreUnavailable, err)
	}
	return count, nil
}

// Populate inserts items only when the collection is empty and returns the
// number of inserted documents. Every item is stored under a new random UUID.
func (s *Store) Populate(ctx context.Context, items []Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.Count()
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Debug("portfolio store already populated", zap.Uint64("count", count))
		return 0, nil
	}

	if len(items) == 0 {
		return 0, nil
	}

	batch := s.index.NewBatch()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := batch.Index(uuid.New().String(), document{TechStack: item.TechStack, Links: item.Links}); err != nil {
			return 0, fmt.Errorf("%w: index item: %w", ErrStoreUnavailable, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("%w: write batch: %w", ErrStoreUnavailable, err)
	}

	s.logger.Info("portfolio store populated", zap.Int("items", len(items)), zap.String("path", s.path))
	return len(items), nil
}

// Query returns up to k links ranked by how well their tech stack matches the
// skills. Entries without any matching term still fill the result after the
// matching ones, so the result size is min(k, Count()).
func (s *Store) Query(ctx context.Context, skills []string, k int) ([]Link, error) {
	if k <= 0 {
		k = DefaultLimit
	}

	terms := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			terms = append(terms, skill)
		}
	}

	var q query.Query = bleve.NewMatchAllQuery()
	if len(terms) > 0 {
		match := bleve.NewMatchQuery(strings.Join(terms, ", "))
		match.SetField(fieldTechStack)
		q = bleve.NewDisjunctionQuery(match, bleve.NewMatchAllQuery())
	}

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{fieldLinks}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrStoreUnavailable, err)
	}

	links := make([]Link, 0, len(res.Hits))
	for _, hit := range res.Hits {
		value, _ := hit.Fields[fieldLinks].(string)
		links = append(links, Link{ID: hit.ID, Links: value})
	}

	s.logger.Debug("portfolio query",
		zap.Strings("skills", terms),
		zap.Int("k", k),
		zap.Int("results", len(links)),
	)

	return links, nil
}

func (s *Store) Close() error {
	return s.index.Close()
}
