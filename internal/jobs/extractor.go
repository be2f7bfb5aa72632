package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

var ErrExtractionMalformed = errors.New("extraction output is malformed")

var requiredKeys = []string{"role", "experience", "skills", "description"}

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Posting is a job extracted from a careers page or submitted directly.
type Posting struct {
	Role        string   `json:"role" validate:"required"`
	Experience  string   `json:"experience"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	validate  *validator.Validate
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewExtractor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		validate:  validator.New(),
	}
}

// Extract asks the model for the postings found in pageText. The model is
// called exactly once and its output is not repaired.
func (e *Extractor) Extract(ctx context.Context, pageText string) ([]Posting, error) {
	prompt := BuildPrompt(pageText)

	e.logger.Debug("extract job postings request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrGenerationFailed, err)
	}

	e.logger.Debug("extract job postings response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	postings, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	for i := range postings {
		if err := e.validate.Struct(postings[i]); err != nil {
			return nil, fmt.Errorf("%w: posting %d: %w", ErrExtractionMalformed, i, err)
		}
	}

	e.logger.Info("extracted job postings", zap.Int("count", len(postings)))
	return postings, nil
}

func BuildPrompt(pageText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Scraped text:\n{{PAGE_DATA}}\n\nReturn JSON with keys role, experience, skills, description:"
	}
	return strings.ReplaceAll(template, "{{PAGE_DATA}}", strings.TrimSpace(pageText))
}

// ParseResponse decodes a JSON object or an array of objects into postings.
// Every posting must carry all four keys.
func ParseResponse(raw string) ([]Posting, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrExtractionMalformed)
	}

	var objects []map[string]any
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &objects); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtractionMalformed, err)
		}
	} else {
		var object map[string]any
		if err := json.Unmarshal([]byte(cleaned), &object); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtractionMalformed, err)
		}
		objects = append(objects, object)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no job postings found", ErrExtractionMalformed)
	}

	postings := make([]Posting, 0, len(objects))
	for i, object := range objects {
		if object == nil {
			return nil, fmt.Errorf("%w: posting %d is not an object", ErrExtractionMalformed, i)
		}

		for _, key := range requiredKeys {
			if _, ok := object[key]; !ok {
				return nil, fmt.Errorf("%w: posting %d is missing %q", ErrExtractionMalformed, i, key)
			}
		}

		postings = append(postings, Posting{
			Role:        coerceString(object["role"]),
			Experience:  coerceString(object["experience"]),
			Skills:      coerceSkills(object["skills"]),
			Description: coerceString(object["description"]),
		})
	}

	return postings, nil
}

// SplitSkills splits a comma separated list, dropping blanks.
func SplitSkills(s string) []string {
	var skills []string
	for _, skill := range strings.Split(s, ",") {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	case float64, bool:
		return fmt.Sprint(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceSkills(v any) []string {
	switch val := v.(type) {
	case []any:
		skills := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				skills = append(skills, s)
			}
		}
		return skills
	case string:
		return SplitSkills(val)
	default:
		if s := coerceString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}
