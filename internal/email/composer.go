package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/utils"
	"go.uber.org/zap"
)

//go:embed template.md
var emailTemplate string

const defaultMaxLogLength = 200

// Sender describes who signs the email.
type Sender struct {
	Name    string `mapstructure:"name"`
	Title   string `mapstructure:"title"`
	Company string `mapstructure:"company"`
	About   string `mapstructure:"about"`
}

var DefaultSender = Sender{
	Name:    "Anu",
	Title:   "Business Development Executive",
	Company: "AtliQ",
	About: "AtliQ is an AI & Software Consulting company that helps businesses automate and optimize their processes. " +
		"We have extensive experience in delivering scalable solutions that reduce costs and improve efficiency.",
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Composer struct {
	generator contentGenerator
	sender    Sender
	logger    *zap.Logger
	maxLogLen int
}

// NewComposer builds a Composer. Empty sender fields fall back to DefaultSender.
// A nil generator is allowed when only Render is used.
func NewComposer(generator contentGenerator, sender Sender, logger *zap.Logger, maxLogLength int) *Composer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Composer{
		generator: generator,
		sender:    withDefaults(sender),
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Render fills the fixed template. Each link becomes a "- <link>" line; no links
// leaves the block empty.
func (c *Composer) Render(posting jobs.Posting, links []string) string {
	var block strings.Builder
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		if block.Len() > 0 {
			block.WriteString("\n")
		}
		block.WriteString("- ")
		block.WriteString(link)
	}

	replacer := strings.NewReplacer(
		"{{ROLE}}", posting.Role,
		"{{EXPERIENCE}}", posting.Experience,
		"{{SKILLS}}", strings.Join(posting.Skills, ", "),
		"{{DESCRIPTION}}", posting.Description,
		"{{LINKS}}", block.String(),
		"{{SENDER_NAME}}", c.sender.Name,
		"{{SENDER_TITLE}}", c.sender.Title,
		"{{COMPANY}}", c.sender.Company,
		"{{COMPANY_ABOUT}}", c.sender.About,
	)

	return replacer.Replace(emailTemplate)
}

// Compose renders the prompt and returns the model output verbatim.
func (c *Composer) Compose(ctx context.Context, posting jobs.Posting, links []string) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("%w: composer has no generator", ai.ErrGenerationFailed)
	}

	prompt := c.Render(posting, links)

	c.logger.Debug("compose email request",
		zap.String("role", posting.Role),
		zap.Int("links", len(links)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	text, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationFailed, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationFailed, errors.New("empty email"))
	}

	c.logger.Debug("compose email response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, c.maxLogLen)),
	)

	return text, nil
}

func withDefaults(s Sender) Sender {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = DefaultSender.Name
	}
	if strings.TrimSpace(s.Title) == "" {
		s.Title = DefaultSender.Title
	}
	if strings.TrimSpace(s.Company) == "" {
		s.Company = DefaultSender.Company
		if strings.TrimSpace(s.About) == "" {
			s.About = DefaultSender.About
		}
	}
	return s
}
