package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/coldmail/internal/ai"
	"github.com/spigell/coldmail/internal/jobs"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

var dataScientist = jobs.Posting{
	Role:        "Data Scientist",
	Experience:  "2+ years",
	Skills:      []string{"Python", "NLP"},
	Description: "Build language models",
}

func bulletLines(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•") {
			bullets = append(bullets, line)
		}
	}
	return bullets
}

func TestRenderWithoutLinks(t *testing.T) {
	t.Parallel()

	prompt := NewComposer(nil, Sender{}, nil, 0).Render(dataScientist, nil)

	for _, want := range []string{"Data Scientist", "2+ years", "Python, NLP", "Build language models"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}

	if bullets := bulletLines(prompt); len(bullets) != 0 {
		t.Fatalf("expected no bullet lines, got %q", bullets)
	}

	if strings.Contains(prompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", prompt)
	}
}

func TestRenderLinks(t *testing.T) {
	t.Parallel()

	links := []string{"https://example.com/a", " ", "https://example.com/b"}
	prompt := NewComposer(nil, Sender{}, nil, 0).Render(dataScientist, links)

	if !strings.Contains(prompt, "- https://example.com/a\n- https://example.com/b\n") {
		t.Fatalf("expected bulleted links, got:\n%s", prompt)
	}

	if bullets := bulletLines(prompt); len(bullets) != 2 {
		t.Fatalf("expected 2 bullet lines, got %q", bullets)
	}
}

func TestRenderSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sender  Sender
		want    []string
		notWant string
	}{
		{
			name:   "defaults",
			sender: Sender{},
			want:   []string{DefaultSender.Name, DefaultSender.Company, DefaultSender.About},
		},
		{
			name:    "custom company drops default about",
			sender:  Sender{Name: "Sam", Company: "Initech"},
			want:    []string{"You are Sam, Business Development Executive at Initech.", "Business Development Executive | Initech"},
			notWant: DefaultSender.About,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prompt := NewComposer(nil, tt.sender, nil, 0).Render(dataScientist, nil)
			for _, want := range tt.want {
				if !strings.Contains(prompt, want) {
					t.Fatalf("expected %q in prompt:\n%s", want, prompt)
				}
			}
			if tt.notWant != "" && strings.Contains(prompt, tt.notWant) {
				t.Fatalf("did not expect %q in prompt", tt.notWant)
			}
		})
	}
}

func TestComposeReturnsModelOutputVerbatim(t *testing.T) {
	stub := &stubGenerator{response: "Subject: Data Scientist support\n\nHello,\n"}
	composer := NewComposer(stub, Sender{}, zap.NewNop(), 0)

	email, err := composer.Compose(context.Background(), dataScientist, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if email != stub.response {
		t.Fatalf("expected verbatim output, got %q", email)
	}

	if stub.lastPrompt != composer.Render(dataScientist, nil) {
		t.Fatalf("expected rendered template to be sent")
	}
}

func TestComposeGenerationFailed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		generator contentGenerator
	}{
		{name: "provider error", generator: &stubGenerator{err: errors.New("timeout")}},
		{name: "blank output", generator: &stubGenerator{response: "  \n"}},
		{name: "no generator", generator: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewComposer(tt.generator, Sender{}, nil, 0).Compose(context.Background(), dataScientist, []string{"https://example.com/a"})
			if !errors.Is(err, ai.ErrGenerationFailed) {
				t.Fatalf("expected ErrGenerationFailed, got %v", err)
			}
		})
	}
}
