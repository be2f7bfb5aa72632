package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spigell/coldmail/internal/config"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/pipeline"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptAll  = "All postings"
	PromptExit = "exit"
)

var errExit = errors.New("exit requested")

// sampleJob is used when run gets neither a url nor a role.
var sampleJob = jobs.Posting{
	Role:       "Senior Software Engineer",
	Experience: "5+ years",
	Skills:     []string{"Python", "React", "Node.js", "MongoDB"},
	Description: "We are looking for a Senior Software Engineer to join our team. The ideal candidate will have strong " +
		"experience in full-stack development, with expertise in Python, React, Node.js, and MongoDB. They will be " +
		"responsible for designing and implementing scalable solutions, mentoring junior developers, and contributing " +
		"to architectural decisions.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate cold emails for a careers page or a single job",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		// Fatal exits immediately, so it is only called after run has released the store.
		if err := run(cmd, logger, config); err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("url", "u", "", "careers page to scrape")
	runCmd.Flags().String("role", "", "job role, used when --url is not set")
	runCmd.Flags().String("experience", "", "required experience")
	runCmd.Flags().String("skills", "", "comma separated required skills")
	runCmd.Flags().String("description", "", "job description")
	runCmd.Flags().Bool("dry-run", false, "print the email prompt instead of calling the model")
	runCmd.Flags().BoolP("auto-aprove", "y", false, "compose emails for every extracted posting without asking")
}

// run is the main command for the cli.
func run(cmd *cobra.Command, logger *zap.Logger, config *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting the coldmail", zap.String("version", version))

	store, err := openPortfolio(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("opening portfolio store: %w", err)
	}
	defer closeStore(store, logger)

	selector, err := newSelector(config, logger)
	if err != nil {
		return fmt.Errorf("preparing llm providers: %w", err)
	}

	p := newPipeline(config, selector, store, logger)

	postings, err := postingsFromFlags(ctx, cmd, p, logger)
	if err != nil {
		if errors.Is(err, errExit) {
			return nil
		}
		return fmt.Errorf("getting job postings: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	for _, posting := range postings {
		if dryRun {
			prompt, err := p.Render(ctx, posting)
			if err != nil {
				return fmt.Errorf("rendering email prompt for %q: %w", posting.Role, err)
			}
			printEmail(cmd.OutOrStdout(), posting, prompt)
			continue
		}

		result, err := p.ComposeForJob(ctx, posting)
		if err != nil {
			return fmt.Errorf("composing email for %q: %w", posting.Role, err)
		}
		printEmail(cmd.OutOrStdout(), result.Posting, result.Email)
	}

	logger.Info("done", zap.Int("emails", len(postings)))
	return nil
}

func postingsFromFlags(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, logger *zap.Logger) ([]jobs.Posting, error) {
	url, _ := cmd.Flags().GetString("url")
	if strings.TrimSpace(url) != "" {
		postings, err := p.ExtractFromURL(ctx, url)
		if err != nil {
			return nil, err
		}

		autoApprove, _ := cmd.Flags().GetBool("auto-aprove")
		if len(postings) == 1 || autoApprove {
			return postings, nil
		}

		return choosePostings(postings)
	}

	role, _ := cmd.Flags().GetString("role")
	if strings.TrimSpace(role) == "" {
		logger.Info("no url or role given, using the sample job", zap.String("role", sampleJob.Role))
		return []jobs.Posting{sampleJob}, nil
	}

	experience, _ := cmd.Flags().GetString("experience")
	skills, _ := cmd.Flags().GetString("skills")
	description, _ := cmd.Flags().GetString("description")

	return []jobs.Posting{{
		Role:        strings.TrimSpace(role),
		Experience:  strings.TrimSpace(experience),
		Skills:      jobs.SplitSkills(skills),
		Description: strings.TrimSpace(description),
	}}, nil
}

func choosePostings(postings []jobs.Posting) ([]jobs.Posting, error) {
	items := make([]string, 0, len(postings)+2)
	for i, posting := range postings {
		items = append(items, fmt.Sprintf("%d %s / %s / %s", i+1, posting.Role, posting.Experience, strings.Join(posting.Skills, ", ")))
	}
	items = append(items, PromptAll, PromptExit)

	postingPrompt := promptui.Select{
		Label: "Choose a posting and press ENTER",
		Items: items,
	}

	idx, selected, err := postingPrompt.Run()
	if err != nil {
		return nil, err
	}

	switch selected {
	case PromptAll:
		return postings, nil
	case PromptExit:
		return nil, errExit
	default:
		return []jobs.Posting{postings[idx]}, nil
	}
}

func printEmail(w io.Writer, posting jobs.Posting, text string) {
	fmt.Fprintf(w, "==== %s ====\n%s\n\n", posting.Role, strings.TrimSpace(text))
}
