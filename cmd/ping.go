package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const pingPrompt = "Hello! Please respond with 'integration successful!'"

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that an llm provider is configured and answers",
	Run: func(_ *cobra.Command, _ []string) {
		ping()
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func ping() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	logger, config := setup()

	selector, err := newSelector(config, logger)
	if err != nil {
		logger.Fatal("preparing llm providers", zap.Error(err))
	}

	generator, err := selector.Select(ctx)
	if err != nil {
		logger.Fatal("selecting llm provider", zap.Error(err))
	}

	response, err := generator.GenerateContent(ctx, pingPrompt)
	if err != nil {
		logger.Fatal("calling llm provider", zap.String("provider", generator.Provider().String()), zap.Error(err))
	}

	fmt.Printf("%s (%s): %s\n", generator.Provider(), generator.Model(), response)
}
