package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/coldmail/internal/config"
	"github.com/spigell/coldmail/internal/jobs"
	"github.com/spigell/coldmail/internal/portfolio"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage the portfolio store",
}

var portfolioLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the portfolio CSV into the store if it is empty",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		if err := portfolioLoad(logger, config); err != nil {
			logger.Fatal("portfolio load failed", zap.Error(err))
		}
	},
}

var portfolioQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the portfolio links that match the given skills",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		if err := portfolioQuery(cmd, logger, config); err != nil {
			logger.Fatal("portfolio query failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioLoadCmd, portfolioQueryCmd)

	portfolioCmd.PersistentFlags().String("csv", "", "portfolio CSV with Techstack and Links columns")
	portfolioCmd.PersistentFlags().String("store", "", "directory of the portfolio store")
	viper.BindPFlag("portfolio.csv", portfolioCmd.PersistentFlags().Lookup("csv"))
	viper.BindPFlag("portfolio.store-path", portfolioCmd.PersistentFlags().Lookup("store"))

	portfolioQueryCmd.Flags().StringP("skills", "s", "", "comma separated skills")
	portfolioQueryCmd.Flags().IntP("limit", "k", 0, "number of links (default from portfolio.links)")
}

func portfolioLoad(logger *zap.Logger, config *config.Config) error {
	store, err := portfolio.Open(config.Portfolio.StorePath, logger)
	if err != nil {
		return fmt.Errorf("opening portfolio store: %w", err)
	}
	defer closeStore(store, logger)

	items, err := portfolio.LoadCSV(config.Portfolio.CSV)
	if err != nil {
		return fmt.Errorf("loading portfolio: %w", err)
	}

	inserted, err := store.Populate(context.Background(), items)
	if err != nil {
		return fmt.Errorf("populating portfolio store: %w", err)
	}

	count, err := store.Count()
	if err != nil {
		return fmt.Errorf("counting portfolio items: %w", err)
	}

	logger.Info("portfolio store ready",
		zap.String("path", store.Path()),
		zap.Int("inserted", inserted),
		zap.Uint64("total", count),
	)
	return nil
}

func portfolioQuery(cmd *cobra.Command, logger *zap.Logger, config *config.Config) error {
	ctx := context.Background()

	store, err := openPortfolio(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("opening portfolio store: %w", err)
	}
	defer closeStore(store, logger)

	skills, _ := cmd.Flags().GetString("skills")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = config.Portfolio.Links
	}

	links, err := store.Query(ctx, jobs.SplitSkills(skills), limit)
	if err != nil {
		return fmt.Errorf("querying portfolio store: %w", err)
	}

	for i, link := range links {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, link.Links)
	}
	return nil
}
