package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/coldmail/internal/config"
	"github.com/spigell/coldmail/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the email generator over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		if err := serve(logger, config); err != nil {
			logger.Fatal("serve failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :5000)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve(logger *zap.Logger, config *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The store holds a file lock, so it is opened once and shared by all requests.
	store, err := openPortfolio(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("opening portfolio store: %w", err)
	}
	defer closeStore(store, logger)

	selector, err := newSelector(config, logger)
	if err != nil {
		return fmt.Errorf("preparing llm providers: %w", err)
	}

	srv := server.New(newPipeline(config, selector, store, logger), logger)

	if err := srv.ListenAndServe(ctx, config.Server.Listen); err != nil {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}
