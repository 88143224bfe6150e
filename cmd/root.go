package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/app"
	"github.com/JakeFAU/catalog-scraper/internal/config"
	"github.com/JakeFAU/catalog-scraper/internal/engine"
	"github.com/JakeFAU/catalog-scraper/internal/logging"
)

var cfgFile string

// App defines what the commands need from the assembled services.
// This allows us to inject a fake app during tests.
type App interface {
	Run(ctx context.Context) (engine.Stats, error)
	Close(ctx context.Context)
	Logger() *zap.Logger
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(cfg, logger, app.DefaultFactories())
}

// newLogger builds the process logger from the loaded configuration.
var newLogger = logging.New

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog-scraper",
		Short: "Crawls a product catalog and stores one record per product.",
		Long: `catalog-scraper walks a single online catalog breadth-first, from the
category listing through each product's characteristics page, and hands every
product record to one sink: CSV, JSON lines, PostgreSQL, or MongoDB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, TOML, or JSON)")
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	logger, lerr := logging.New(false)
	if lerr != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Fatal("Command execution failed", zap.Error(err))
}
