// Package cmd defines and implements the CLI commands for the catalog-scraper executable.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-scraper/internal/config"
	"github.com/JakeFAU/catalog-scraper/internal/output"
	"github.com/JakeFAU/catalog-scraper/internal/sink"
	"github.com/JakeFAU/catalog-scraper/internal/spider/muztorg"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the catalog and writes product records",
		Long: `Crawls the catalog from the start URL until no pages remain, writing each
product record to the selected output. The output path "-" means standard
output; gs://bucket/object writes to Cloud Storage. The database formats
ignore --outfile and read their connection settings from the configuration.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}

	flags := cmd.Flags()
	flags.StringP("outfile", "o", output.Stdout, "output destination for file formats")
	flags.StringP("format", "f", string(sink.FormatCSV), "output format: "+formatList())
	flags.String("start-url", muztorg.StartURL, "URL of the first category page")
	flags.String("parser", string(muztorg.ParserCategory), "parser applied to the start URL")
	return cmd
}

func formatList() string {
	formats := sink.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	appInstance, err := newApp(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer appInstance.Close(cmd.Context())

	if _, err := appInstance.Run(cmd.Context()); err != nil {
		return err
	}

	appInstance.Logger().Info("Crawl command finished.", zap.String("format", cfg.Output.Format))
	return nil
}
