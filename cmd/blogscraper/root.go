package main

import (
	"fmt"
	"log/slog"

	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/config"
	"github.com/pevans/blogscraper/logging"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand once the root command has
// resolved configuration.
type app struct {
	opts      config.LoadOptions
	dbPath    string
	logLevel  string
	logFormat string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "blogscraper",
		Short: "Scrape blog listings and manage the stored articles",
		Long: `blogscraper collects the most recent articles from a paginated blog,
extracts each article's body as plain text and stores the results in SQLite.

Example usage:
  blogscraper serve                 # Run the REST API
  blogscraper scrape --count 10     # Scrape the latest 10 articles
  blogscraper content <url>         # Print one article's content
  blogscraper articles list         # List stored articles
  blogscraper config show           # Show the resolved configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.ConfigPath, "config", "", "config file (default is ~/.blogscraper/config.yaml)")
	flags.StringVar(&a.opts.EnvFile, "env-file", "", "dotenv file (default is .env)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newServeCmd(a),
		newScrapeCmd(a),
		newContentCmd(a),
		newArticlesCmd(a),
		newConfigCmd(a),
	)

	return root
}

// load resolves configuration and builds the logger. Flags that were set
// explicitly take precedence over every other source.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger

	logger.Debug("configuration loaded",
		"db", cfg.DBPath,
		"base_url", cfg.Scraper.BaseURL,
		"target_count", cfg.Scraper.TargetCount,
	)
	return nil
}

// openStore opens the article store at the configured path.
func (a *app) openStore() (*articles.Store, error) {
	store, err := articles.NewStore(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}
	return store, nil
}
