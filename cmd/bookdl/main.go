// Package main provides the bookdl command: crawl a book catalog site and
// download every document linked from its book pages.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handiism/bookdl/internal/config"
	"github.com/handiism/bookdl/internal/crawl"
	"github.com/handiism/bookdl/internal/download"
	"github.com/handiism/bookdl/internal/http"
	"github.com/handiism/bookdl/internal/logger"
	"github.com/handiism/bookdl/internal/report"
)

var (
	errInterrupted       = errors.New("interrupted")
	errNothingDownloaded = errors.New("no documents were found or downloaded")
)

// options holds flag values that are not part of config.Settings.
type options struct {
	configPath  string
	verbose     bool
	progress    bool
	dryRun      bool
	failOnEmpty bool
}

func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	err := rootCommand().ExecuteContext(ctx)
	logger.Sync()

	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		fmt.Fprintln(os.Stderr, "Interrupted, downloads cancelled.")
		os.Exit(130) //nolint: gocritic
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var opts options
	overrides := config.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "bookdl [catalog-url]",
		Short: "Download every document linked from a book catalog site",
		Long: `bookdl fetches a catalog page, follows every book link on it, and
downloads the documents (PDFs by default) linked from each book page.

Without an argument the catalog at ` + config.DefaultCatalogURL + ` is used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, opts, overrides, args)
			if err != nil {
				return err
			}
			return run(cmd, opts, settings)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML, JSON or TOML)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&opts.progress, "progress", false, "Print one line per event to stdout")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Discover and print document links without downloading")
	f.BoolVar(&opts.failOnEmpty, "fail-on-empty", false, "Exit with status 1 when nothing was downloaded")

	f.StringVarP(&overrides.OutputDir, "output", "o", overrides.OutputDir, "Output directory")
	f.StringVar(&overrides.MetricsFile, "metrics-file", "", "Write run counters in Prometheus text format to this file")
	f.IntVar(&overrides.Download.Concurrency, "concurrency", overrides.Download.Concurrency, "Maximum concurrent downloads")
	f.IntVar(&overrides.Crawl.DiscoveryConcurrency, "discovery-concurrency", overrides.Crawl.DiscoveryConcurrency, "Maximum concurrent book page fetches")
	f.IntVar(&overrides.Fetch.MaxAttempts, "max-attempts", overrides.Fetch.MaxAttempts, "Attempts per request, first try included")
	f.DurationVar(&overrides.Fetch.Timeout, "timeout", overrides.Fetch.Timeout, "Timeout per attempt")
	f.DurationVar(&overrides.Fetch.RetryDelay, "retry-delay", overrides.Fetch.RetryDelay, "Delay before the second attempt")
	f.Float64Var(&overrides.Fetch.RateLimit, "rate-limit", overrides.Fetch.RateLimit, "Maximum requests per second, 0 for unlimited")
	f.StringVar(&overrides.Fetch.Proxy, "proxy", "", "SOCKS5 proxy address (host:port)")
	f.StringVar(&overrides.Crawl.MatchMode, "match-mode", overrides.Crawl.MatchMode, "Document link matching: suffix or contains")
	f.StringVar(&overrides.Download.OnCollision, "on-collision", overrides.Download.OnCollision, "Same file name policy: overwrite or skip")

	return cmd
}

// loadSettings reads the config file and environment, then applies the flags
// the user set explicitly.
func loadSettings(cmd *cobra.Command, opts options, overrides *config.Settings, args []string) (*config.Settings, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	apply := map[string]func(){
		"output":                func() { settings.OutputDir = overrides.OutputDir },
		"metrics-file":          func() { settings.MetricsFile = overrides.MetricsFile },
		"concurrency":           func() { settings.Download.Concurrency = overrides.Download.Concurrency },
		"discovery-concurrency": func() { settings.Crawl.DiscoveryConcurrency = overrides.Crawl.DiscoveryConcurrency },
		"max-attempts":          func() { settings.Fetch.MaxAttempts = overrides.Fetch.MaxAttempts },
		"timeout":               func() { settings.Fetch.Timeout = overrides.Fetch.Timeout },
		"retry-delay":           func() { settings.Fetch.RetryDelay = overrides.Fetch.RetryDelay },
		"rate-limit":            func() { settings.Fetch.RateLimit = overrides.Fetch.RateLimit },
		"proxy":                 func() { settings.Fetch.Proxy = overrides.Fetch.Proxy },
		"match-mode":            func() { settings.Crawl.MatchMode = overrides.Crawl.MatchMode },
		"on-collision":          func() { settings.Download.OnCollision = overrides.Download.OnCollision },
	}
	for name, set := range apply {
		if f.Changed(name) {
			set()
		}
	}

	if len(args) == 1 {
		settings.CatalogURL = args[0]
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func run(cmd *cobra.Command, opts options, settings *config.Settings) error {
	logger.Setup(settings.Environment, opts.verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := http.NewClient(settings.ToClientOptions())
	if err != nil {
		return err
	}

	reporter := report.NewReporter()
	if opts.progress {
		out := cmd.OutOrStdout()
		reporter.OnEvent = func(event report.Event) {
			if event.Level == report.LevelVerbose && !opts.verbose {
				return
			}
			fmt.Fprintln(out, report.RenderEvent(event))
		}
	}

	start := time.Now()
	logger.Info(ctx, "starting crawl",
		zap.String("catalog", settings.CatalogURL),
		zap.String("output", settings.OutputDir))

	discovery, err := crawl.NewCrawler(settings, client, reporter).DiscoverDocuments(ctx, settings.CatalogURL)
	if ctx.Err() != nil {
		return errInterrupted
	}
	if err != nil {
		return err
	}

	if opts.dryRun {
		for _, link := range discovery.Documents {
			fmt.Fprintln(cmd.OutOrStdout(), link)
		}
		return finish(cmd, opts, settings, reporter, true)
	}

	download.NewManager(settings, client, reporter).DownloadAll(ctx, discovery.Documents)
	logger.Info(ctx, "run finished", zap.Duration("elapsed", time.Since(start)))

	if ctx.Err() != nil {
		_ = finish(cmd, opts, settings, reporter, false)
		return errInterrupted
	}
	return finish(cmd, opts, settings, reporter, false)
}

// finish prints the summary, writes the metrics file and decides the exit status.
func finish(cmd *cobra.Command, opts options, settings *config.Settings, reporter *report.Reporter, dryRun bool) error {
	stats := reporter.Stats()

	if !dryRun {
		if err := report.WriteSummary(cmd.ErrOrStderr(), stats); err != nil {
			return err
		}
	}

	if settings.MetricsFile != "" {
		if err := reporter.WriteMetrics(settings.MetricsFile); err != nil {
			return err
		}
	}

	delivered := stats.Succeeded
	if dryRun {
		delivered = stats.Documents
	}
	if opts.failOnEmpty && delivered == 0 {
		return errNothingDownloaded
	}
	return nil
}
