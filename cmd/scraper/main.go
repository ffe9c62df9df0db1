package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openfab-lab/showcase-scraper/config"
	"github.com/openfab-lab/showcase-scraper/dataset"
	"github.com/openfab-lab/showcase-scraper/models"
	"github.com/openfab-lab/showcase-scraper/scraper"
)

func main() {
	// Precedence: defaults < SHOWCASE_CONFIG yaml < environment < flags.
	defaults, err := config.Load(os.Getenv("SHOWCASE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := applyEnv(defaults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	baseURL := flag.String("base-url", cfg.BaseURL, "Base listing URL to crawl")
	maxProjects := flag.Int("max-projects", cfg.MaxProjects, "Cap on collected project URLs (0 = unlimited)")
	pageDelayMs := flag.Int("page-delay", int(cfg.PageDelay/time.Millisecond), "Delay between listing pages (milliseconds)")
	requestDelayMs := flag.Int("request-delay", int(cfg.RequestDelay/time.Millisecond), "Delay between detail fetches (milliseconds)")
	datasetFile := flag.String("output", cfg.DatasetFile, "Dataset JSON output path")
	qrDir := flag.String("qr-dir", cfg.QRDir, "Directory for per-record QR images (empty disables)")
	filterEnabled := flag.Bool("filter", cfg.FilterEnabled, "Enable tag filtering")
	filterMode := flag.String("filter-mode", cfg.FilterMode, "Tag filter mode: any or all")
	requiredTags := flag.String("required-tags", strings.Join(cfg.RequiredTags, ","), "Comma-separated required tags")
	excludedTags := flag.String("excluded-tags", strings.Join(cfg.ExcludedTags, ","), "Comma-separated nuisance tags stripped for display")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", cfg.Verbose, "Enable verbose logging")
	flag.Parse()

	cfg.BaseURL = *baseURL
	cfg.MaxProjects = *maxProjects
	cfg.PageDelay = time.Duration(*pageDelayMs) * time.Millisecond
	cfg.RequestDelay = time.Duration(*requestDelayMs) * time.Millisecond
	cfg.DatasetFile = *datasetFile
	cfg.QRDir = *qrDir
	cfg.FilterEnabled = *filterEnabled
	cfg.FilterMode = strings.ToLower(*filterMode)
	cfg.RequiredTags = splitList(*requiredTags)
	cfg.ExcludedTags = splitList(*excludedTags)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("max_projects", cfg.MaxProjects),
		slog.Bool("filter", cfg.FilterEnabled),
		slog.Bool("ci", config.IsCI()),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := dataset.NewWriter(cfg.DatasetFile)
	if err != nil {
		slog.Error("creating dataset writer", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	startTime := time.Now()
	ds, err := s.Run(ctx)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Write(ds); err != nil {
		slog.Error("writing dataset failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	qrCount := 0
	if cfg.QRDir != "" {
		qrCount, err = dataset.WriteQRImages(ds.Projects, cfg.QRDir)
		if err != nil {
			slog.Error("writing qr images failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(ds, time.Since(startTime), cfg.DatasetFile, qrCount)
}

func applyEnv(cfg *config.Config) (*config.Config, error) {
	if value, ok := config.EnvString("SHOWCASE_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok, err := config.EnvInt("SHOWCASE_MAX_PROJECTS"); err != nil {
		return nil, fmt.Errorf("invalid SHOWCASE_MAX_PROJECTS: %w", err)
	} else if ok {
		cfg.MaxProjects = value
	}
	if value, ok := config.EnvString("SHOWCASE_OUTPUT"); ok {
		cfg.DatasetFile = value
	}
	if value, ok := config.EnvString("SHOWCASE_QR_DIR"); ok {
		cfg.QRDir = value
	}
	if value, ok, err := config.EnvBool("SHOWCASE_FILTER"); err != nil {
		return nil, fmt.Errorf("invalid SHOWCASE_FILTER: %w", err)
	} else if ok {
		cfg.FilterEnabled = value
	}
	if value, ok := config.EnvString("SHOWCASE_FILTER_MODE"); ok {
		cfg.FilterMode = strings.ToLower(value)
	}
	if value, ok := config.EnvList("SHOWCASE_REQUIRED_TAGS"); ok {
		cfg.RequiredTags = value
	}
	if value, ok := config.EnvList("SHOWCASE_EXCLUDED_TAGS"); ok {
		cfg.ExcludedTags = value
	}
	if value, ok := config.EnvString("SHOWCASE_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return cfg, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printSummary(ds *models.Dataset, duration time.Duration, outputFile string, qrCount int) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  URLs found:    %d\n", ds.ScrapingStats.ProjectsFound)
	fmt.Printf("  Records:       %d\n", ds.TotalProjects)
	fmt.Printf("  Errors:        %d\n", ds.ScrapingStats.Errors)
	fmt.Printf("  QR images:     %d\n", qrCount)
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
