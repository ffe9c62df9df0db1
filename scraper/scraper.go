// Package scraper implements the one-shot extraction pipeline: paginate
// listing pages, extract project records, filter by tags, assemble the
// dataset.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openfab-lab/showcase-scraper/config"
	"github.com/openfab-lab/showcase-scraper/filter"
	"github.com/openfab-lab/showcase-scraper/models"
)

// Scraper owns one sequential scrape run. There is deliberately no request
// parallelism: one page at a time, one detail fetch at a time, with fixed
// delays in between, to stay polite and under anti-bot thresholds.
type Scraper struct {
	cfg       *config.Config
	fetcher   *Fetcher
	crawler   *Crawler
	extractor *Extractor
	rules     filter.Rules
	Metrics   *Metrics

	sleep func(time.Duration)
	now   func() time.Time
}

// NewScraper builds the full pipeline from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()

	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	crawler, err := NewCrawler(cfg, fetcher, metrics)
	if err != nil {
		return nil, fmt.Errorf("init crawler: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		fetcher:   fetcher,
		crawler:   crawler,
		extractor: NewExtractor(fetcher, metrics),
		rules: filter.Rules{
			Enabled:  cfg.FilterEnabled,
			Mode:     cfg.FilterMode,
			Required: cfg.RequiredTags,
			Excluded: cfg.ExcludedTags,
		},
		Metrics: metrics,
		sleep:   time.Sleep,
		now:     time.Now,
	}, nil
}

// Run executes one scrape and returns the assembled dataset. Per-record
// extraction and validation failures are counted and skipped; only a failed
// first listing fetch or a cancelled context aborts the run.
func (s *Scraper) Run(ctx context.Context) (*models.Dataset, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stats := models.ScrapeRunStats{StartTime: s.now()}

	urls, err := s.crawler.CollectProjectURLs()
	if err != nil {
		return nil, fmt.Errorf("collect project urls: %w", err)
	}
	stats.ProjectsFound = len(urls)
	slog.Info("pagination complete", slog.Int("urls", len(urls)))

	var projects []models.ProjectRecord
	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		if i > 0 {
			s.sleep(s.cfg.RequestDelay)
		}

		record, err := s.extractor.ExtractProject(pageURL)
		if err != nil {
			stats.Errors++
			s.Metrics.IncRecord("failed")
			slog.Error("record extraction failed",
				slog.String("url", pageURL),
				slog.Any("error", err),
			)
			continue
		}

		if !s.rules.Include(record.Tags) {
			s.Metrics.IncRecord("filtered")
			slog.Debug("record excluded by tag filter",
				slog.String("id", record.ID),
				slog.Any("tags", record.Tags),
			)
			continue
		}
		record.Tags = s.rules.Clean(record.Tags)

		projects = append(projects, *record)
		stats.ProjectsScraped++
		s.Metrics.IncRecord("accepted")
	}

	dataset := &models.Dataset{
		LastUpdated:   s.now().UTC().Format(time.RFC3339),
		TotalProjects: len(projects),
		ScrapingStats: stats,
		Projects:      projects,
	}

	slog.Info("scrape complete",
		slog.Int("found", stats.ProjectsFound),
		slog.Int("scraped", stats.ProjectsScraped),
		slog.Int("errors", stats.Errors),
	)
	return dataset, nil
}
