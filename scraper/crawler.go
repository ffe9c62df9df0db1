package scraper

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openfab-lab/showcase-scraper/config"
)

// seenCacheSize bounds the crawler's deduplication set. The source site is
// a few hundred projects at most; the cap only matters if pagination loops.
const seenCacheSize = 4096

// Crawler walks listing pages in order and collects project detail URLs.
type Crawler struct {
	cfg     *config.Config
	fetcher *Fetcher
	metrics *Metrics
	sleep   func(time.Duration)
	seen    *lru.Cache[string, struct{}]
}

// NewCrawler builds a crawler over an existing fetcher.
func NewCrawler(cfg *config.Config, fetcher *Fetcher, metrics *Metrics) (*Crawler, error) {
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create dedup cache: %w", err)
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		metrics: metrics,
		sleep:   time.Sleep,
		seen:    seen,
	}, nil
}

// CollectProjectURLs iterates listing pages starting at page 1 and returns
// the ordered, deduplicated detail URLs. Pagination ends on the first page
// with no continuation signal, on a not_found fetch, or on any other fetch
// error (hard stop, not retried). A zero-link page always ends the crawl,
// even when pagination controls are still present.
func (c *Crawler) CollectProjectURLs() ([]string, error) {
	var urls []string

	for page := 1; ; page++ {
		pageURL := pageAddress(c.cfg.BaseURL, page)
		doc, err := c.fetcher.FetchResolved(pageURL)
		if err != nil {
			var notFound ErrNotFound
			if errors.As(err, &notFound) {
				slog.Info("listing page not found, ending pagination",
					slog.Int("page", page),
					slog.String("url", pageURL),
				)
				break
			}
			if page == 1 {
				return nil, fmt.Errorf("fetch first listing page: %w", err)
			}
			slog.Error("listing page fetch failed, stopping crawl",
				slog.Int("page", page),
				slog.String("url", pageURL),
				slog.Any("error", err),
			)
			break
		}
		c.metrics.IncPage()

		links := extractListingLinks(doc)
		slog.Debug("listing page processed",
			slog.Int("page", page),
			slog.Int("links", len(links)),
		)

		for _, link := range links {
			abs := absoluteURL(doc, link)
			if abs == "" {
				continue
			}
			if _, ok := c.seen.Get(abs); ok {
				continue
			}
			c.seen.Add(abs, struct{}{})
			urls = append(urls, abs)
		}

		if c.cfg.MaxProjects > 0 && len(urls) >= c.cfg.MaxProjects {
			urls = urls[:c.cfg.MaxProjects]
			slog.Info("reached project cap, stopping crawl",
				slog.Int("cap", c.cfg.MaxProjects),
			)
			break
		}

		// Zero links ends the crawl regardless of pagination controls;
		// numbering artifacts on empty pages would otherwise loop forever.
		if len(links) == 0 {
			break
		}
		if !hasMorePages(doc, page) {
			break
		}

		c.sleep(c.cfg.PageDelay)
	}

	return urls, nil
}

// pageAddress maps a page index onto a listing URL. Page 1 is the base URL
// itself; later pages use the page/N/ suffix scheme.
func pageAddress(base string, page int) string {
	if page <= 1 {
		return base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%spage/%d/", base, page)
}

// extractListingLinks applies the listing selector chain and returns the
// hrefs from the first selector producing any link.
func extractListingLinks(doc *goquery.Document) []string {
	for _, selector := range listingLinkSelectors {
		var links []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			href = strings.TrimSpace(href)
			if !ok || href == "" || strings.HasPrefix(href, "#") {
				return
			}
			links = append(links, href)
		})
		if len(links) > 0 {
			return links
		}
	}
	return nil
}

// hasMorePages decides whether pagination continues past the current page:
// either a next control exists or a numbered control advertises a page
// beyond the current index.
func hasMorePages(doc *goquery.Document, current int) bool {
	for _, selector := range nextPageSelectors {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}

	highest := 0
	for _, selector := range pageNumberSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
			if err != nil {
				return
			}
			if n > highest {
				highest = n
			}
		})
	}
	return highest > current
}

func absoluteURL(doc *goquery.Document, href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if doc.Url != nil {
		parsed = doc.Url.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	parsed.Fragment = ""
	return parsed.String()
}
