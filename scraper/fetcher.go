package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/openfab-lab/showcase-scraper/config"
)

// Fetcher wraps a colly collector behind a synchronous fetch-and-parse
// call. All fetching in a run goes through one Fetcher, one request at a
// time; there is deliberately no parallelism.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics
	sleep     func(time.Duration)

	mu         sync.Mutex
	lastBody   []byte
	lastStatus int
	lastErr    error
}

// NewFetcher builds a fetcher configured from cfg. The collector runs
// synchronously and allows URL revisits so the anti-bot recovery can fetch
// the same address twice.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	collector.WithTransport(cloudflarebp.AddCloudFlareByPass(transport))

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   metrics,
		sleep:     time.Sleep,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
	})

	collector.OnResponse(func(r *colly.Response) {
		f.mu.Lock()
		f.lastBody = append([]byte(nil), r.Body...)
		f.lastStatus = r.StatusCode
		f.mu.Unlock()

		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		f.mu.Lock()
		f.lastErr = err
		if r != nil {
			f.lastStatus = r.StatusCode
		}
		f.mu.Unlock()
	})

	return f, nil
}

// Fetch retrieves one page and parses it. HTTP error statuses map onto the
// typed error categories; the caller decides whether not_found means the
// end of pagination.
func (f *Fetcher) Fetch(pageURL string) (*goquery.Document, error) {
	f.mu.Lock()
	f.lastBody = nil
	f.lastStatus = 0
	f.lastErr = nil
	f.mu.Unlock()

	visitErr := f.collector.Visit(pageURL)
	f.collector.Wait()

	f.mu.Lock()
	body := f.lastBody
	status := f.lastStatus
	err := f.lastErr
	f.mu.Unlock()

	if err == nil {
		err = visitErr
	}
	if err != nil {
		classified := classifyError(err, status)
		f.metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}
	if len(body) == 0 {
		classified := classifyError(fmt.Errorf("empty response body"), status)
		f.metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound, http.StatusGone:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
