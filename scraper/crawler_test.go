package scraper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/openfab-lab/showcase-scraper/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/projects/"
	cfg.PageDelay = 0
	cfg.RequestDelay = 0
	cfg.ChallengeWait = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newTestCrawler(t *testing.T, cfg *config.Config, transport *httpmock.MockTransport) *Crawler {
	t.Helper()

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.collector.WithTransport(transport)
	fetcher.sleep = func(time.Duration) {}

	crawler, err := NewCrawler(cfg, fetcher, metrics)
	if err != nil {
		t.Fatalf("new crawler: %v", err)
	}
	crawler.sleep = func(time.Duration) {}
	return crawler
}

func listingPage(links []string, next bool, numbers ...int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Projects</title></head><body><main>")
	for i, link := range links {
		fmt.Fprintf(&b, `<article class="post"><h2 class="entry-title"><a href=%q>Project %d</a></h2></article>`, link, i)
	}
	if next {
		b.WriteString(`<a class="next" href="page/2/">Next</a>`)
	}
	for _, n := range numbers {
		fmt.Fprintf(&b, `<a class="page-numbers" href="page/%d/">%d</a>`, n, n)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func TestCollectProjectURLsAcrossPages(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()

	page1 := listingPage([]string{"/projects/alpha/", "/projects/beta/"}, true)
	page2 := listingPage([]string{"/projects/gamma/", "/projects/alpha/"}, false)

	transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(page1))
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), htmlResponder(page1))
	transport.RegisterResponder("GET", cfg.BaseURL+"page/2/", htmlResponder(page2))

	crawler := newTestCrawler(t, cfg, transport)
	urls, err := crawler.CollectProjectURLs()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := []string{
		"http://example.test/projects/alpha/",
		"http://example.test/projects/beta/",
		"http://example.test/projects/gamma/",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestZeroLinksForcesStopDespitePaginationControls(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()

	// Pagination controls advertise more pages but the page has no links;
	// the crawl must halt without fetching page 2.
	empty := listingPage(nil, true, 2, 3)
	transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(empty))
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), htmlResponder(empty))

	crawler := newTestCrawler(t, cfg, transport)
	urls, err := crawler.CollectProjectURLs()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("urls = %v, want none", urls)
	}

	info := transport.GetCallCountInfo()
	for key := range info {
		if strings.Contains(key, "page/2/") {
			t.Fatalf("page 2 should not have been fetched: %v", info)
		}
	}
}

func TestNotFoundEndsPaginationCleanly(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()

	page1 := listingPage([]string{"/projects/alpha/"}, false, 2)
	transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(page1))
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), htmlResponder(page1))
	transport.RegisterResponder("GET", cfg.BaseURL+"page/2/", httpmock.NewStringResponder(404, "gone"))

	crawler := newTestCrawler(t, cfg, transport)
	urls, err := crawler.CollectProjectURLs()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("urls = %v, want 1 entry", urls)
	}
}

func TestFallbackSelectorChain(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()

	// No entry-title markup at all; only the .post-title fallback matches.
	body := `<html><body>
		<div class="post-title"><a href="/projects/delta/">Delta</a></div>
	</body></html>`
	transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(body))
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), htmlResponder(body))

	crawler := newTestCrawler(t, cfg, transport)
	urls, err := crawler.CollectProjectURLs()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 1 || urls[0] != "http://example.test/projects/delta/" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestMaxProjectsCapTruncates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxProjects = 2
	transport := httpmock.NewMockTransport()

	page1 := listingPage([]string{"/projects/a/", "/projects/b/", "/projects/c/"}, true)
	transport.RegisterResponder("GET", cfg.BaseURL, htmlResponder(page1))
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), htmlResponder(page1))

	crawler := newTestCrawler(t, cfg, transport)
	urls, err := crawler.CollectProjectURLs()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want cap of 2", urls)
	}
}

func TestPageAddress(t *testing.T) {
	tests := []struct {
		base string
		page int
		want string
	}{
		{base: "http://example.test/projects/", page: 1, want: "http://example.test/projects/"},
		{base: "http://example.test/projects/", page: 2, want: "http://example.test/projects/page/2/"},
		{base: "http://example.test/projects", page: 3, want: "http://example.test/projects/page/3/"},
	}
	for _, tt := range tests {
		if got := pageAddress(tt.base, tt.page); got != tt.want {
			t.Fatalf("pageAddress(%q, %d) = %q, want %q", tt.base, tt.page, got, tt.want)
		}
	}
}
