package scraper

import (
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jarcoal/httpmock"
)

func TestDetectChallenge(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "cloudflare title",
			body: `<html><head><title>Just a moment...</title></head><body></body></html>`,
			want: true,
		},
		{
			name: "heading marker",
			body: `<html><body><h1>Checking your browser before accessing</h1></body></html>`,
			want: true,
		},
		{
			name: "verify human",
			body: `<html><head><title>Verify you are human</title></head><body></body></html>`,
			want: true,
		},
		{
			name: "real content",
			body: `<html><head><title>LED Cube | Student Showcase</title></head><body><h1>LED Cube</h1></body></html>`,
			want: false,
		},
		{
			name: "empty page",
			body: `<html><body></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := DetectChallenge(doc); got != tt.want {
				t.Fatalf("DetectChallenge = %v, want %v", got, tt.want)
			}
		})
	}
}

const challengeBody = `<html><head><title>Just a moment...</title></head><body><h1>Checking your browser</h1></body></html>`
const realBody = `<html><head><title>Projects</title></head><body><h1>Projects</h1></body></html>`

func TestFetchResolvedRecoversAfterSingleWait(t *testing.T) {
	cfg := testConfig()
	cfg.ChallengeWait = 7 * time.Second

	var calls int64
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.BaseURL, func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return httpmock.NewStringResponse(200, challengeBody), nil
		}
		return httpmock.NewStringResponse(200, realBody), nil
	})
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return httpmock.NewStringResponse(200, challengeBody), nil
		}
		return httpmock.NewStringResponse(200, realBody), nil
	})

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.collector.WithTransport(transport)

	var waited time.Duration
	fetcher.sleep = func(d time.Duration) { waited += d }

	doc, err := fetcher.FetchResolved(cfg.BaseURL)
	if err != nil {
		t.Fatalf("fetch resolved: %v", err)
	}

	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Fatalf("expected exactly one recovery refetch, got %d calls", got)
	}
	if waited != cfg.ChallengeWait {
		t.Fatalf("waited %v, want %v", waited, cfg.ChallengeWait)
	}
	if title := doc.Find("title").Text(); title != "Projects" {
		t.Fatalf("expected recovered page, got title %q", title)
	}
}

func TestFetchResolvedProceedsWhenChallengePersists(t *testing.T) {
	cfg := testConfig()

	transport := httpmock.NewMockTransport()
	responder := httpmock.NewStringResponder(200, challengeBody)
	transport.RegisterResponder("GET", cfg.BaseURL, responder)
	transport.RegisterResponder("GET", strings.TrimSuffix(cfg.BaseURL, "/"), responder)

	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	fetcher.collector.WithTransport(transport)
	fetcher.sleep = func(time.Duration) {}

	// Best-effort contract: the persisting interstitial still yields a
	// document so downstream extraction can run (and likely find nothing).
	doc, err := fetcher.FetchResolved(cfg.BaseURL)
	if err != nil {
		t.Fatalf("fetch resolved: %v", err)
	}
	if doc == nil {
		t.Fatalf("expected a document even when the challenge persists")
	}
	if !DetectChallenge(doc) {
		t.Fatalf("document should still look like the interstitial")
	}

	info := transport.GetCallCountInfo()
	total := 0
	for _, count := range info {
		total += count
	}
	if total != 2 {
		t.Fatalf("expected exactly 2 fetches (original + single retry), got %d: %v", total, info)
	}
}
