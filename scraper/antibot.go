package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetectChallenge reports whether the document looks like an anti-bot
// interstitial rather than real content. The check inspects the page title
// and the first top-level heading for known marker substrings.
func DetectChallenge(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}

	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	heading := strings.ToLower(strings.TrimSpace(doc.Find("h1").First().Text()))

	for _, marker := range challengeMarkers {
		if title != "" && strings.Contains(title, marker) {
			return true
		}
		if heading != "" && strings.Contains(heading, marker) {
			return true
		}
	}
	return false
}

// FetchResolved fetches a page and applies the single anti-bot recovery
// attempt: on a detected interstitial it waits cfg.ChallengeWait, fetches
// the same URL once more, and proceeds with whatever came back. The
// mitigation is best-effort; a persisting challenge is logged and the
// (likely empty) document is still returned so extraction can run its
// course.
func (f *Fetcher) FetchResolved(pageURL string) (*goquery.Document, error) {
	doc, err := f.Fetch(pageURL)
	if err != nil {
		return nil, err
	}
	if !DetectChallenge(doc) {
		return doc, nil
	}

	f.metrics.IncChallenge("detected")
	slog.Warn("anti-bot interstitial detected, waiting before refetch",
		slog.String("url", pageURL),
		slog.Duration("wait", f.cfg.ChallengeWait),
	)
	f.sleep(f.cfg.ChallengeWait)

	again, err := f.Fetch(pageURL)
	if err != nil {
		f.metrics.IncChallenge("refetch_failed")
		slog.Error("interstitial refetch failed, proceeding with original page",
			slog.String("url", pageURL),
			slog.Any("error", err),
		)
		return doc, nil
	}

	if DetectChallenge(again) {
		f.metrics.IncChallenge("persisted")
		slog.Error("interstitial persisted after recovery attempt",
			slog.String("url", pageURL),
		)
	} else {
		f.metrics.IncChallenge("recovered")
	}
	return again, nil
}
