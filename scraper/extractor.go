package scraper

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/openfab-lab/showcase-scraper/models"
)

const (
	unknownTitle   = "Unknown Title"
	maxTagLen      = 50
	maxGallerySize = 8
	minDescLen     = 40
	qrImageSize    = 256
)

// taggedPhraseRe matches a trailing "tagged X, Y and Z" phrase in page
// text; the capture runs to the end of the sentence or line.
var taggedPhraseRe = regexp.MustCompile(`(?i)\btagged\s+([^.\n]+)`)

var byBoundaryRe = regexp.MustCompile(`(?i)\s+by\s+`)

// Extractor turns a detail-page URL into a ProjectRecord.
type Extractor struct {
	fetcher  *Fetcher
	metrics  *Metrics
	now      func() time.Time
	encodeQR func(string) ([]byte, error)
}

// NewExtractor builds an extractor over an existing fetcher.
func NewExtractor(fetcher *Fetcher, metrics *Metrics) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		metrics: metrics,
		now:     time.Now,
		encodeQR: func(content string) ([]byte, error) {
			return qrcode.Encode(content, qrcode.Medium, qrImageSize)
		},
	}
}

// ExtractProject fetches one detail page and resolves every record field
// through its strategy chain. A failure here is isolated to the record; the
// caller counts it and moves on.
func (e *Extractor) ExtractProject(pageURL string) (*models.ProjectRecord, error) {
	doc, err := e.fetcher.FetchResolved(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail page: %w", err)
	}
	return e.extract(doc, pageURL)
}

func (e *Extractor) extract(doc *goquery.Document, pageURL string) (*models.ProjectRecord, error) {
	record := &models.ProjectRecord{
		ID:          models.Slugify(pageURL),
		URL:         strings.TrimSpace(pageURL),
		Title:       e.extractTitle(doc),
		Author:      firstText(doc, authorSelectors),
		Description: e.extractDescription(doc),
		Content:     normalizeSpace(firstText(doc, contentSelectors)),
		Tags:        e.extractTags(doc),
		DateCreated: e.extractDate(doc),
		DateScraped: e.now(),
	}
	record.Images = e.extractImages(doc)

	// Every record carries a QR code for its URL, even ones the tag filter
	// later rejects. Generation failure is non-fatal.
	if png, err := e.encodeQR(record.URL); err != nil {
		slog.Error("qr generation failed",
			slog.String("url", record.URL),
			slog.Any("error", err),
		)
	} else {
		record.QRCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		e.metrics.IncQR()
	}

	if strings.TrimSpace(record.Title) == "" || record.URL == "" {
		return nil, fmt.Errorf("record missing required fields for %s", pageURL)
	}
	return record, nil
}

func (e *Extractor) extractTitle(doc *goquery.Document) string {
	if title := firstText(doc, titleSelectors); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return stripSiteSuffix(title)
	}
	return unknownTitle
}

func (e *Extractor) extractDescription(doc *goquery.Document) string {
	for _, selector := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}

	var firstParagraph string
	doc.Find(".entry-content p, article p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := normalizeSpace(s.Text())
		if len(text) >= minDescLen {
			firstParagraph = text
			return false
		}
		return true
	})
	return firstParagraph
}

func (e *Extractor) extractDate(doc *goquery.Document) string {
	// Free text by contract; never parsed into a time.Time.
	if value, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	for _, selector := range dateSelectors[1:] {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractImages walks the image selector chain and applies the non-content
// exclusion filter. The first surviving candidate becomes the main image;
// the rest fill the gallery.
func (e *Extractor) extractImages(doc *goquery.Document) models.ImageSet {
	var candidates []string
	appendCandidate := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if doc.Url != nil {
			raw = absoluteURL(doc, raw)
			if raw == "" {
				return
			}
		}
		for _, existing := range candidates {
			if existing == raw {
				return
			}
		}
		candidates = append(candidates, raw)
	}

	for _, selector := range imageSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				appendCandidate(src)
			}
		})
	}
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		appendCandidate(content)
	}

	var accepted []string
	for _, candidate := range candidates {
		if isExcludedImage(candidate) {
			continue
		}
		accepted = append(accepted, candidate)
	}
	if len(accepted) == 0 {
		return models.ImageSet{}
	}

	gallery := accepted[1:]
	if len(gallery) > maxGallerySize {
		gallery = gallery[:maxGallerySize]
	}
	return models.ImageSet{
		Main:      accepted[0],
		Thumbnail: accepted[0],
		Gallery:   gallery,
	}
}

// extractTags merges anchor-based tags with the trailing "tagged ..."
// phrase, preserving first-discovery order and suppressing duplicates.
func (e *Extractor) extractTags(doc *goquery.Document) []string {
	var tags []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tag) > maxTagLen {
			return
		}
		for _, existing := range tags {
			if strings.EqualFold(existing, tag) {
				return
			}
		}
		tags = append(tags, tag)
	}

	for _, selector := range tagLinkSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			add(s.Text())
		})
	}

	text := firstText(doc, contentSelectors)
	if text == "" {
		text = doc.Text()
	}
	if match := taggedPhraseRe.FindStringSubmatch(text); len(match) == 2 {
		phrase := match[1]
		// "tagged robots, laser by Jane" stops the tag list at the author.
		if parts := byBoundaryRe.Split(phrase, 2); len(parts) > 0 {
			phrase = parts[0]
		}
		phrase = strings.ReplaceAll(phrase, " and ", ",")
		for _, piece := range strings.Split(phrase, ",") {
			add(piece)
		}
	}

	return tags
}

func isExcludedImage(imageURL string) bool {
	lowered := strings.ToLower(imageURL)
	for _, pattern := range excludedImagePatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// firstText walks a selector chain and returns the first non-empty text.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func stripSiteSuffix(title string) string {
	for _, sep := range []string{" | ", " – ", " - "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return strings.TrimSpace(title)
}
