// Package models defines data structures shared by the scraper and the kiosk.
package models

import (
	"net/url"
	"strings"
	"time"
	"unicode"
)

// maxSlugLen bounds generated record identifiers.
const maxSlugLen = 50

// ImageSet groups the image URLs extracted for a project.
type ImageSet struct {
	Main      string   `json:"main"`
	Thumbnail string   `json:"thumbnail"`
	Gallery   []string `json:"gallery,omitempty"`
}

// ProjectRecord is one scraped project detail page.
type ProjectRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Images      ImageSet  `json:"images"`
	DateCreated string    `json:"dateCreated,omitempty"`
	DateScraped time.Time `json:"dateScraped"`
	QRCode      string    `json:"qrCode,omitempty"`
}

// ScrapeRunStats accumulates counters for a single run. It is threaded
// through the pipeline as a value and frozen once the run completes.
type ScrapeRunStats struct {
	StartTime       time.Time `json:"startTime"`
	ProjectsFound   int       `json:"projectsFound"`
	ProjectsScraped int       `json:"projectsScraped"`
	Errors          int       `json:"errors"`
}

// Dataset is the single persisted output of a run. It fully replaces any
// prior version on disk; there is no incremental merge.
type Dataset struct {
	LastUpdated   string          `json:"lastUpdated"`
	TotalProjects int             `json:"totalProjects"`
	ScrapingStats ScrapeRunStats  `json:"scrapingStats"`
	Projects      []ProjectRecord `json:"projects"`
}

// Slugify derives a record identifier from a detail-page URL. The result is
// lowercase, contains only [a-z0-9-], and is at most 50 characters; the same
// URL always yields the same slug.
func Slugify(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if path == "" {
		path = rawURL
	}

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(path) {
		switch {
		case unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	return slug
}
