package scraper

// Selector chains for the source site. Each chain is tried in order and the
// first selector yielding a non-empty result wins. The sets below are the
// wider, more defensive variant; narrowing them breaks older theme layouts.

// listingLinkSelectors locate project detail links on a listing page. The
// first entry is the primary selector; the rest are fallbacks applied only
// when the previous ones matched nothing.
var listingLinkSelectors = []string{
	"article.post h2.entry-title a",
	"article h2 a",
	"h2.entry-title a",
	".post-title a",
	"article a[rel=bookmark]",
	"main article a",
}

// nextPageSelectors detect a "next page" pagination control.
var nextPageSelectors = []string{
	"a.next",
	".nav-previous a",
	"a[rel=next]",
	".pagination .next",
}

// pageNumberSelectors locate numbered pagination controls.
var pageNumberSelectors = []string{
	".page-numbers",
	".pagination a",
}

var titleSelectors = []string{
	"h1.entry-title",
	"article h1",
	"h1",
}

var authorSelectors = []string{
	".entry-author a",
	".author a",
	"a[rel=author]",
	".byline",
}

var contentSelectors = []string{
	".entry-content",
	"article .content",
	"article",
	"main",
}

var dateSelectors = []string{
	"time[datetime]",
	".entry-date",
	".posted-on",
}

var imageSelectors = []string{
	".entry-content img",
	"article img",
}

var tagLinkSelectors = []string{
	"a[rel=tag]",
	".tag-links a",
	".entry-tags a",
	".post-tags a",
}

// excludedImagePatterns mark non-content images. A candidate URL containing
// any of these substrings is skipped even when a selector matched it.
var excludedImagePatterns = []string{
	"banner",
	"header",
	"logo",
	"favicon",
	"sprite",
	"-cropped",
	"cropped-",
	"150x150",
}

// challengeMarkers are title/heading substrings of known anti-bot
// interstitial pages, matched case-insensitively.
var challengeMarkers = []string{
	"just a moment",
	"checking your browser",
	"attention required",
	"verify you are human",
	"automated traffic",
	"access denied",
}
