package detail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/title"
)

var ErrSourceUnreachable = errors.New("detail page unreachable")

const (
	metaImage       = "og:image"
	metaDescription = "og:description"
	metaTitle       = "og:title"
)

// mirrorSegment is the path segment feed links carry for the mirror site.
const mirrorSegment = "/mr/"

type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewExtractor(httpClient *http.Client, userAgent string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// NormalizeURL maps a feed link to the canonical detail page URL.
func NormalizeURL(link string) string {
	return strings.Replace(strings.TrimSpace(link), mirrorSegment, "/", 1)
}

// Run fetches a detail page and extracts whatever it currently offers. Only
// transport failures and non-success statuses are reported, wrapped in
// ErrSourceUnreachable.
func (e *Extractor) Run(ctx context.Context, pageURL string) (release.Details, error) {
	pageURL = NormalizeURL(pageURL)

	data, err := e.fetch(ctx, pageURL)
	if err != nil {
		return release.Details{}, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	return e.Parse(data, pageURL), nil
}

// Parse scans the page metadata. Missing tags leave the matching field empty.
func (e *Extractor) Parse(data []byte, pageURL string) release.Details {
	var details release.Details

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Failed to parse detail page", "url", pageURL, "error", err)
		return details
	}

	details.PosterURL = strings.TrimSpace(metaContent(doc, metaImage))
	details.Synopsis = cleanText(metaContent(doc, metaDescription))

	// og:title carries the same layout as <title> without site decorations,
	// so it is tried first.
	for _, candidate := range []string{metaContent(doc, metaTitle), doc.Find("title").First().Text()} {
		if fields, ok := matchPageTitle(candidate); ok {
			details.Title = &fields
			break
		}
	}

	if details.PosterURL == "" || details.Title == nil {
		e.fallback(data, pageURL, &details)
	}

	return details
}

// fallback fills the poster and title from readability's metadata scan, which
// also looks at twitter cards and JSON-LD.
func (e *Extractor) fallback(data []byte, pageURL string, details *release.Details) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		slog.Debug("Readability metadata scan failed", "url", pageURL, "error", err)
		return
	}

	if details.PosterURL == "" && article.Image != "" {
		details.PosterURL = article.Image
	}
	if details.Title == nil {
		if fields, ok := matchPageTitle(article.Title); ok {
			details.Title = &fields
		}
	}
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return content
}

func matchPageTitle(s string) (release.Fields, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return release.Fields{}, false
	}
	fields, err := title.PageGrammar.Match(s)
	if err != nil {
		return release.Fields{}, false
	}
	return fields, true
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "&nbsp;", "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}
