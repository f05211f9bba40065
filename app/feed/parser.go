package feed

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

var ErrSourceUnreachable = errors.New("feed unreachable")

type Parser struct {
	gofeedParser *gofeed.Parser
	httpClient   *http.Client
	userAgent    string
}

func NewParser(httpClient *http.Client, userAgent string) *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		httpClient:   httpClient,
		userAgent:    userAgent,
	}
}

// Fetch downloads and parses the feed. A transport failure or a non-success
// status is reported as ErrSourceUnreachable.
func (p *Parser) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP error: %d %s", ErrSourceUnreachable, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrSourceUnreachable, err)
	}

	return p.Run(data)
}

func (p *Parser) Run(data []byte) ([]Entry, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, p.normalizeItem(item))
	}

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:    cmp.Or(item.GUID, item.Link),
		Title:   strings.TrimSpace(item.Title),
		Link:    strings.TrimSpace(item.Link),
		Summary: cmp.Or(item.Description, item.Content),
	}

	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.PublishedAt = *item.UpdatedParsed
	} else {
		entry.PublishedAt = time.Now().UTC()
	}

	if item.Image != nil {
		entry.ImageURL = item.Image.URL
	}

	return entry
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// Low-resolution images the feed summary links to.
var lowResNames = []string{"image.jpg", "icon.jpg"}

// FallbackPoster derives a poster URL from the first URL in a feed summary by
// swapping its low-resolution filename for the full poster. It returns an
// empty string when the summary holds no URL.
func FallbackPoster(summary string) string {
	found := urlPattern.FindString(summary)
	if found == "" {
		return ""
	}

	for _, name := range lowResNames {
		if i := strings.Index(found, name); i >= 0 {
			found = found[:i]
		}
	}

	base, err := url.Parse(found)
	if err != nil || base.Host == "" {
		return ""
	}

	return base.ResolveReference(&url.URL{Path: release.FallbackPosterName}).String()
}

// Poster returns the best poster the entry itself offers.
func (e Entry) Poster() string {
	return cmp.Or(FallbackPoster(e.Summary), FallbackPoster(e.ImageURL))
}
