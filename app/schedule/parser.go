package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/lostfilm-notifier/app/feed"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/title"
)

var ErrSourceUnreachable = errors.New("schedule page unreachable")

var (
	goToPattern = regexp.MustCompile(`^goTo\('(/[^']+)',\s*false\);?$`)
	datePattern = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}`)
)

const movieMarker = "Фильм"

type Parser struct {
	httpClient *http.Client
	userAgent  string
}

func NewParser(httpClient *http.Client, userAgent string) *Parser {
	return &Parser{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (p *Parser) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
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

	return p.Run(data, pageURL)
}

// Run parses the schedule table. Rows that do not follow the expected layout
// are skipped.
func (p *Parser) Run(data []byte, pageURL string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule page: %w", err)
	}

	page := &Page{}
	page.BlankURL, _ = doc.Find(`meta[property="og:image"]`).First().Attr("content")

	var current *Section
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if heading := row.Find(`th[colspan="6"]`); heading.Length() > 0 {
			page.Sections = append(page.Sections, Section{Name: strings.TrimSpace(heading.Text())})
			current = &page.Sections[len(page.Sections)-1]
			return
		}

		if current == nil {
			return
		}

		entry, err := parseEntry(row, base)
		if err != nil {
			slog.Debug("Skipping schedule row", "section", current.Name, "row", i, "error", err)
			return
		}
		current.Entries = append(current.Entries, entry)
	})

	return page, nil
}

func parseEntry(row *goquery.Selection, base *url.URL) (Entry, error) {
	alpha := row.Find("td.alpha")
	beta := row.Find("td.beta")
	gamma := row.Find("td.gamma")
	delta := row.Find("td.delta")

	if alpha.Length() == 0 || beta.Length() == 0 || gamma.Length() == 0 || delta.Length() == 0 {
		return Entry{}, fmt.Errorf("missing columns")
	}

	var entry Entry

	onclick, _ := beta.Attr("onclick")
	m := goToPattern.FindStringSubmatch(strings.TrimSpace(onclick))
	if m == nil {
		return Entry{}, fmt.Errorf("no link in %q", onclick)
	}
	ref, err := url.Parse(m[1])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid link %q: %w", m[1], err)
	}
	entry.URL = base.ResolveReference(ref).String()

	entry.Date = datePattern.FindString(delta.Text())
	if entry.Date == "" {
		return Entry{}, fmt.Errorf("no date in %q", strings.TrimSpace(delta.Text()))
	}

	if src, ok := alpha.Find("img").First().Attr("src"); ok {
		if img, err := url.Parse(src); err == nil {
			entry.PosterURL = feed.FallbackPoster(base.ResolveReference(img).String())
		}
	}

	entry.TitleLocalized, entry.Title = titles(gamma)

	marker := strings.Join(strings.Fields(row.Find("div.serie-number-box").Text()), "")
	if marker == movieMarker {
		entry.Kind = release.KindMovie
		if entry.Title == "" {
			return Entry{}, fmt.Errorf("movie without a name")
		}
		return entry, nil
	}

	count := strings.Join(strings.Fields(beta.Find("div.count").Text()), " ")
	numbers, err := title.CountGrammar.Match(count)
	if err != nil {
		return Entry{}, err
	}

	entry.Kind = release.KindEpisode
	entry.SeasonNumber = numbers.SeasonNumber
	entry.EpisodeNumber = numbers.EpisodeNumber
	entry.ShowName = strings.TrimSpace(alpha.Find("div.en").First().Text())
	entry.ShowNameLocalized = strings.TrimSpace(alpha.Find("div.ru").First().Text())
	if entry.ShowName == "" {
		return Entry{}, fmt.Errorf("episode without a show name")
	}

	return entry, nil
}

// titles reads the title cell: the localized name comes first and the
// original name last. A single name is treated as the original.
func titles(cell *goquery.Selection) (localized, original string) {
	var parts []string
	cell.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "br" {
			return
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], parts[len(parts)-1]
	}
}
