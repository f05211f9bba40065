package title

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

var ErrUnparseableTitle = errors.New("unparseable title")

// Rule turns one regular expression match into structured fields.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Build   func(groups []string) (release.Fields, error)
}

// Grammar is an ordered list of rules; the first rule that matches wins.
type Grammar struct {
	rules []Rule
}

func NewGrammar(rules ...Rule) *Grammar {
	return &Grammar{rules: rules}
}

func (g *Grammar) Match(s string) (release.Fields, error) {
	s = strings.TrimSpace(s)
	for _, rule := range g.rules {
		groups := rule.Pattern.FindStringSubmatch(s)
		if groups == nil {
			continue
		}
		fields, err := rule.Build(groups)
		if err != nil {
			return release.Fields{}, fmt.Errorf("%w: rule %s: %v", ErrUnparseableTitle, rule.Name, err)
		}
		return fields, nil
	}
	return release.Fields{}, fmt.Errorf("%w: %q", ErrUnparseableTitle, s)
}

// Feed entry titles:
//
//	Дом Дракона (House of the Dragon). Сыновья дракона. (S02E01)
//	Дом Дракона (House of the Dragon). Фильм о фильме. (Спецэпизод 1)
//	Дюна (Dune). (Фильм)
var (
	feedEpisodePattern = regexp.MustCompile(`^(.+) \((.+)\)\. (.+)\. \(S(\d+)E(\d+)\)$`)
	feedSpecialPattern = regexp.MustCompile(`^(.+) \((.+)\)\. (.+)\. \((\S.*) (\d+)\)$`)
	feedMoviePattern   = regexp.MustCompile(`^(.+) \((.+)\)\. \(Фильм\)$`)
)

// Detail page titles:
//
//	Дом Дракона (House of the Dragon). 2 сезон 1 серия, Сыновья дракона (A Son for a Son): кадры ...
//	Дом Дракона (House of the Dragon). Спецэпизод 1, Фильм о фильме (Making Of): кадры ...
//	Дюна (Dune): кадры ...
var (
	pageEpisodePattern = regexp.MustCompile(`^(.+) \((.+)\)\. (\d+) сезон (\d+) серия, (.*?) ?\((.*)\): кадры.*$`)
	pageSpecialPattern = regexp.MustCompile(`^(.+) \((.+)\)\. Спецэпизод (\d+), (.*?) ?\((.*)\): кадры.*$`)
	pageMoviePattern   = regexp.MustCompile(`^(.+) \((.+)\): кадры.*$`)
)

// Schedule "count" cells: "2 сезон 1 серия" or "Спецэпизод 3".
var (
	countEpisodePattern = regexp.MustCompile(`^(\d{1,3}) сезон (\d{1,3}) серия$`)
	countSpecialPattern = regexp.MustCompile(`^Спецэпизод (\d{1,3})$`)
)

// FeedGrammar parses feed entry titles.
var FeedGrammar = NewGrammar(
	Rule{
		Name:    "feed-episode",
		Pattern: feedEpisodePattern,
		Build: func(g []string) (release.Fields, error) {
			season, episode, err := numbers(g[4], g[5])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{
				Kind:              release.KindEpisode,
				ShowNameLocalized: g[1],
				ShowName:          g[2],
				Title:             g[3],
				SeasonNumber:      season,
				EpisodeNumber:     episode,
			}, nil
		},
	},
	Rule{
		Name:    "feed-special",
		Pattern: feedSpecialPattern,
		Build: func(g []string) (release.Fields, error) {
			episode, err := strconv.Atoi(g[5])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{
				Kind:              release.KindEpisode,
				ShowNameLocalized: g[1],
				ShowName:          g[2],
				Title:             g[3],
				SeasonNumber:      release.SpecialSeason,
				EpisodeNumber:     episode,
			}, nil
		},
	},
	Rule{
		Name:    "feed-movie",
		Pattern: feedMoviePattern,
		Build: func(g []string) (release.Fields, error) {
			return release.Fields{
				Kind:           release.KindMovie,
				TitleLocalized: g[1],
				Title:          g[2],
			}, nil
		},
	},
)

// PageGrammar parses the title (or og:title) of a detail page.
var PageGrammar = NewGrammar(
	Rule{
		Name:    "page-episode",
		Pattern: pageEpisodePattern,
		Build: func(g []string) (release.Fields, error) {
			season, episode, err := numbers(g[3], g[4])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{
				Kind:              release.KindEpisode,
				ShowNameLocalized: g[1],
				ShowName:          g[2],
				SeasonNumber:      season,
				EpisodeNumber:     episode,
				TitleLocalized:    g[5],
				Title:             g[6],
			}, nil
		},
	},
	Rule{
		Name:    "page-special",
		Pattern: pageSpecialPattern,
		Build: func(g []string) (release.Fields, error) {
			episode, err := strconv.Atoi(g[3])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{
				Kind:              release.KindEpisode,
				ShowNameLocalized: g[1],
				ShowName:          g[2],
				SeasonNumber:      release.SpecialSeason,
				EpisodeNumber:     episode,
				TitleLocalized:    g[4],
				Title:             g[5],
			}, nil
		},
	},
	Rule{
		Name:    "page-movie",
		Pattern: pageMoviePattern,
		Build: func(g []string) (release.Fields, error) {
			return release.Fields{
				Kind:           release.KindMovie,
				TitleLocalized: g[1],
				Title:          g[2],
			}, nil
		},
	},
)

// CountGrammar parses the season/episode cell of the release schedule. Only
// the season and episode numbers are filled.
var CountGrammar = NewGrammar(
	Rule{
		Name:    "count-episode",
		Pattern: countEpisodePattern,
		Build: func(g []string) (release.Fields, error) {
			season, episode, err := numbers(g[1], g[2])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{Kind: release.KindEpisode, SeasonNumber: season, EpisodeNumber: episode}, nil
		},
	},
	Rule{
		Name:    "count-special",
		Pattern: countSpecialPattern,
		Build: func(g []string) (release.Fields, error) {
			episode, err := strconv.Atoi(g[1])
			if err != nil {
				return release.Fields{}, err
			}
			return release.Fields{Kind: release.KindEpisode, SeasonNumber: release.SpecialSeason, EpisodeNumber: episode}, nil
		},
	},
)

// IsMovieTitle reports whether a feed entry title announces a movie.
func IsMovieTitle(s string) bool {
	return strings.HasSuffix(strings.TrimSpace(s), " (Фильм)")
}

func numbers(season, episode string) (int, int, error) {
	s, err := strconv.Atoi(season)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid season number %q: %w", season, err)
	}
	e, err := strconv.Atoi(episode)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid episode number %q: %w", episode, err)
	}
	return s, e, nil
}
