package release

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindEpisode Kind = "episode"
	KindMovie   Kind = "movie"
)

// SpecialSeason is the season number stored for special episodes.
const SpecialSeason = 999

// FallbackPosterName is the filename of posters derived from feed summaries
// rather than read from the detail page.
const FallbackPosterName = "poster.jpg"

// Fields is the structured result of matching a title string.
type Fields struct {
	Kind              Kind
	ShowName          string
	ShowNameLocalized string
	SeasonNumber      int
	EpisodeNumber     int
	Title             string
	TitleLocalized    string
}

func (f Fields) Identity() Identity {
	if f.Kind == KindMovie {
		return MovieIdentity(f.Title)
	}
	return EpisodeIdentity(f.ShowName, f.SeasonNumber, f.EpisodeNumber)
}

func (f Fields) IsSpecial() bool {
	return f.Kind == KindEpisode && f.SeasonNumber == SpecialSeason
}

// Identity names a release. Episodes compare show name, season and episode
// field by field; movies compare the original name only.
type Identity struct {
	Kind          Kind
	ShowName      string
	SeasonNumber  int
	EpisodeNumber int
	MovieName     string
}

func EpisodeIdentity(showName string, season, episode int) Identity {
	return Identity{
		Kind:          KindEpisode,
		ShowName:      showName,
		SeasonNumber:  season,
		EpisodeNumber: episode,
	}
}

func MovieIdentity(name string) Identity {
	return Identity{Kind: KindMovie, MovieName: name}
}

func (id Identity) String() string {
	if id.Kind == KindMovie {
		return fmt.Sprintf("movie %q", id.MovieName)
	}
	if id.SeasonNumber == SpecialSeason {
		return fmt.Sprintf("%q special %d", id.ShowName, id.EpisodeNumber)
	}
	return fmt.Sprintf("%q S%02dE%02d", id.ShowName, id.SeasonNumber, id.EpisodeNumber)
}

// Release is a persisted episode or movie. Empty strings mean the value has
// not been observed yet.
type Release struct {
	ID                int64
	Kind              Kind
	ShowName          string
	ShowNameLocalized string
	SeasonNumber      int
	EpisodeNumber     int
	Title             string
	TitleLocalized    string
	Synopsis          string
	PosterURL         string
	SourceURL         string
	PublishedOn       time.Time
	MessageID         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r Release) Identity() Identity {
	if r.Kind == KindMovie {
		return MovieIdentity(r.Title)
	}
	return EpisodeIdentity(r.ShowName, r.SeasonNumber, r.EpisodeNumber)
}

func (r Release) IsSpecial() bool {
	return r.Kind == KindEpisode && r.SeasonNumber == SpecialSeason
}

// HasFallbackPoster reports whether an episode still shows the poster derived
// from its feed summary. Movie posters may legitimately carry that name.
func (r Release) HasFallbackPoster() bool {
	return r.Kind == KindEpisode && strings.HasSuffix(r.PosterURL, "/"+FallbackPosterName)
}

// IsComplete reports whether every optional field has been observed from the
// detail page. Incomplete releases are re-extracted on every run.
func (r Release) IsComplete() bool {
	return r.Synopsis != "" &&
		r.TitleLocalized != "" &&
		r.PosterURL != "" &&
		!r.HasFallbackPoster()
}

// Details is what a detail page yielded. Any field may be absent.
type Details struct {
	PosterURL string
	Synopsis  string
	Title     *Fields
}

func (d Details) Empty() bool {
	return d.PosterURL == "" && d.Synopsis == "" && d.Title == nil
}
