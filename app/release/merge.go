package release

import (
	"cmp"
	"time"
)

// Changes records which fields an enrichment pass filled or replaced.
type Changes struct {
	Synopsis       bool
	TitleLocalized bool
	Poster         bool
}

func (c Changes) Any() bool {
	return c.Synopsis || c.TitleLocalized || c.Poster
}

// New builds a release for a feed entry. Identity fields always come from the
// feed title; the detail page supplies everything else when it was reachable.
func New(fields Fields, details Details, sourceURL, fallbackPoster string, publishedOn time.Time) Release {
	r := Release{
		Kind:              fields.Kind,
		ShowName:          fields.ShowName,
		ShowNameLocalized: fields.ShowNameLocalized,
		SeasonNumber:      fields.SeasonNumber,
		EpisodeNumber:     fields.EpisodeNumber,
		Title:             fields.Title,
		TitleLocalized:    fields.TitleLocalized,
		Synopsis:          details.Synopsis,
		PosterURL:         cmp.Or(details.PosterURL, fallbackPoster),
		SourceURL:         sourceURL,
		PublishedOn:       DateOf(publishedOn),
	}

	// A page parsed as a different release says nothing about this one.
	page := details.Title
	if page == nil || page.Identity() != fields.Identity() {
		return r
	}

	r.ShowNameLocalized = cmp.Or(page.ShowNameLocalized, r.ShowNameLocalized)
	switch fields.Kind {
	case KindEpisode:
		r.Title = cmp.Or(page.Title, r.Title)
		r.TitleLocalized = page.TitleLocalized
	case KindMovie:
		r.TitleLocalized = cmp.Or(page.TitleLocalized, r.TitleLocalized)
	}

	return r
}

// Enrich merges a fresh extraction into a stored release. Synopsis and
// localized title are only ever filled when empty; the poster is replaced
// whenever the page shows a different one.
func Enrich(r Release, details Details) (Release, Changes) {
	var changes Changes

	if r.Synopsis == "" && details.Synopsis != "" {
		r.Synopsis = details.Synopsis
		changes.Synopsis = true
	}

	if r.TitleLocalized == "" && details.Title != nil && details.Title.Identity() == r.Identity() && details.Title.TitleLocalized != "" {
		r.TitleLocalized = details.Title.TitleLocalized
		changes.TitleLocalized = true
	}

	if details.PosterURL != "" && details.PosterURL != r.PosterURL {
		r.PosterURL = details.PosterURL
		changes.Poster = true
	}

	return r, changes
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
