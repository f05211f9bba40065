package api

import (
	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/tasks"
)

type StatusProvider interface {
	Status() tasks.RunStatus
}

var _ StatusProvider = (*tasks.Runner)(nil)

type Handler struct {
	releaseRepo database.ReleaseRepositoryInterface
	digestRepo  database.DigestRepositoryInterface
	runner      StatusProvider
	version     string
}

// ReleaseView is the JSON shape of a release.
type ReleaseView struct {
	Kind              string `json:"kind"`
	ShowName          string `json:"show_name,omitempty"`
	ShowNameLocalized string `json:"show_name_localized,omitempty"`
	SeasonNumber      int    `json:"season_number,omitempty"`
	EpisodeNumber     int    `json:"episode_number,omitempty"`
	Title             string `json:"title"`
	TitleLocalized    string `json:"title_localized,omitempty"`
	PosterURL         string `json:"poster_url,omitempty"`
	SourceURL         string `json:"source_url"`
	PublishDate       string `json:"publish_date"`
	MessageID         int    `json:"message_id"`
	HasSynopsis       bool   `json:"has_synopsis"`
	Complete          bool   `json:"complete"`
}
