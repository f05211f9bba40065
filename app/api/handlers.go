package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/lostfilm-notifier/app/database"
	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

const (
	defaultReleaseLimit = 50
	maxReleaseLimit     = 500
)

func NewHandler(releaseRepo database.ReleaseRepositoryInterface, digestRepo database.DigestRepositoryInterface, runner StatusProvider, version string) *Handler {
	return &Handler{
		releaseRepo: releaseRepo,
		digestRepo:  digestRepo,
		runner:      runner,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"last_run":  h.runner.Status(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.releaseRepo.GetStats(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	digests, err := h.digestRepo.GetCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_digest_count", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episodes":   stats.Episodes,
		"movies":     stats.Movies,
		"incomplete": stats.Incomplete,
		"digests":    digests,
	})
}

func (h *Handler) APIListReleases(c *gin.Context) {
	limit := defaultReleaseLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxReleaseLimit)
	}

	releases, err := h.releaseRepo.GetRecent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_releases", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	views := make([]ReleaseView, 0, len(releases))
	for _, r := range releases {
		views = append(views, newReleaseView(r))
	}

	c.Header("X-Total-Count", strconv.Itoa(len(views)))
	c.JSON(http.StatusOK, gin.H{"releases": views})
}

func newReleaseView(r release.Release) ReleaseView {
	return ReleaseView{
		Kind:              string(r.Kind),
		ShowName:          r.ShowName,
		ShowNameLocalized: r.ShowNameLocalized,
		SeasonNumber:      r.SeasonNumber,
		EpisodeNumber:     r.EpisodeNumber,
		Title:             r.Title,
		TitleLocalized:    r.TitleLocalized,
		PosterURL:         r.PosterURL,
		SourceURL:         r.SourceURL,
		PublishDate:       r.PublishedOn.Format(time.DateOnly),
		MessageID:         r.MessageID,
		HasSynopsis:       r.Synopsis != "",
		Complete:          r.IsComplete(),
	}
}
