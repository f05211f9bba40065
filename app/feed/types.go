package feed

import (
	"time"
)

// Entry is a normalized feed item. Only the fields the notifier consumes are
// kept.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
	ImageURL    string
}
