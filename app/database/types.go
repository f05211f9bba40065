package database

import (
	"time"
)

// dateLayout stores calendar dates as text so they compare lexically.
const dateLayout = "2006-01-02"

// Digest is one posted section of the release schedule.
type Digest struct {
	ID          int64
	MessageID   int
	Date        time.Time
	Section     string
	Fingerprint string
	CreatedAt   time.Time
}

// ReleaseStats summarizes the store for the status API.
type ReleaseStats struct {
	Episodes   int
	Movies     int
	Incomplete int
}
