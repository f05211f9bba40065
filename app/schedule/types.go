package schedule

import (
	"strings"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

// Entry is one scheduled episode or movie.
type Entry struct {
	release.Fields
	URL       string
	PosterURL string
	Date      string // dd.mm.yyyy, as printed on the page
}

// Section groups entries under one heading of the schedule page.
type Section struct {
	Name    string
	Entries []Entry
}

// Page is the parsed schedule page.
type Page struct {
	Sections []Section
	BlankURL string // site image used to pad the collage
}

var singleDaySections = map[string]bool{
	"сегодня": true,
	"завтра":  true,
}

// IsSingleDay reports whether every entry of the section shares one date.
func (s Section) IsSingleDay() bool {
	return singleDaySections[strings.ToLower(strings.TrimSpace(s.Name))]
}

func (s Section) Posters() []string {
	posters := make([]string, 0, len(s.Entries))
	for _, entry := range s.Entries {
		posters = append(posters, entry.PosterURL)
	}
	return posters
}
