package caption

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
	"github.com/lysyi3m/lostfilm-notifier/app/schedule"
)

// MaxLength is the longest caption the channel accepts on a photo.
const MaxLength = 1024

const (
	synopsisHeader = "Описание:"
	cropMarker     = "(...)"
)

// Release renders the notification caption for an episode or a movie.
func Release(r release.Release) string {
	if r.Kind == release.KindMovie {
		return Movie(r)
	}
	return Episode(r)
}

func Episode(r release.Release) string {
	show := bilingual(r.ShowNameLocalized, r.ShowName)

	var numbers string
	if r.IsSpecial() {
		numbers = fmt.Sprintf("Спецэпизод %d", r.EpisodeNumber)
	} else {
		numbers = fmt.Sprintf("%d сезон, %d эпизод", r.SeasonNumber, r.EpisodeNumber)
	}

	head := bold(Escape(show)) + "\n" +
		Escape(numbers) + ":\n" +
		link(bilingual(r.TitleLocalized, r.Title), r.SourceURL)

	return head + synopsis(r.Synopsis, head)
}

func Movie(r release.Release) string {
	head := bold(link(bilingual(r.TitleLocalized, r.Title), r.SourceURL))
	return head + synopsis(r.Synopsis, head)
}

// Schedule renders one section of the release schedule. Sections other than
// today and tomorrow span several days and get a header per date.
func Schedule(section schedule.Section) string {
	dated := section.IsSingleDay()

	var b strings.Builder
	b.WriteString(Escape("Релизы, запланированные "))
	if dated {
		b.WriteString(Escape("на "))
	}
	b.WriteString(bold(Escape(section.Name)))
	if dated && len(section.Entries) > 0 {
		b.WriteString(Escape(" [" + section.Entries[0].Date + "]"))
	}
	b.WriteString(Escape("."))
	b.WriteString("\n\n")

	date := ""
	for i, entry := range section.Entries {
		if !dated && entry.Date != date {
			date = entry.Date
			b.WriteString(bold(Escape("["+date+"]:")) + "\n")
		}

		b.WriteString(bold(Escape(fmt.Sprintf("%d.", i+1))) + " ")

		name := bilingual(entry.TitleLocalized, entry.Title)
		if entry.Kind == release.KindMovie {
			b.WriteString(link(name, entry.URL) + "\n")
			continue
		}

		var code string
		if entry.IsSpecial() {
			code = fmt.Sprintf("SpE%02d", entry.EpisodeNumber)
		} else {
			code = fmt.Sprintf("S%02dE%02d", entry.SeasonNumber, entry.EpisodeNumber)
		}

		b.WriteString(Escape(bilingual(entry.ShowNameLocalized, entry.ShowName)+":") + " " +
			Escape(code) + " — " + link(name, entry.URL) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// bilingual shows the localized name with the original in parentheses, or a
// single name when there is nothing to add.
func bilingual(localized, original string) string {
	switch {
	case original == "":
		return localized
	case localized == "" || localized == original:
		return original
	default:
		return localized + " (" + original + ")"
	}
}

// synopsis renders the spoiler block, cropping the text so the whole caption
// stays within MaxLength.
func synopsis(text, head string) string {
	if text == "" {
		return ""
	}

	prefix := "\n\n" + synopsisHeader + "\n"
	budget := MaxLength - utf8.RuneCountInString(head) - utf8.RuneCountInString(prefix) - len("||||")
	text = crop(text, budget)
	if text == "" {
		return ""
	}

	return Escape(prefix) + spoiler(Escape(text))
}

func crop(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	keep := limit - utf8.RuneCountInString(cropMarker)
	if keep <= 0 {
		return ""
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:keep])) + cropMarker
}
