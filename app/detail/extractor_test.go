package detail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lysyi3m/lostfilm-notifier/app/release"
)

const episodePage = `<!DOCTYPE html>
<html>
<head>
	<title>Дом Дракона (House of the Dragon). 2 сезон 1 серия, Сыновья дракона (A Son for a Son): кадры из сериала</title>
	<meta property="og:image" content="https://static.example.com/Images/755/Posters/e_2_1.jpg">
	<meta property="og:description" content="Деймон&nbsp;и Рейнира готовятся к войне.">
</head>
<body><div>episode</div></body>
</html>`

func TestExtractor_Parse_AllFields(t *testing.T) {
	extractor := NewExtractor(http.DefaultClient, "test")

	details := extractor.Parse([]byte(episodePage), "https://example.com/series/House_of_the_Dragon/season_2/episode_1/")

	if details.PosterURL != "https://static.example.com/Images/755/Posters/e_2_1.jpg" {
		t.Errorf("Expected og:image poster, got: %s", details.PosterURL)
	}
	if details.Synopsis != "Деймон и Рейнира готовятся к войне." {
		t.Errorf("Expected cleaned synopsis, got: %q", details.Synopsis)
	}
	if details.Title == nil {
		t.Fatal("Expected structured title")
	}
	if details.Title.ShowName != "House of the Dragon" || details.Title.SeasonNumber != 2 || details.Title.EpisodeNumber != 1 {
		t.Errorf("Unexpected structured title: %+v", details.Title)
	}
	if details.Title.TitleLocalized != "Сыновья дракона" {
		t.Errorf("Expected localized title 'Сыновья дракона', got: %s", details.Title.TitleLocalized)
	}
}

func TestExtractor_Parse_PrefersOgTitle(t *testing.T) {
	page := `<html><head>
	<title>LostFilm.TV</title>
	<meta property="og:title" content="Дюна (Dune): кадры из фильма">
	</head><body></body></html>`

	details := NewExtractor(http.DefaultClient, "test").Parse([]byte(page), "https://example.com/movies/Dune")

	if details.Title == nil {
		t.Fatal("Expected structured title from og:title")
	}
	if details.Title.Kind != release.KindMovie || details.Title.Title != "Dune" {
		t.Errorf("Unexpected structured title: %+v", details.Title)
	}
}

func TestExtractor_Parse_MissingFields(t *testing.T) {
	page := `<html><head><meta property="og:description" content="  Only a synopsis.  "></head><body></body></html>`

	details := NewExtractor(http.DefaultClient, "test").Parse([]byte(page), "https://example.com/series/x/")

	if details.PosterURL != "" {
		t.Errorf("Expected empty poster, got: %s", details.PosterURL)
	}
	if details.Synopsis != "Only a synopsis." {
		t.Errorf("Expected trimmed synopsis, got: %q", details.Synopsis)
	}
	if details.Title != nil {
		t.Errorf("Expected no structured title, got: %+v", details.Title)
	}
}

func TestExtractor_Run_StripsMirrorSegment(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, episodePage)
	}))
	defer server.Close()

	details, err := NewExtractor(server.Client(), "test").Run(context.Background(), server.URL+"/mr/series/House_of_the_Dragon/season_2/episode_1/")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if requestedPath != "/series/House_of_the_Dragon/season_2/episode_1/" {
		t.Errorf("Expected mirror segment to be stripped, got path: %s", requestedPath)
	}
	if details.PosterURL == "" || details.Synopsis == "" || details.Title == nil {
		t.Errorf("Expected all fields, got: %+v", details)
	}
}

func TestExtractor_Run_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	details, err := NewExtractor(server.Client(), "test").Run(context.Background(), server.URL+"/series/x/")
	if !errors.Is(err, ErrSourceUnreachable) {
		t.Fatalf("Expected ErrSourceUnreachable, got: %v", err)
	}
	if !details.Empty() {
		t.Errorf("Expected empty details, got: %+v", details)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"https://www.example.site/mr/series/Show/season_1/episode_1/": "https://www.example.site/series/Show/season_1/episode_1/",
		"https://www.example.site/series/Show/season_1/episode_1/":    "https://www.example.site/series/Show/season_1/episode_1/",
		" https://www.example.site/mr/movies/Dune ":                   "https://www.example.site/movies/Dune",
	}

	for input, expected := range tests {
		if got := NormalizeURL(input); got != expected {
			t.Errorf("Expected %s, got %s", expected, got)
		}
	}
}
