package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/trimscore/internal/domain"
	"github.com/Clark-Hu/trimscore/internal/imdb"
	"github.com/Clark-Hu/trimscore/internal/logging"
)

// titleEntry is one fixture: Votes lists vote counts for 1 through 10 stars.
type titleEntry struct {
	Title  string  `json:"title"`
	Votes  []int64 `json:"votes"`
	Status int     `json:"status,omitempty"`
}

func main() {
	var (
		port    = flag.String("port", "9099", "port to listen on")
		data    = flag.String("data", "cmd/ratings-mock/mock-ratings.json", "path to mock data file")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logger := logging.New("info", "console")

	fixtures, err := loadFixtures(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("load mock data")
	}

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("titles", len(fixtures)).Msg("mock ratings site listening")
	if err := http.ListenAndServe(addr, newRouter(fixtures, *verbose, logger)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func loadFixtures(path string) (map[string]titleEntry, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mock data: %w", err)
	}
	var payload map[string]titleEntry
	if err := json.Unmarshal(file, &payload); err != nil {
		return nil, fmt.Errorf("parse mock data: %w", err)
	}
	for id, entry := range payload {
		if err := domain.ValidateID(id); err != nil {
			return nil, fmt.Errorf("mock entry %q: %w", id, err)
		}
		if entry.Status == 0 && len(entry.Votes) != domain.HistogramSize {
			return nil, fmt.Errorf("mock entry %q: want %d vote counts, got %d", id, domain.HistogramSize, len(entry.Votes))
		}
	}
	return payload, nil
}

// newRouter serves /title/{id}/ratings/ the way the live site lays it out.
// An entry with a status replies with that status instead of a page.
func newRouter(fixtures map[string]titleEntry, logRequests bool, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	if logRequests {
		r.Use(middleware.Logger)
	}
	r.Get("/title/{id}/ratings/", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		entry, ok := fixtures[id]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		if entry.Status != 0 {
			http.Error(w, http.StatusText(entry.Status), entry.Status)
			return
		}

		var h domain.Histogram
		for i := range h {
			h[i] = domain.HistogramBucket{Rating: i + 1, VoteCount: entry.Votes[i]}
		}
		page, err := imdb.RenderRatingsPage(entry.Title, h)
		if err != nil {
			logger.Error().Err(err).Str("id", id).Msg("render page")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	return r
}
