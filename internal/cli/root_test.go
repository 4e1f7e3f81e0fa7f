package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/trimscore/internal/app"
	"github.com/Clark-Hu/trimscore/internal/config"
	"github.com/Clark-Hu/trimscore/internal/domain"
	"github.com/Clark-Hu/trimscore/internal/imdb"
)

func ratingsServer(t *testing.T) *httptest.Server {
	t.Helper()
	var h domain.Histogram
	for i := range h {
		h[i] = domain.HistogramBucket{Rating: i + 1, VoteCount: 10}
	}
	page, err := imdb.RenderRatingsPage("Uniform", h)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/title/tt0111161/ratings/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// memoryFactory shares one app across invocations so state survives between commands.
func memoryFactory(t *testing.T, baseURL string) AppFactory {
	t.Helper()
	a, err := app.New(context.Background(), config.Config{
		StoreDriver:      config.DriverMemory,
		IMDbBaseURL:      baseURL,
		IMDbTimeoutSecs:  2,
		RefreshBatchSize: 10,
		ScoreTimezone:    "UTC",
	}, zerolog.Nop())
	require.NoError(t, err)
	return func(context.Context, bool) (*app.App, error) { return a, nil }
}

func execute(t *testing.T, factory AppFactory, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(factory)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	factory := memoryFactory(t, ratingsServer(t).URL)

	out, err := execute(t, factory, "resolve", "tt0111161")
	require.NoError(t, err)
	assert.Contains(t, out, "tt0111161")
	assert.Contains(t, out, "5.5")
	assert.Contains(t, out, "recomputed")

	out, err = execute(t, factory, "resolve", "tt0111161")
	require.NoError(t, err)
	assert.Contains(t, out, "fresh")
}

func TestResolveCommand_PartialFailure(t *testing.T) {
	factory := memoryFactory(t, ratingsServer(t).URL)

	out, err := execute(t, factory, "resolve", "tt0111161", "tt0000404", "bogus")
	assert.ErrorIs(t, err, ErrResolveFailed)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "5.5")
	assert.Contains(t, lines[1], "not_found")
	assert.Contains(t, lines[2], "invalid title id")
}

func TestResolveCommand_RequiresID(t *testing.T) {
	_, err := execute(t, memoryFactory(t, "http://127.0.0.1:1"), "resolve")
	assert.Error(t, err)
}

func TestRefreshCommand(t *testing.T) {
	factory := memoryFactory(t, ratingsServer(t).URL)
	a, err := factory(context.Background(), false)
	require.NoError(t, err)
	_, err = a.Scores.Create(context.Background(), "tt0111161")
	require.NoError(t, err)

	out, err := execute(t, factory, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "listed 1, refreshed 1, failed 0\n", out)

	out, err = execute(t, factory, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "listed 0, refreshed 0, failed 0\n", out)
}

func TestMigrateCommand(t *testing.T) {
	out, err := execute(t, memoryFactory(t, "http://127.0.0.1:1"), "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migrations applied\n", out)
}
