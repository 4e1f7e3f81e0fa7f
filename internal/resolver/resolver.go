// Package resolver decides whether a stored trimmed score can be served as is
// and recomputes it from the ratings page when it cannot.
//
// A lookup ends in one of three ways: the stored score is from today and is
// returned without touching the network; the page is fetched, parsed and
// scored, and the new value is written back and returned; or the
// recomputation fails and an *Error is returned while the stored record stays
// untouched. Failures to read or write the store never fail a lookup: a read
// failure is treated as a cache miss, a write failure is logged.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Clark-Hu/trimscore/internal/domain"
	"github.com/Clark-Hu/trimscore/internal/imdb"
	"github.com/Clark-Hu/trimscore/internal/repository"
	"github.com/Clark-Hu/trimscore/internal/score"
)

// Store is the subset of the score repository the resolver needs.
type Store interface {
	Get(ctx context.Context, id string) (domain.ScoreRecord, error)
	Create(ctx context.Context, id string) (domain.ScoreRecord, error)
	Update(ctx context.Context, id string, score float64, at time.Time) error
}

// Fetcher downloads the ratings page of a title.
type Fetcher interface {
	FetchRatingsPage(ctx context.Context, id string) ([]byte, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// State tells how a successful Resolution was produced.
type State string

const (
	StateFresh      State = "fresh"
	StateRecomputed State = "recomputed"
)

// Resolution is a successfully resolved score.
type Resolution struct {
	ID          string
	Score       float64
	State       State
	LastUpdated time.Time
}

// Options configures a Resolver. Zero values select production defaults.
type Options struct {
	Clock Clock
	// Location defines the calendar day a cached score stays fresh for.
	Location *time.Location
	Logger   zerolog.Logger
	// Extract and Compute default to imdb.ExtractHistogram and score.Trimmed.
	Extract func(page []byte) (domain.Histogram, error)
	Compute func(h domain.Histogram) (float64, error)
}

// Resolver serves trimmed scores from the store, recomputing stale ones.
type Resolver struct {
	store   Store
	fetcher Fetcher
	clock   Clock
	loc     *time.Location
	logger  zerolog.Logger
	extract func([]byte) (domain.Histogram, error)
	compute func(domain.Histogram) (float64, error)
	flights singleflight.Group
}

// New wires a Resolver around its store and fetcher.
func New(store Store, fetcher Fetcher, opts Options) *Resolver {
	r := &Resolver{
		store:   store,
		fetcher: fetcher,
		clock:   opts.Clock,
		loc:     opts.Location,
		logger:  opts.Logger.With().Str("component", "resolver").Logger(),
		extract: opts.Extract,
		compute: opts.Compute,
	}
	if r.clock == nil {
		r.clock = ClockFunc(time.Now)
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.extract == nil {
		r.extract = imdb.ExtractHistogram
	}
	if r.compute == nil {
		r.compute = score.Trimmed
	}
	return r
}

// Resolve returns the trimmed score for id. Invalid ids yield domain.ErrInvalidID;
// every other failure is an *Error matching ErrComputationFailed.
func (r *Resolver) Resolve(ctx context.Context, id string) (Resolution, error) {
	if err := domain.ValidateID(id); err != nil {
		return Resolution{}, err
	}

	record, found := r.lookup(ctx, id)
	if found && r.IsFresh(record, r.clock.Now()) {
		r.logger.Debug().Str("id", id).Msg("serving cached score")
		return Resolution{
			ID:          id,
			Score:       *record.TrimmedScore,
			State:       StateFresh,
			LastUpdated: *record.LastUpdated,
		}, nil
	}

	// Concurrent lookups of the same id share one recomputation. The shared
	// work must not die with whichever request happened to start it.
	v, err, shared := r.flights.Do(id, func() (interface{}, error) {
		return r.recompute(context.WithoutCancel(ctx), id)
	})
	if shared {
		r.logger.Debug().Str("id", id).Msg("joined in-flight recomputation")
	}
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

// IsFresh reports whether record holds a score written on the same calendar
// day as now. A record that was never scored is never fresh.
func (r *Resolver) IsFresh(record domain.ScoreRecord, now time.Time) bool {
	if record.TrimmedScore == nil || record.LastUpdated == nil {
		return false
	}
	y1, m1, d1 := record.LastUpdated.In(r.loc).Date()
	y2, m2, d2 := now.In(r.loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DayStart returns the midnight that opened the freshness day containing t.
func (r *Resolver) DayStart(t time.Time) time.Time {
	y, m, d := t.In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

// lookup reads the stored record. Any outcome other than a successful read
// sends the caller to recomputation; an unknown id is registered first.
func (r *Resolver) lookup(ctx context.Context, id string) (domain.ScoreRecord, bool) {
	record, err := r.store.Get(ctx, id)
	if err == nil {
		return record, true
	}
	if !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn().Err(err).Str("id", id).Msg("score lookup failed, recomputing")
	}
	if _, err := r.store.Create(ctx, id); err != nil {
		r.logger.Warn().Err(err).Str("id", id).Msg("registering title failed")
	}
	return domain.ScoreRecord{}, false
}

func (r *Resolver) recompute(ctx context.Context, id string) (Resolution, error) {
	log := r.logger.With().Str("id", id).Logger()

	page, err := r.fetcher.FetchRatingsPage(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("stage", string(StageFetch)).Msg("recomputation failed")
		return Resolution{}, &Error{ID: id, Stage: StageFetch, Err: err}
	}

	histogram, err := r.extract(page)
	if err != nil {
		log.Warn().Err(err).Str("stage", string(StageExtract)).Msg("recomputation failed")
		return Resolution{}, &Error{ID: id, Stage: StageExtract, Err: err}
	}

	value, err := r.compute(histogram)
	if err != nil {
		log.Warn().Err(err).Str("stage", string(StageCompute)).Msg("recomputation failed")
		return Resolution{}, &Error{ID: id, Stage: StageCompute, Err: err}
	}

	now := r.clock.Now()
	// The computed value is still the answer when the write-back fails.
	if err := r.store.Update(ctx, id, value, now); err != nil {
		log.Error().Err(err).Float64("score", value).Msg("persisting score failed")
	}

	log.Info().Float64("score", value).Int64("votes", histogram.TotalVotes()).Msg("score recomputed")
	return Resolution{ID: id, Score: value, State: StateRecomputed, LastUpdated: now}, nil
}
