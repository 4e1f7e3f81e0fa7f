package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/trimscore/internal/domain"
	"github.com/Clark-Hu/trimscore/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// StoreError reports a persistence failure other than a missing record.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("repository: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Scores is the persistence contract shared by every backend: one record per
// title id holding the trimmed score and when it was last written.
type Scores interface {
	// Get returns ErrNotFound when no record exists for id.
	Get(ctx context.Context, id string) (domain.ScoreRecord, error)
	// Create registers id with no score. An existing record is returned unchanged.
	Create(ctx context.Context, id string) (domain.ScoreRecord, error)
	// Update stores score and its timestamp, creating the record if needed.
	// Repeating the same call leaves the same state.
	Update(ctx context.Context, id string, score float64, at time.Time) error
	// ListStale returns up to limit ids never scored or last scored before the cutoff.
	// Ids never tried by the refresh job come first, then the least recently tried;
	// within each group scored ids precede never-scored ones, oldest score first.
	ListStale(ctx context.Context, before time.Time, limit int) ([]string, error)
	// MarkRefreshAttempt records a refresh try so failing ids rotate to the back.
	// Unknown ids are ignored.
	MarkRefreshAttempt(ctx context.Context, id string, at time.Time) error
	HealthCheck(ctx context.Context) error
}

// New constructs the Postgres score repository backed by the provided store.
func New(st *store.Store) *ScoresRepository {
	return &ScoresRepository{pool: st.Pool(), health: st.HealthCheck}
}

// NewWithPool allows constructing the repository directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *ScoresRepository {
	return &ScoresRepository{pool: pool, health: pool.Ping}
}

func storeErr(op, id string, err error) error {
	return &StoreError{Op: op, ID: id, Err: err}
}
