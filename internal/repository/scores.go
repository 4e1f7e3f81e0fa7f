package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/trimscore/internal/domain"
)

// ScoresRepository persists score records in the media_items table.
type ScoresRepository struct {
	pool   *pgxpool.Pool
	health func(context.Context) error
}

const scoreColumns = `id, trimmed_score::float8, last_updated, created_at`

// Get fetches the record for id.
func (r *ScoresRepository) Get(ctx context.Context, id string) (domain.ScoreRecord, error) {
	const query = `SELECT ` + scoreColumns + ` FROM media_items WHERE id = $1`

	record, err := scanScore(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScoreRecord{}, ErrNotFound
		}
		return domain.ScoreRecord{}, storeErr("get", id, err)
	}
	return record, nil
}

// Create inserts an empty record for id, or returns the existing one untouched.
func (r *ScoresRepository) Create(ctx context.Context, id string) (domain.ScoreRecord, error) {
	// The no-op DO UPDATE locks and returns the existing row, so a concurrent
	// first insert still yields exactly one row here.
	const query = `
        INSERT INTO media_items (id)
        VALUES ($1)
        ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
        RETURNING ` + scoreColumns + `
    `

	record, err := scanScore(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.ScoreRecord{}, storeErr("create", id, err)
	}
	return record, nil
}

// Update upserts the score and its timestamp.
func (r *ScoresRepository) Update(ctx context.Context, id string, score float64, at time.Time) error {
	const query = `
        INSERT INTO media_items (id, trimmed_score, last_updated)
        VALUES ($1, $2, $3)
        ON CONFLICT (id)
        DO UPDATE SET trimmed_score = EXCLUDED.trimmed_score, last_updated = EXCLUDED.last_updated
    `

	if _, err := r.pool.Exec(ctx, query, id, score, at); err != nil {
		return storeErr("update", id, err)
	}
	return nil
}

// ListStale returns ids whose score predates before. Ids the refresh job has not
// tried yet come first, then the least recently tried; scored rows precede
// never-scored ones so unscorable ids cannot crowd out real titles.
func (r *ScoresRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]string, error) {
	const query = `
        SELECT id
        FROM media_items
        WHERE last_updated IS NULL OR last_updated < $1
        ORDER BY refresh_attempted_at ASC NULLS FIRST, last_updated ASC NULLS LAST, id ASC
        LIMIT $2
    `

	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, storeErr("list stale", "", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storeErr("list stale", "", err)
	}
	return ids, nil
}

// MarkRefreshAttempt records that the refresh job tried id at the given time.
func (r *ScoresRepository) MarkRefreshAttempt(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE media_items SET refresh_attempted_at = $2 WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return storeErr("mark refresh attempt", id, err)
	}
	return nil
}

// HealthCheck verifies the database is reachable.
func (r *ScoresRepository) HealthCheck(ctx context.Context) error {
	return r.health(ctx)
}

func scanScore(row pgx.Row) (domain.ScoreRecord, error) {
	var (
		record      domain.ScoreRecord
		score       *float64
		lastUpdated *time.Time
	)
	if err := row.Scan(&record.ID, &score, &lastUpdated, &record.CreatedAt); err != nil {
		return domain.ScoreRecord{}, err
	}
	record.TrimmedScore = score
	record.LastUpdated = lastUpdated
	return record, nil
}
