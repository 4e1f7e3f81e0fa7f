package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScoresContract exercises behaviour every Scores backend must share.
func runScoresContract(t *testing.T, newRepo func(t *testing.T) Scores) {
	ctx := context.Background()
	day := time.Date(2024, time.March, 9, 14, 30, 0, 0, time.UTC)

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "tt0000001")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create registers empty record", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, "tt0111161")
		require.NoError(t, err)
		assert.Equal(t, "tt0111161", created.ID)
		assert.Nil(t, created.TrimmedScore)
		assert.Nil(t, created.LastUpdated)

		got, err := repo.Get(ctx, "tt0111161")
		require.NoError(t, err)
		assert.False(t, got.HasScore())
		assert.Nil(t, got.LastUpdated)
	})

	t.Run("create keeps existing score", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Update(ctx, "tt0111161", 8.9, day))

		again, err := repo.Create(ctx, "tt0111161")
		require.NoError(t, err)
		require.NotNil(t, again.TrimmedScore)
		assert.Equal(t, 8.9, *again.TrimmedScore)
	})

	t.Run("update is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, "tt0068646")
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, "tt0068646", 7.4, day))
		first, err := repo.Get(ctx, "tt0068646")
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, "tt0068646", 7.4, day))
		second, err := repo.Get(ctx, "tt0068646")
		require.NoError(t, err)

		require.NotNil(t, second.TrimmedScore)
		require.NotNil(t, second.LastUpdated)
		assert.Equal(t, 7.4, *second.TrimmedScore)
		assert.True(t, day.Equal(*second.LastUpdated), "last updated = %s, want %s", second.LastUpdated, day)
		assert.Equal(t, *first.TrimmedScore, *second.TrimmedScore)
		assert.True(t, first.LastUpdated.Equal(*second.LastUpdated))
	})

	t.Run("update without create", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Update(ctx, "tt0071562", 6.1, day))
		got, err := repo.Get(ctx, "tt0071562")
		require.NoError(t, err)
		require.NotNil(t, got.TrimmedScore)
		assert.Equal(t, 6.1, *got.TrimmedScore)
	})

	t.Run("list stale", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Create(ctx, "tt0000010")
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, "tt0000020", 5.0, day.Add(-48*time.Hour)))
		require.NoError(t, repo.Update(ctx, "tt0000030", 5.0, day.Add(-24*time.Hour)))
		require.NoError(t, repo.Update(ctx, "tt0000040", 5.0, day))

		ids, err := repo.ListStale(ctx, day.Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000020", "tt0000030", "tt0000010"}, ids)

		ids, err = repo.ListStale(ctx, day.Add(-time.Hour), 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000020", "tt0000030"}, ids)
	})

	t.Run("unscored ids do not crowd out stale scores", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"tt0000001", "tt0000002", "tt0000003"} {
			_, err := repo.Create(ctx, id)
			require.NoError(t, err)
		}
		require.NoError(t, repo.Update(ctx, "tt9000000", 6.0, day.Add(-48*time.Hour)))

		ids, err := repo.ListStale(ctx, day, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt9000000", "tt0000001", "tt0000002"}, ids)
	})

	t.Run("attempted ids rotate to the back", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"tt0000001", "tt0000002", "tt0000003", "tt0000004"} {
			_, err := repo.Create(ctx, id)
			require.NoError(t, err)
		}
		require.NoError(t, repo.MarkRefreshAttempt(ctx, "tt0000001", day.Add(-2*time.Hour)))
		require.NoError(t, repo.MarkRefreshAttempt(ctx, "tt0000002", day.Add(-3*time.Hour)))

		ids, err := repo.ListStale(ctx, day, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000003", "tt0000004", "tt0000002", "tt0000001"}, ids)

		require.NoError(t, repo.MarkRefreshAttempt(ctx, "tt0000003", day.Add(-time.Hour)))
		require.NoError(t, repo.MarkRefreshAttempt(ctx, "tt0000004", day.Add(-time.Hour)))
		ids, err = repo.ListStale(ctx, day, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000002", "tt0000001"}, ids)
	})

	t.Run("mark attempt on unknown id", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.MarkRefreshAttempt(ctx, "tt0000404", day))
		ids, err := repo.ListStale(ctx, day, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("concurrent create of one id", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 16
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				record, err := repo.Create(ctx, "tt0111161")
				if err != nil {
					t.Errorf("create: %v", err)
					return
				}
				if record.ID != "tt0111161" {
					t.Errorf("create returned id %q", record.ID)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("concurrent updates", func(t *testing.T) {
		repo := newRepo(t)
		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("tt%07d", 100+i)
				if _, err := repo.Create(ctx, id); err != nil {
					t.Errorf("create %s: %v", id, err)
					return
				}
				if err := repo.Update(ctx, id, 6.5, day); err != nil {
					t.Errorf("update %s: %v", id, err)
				}
			}(i)
		}
		wg.Wait()

		ids, err := repo.ListStale(ctx, day.Add(time.Hour), 100)
		require.NoError(t, err)
		assert.Len(t, ids, workers)
	})

	t.Run("health", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.HealthCheck(ctx))
	})
}

func TestMemoryScores(t *testing.T) {
	runScoresContract(t, func(t *testing.T) Scores {
		return NewMemory()
	})
}

func TestMemoryScores_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	require.NoError(t, repo.Update(ctx, "tt0111161", 8.0, time.Now()))

	got, err := repo.Get(ctx, "tt0111161")
	require.NoError(t, err)
	*got.TrimmedScore = 1.0

	again, err := repo.Get(ctx, "tt0111161")
	require.NoError(t, err)
	assert.Equal(t, 8.0, *again.TrimmedScore)
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := storeErr("update", "tt0111161", cause)

	var storeError *StoreError
	require.True(t, errors.As(err, &storeError))
	assert.Equal(t, "update", storeError.Op)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "tt0111161")
}
