package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// TestRedisScores runs against a live server; set REDIS_URL to enable it.
func TestRedisScores(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not provided")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	runScoresContract(t, func(t *testing.T) Scores {
		prefix := fmt.Sprintf("trimscore-test-%d", time.Now().UnixNano())
		t.Cleanup(func() {
			ctx := context.Background()
			keys, err := rdb.Keys(ctx, prefix+":*").Result()
			if err == nil && len(keys) > 0 {
				_ = rdb.Del(ctx, keys...).Err()
			}
		})
		return NewRedis(rdb, prefix)
	})
}

func TestDecodeRedisRecord(t *testing.T) {
	record, err := decodeRedisRecord("tt0111161", map[string]string{
		fieldCreatedAt:  "2024-03-09T10:00:00Z",
		fieldScore:      "8.9",
		fieldLastUpdate: "2024-03-10T10:00:00.5Z",
	})
	require.NoError(t, err)
	require.NotNil(t, record.TrimmedScore)
	require.Equal(t, 8.9, *record.TrimmedScore)
	require.Equal(t, 500*time.Millisecond, time.Duration(record.LastUpdated.Nanosecond()))

	_, err = decodeRedisRecord("tt0111161", map[string]string{fieldScore: "high"})
	require.Error(t, err)
}
