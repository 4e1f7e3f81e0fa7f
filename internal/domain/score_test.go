package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{id: "tt0111161"},
		{id: "tt10872600"},
		{id: "tt1234567890"},
		{id: "", wantErr: true},
		{id: "tt", wantErr: true},
		{id: "tt123", wantErr: true},
		{id: "nm0000138", wantErr: true},
		{id: "tt0111161/../admin", wantErr: true},
		{id: "TT0111161", wantErr: true},
		{id: "tt12345678901", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHistogramTotalVotes(t *testing.T) {
	var h Histogram
	for i := range h {
		h[i] = HistogramBucket{Rating: i + 1, VoteCount: int64(i)}
	}
	assert.Equal(t, int64(45), h.TotalVotes())
}

func TestScoreRecordHasScore(t *testing.T) {
	v := 7.4
	assert.False(t, ScoreRecord{ID: "tt0111161"}.HasScore())
	assert.True(t, ScoreRecord{ID: "tt0111161", TrimmedScore: &v}.HasScore())
}
