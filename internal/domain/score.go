package domain

import (
	"errors"
	"regexp"
	"time"
)

// ErrInvalidID is returned when a title identifier does not look like an IMDb title id.
var ErrInvalidID = errors.New("domain: invalid title id")

var titleIDPattern = regexp.MustCompile(`^tt\d{7,10}$`)

// ScoreRecord is the stored trimmed score for one title.
type ScoreRecord struct {
	ID           string
	TrimmedScore *float64
	// LastUpdated is only set together with TrimmedScore.
	LastUpdated *time.Time
	CreatedAt   time.Time
}

// HasScore reports whether a score has ever been computed for the record.
func (r ScoreRecord) HasScore() bool {
	return r.TrimmedScore != nil
}

// ValidateID checks that id is an IMDb title id such as tt0111161.
func ValidateID(id string) error {
	if !titleIDPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}
