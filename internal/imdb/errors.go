package imdb

import (
	"fmt"
)

// FetchCause classifies why a ratings page could not be fetched.
type FetchCause string

const (
	CauseTimeout          FetchCause = "timeout"
	CauseNetwork          FetchCause = "network"
	CauseNotFound         FetchCause = "not_found"
	CauseForbidden        FetchCause = "forbidden"
	CauseRateLimited      FetchCause = "rate_limited"
	CauseUpstream5xx      FetchCause = "upstream_5xx"
	CauseUnexpectedStatus FetchCause = "unexpected_status"
	CauseReadBody         FetchCause = "read_body"
	CauseTooLarge         FetchCause = "too_large"
)

// FetchError reports a transport failure or a non-2xx response.
type FetchError struct {
	ID         string
	StatusCode int
	Cause      FetchCause
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("imdb: fetch %s: %s (status %d)", e.ID, e.Cause, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("imdb: fetch %s: %s: %v", e.ID, e.Cause, e.Err)
	}
	return fmt.Sprintf("imdb: fetch %s: %s", e.ID, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractCause classifies why a histogram could not be read from a page.
type ExtractCause string

const (
	CauseMarkup             ExtractCause = "markup"
	CauseMissingBlob        ExtractCause = "missing_blob"
	CauseDuplicateBlob      ExtractCause = "duplicate_blob"
	CauseInvalidJSON        ExtractCause = "invalid_json"
	CauseMissingPath        ExtractCause = "missing_path"
	CauseMalformedHistogram ExtractCause = "malformed_histogram"
)

// ExtractError reports a page whose embedded data does not have the expected shape.
type ExtractError struct {
	Cause  ExtractCause
	Detail string
	Err    error
}

func (e *ExtractError) Error() string {
	msg := fmt.Sprintf("imdb: extract histogram: %s", e.Cause)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
