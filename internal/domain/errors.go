package domain

import "errors"

// Validation errors. Surfaced before any job is started.
var (
	// ErrMalformedURL indicates the request URL is not a valid absolute URL
	ErrMalformedURL = errors.New("malformed url")

	// ErrAmbiguousFormat indicates neither or both of format_id and
	// extract_audio were set; exactly one is required
	ErrAmbiguousFormat = errors.New("exactly one of format_id or extract_audio must be set")

	// ErrInvalidTrimWindow indicates a trim window with start >= end,
	// negative bounds, or only one bound present
	ErrInvalidTrimWindow = errors.New("invalid trim window")
)

// Lookup errors. Mapped to HTTP statuses by the info endpoints.
var (
	// ErrVideoNotFound indicates the extractor found no video at the URL
	ErrVideoNotFound = errors.New("video not found")

	// ErrURLInaccessible indicates the URL could not be reached or is not
	// a playable resource
	ErrURLInaccessible = errors.New("url is not accessible")

	// ErrNotPlaylist indicates a playlist lookup on a non-playlist URL
	ErrNotPlaylist = errors.New("url is not a playlist")

	// ErrRateLimited indicates the upstream site throttled the extractor
	ErrRateLimited = errors.New("rate limited by upstream")
)

// ErrSessionBusy indicates a second download request arrived on a
// channel whose session already owns a running job.
var ErrSessionBusy = errors.New("session already has an active job")
