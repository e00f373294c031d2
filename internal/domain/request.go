package domain

import "net/url"

// DownloadRequest is the immutable description of one download: the
// target URL plus exactly one of a format id or the audio-extraction
// flag, and an optional trim window in seconds.
type DownloadRequest struct {
	URL          string `json:"url"`
	FormatID     string `json:"format_id,omitempty"`
	ExtractAudio bool   `json:"extract_audio"`
	StartTime    *int   `json:"start_time,omitempty"`
	EndTime      *int   `json:"end_time,omitempty"`
}

// Validate checks the request shape. It is a pure function: no job is
// created and nothing is resolved over the network.
func (r DownloadRequest) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrMalformedURL
	}

	hasFormat := r.FormatID != ""
	if hasFormat == r.ExtractAudio {
		return ErrAmbiguousFormat
	}

	if r.StartTime != nil || r.EndTime != nil {
		if r.StartTime == nil || r.EndTime == nil {
			return ErrInvalidTrimWindow
		}
		if *r.StartTime < 0 || *r.StartTime >= *r.EndTime {
			return ErrInvalidTrimWindow
		}
	}

	return nil
}

// HasTrimWindow reports whether both trim bounds are present. Only
// meaningful after Validate has passed.
func (r DownloadRequest) HasTrimWindow() bool {
	return r.StartTime != nil && r.EndTime != nil
}
