package domain

type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	// StatusCompleted means "bytes done, finalizing". It is internal: the
	// session collapses it into StatusFinished and clients never see it.
	StatusCompleted Status = "completed"
	StatusFinished  Status = "finished"
	StatusError     Status = "error"
)

// ProgressRecord is the canonical progress snapshot pushed to clients.
// Optional numerics are pointers: absent means "unknown", which is not
// the same thing as zero (the first tick legitimately reports 0 bytes).
type ProgressRecord struct {
	Status          Status   `json:"status"`
	DownloadedBytes *int64   `json:"downloaded_bytes,omitempty"`
	TotalBytes      *int64   `json:"total_bytes,omitempty"`
	Speed           *float64 `json:"speed,omitempty"`
	Eta             *int64   `json:"eta,omitempty"`
	FragmentIndex   *int     `json:"fragment_index,omitempty"`
	FragmentCount   *int     `json:"fragment_count,omitempty"`
	Filename        string   `json:"filename,omitempty"`
	Title           string   `json:"title,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// Terminal reports whether this record ends the session.
func (r ProgressRecord) Terminal() bool {
	return r.Status == StatusFinished || r.Status == StatusError
}

// Clamp enforces the record invariants in place: downloaded bytes never
// exceed total bytes, and the fragment index never exceeds the fragment
// count. Malformed executor input is corrected rather than relayed.
func (r *ProgressRecord) Clamp() {
	if r.DownloadedBytes != nil && r.TotalBytes != nil && *r.DownloadedBytes > *r.TotalBytes {
		clamped := *r.TotalBytes
		r.DownloadedBytes = &clamped
	}
	if r.FragmentIndex != nil && r.FragmentCount != nil && *r.FragmentIndex > *r.FragmentCount {
		clamped := *r.FragmentCount
		r.FragmentIndex = &clamped
	}
}
