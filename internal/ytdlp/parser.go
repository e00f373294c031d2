package ytdlp

import (
	"encoding/json"
	"strings"
)

// progressPrefix marks progress-template lines on stdout; finalPrefix
// marks the after_move print carrying the final output path.
const (
	progressPrefix = "vidgrab-progress:"
	finalPrefix    = "vidgrab-final:"
)

// progressTemplate makes yt-dlp emit one JSON object per progress tick.
// Fields absent from the hook dict render as null, which keeps "unknown"
// distinguishable from zero on our side.
const progressTemplate = progressPrefix + `{"status":%(progress.status)j,` +
	`"downloaded_bytes":%(progress.downloaded_bytes)j,` +
	`"total_bytes":%(progress.total_bytes)j,` +
	`"total_bytes_estimate":%(progress.total_bytes_estimate)j,` +
	`"speed":%(progress.speed)j,` +
	`"eta":%(progress.eta)j,` +
	`"fragment_index":%(progress.fragment_index)j,` +
	`"fragment_count":%(progress.fragment_count)j,` +
	`"filename":%(progress.filename)j,` +
	`"title":%(info.title)j}`

type rawProgress struct {
	Status             string   `json:"status"`
	DownloadedBytes    *int64   `json:"downloaded_bytes"`
	TotalBytes         *int64   `json:"total_bytes"`
	TotalBytesEstimate *float64 `json:"total_bytes_estimate"`
	Speed              *float64 `json:"speed"`
	Eta                *float64 `json:"eta"`
	FragmentIndex      *int     `json:"fragment_index"`
	FragmentCount      *int     `json:"fragment_count"`
	Filename           string   `json:"filename"`
	Title              string   `json:"title"`
}

// parseLine turns one stdout line into a raw event. Lines that are not
// progress output (yt-dlp chatter, blank lines) are skipped.
func parseLine(line string) (Event, bool) {
	payload, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !ok {
		return nil, false
	}

	var raw rawProgress
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, false
	}

	switch raw.Status {
	case "downloading":
		total := raw.TotalBytes
		if total == nil && raw.TotalBytesEstimate != nil {
			est := int64(*raw.TotalBytesEstimate)
			total = &est
		}

		var eta *int64
		if raw.Eta != nil {
			sec := int64(*raw.Eta)
			eta = &sec
		}

		if raw.FragmentIndex != nil && raw.FragmentCount != nil {
			return FragmentProgress{
				DownloadedBytes: raw.DownloadedBytes,
				TotalBytes:      total,
				Speed:           raw.Speed,
				Eta:             eta,
				FragmentIndex:   *raw.FragmentIndex,
				FragmentCount:   *raw.FragmentCount,
				Filename:        raw.Filename,
				Title:           raw.Title,
			}, true
		}

		return ByteProgress{
			DownloadedBytes: raw.DownloadedBytes,
			TotalBytes:      total,
			Speed:           raw.Speed,
			Eta:             eta,
			Filename:        raw.Filename,
			Title:           raw.Title,
		}, true

	case "finished":
		// Bytes done; ffmpeg post-processing starts now. The real terminal
		// comes from process exit, so intermediate per-file "finished"
		// hooks (.webm/.m4a before the merge) never leak out as terminal.
		return PostProcessing{Filename: raw.Filename, Title: raw.Title}, true
	}

	return nil, false
}
