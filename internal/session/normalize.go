package session

import (
	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

// Normalize translates one raw executor event into the canonical
// progress record. Fragment fields are carried only for fragmented
// downloads; absent numerics stay nil rather than defaulting to zero;
// byte counters violating downloaded <= total are clamped, never
// relayed as-is.
func Normalize(ev ytdlp.Event) domain.ProgressRecord {
	var rec domain.ProgressRecord

	switch e := ev.(type) {
	case ytdlp.ByteProgress:
		rec = domain.ProgressRecord{
			Status:          domain.StatusDownloading,
			DownloadedBytes: e.DownloadedBytes,
			TotalBytes:      e.TotalBytes,
			Speed:           e.Speed,
			Eta:             e.Eta,
			Filename:        e.Filename,
			Title:           e.Title,
		}

	case ytdlp.FragmentProgress:
		idx, count := e.FragmentIndex, e.FragmentCount
		rec = domain.ProgressRecord{
			Status:          domain.StatusDownloading,
			DownloadedBytes: e.DownloadedBytes,
			TotalBytes:      e.TotalBytes,
			Speed:           e.Speed,
			Eta:             e.Eta,
			FragmentIndex:   &idx,
			FragmentCount:   &count,
			Filename:        e.Filename,
			Title:           e.Title,
		}

	case ytdlp.PostProcessing:
		// Internal pseudo-status: the session swallows this and the client
		// only ever sees the finished record that follows.
		rec = domain.ProgressRecord{
			Status:   domain.StatusCompleted,
			Filename: e.Filename,
			Title:    e.Title,
		}

	case ytdlp.Finished:
		rec = domain.ProgressRecord{
			Status:   domain.StatusFinished,
			Filename: e.Filename,
			Title:    e.Title,
		}

	case ytdlp.Failed:
		msg := e.Message
		if msg == "" {
			msg = "download failed"
		}
		rec = domain.ProgressRecord{
			Status:  domain.StatusError,
			Message: msg,
		}
	}

	rec.Clamp()
	return rec
}
