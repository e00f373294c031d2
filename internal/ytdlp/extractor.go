package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
)

// Extractor wraps yt-dlp's metadata mode (-J / --dump-single-json) as a
// synchronous lookup. No bytes are downloaded here.
type Extractor struct {
	bin     string
	timeout time.Duration
	log     *logger.Logger
}

func NewExtractor(cfg *config.Config, log *logger.Logger) *Extractor {
	return &Extractor{
		bin:     cfg.YTDLP.BinaryPath,
		timeout: cfg.YTDLP.InfoTimeout,
		log:     log,
	}
}

type rawFormat struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	Filesize *int64   `json:"filesize"`
	Height   *int     `json:"height"`
	FPS      *float64 `json:"fps"`
	TBR      *float64 `json:"tbr"`
	ACodec   string   `json:"acodec"`
	VCodec   string   `json:"vcodec"`
}

type rawInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Duration    float64     `json:"duration"`
	Thumbnail   string      `json:"thumbnail"`
	Formats     []rawFormat `json:"formats"`
	WebpageURL  string      `json:"webpage_url"`
	Description string      `json:"description"`
	ViewCount   *int64      `json:"view_count"`
	Uploader    string      `json:"uploader"`
	Entries     []*rawInfo  `json:"entries"`
}

// VideoInfo fetches metadata and the filtered format list for one video.
func (x *Extractor) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	info, err := x.dump(ctx, url, false)
	if err != nil {
		return nil, err
	}

	if info.ID == "" {
		return nil, domain.ErrVideoNotFound
	}

	v := info.toVideoInfo(nil)
	v.Formats = filterFormats(info.Formats)
	return v, nil
}

// PlaylistInfo fetches flat metadata for every entry of a playlist.
// Entries carry no format lists; those are resolved at download time.
func (x *Extractor) PlaylistInfo(ctx context.Context, url string) (*domain.PlaylistInfo, error) {
	info, err := x.dump(ctx, url, true)
	if err != nil {
		return nil, err
	}

	if info.Entries == nil {
		return nil, domain.ErrNotPlaylist
	}

	videos := make([]domain.VideoInfo, 0, len(info.Entries))
	idx := 0
	for _, entry := range info.Entries {
		// Private or deleted videos show up as null entries
		if entry == nil {
			continue
		}
		idx++
		i := idx
		videos = append(videos, *entry.toVideoInfo(&i))
	}

	return &domain.PlaylistInfo{
		ID:         info.ID,
		Title:      info.Title,
		Uploader:   info.Uploader,
		VideoCount: len(videos),
		Videos:     videos,
		WebpageURL: info.WebpageURL,
	}, nil
}

func (x *Extractor) dump(ctx context.Context, url string, flat bool) (*rawInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	args := []string{"--dump-single-json", "--no-warnings", "--no-check-certificates"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	args = append(args, url)

	out, err := exec.CommandContext(ctx, x.bin, args...).Output()
	if err != nil {
		return nil, x.classify(err, url)
	}

	var info rawInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return &info, nil
}

// classify maps yt-dlp stderr output onto the lookup error taxonomy so
// controllers can choose an HTTP status without string matching.
func (x *Extractor) classify(err error, url string) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("yt-dlp lookup failed: %w", err)
	}

	stderr := strings.ToLower(string(exitErr.Stderr))
	x.log.Debug("lookup for %s failed: %s", url, strings.TrimSpace(string(exitErr.Stderr)))

	switch {
	case strings.Contains(stderr, "429") || strings.Contains(stderr, "too many requests"):
		return domain.ErrRateLimited
	case strings.Contains(stderr, "video unavailable") ||
		strings.Contains(stderr, "does not exist") ||
		strings.Contains(stderr, "private video"):
		return domain.ErrVideoNotFound
	case strings.Contains(stderr, "is not a valid url") ||
		strings.Contains(stderr, "unsupported url") ||
		strings.Contains(stderr, "unable to download"):
		return domain.ErrURLInaccessible
	default:
		return fmt.Errorf("yt-dlp lookup failed: %w", err)
	}
}

func (r *rawInfo) toVideoInfo(playlistIndex *int) *domain.VideoInfo {
	return &domain.VideoInfo{
		ID:            r.ID,
		Title:         r.Title,
		Duration:      int(r.Duration),
		Thumbnail:     r.Thumbnail,
		Formats:       []domain.Format{},
		WebpageURL:    r.WebpageURL,
		Description:   r.Description,
		ViewCount:     r.ViewCount,
		Uploader:      r.Uploader,
		PlaylistIndex: playlistIndex,
	}
}

// filterFormats keeps combined audio+video formats, mp4 video-only
// formats (mergeable with best audio), and audio-only formats, then
// sorts by total bitrate descending with unknown bitrate last.
func filterFormats(raw []rawFormat) []domain.Format {
	formats := make([]domain.Format, 0, len(raw))

	for _, f := range raw {
		hasAudio := f.ACodec != "" && f.ACodec != "none"
		hasVideo := f.VCodec != "" && f.VCodec != "none"

		combined := hasAudio && hasVideo
		mp4Video := hasVideo && f.Ext == "mp4"
		audioOnly := hasAudio && !hasVideo

		if !combined && !mp4Video && !audioOnly {
			continue
		}

		var note []string
		if f.Height != nil {
			note = append(note, fmt.Sprintf("%dp", *f.Height))
		}
		if f.FPS != nil {
			note = append(note, fmt.Sprintf("%.0ffps", *f.FPS))
		}
		switch {
		case combined:
			note = append(note, "video+audio")
		case !hasAudio:
			note = append(note, "video-only")
		case !hasVideo:
			note = append(note, "audio-only")
		}

		formats = append(formats, domain.Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Filesize:   f.Filesize,
			FormatNote: strings.Join(note, " "),
			TBR:        f.TBR,
			HasAudio:   hasAudio,
			HasVideo:   hasVideo,
		})
	}

	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i].TBR, formats[j].TBR
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})

	return formats
}
