package domain

// Format is one downloadable rendition of a video, pre-filtered and
// sorted for presentation (see ytdlp.filterFormats).
type Format struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Filesize   *int64   `json:"filesize,omitempty"`
	FormatNote string   `json:"format_note"`
	TBR        *float64 `json:"tbr,omitempty"`
	HasAudio   bool     `json:"has_audio"`
	HasVideo   bool     `json:"has_video"`
}

// VideoInfo is the metadata returned by the info endpoints.
type VideoInfo struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Duration      int      `json:"duration"`
	Thumbnail     string   `json:"thumbnail"`
	Formats       []Format `json:"formats"`
	WebpageURL    string   `json:"webpage_url"`
	Description   string   `json:"description,omitempty"`
	ViewCount     *int64   `json:"view_count,omitempty"`
	Uploader      string   `json:"uploader,omitempty"`
	PlaylistIndex *int     `json:"playlist_index,omitempty"`
}

// PlaylistInfo describes a playlist; entries carry no format lists
// (formats are resolved per-video when a download starts).
type PlaylistInfo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader,omitempty"`
	VideoCount int         `json:"video_count"`
	Videos     []VideoInfo `json:"videos"`
	WebpageURL string      `json:"webpage_url"`
}
