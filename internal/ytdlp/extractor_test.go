package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestFilterFormatsKeepsUsableRenditions(t *testing.T) {
	raw := []rawFormat{
		{FormatID: "22", Ext: "mp4", ACodec: "mp4a", VCodec: "avc1", Height: ip(720), TBR: fp(1200)},
		{FormatID: "137", Ext: "mp4", ACodec: "none", VCodec: "avc1", Height: ip(1080), TBR: fp(4400)},
		{FormatID: "251", Ext: "webm", ACodec: "opus", VCodec: "none", TBR: fp(160)},
		// webm video-only can't be merged to mp4, drop it
		{FormatID: "248", Ext: "webm", ACodec: "none", VCodec: "vp9", Height: ip(1080), TBR: fp(3000)},
		// storyboard-style format with no codecs at all
		{FormatID: "sb0", Ext: "mhtml", ACodec: "none", VCodec: "none"},
	}

	formats := filterFormats(raw)
	require.Len(t, formats, 3)

	ids := []string{formats[0].FormatID, formats[1].FormatID, formats[2].FormatID}
	assert.Equal(t, []string{"137", "22", "251"}, ids, "sorted by bitrate descending")
}

func TestFilterFormatsNotes(t *testing.T) {
	raw := []rawFormat{
		{FormatID: "22", Ext: "mp4", ACodec: "mp4a", VCodec: "avc1", Height: ip(720), FPS: fp(30)},
		{FormatID: "137", Ext: "mp4", ACodec: "none", VCodec: "avc1", Height: ip(1080)},
		{FormatID: "251", Ext: "webm", ACodec: "opus", VCodec: "none"},
	}

	formats := filterFormats(raw)
	require.Len(t, formats, 3)

	byID := map[string]string{}
	for _, f := range formats {
		byID[f.FormatID] = f.FormatNote
	}
	assert.Equal(t, "720p 30fps video+audio", byID["22"])
	assert.Equal(t, "1080p video-only", byID["137"])
	assert.Equal(t, "audio-only", byID["251"])
}

func TestFilterFormatsUnknownBitrateSortsLast(t *testing.T) {
	raw := []rawFormat{
		{FormatID: "a", Ext: "mp4", ACodec: "mp4a", VCodec: "avc1"},
		{FormatID: "b", Ext: "mp4", ACodec: "mp4a", VCodec: "avc1", TBR: fp(100)},
	}

	formats := filterFormats(raw)
	require.Len(t, formats, 2)
	assert.Equal(t, "b", formats[0].FormatID)
	assert.Equal(t, "a", formats[1].FormatID)
}
