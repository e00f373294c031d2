package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func TestNormalizeByteProgressOmitsFragmentFields(t *testing.T) {
	rec := Normalize(ytdlp.ByteProgress{
		DownloadedBytes: i64(1024),
		TotalBytes:      i64(4096),
		Speed:           f64(500000),
	})

	assert.Equal(t, domain.StatusDownloading, rec.Status)
	assert.Equal(t, int64(1024), *rec.DownloadedBytes)
	assert.Equal(t, int64(4096), *rec.TotalBytes)
	assert.Nil(t, rec.FragmentIndex)
	assert.Nil(t, rec.FragmentCount)
}

func TestNormalizeFragmentProgressCarriesFragmentFields(t *testing.T) {
	rec := Normalize(ytdlp.FragmentProgress{
		DownloadedBytes: i64(1024),
		FragmentIndex:   3,
		FragmentCount:   10,
	})

	assert.Equal(t, domain.StatusDownloading, rec.Status)
	assert.Equal(t, 3, *rec.FragmentIndex)
	assert.Equal(t, 10, *rec.FragmentCount)
}

func TestNormalizeUnknownNumericsStayAbsent(t *testing.T) {
	rec := Normalize(ytdlp.ByteProgress{DownloadedBytes: i64(0)})

	// zero bytes downloaded is a real value, everything else is unknown
	assert.Equal(t, int64(0), *rec.DownloadedBytes)
	assert.Nil(t, rec.TotalBytes)
	assert.Nil(t, rec.Speed)
	assert.Nil(t, rec.Eta)
}

func TestNormalizeClampsMalformedByteCounters(t *testing.T) {
	rec := Normalize(ytdlp.ByteProgress{
		DownloadedBytes: i64(10485761),
		TotalBytes:      i64(10485760),
	})

	assert.Equal(t, int64(10485760), *rec.DownloadedBytes)
}

func TestNormalizePostProcessingIsInternalCompleted(t *testing.T) {
	rec := Normalize(ytdlp.PostProcessing{Filename: "y.webm", Title: "y"})
	assert.Equal(t, domain.StatusCompleted, rec.Status)
	assert.False(t, rec.Terminal())
}

func TestNormalizeFinished(t *testing.T) {
	rec := Normalize(ytdlp.Finished{Filename: "y.mp4", Title: "y"})
	assert.Equal(t, domain.StatusFinished, rec.Status)
	assert.Equal(t, "y.mp4", rec.Filename)
	assert.True(t, rec.Terminal())
}

func TestNormalizeFailedAlwaysCarriesMessage(t *testing.T) {
	rec := Normalize(ytdlp.Failed{Message: "network timeout"})
	assert.Equal(t, domain.StatusError, rec.Status)
	assert.Equal(t, "network timeout", rec.Message)

	rec = Normalize(ytdlp.Failed{})
	assert.NotEmpty(t, rec.Message)
}
