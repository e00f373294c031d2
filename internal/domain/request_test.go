package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestValidateAcceptsFormatSelection(t *testing.T) {
	req := DownloadRequest{URL: "https://x/y", FormatID: "22"}
	assert.NoError(t, req.Validate())
}

func TestValidateAcceptsAudioExtraction(t *testing.T) {
	req := DownloadRequest{URL: "https://x/y", ExtractAudio: true}
	assert.NoError(t, req.Validate())
}

func TestValidateRejectsMalformedURL(t *testing.T) {
	cases := []string{"", "not a url", "/relative/path", "hostlessscheme:"}
	for _, u := range cases {
		req := DownloadRequest{URL: u, FormatID: "22"}
		assert.ErrorIs(t, req.Validate(), ErrMalformedURL, "url %q", u)
	}
}

func TestValidateRequiresExactlyOneSelector(t *testing.T) {
	neither := DownloadRequest{URL: "https://x/y"}
	assert.ErrorIs(t, neither.Validate(), ErrAmbiguousFormat)

	both := DownloadRequest{URL: "https://x/y", FormatID: "22", ExtractAudio: true}
	assert.ErrorIs(t, both.Validate(), ErrAmbiguousFormat)
}

func TestValidateTrimWindow(t *testing.T) {
	valid := DownloadRequest{URL: "https://x/y", ExtractAudio: true, StartTime: intPtr(10), EndTime: intPtr(20)}
	assert.NoError(t, valid.Validate())
	assert.True(t, valid.HasTrimWindow())

	reversed := DownloadRequest{URL: "https://x/y", ExtractAudio: true, StartTime: intPtr(10), EndTime: intPtr(5)}
	assert.ErrorIs(t, reversed.Validate(), ErrInvalidTrimWindow)

	negative := DownloadRequest{URL: "https://x/y", ExtractAudio: true, StartTime: intPtr(-1), EndTime: intPtr(5)}
	assert.ErrorIs(t, negative.Validate(), ErrInvalidTrimWindow)

	halfOpen := DownloadRequest{URL: "https://x/y", ExtractAudio: true, StartTime: intPtr(10)}
	assert.ErrorIs(t, halfOpen.Validate(), ErrInvalidTrimWindow)

	equal := DownloadRequest{URL: "https://x/y", ExtractAudio: true, StartTime: intPtr(5), EndTime: intPtr(5)}
	assert.ErrorIs(t, equal.Validate(), ErrInvalidTrimWindow)
}
