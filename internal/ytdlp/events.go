package ytdlp

// Event is the raw progress union emitted by a running job before
// normalization. The shapes are closed: the normalizer type-switches
// over them instead of probing optional fields.
type Event interface {
	event()
}

// ByteProgress is a plain byte-stream progress tick.
type ByteProgress struct {
	DownloadedBytes *int64
	TotalBytes      *int64
	Speed           *float64
	Eta             *int64
	Filename        string
	Title           string
}

// FragmentProgress is a progress tick for segmented/adaptive streams,
// which report per-fragment position on top of byte counters.
type FragmentProgress struct {
	DownloadedBytes *int64
	TotalBytes      *int64
	Speed           *float64
	Eta             *int64
	FragmentIndex   int
	FragmentCount   int
	Filename        string
	Title           string
}

// PostProcessing signals that raw bytes are fully fetched and final
// muxing/encoding has begun. Not terminal.
type PostProcessing struct {
	Filename string
	Title    string
}

// Finished is the single success-terminal event: the output file is
// final on disk.
type Finished struct {
	Filename string
	Title    string
}

// Failed is the single failure-terminal event.
type Failed struct {
	Message string
}

func (ByteProgress) event()     {}
func (FragmentProgress) event() {}
func (PostProcessing) event()   {}
func (Finished) event()         {}
func (Failed) event()           {}
