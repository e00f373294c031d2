package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
)

// defaultVideoFormat mirrors the service's historical default: best mp4
// video up to 1080p merged with best m4a audio, falling back to best.
const defaultVideoFormat = "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// killWaitDelay bounds Wait after the kill signal: ffmpeg children
// inherit the stdout pipe, and Wait would otherwise block until the
// last of them exits.
const killWaitDelay = 5 * time.Second

// Executor runs yt-dlp as a subprocess and exposes each run as a
// JobHandle producing raw events.
type Executor struct {
	bin    string
	outDir string
	log    *logger.Logger
}

func NewExecutor(cfg *config.Config, log *logger.Logger) *Executor {
	return &Executor{
		bin:    cfg.YTDLP.BinaryPath,
		outDir: cfg.Download.Dir,
		log:    log,
	}
}

// JobHandle is one in-flight yt-dlp invocation. Events carries raw
// progress until exactly one terminal event (Finished or Failed), after
// which the channel is closed. Cancel unsubscribes the consumer
// immediately and kills the process group; no event is delivered afterward
// even if teardown takes time.
type JobHandle struct {
	id     string
	events chan Event
	stop   chan struct{}
	kill   context.CancelFunc

	unsubscribed atomic.Bool
	cancelOnce   sync.Once
}

func (h *JobHandle) ID() string           { return h.id }
func (h *JobHandle) Events() <-chan Event { return h.events }

// Cancel is synchronous-to-effect: once it returns, the consumer is
// unsubscribed and will observe nothing further, regardless of how long
// the process takes to die. At most one terminal notification is ever
// delivered, even when cancellation races natural completion.
func (h *JobHandle) Cancel() {
	h.cancelOnce.Do(func() {
		h.unsubscribed.Store(true)
		close(h.stop)
		h.kill()
	})
}

func (h *JobHandle) emit(ev Event) {
	if h.unsubscribed.Load() {
		return
	}
	// Intermediate ticks are droppable; only the terminal event matters
	// for correctness and that one goes through emitTerminal. On a full
	// buffer the oldest queued tick makes room, keeping the freshest
	// progress at the tail.
	select {
	case h.events <- ev:
	default:
		select {
		case <-h.events:
		default:
		}
		select {
		case h.events <- ev:
		default:
		}
	}
}

func (h *JobHandle) emitTerminal(ev Event) {
	if h.unsubscribed.Load() {
		return
	}
	select {
	case h.events <- ev:
	case <-h.stop:
	}
}

// Start launches yt-dlp for the given (already validated) request.
func (e *Executor) Start(ctx context.Context, req domain.DownloadRequest) (*JobHandle, error) {
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	jobCtx, kill := context.WithCancel(ctx)

	cmd := exec.CommandContext(jobCtx, e.bin, e.buildArgs(req)...)
	setProcessGroup(cmd)

	stderr := &tailBuffer{max: 20}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		kill()
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		kill()
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	h := &JobHandle{
		id:     ksuid.New().String(),
		events: make(chan Event, 64),
		stop:   make(chan struct{}),
		kill:   kill,
	}

	e.log.Info("job %s: started yt-dlp for %s", h.id, req.URL)

	go e.pump(cmd, h, stdout, stderr)

	return h, nil
}

// setProcessGroup puts the child in its own process group and makes
// cancellation kill the whole group. yt-dlp spawns ffmpeg for merges
// and post-processing; killing yt-dlp alone would leave ffmpeg running.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killWaitDelay
}

// pump reads progress lines until the process exits, then emits the
// single terminal event and closes the channel.
func (e *Executor) pump(cmd *exec.Cmd, h *JobHandle, stdout io.Reader, stderr *tailBuffer) {
	defer close(h.events)

	var finalPath, lastTitle string

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()

		if path, ok := strings.CutPrefix(strings.TrimSpace(line), finalPrefix); ok {
			finalPath = path
			continue
		}

		ev, ok := parseLine(line)
		if !ok {
			continue
		}

		switch p := ev.(type) {
		case ByteProgress:
			if p.Title != "" {
				lastTitle = p.Title
			}
		case FragmentProgress:
			if p.Title != "" {
				lastTitle = p.Title
			}
		case PostProcessing:
			if p.Title != "" {
				lastTitle = p.Title
			}
		}

		h.emit(ev)
	}

	err := cmd.Wait()

	if h.unsubscribed.Load() {
		e.log.Debug("job %s: cancelled, discarding outcome", h.id)
		return
	}

	if err != nil {
		msg := stderr.LastError()
		if msg == "" {
			msg = err.Error()
		}
		e.log.Error("job %s: yt-dlp failed: %s", h.id, msg)
		h.emitTerminal(Failed{Message: msg})
		return
	}

	e.log.Info("job %s: finished (%s)", h.id, finalPath)
	h.emitTerminal(Finished{
		Filename: filepath.Base(finalPath),
		Title:    lastTitle,
	})
}

func (e *Executor) buildArgs(req domain.DownloadRequest) []string {
	outTmpl := filepath.Join(e.outDir, "%(title)s.%(ext)s")

	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-check-certificates",
		"--newline",
		"--progress",
		"--progress-template", progressTemplate,
		"--no-simulate",
		"--print", "after_move:" + finalPrefix + "%(filepath)s",
		"-o", outTmpl,
	}

	if req.ExtractAudio {
		args = append(args,
			"-f", "bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	} else {
		format := req.FormatID
		if format == "" {
			format = defaultVideoFormat
		}
		args = append(args,
			"-f", format,
			"--merge-output-format", "mp4",
			"--recode-video", "mp4",
			"--postprocessor-args", "ffmpeg:-c:v copy -c:a aac -strict experimental",
		)
	}

	if req.HasTrimWindow() {
		args = append(args,
			"--download-sections", fmt.Sprintf("*%d-%d", *req.StartTime, *req.EndTime),
			"--force-keyframes-at-cuts",
		)
	}

	return append(args, req.URL)
}

// tailBuffer keeps the last lines of stderr for error reporting.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t.lines = append(t.lines, line)
		if len(t.lines) > t.max {
			t.lines = t.lines[len(t.lines)-t.max:]
		}
	}
	return len(p), nil
}

// LastError returns the most recent "ERROR:"-prefixed line, or the last
// line of stderr when yt-dlp didn't tag one.
func (t *tailBuffer) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.lines) - 1; i >= 0; i-- {
		if msg, ok := strings.CutPrefix(t.lines[i], "ERROR:"); ok {
			return strings.TrimSpace(msg)
		}
	}
	if len(t.lines) > 0 {
		return t.lines[len(t.lines)-1]
	}
	return ""
}
