package app

import (
	"context"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

// Job is one in-flight executor invocation, owned by exactly one
// session. Events delivers raw progress and exactly one terminal event,
// then closes. Cancel unsubscribes the consumer immediately.
type Job interface {
	ID() string
	Events() <-chan ytdlp.Event
	Cancel()
}

// Executor starts download jobs. Defined here so the session package
// can run against fakes without importing the subprocess machinery.
type Executor interface {
	Start(ctx context.Context, req domain.DownloadRequest) (Job, error)
}

// Extractor is the synchronous metadata lookup collaborator.
type Extractor interface {
	VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error)
	PlaylistInfo(ctx context.Context, url string) (*domain.PlaylistInfo, error)
}

// InfoCache caches video metadata lookups. A miss is (nil, false).
type InfoCache interface {
	GetVideo(url string) (*domain.VideoInfo, bool)
	PutVideo(url string, info *domain.VideoInfo)
}

// Context holds the core environment and shared resources. It is the
// single source of truth handed to controllers and commands.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Extractor Extractor
	Executor  Executor
	Cache     InfoCache
}

func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}

// WrapExecutor adapts the concrete yt-dlp executor to the Executor
// interface (Go interfaces are not covariant over return types).
func WrapExecutor(e *ytdlp.Executor) Executor {
	return execAdapter{e}
}

type execAdapter struct {
	inner *ytdlp.Executor
}

func (a execAdapter) Start(ctx context.Context, req domain.DownloadRequest) (Job, error) {
	h, err := a.inner.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return h, nil
}
