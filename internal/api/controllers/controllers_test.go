package controllers_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/vidgrab/vidgrab/internal/api"
	"github.com/vidgrab/vidgrab/internal/app"
	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

type fakeJob struct {
	id      string
	events  chan ytdlp.Event
	cancels atomic.Int32
}

func newFakeJob() *fakeJob {
	return &fakeJob{id: "job-1", events: make(chan ytdlp.Event, 16)}
}

func (j *fakeJob) ID() string                 { return j.id }
func (j *fakeJob) Events() <-chan ytdlp.Event { return j.events }
func (j *fakeJob) Cancel()                    { j.cancels.Add(1) }

type fakeExecutor struct {
	job    *fakeJob
	starts atomic.Int32
}

func (e *fakeExecutor) Start(ctx context.Context, req domain.DownloadRequest) (app.Job, error) {
	e.starts.Add(1)
	return e.job, nil
}

type fakeExtractor struct {
	video     *domain.VideoInfo
	videoErr  error
	playlist  *domain.PlaylistInfo
	plErr     error
	videoHits atomic.Int32
}

func (x *fakeExtractor) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	x.videoHits.Add(1)
	return x.video, x.videoErr
}

func (x *fakeExtractor) PlaylistInfo(ctx context.Context, url string) (*domain.PlaylistInfo, error) {
	return x.playlist, x.plErr
}

type mapCache struct {
	m map[string]*domain.VideoInfo
}

func newMapCache() *mapCache { return &mapCache{m: map[string]*domain.VideoInfo{}} }

func (c *mapCache) GetVideo(url string) (*domain.VideoInfo, bool) {
	info, ok := c.m[url]
	return info, ok
}

func (c *mapCache) PutVideo(url string, info *domain.VideoInfo) {
	c.m[url] = info
}

type testEnv struct {
	srv  *httptest.Server
	exec *fakeExecutor
	ext  *fakeExtractor
}

func newTestEnv(t *testing.T, exec *fakeExecutor, ext *fakeExtractor) *testEnv {
	t.Helper()

	cfg := &config.Config{Port: "0"}
	cfg.Download.Dir = t.TempDir()

	appCtx := app.NewContext(cfg, logger.NewWithWriter(io.Discard, logger.LevelError))
	appCtx.Executor = exec
	appCtx.Extractor = ext
	appCtx.Cache = newMapCache()

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, exec: exec, ext: ext}
}

func (env *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/ws/download"
}
