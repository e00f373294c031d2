package controllers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"

	"github.com/vidgrab/vidgrab/internal/app"
	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/session"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

const closeGracePeriod = time.Second

// writeTimeout bounds each progress write. A peer that stopped reading
// must surface as a send error so the session closes and the job is
// cancelled, instead of blocking forever on a full TCP buffer.
const writeTimeout = 10 * time.Second

type DownloadController struct {
	App      *app.Context
	upgrader websocket.Upgrader
}

func NewDownloadController(appCtx *app.Context) *DownloadController {
	return &DownloadController{
		App: appCtx,
		upgrader: websocket.Upgrader{
			// The service fronts its own UI; origin policy is not enforced
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleStream is the persistent download channel: the first client
// message is the download request, every server message is a progress
// record, and the server closes the connection after the terminal
// record. The client cancels by closing the connection.
func (ctrl *DownloadController) HandleStream(c *echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var req domain.DownloadRequest
	if err := conn.ReadJSON(&req); err != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sess := session.New(ctrl.App.Executor, ctrl.App.Logger)

	// The read loop exists to notice the client going away. One channel,
	// one job: anything else the client sends is rejected by being
	// ignored; the running job is not disturbed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
			ctrl.App.Logger.Warn("session %s: %v, ignoring extra request", sess.ID(), domain.ErrSessionBusy)
		}
	}()

	runErr := sess.Run(ctx, req, &wsSink{conn: conn, timeout: writeTimeout})

	// A cancelled ctx means the client already tore the channel down;
	// anything else gets a clean server-side close.
	if !errors.Is(runErr, context.Canceled) {
		deadline := time.Now().Add(closeGracePeriod)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
	}

	return nil
}

// HandleDownload triggers a download without holding a channel open.
// Progress for it is only observable through the websocket endpoint.
func (ctrl *DownloadController) HandleDownload(c *echo.Context) error {
	var req domain.DownloadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	// Detached from the request context: an ack response must not kill
	// the job it just acknowledged.
	job, err := ctrl.App.Executor.Start(context.Background(), req)
	if err != nil {
		ctrl.App.Logger.Error("background job start failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to start download"})
	}

	go ctrl.drain(job)

	return c.JSON(http.StatusAccepted, AckResponse{
		Message: "download started",
		JobID:   job.ID(),
		Status:  string(domain.StatusQueued),
	})
}

// drain consumes a detached job's events so the executor never blocks,
// logging the outcome.
func (ctrl *DownloadController) drain(job app.Job) {
	for ev := range job.Events() {
		switch e := ev.(type) {
		case ytdlp.Finished:
			ctrl.App.Logger.Info("background job %s finished: %s", job.ID(), e.Filename)
		case ytdlp.Failed:
			ctrl.App.Logger.Error("background job %s failed: %s", job.ID(), e.Message)
		}
	}
}

// wsSink adapts a websocket connection to the session's sink. Writes
// are serialized; gorilla allows only one concurrent writer.
type wsSink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (s *wsSink) Send(rec domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(rec)
}
