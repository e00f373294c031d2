// Package client implements the consumer side of the download channel:
// it dials the websocket endpoint, sends the request, relays progress
// records to a handler, and transparently retries unclean transport
// failures with linear backoff.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
)

// ErrRetriesExhausted is returned once the reconnect bound is exceeded.
var ErrRetriesExhausted = errors.New("reconnect attempts exhausted")

type Config struct {
	// MaxAttempts bounds reconnects after the initial attempt fails.
	MaxAttempts int
	// BaseDelay is scaled linearly by attempt number: 1x, 2x, 3x.
	BaseDelay time.Duration
}

// Handler receives every progress record the server pushes.
type Handler func(rec domain.ProgressRecord)

type Client struct {
	endpoint string
	cfg      Config
	log      *logger.Logger

	// injectable for tests
	dial  func(ctx context.Context, url string) (*websocket.Conn, error)
	sleep func(d time.Duration)
}

func New(endpoint string, cfg Config, log *logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		cfg:      cfg,
		log:      log,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			return conn, err
		},
		sleep: time.Sleep,
	}
}

// Download runs one download to its terminal record, reconnecting on
// unclean closures. Each reconnect re-sends the original request as a
// brand-new session; there is no resumption of in-flight job state. A
// clean server close after a terminal record is never retried.
func (c *Client) Download(ctx context.Context, req domain.DownloadRequest, handle Handler) error {
	err := c.runOnce(ctx, req, handle)
	if err == nil {
		return nil
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.log.Warn("channel lost (%v), reconnect attempt %d/%d", err, attempt, c.cfg.MaxAttempts)
		c.sleep(time.Duration(attempt) * c.cfg.BaseDelay)

		err = c.runOnce(ctx, req, handle)
		if err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w (%d attempts): %v", ErrRetriesExhausted, c.cfg.MaxAttempts, err)
}

// runOnce is one full channel lifetime: dial, send the request, relay
// records until the server closes. Returns nil only when closure came
// after a terminal record.
func (c *Client) runOnce(ctx context.Context, req domain.DownloadRequest, handle Handler) error {
	conn, err := c.dial(ctx, c.endpoint)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	sawTerminal := false
	for {
		var rec domain.ProgressRecord
		if err := conn.ReadJSON(&rec); err != nil {
			if sawTerminal {
				return nil
			}
			return fmt.Errorf("channel closed mid-download: %w", err)
		}

		handle(rec)

		if rec.Terminal() {
			sawTerminal = true
		}
	}
}
