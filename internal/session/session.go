// Package session owns the per-channel download state machine: it
// validates the request, drives one executor job, normalizes its raw
// events and relays canonical progress records to the client until a
// terminal state is reached.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/vidgrab/vidgrab/internal/app"
	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
)

type State int

const (
	StateCreated State = iota
	StateActive
	StateClosed
)

// Sink is where progress records go: for the server, a websocket
// connection; for tests, a recording stub.
type Sink interface {
	Send(rec domain.ProgressRecord) error
}

// ErrJobInterrupted is returned when the executor's event stream ends
// without a terminal event.
var ErrJobInterrupted = errors.New("job ended without a terminal event")

// Session binds one client channel to at most one job. One channel, one
// job, by construction: Run is called at most once per Session.
type Session struct {
	id   string
	exec app.Executor
	log  *logger.Logger

	mu    sync.Mutex
	state State
	last  *domain.ProgressRecord
}

func New(exec app.Executor, log *logger.Logger) *Session {
	return &Session{
		id:   ksuid.New().String(),
		exec: exec,
		log:  log,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastRecord returns the most recently emitted record, if any.
func (s *Session) LastRecord() *domain.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run drives the session end-to-end and blocks until it closes.
//
// Created -> Active on a valid request: the job is started and a
// synthetic no-numeric "downloading" record is sent to cover the gap
// before the first real tick. Active -> Closed on a finished record, an
// executor failure (synthesized into a terminal error record), a
// cancelled ctx (channel gone: the job is cancelled, nothing is sent),
// or a validation failure (terminal error record, no job ever started).
func (s *Session) Run(ctx context.Context, req domain.DownloadRequest, sink Sink) error {
	defer s.setState(StateClosed)

	if err := req.Validate(); err != nil {
		s.log.Warn("session %s: rejected request: %v", s.id, err)
		s.deliver(sink, domain.ProgressRecord{
			Status:  domain.StatusError,
			Message: err.Error(),
		})
		return err
	}

	job, err := s.exec.Start(ctx, req)
	if err != nil {
		s.log.Error("session %s: executor start failed: %v", s.id, err)
		s.deliver(sink, domain.ProgressRecord{
			Status:  domain.StatusError,
			Message: err.Error(),
		})
		return err
	}
	defer job.Cancel()

	s.setState(StateActive)
	s.log.Info("session %s: job %s active for %s", s.id, job.ID(), req.URL)

	r := newRelay(sink)
	defer r.stop()

	// Job accepted, bytes not yet flowing. Format negotiation can take
	// seconds, so the client gets a status before the first real tick.
	if err := s.sendTracked(r, domain.ProgressRecord{Status: domain.StatusDownloading}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			// Remote side is gone; there is no channel left to send on.
			// The deferred Cancel releases the job.
			s.log.Info("session %s: channel closed, cancelling job %s", s.id, job.ID())
			return ctx.Err()

		case ev, ok := <-job.Events():
			if !ok {
				rec := domain.ProgressRecord{
					Status:  domain.StatusError,
					Message: ErrJobInterrupted.Error(),
				}
				_ = s.sendTracked(r, rec)
				return ErrJobInterrupted
			}

			rec := Normalize(ev)

			if rec.Status == domain.StatusCompleted {
				// Two-phase collapse: "bytes done, finalizing" never reaches
				// the client as its own state; the finished record follows
				// once the file is final.
				s.remember(rec)
				continue
			}

			if rec.Terminal() {
				// Terminal records are never coalesced away. A failed send
				// here makes the closure abnormal, reported to the caller.
				if err := s.sendTracked(r, rec); err != nil {
					return err
				}
				if rec.Status == domain.StatusError {
					s.log.Info("session %s: job %s failed: %s", s.id, job.ID(), rec.Message)
				} else {
					s.log.Info("session %s: job %s finished", s.id, job.ID())
				}
				return nil
			}

			s.remember(rec)
			r.publish(rec)
		}
	}
}

func (s *Session) sendTracked(r *relay, rec domain.ProgressRecord) error {
	s.remember(rec)
	return r.sendNow(rec)
}

// deliver sends a record straight to the sink, for paths where no job
// (and thus no relay) exists yet.
func (s *Session) deliver(sink Sink, rec domain.ProgressRecord) {
	s.remember(rec)
	if err := sink.Send(rec); err != nil {
		s.log.Warn("session %s: failed to send record: %v", s.id, err)
	}
}

func (s *Session) remember(rec domain.ProgressRecord) {
	s.mu.Lock()
	s.last = &rec
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
