package session

import (
	"sync"

	"github.com/vidgrab/vidgrab/internal/domain"
)

// relay decouples progress production from channel sends. If the sink
// cannot keep up, intermediate records are coalesced: only the most
// recent one is kept, stale ticks are superseded rather than queued.
// Terminal records bypass the coalescing path and are never dropped.
type relay struct {
	sink Sink

	mu     sync.Mutex
	latest *domain.ProgressRecord
	kick   chan struct{}
	done   chan struct{}

	sendMu sync.Mutex
	closed bool
}

func newRelay(sink Sink) *relay {
	r := &relay{
		sink: sink,
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// publish hands an intermediate record to the sender, replacing any
// record still waiting to go out.
func (r *relay) publish(rec domain.ProgressRecord) {
	r.mu.Lock()
	r.latest = &rec
	r.mu.Unlock()

	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// sendNow delivers a record synchronously, ahead of any pending
// intermediate, and fences off the coalescing path so nothing stale can
// follow a terminal record.
func (r *relay) sendNow(rec domain.ProgressRecord) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	if rec.Terminal() {
		r.closed = true
	}
	return r.sink.Send(rec)
}

func (r *relay) stop() {
	close(r.done)
}

func (r *relay) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.kick:
			r.mu.Lock()
			rec := r.latest
			r.latest = nil
			r.mu.Unlock()

			if rec == nil {
				continue
			}

			r.sendMu.Lock()
			if !r.closed {
				_ = r.sink.Send(*rec)
			}
			r.sendMu.Unlock()
		}
	}
}
