package messaging

import (
	"log/slog"
	"sync"

	"render-host/contract"
)

// ResponseToken is the one-time-use right to answer a specific inbound
// platform message. The first Reply transmits and consumes the token; every
// later attempt is reported and discarded without reaching the transport.
//
// A token may be consumed later than the originating dispatch (asynchronous
// handlers), from any goroutine.
type ResponseToken struct {
	mu        sync.Mutex
	consumed  bool
	channel   string
	send      func(payload []byte) error
	log       *slog.Logger
	observers []contract.RouterObserver
}

// Reply sends the response payload (possibly nil) back to the engine.
func (t *ResponseToken) Reply(payload []byte) {
	t.mu.Lock()
	if t.consumed {
		t.mu.Unlock()
		t.log.Warn("Duplicate response on channel, discarding", "channel", t.channel)
		for _, o := range t.observers {
			o.DuplicateReply(t.channel)
		}
		return
	}
	t.consumed = true
	t.mu.Unlock()

	if err := t.send(payload); err != nil {
		t.log.Warn("Failed to deliver response to engine", "channel", t.channel, "error", err)
		return
	}
	for _, o := range t.observers {
		o.ReplySent(t.channel, payload)
	}
}

// Consumed reports whether the token has already been spent.
func (t *ResponseToken) Consumed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consumed
}
