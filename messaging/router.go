// Package messaging implements the platform message router: named logical
// channels multiplexed over the single host<->engine transport, each inbound
// message carrying a one-shot reply capability.
package messaging

import (
	"fmt"
	"log/slog"
	"sync"

	"render-host/contract"
	"render-host/domain"
	"render-host/errors"
)

// Router owns the channel registry and the outbound path to the engine.
//
// Registrations are last-write-wins and channel names are opaque; no
// namespace is reserved. Inbound dispatch is serial (one pump goroutine) but
// Register/Send may be called from any goroutine, hence the lock.
type Router struct {
	mu        sync.RWMutex
	log       *slog.Logger
	handlers  map[string]contract.Handler
	transport contract.Transport
	observers []contract.RouterObserver
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		log:      log,
		handlers: make(map[string]contract.Handler),
	}
}

// AddObserver attaches a traffic observer. Observers see every dispatch,
// send, reply and duplicate-reply attempt but cannot alter routing.
func (r *Router) AddObserver(o contract.RouterObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// AttachTransport wires the outbound path. Send fails with
// ErrEngineNotRunning until a transport is attached.
func (r *Router) AttachTransport(t contract.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transport = t
}

// DetachTransport removes the outbound path, typically during engine shutdown.
func (r *Router) DetachTransport() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transport = nil
}

// Register installs or overwrites the handler for channel.
func (r *Router) Register(channel string, handler contract.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channel] = handler
}

// Unregister removes the handler for channel. Later inbound messages on that
// channel get the empty-payload acknowledgment.
func (r *Router) Unregister(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, channel)
}

// Send forwards a host-originated message to the engine on channel.
// A rejection by the transport is reported and returned, never fatal.
func (r *Router) Send(channel string, payload []byte) error {
	r.mu.RLock()
	t := r.transport
	observers := r.observers
	r.mu.RUnlock()

	if t == nil {
		r.log.Warn("Dropping outbound platform message", "channel", channel, "error", errors.ErrEngineNotRunning)
		for _, o := range observers {
			o.SendFailed(channel)
		}
		return fmt.Errorf("%w: send on channel %s", errors.ErrEngineNotRunning, channel)
	}
	if err := t.Send(domain.Frame{Channel: channel, Payload: payload}); err != nil {
		r.log.Warn("Engine rejected outbound platform message", "channel", channel, "error", err)
		for _, o := range observers {
			o.SendFailed(channel)
		}
		return fmt.Errorf("send on channel %s: %w", channel, err)
	}
	for _, o := range observers {
		o.MessageSent(channel, payload)
	}
	return nil
}

// BindReply wraps a raw transport send into a one-shot reply token for an
// inbound message on channel. The token carries the router's logger and
// observers so duplicate attempts are reported in one place.
func (r *Router) BindReply(channel string, send func(payload []byte) error) *ResponseToken {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	return &ResponseToken{
		channel:   channel,
		send:      send,
		log:       r.log,
		observers: observers,
	}
}

// DispatchInbound routes one engine-originated message to its handler.
//
// With a registered handler the payload is delivered exactly once together
// with the reply capability. Without one, the message is acknowledged
// immediately with an empty payload so the engine-side caller never blocks
// on a handler that doesn't exist.
func (r *Router) DispatchInbound(channel string, payload []byte, token *ResponseToken) {
	r.mu.RLock()
	handler, ok := r.handlers[channel]
	observers := r.observers
	r.mu.RUnlock()

	for _, o := range observers {
		o.MessageDispatched(channel, payload, ok)
	}

	if !ok {
		r.log.Debug("No handler registered, acknowledging", "channel", channel)
		token.Reply(nil)
		return
	}
	handler(payload, token.Reply)
}

var _ contract.Registrar = (*Router)(nil)
