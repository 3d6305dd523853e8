//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"render-host/domain"
)

// BinaryReply sends the response for one inbound platform message.
// The first call transmits the payload (possibly empty) to the engine and
// invalidates the capability. Any later call is a logic error: the router
// reports it and discards the payload.
type BinaryReply func(payload []byte)

// Handler is caller-supplied logic bound to a channel. It is invoked once per
// inbound message on that channel with the payload unchanged.
//
// Contract: every handler must call reply exactly once, synchronously or
// asynchronously. A handler that never replies leaves the engine-side caller
// pending forever; the router cannot recover from that.
type Handler func(payload []byte, reply BinaryReply)

// Messenger forwards host-originated platform messages to the engine.
type Messenger interface {
	// Send forwards payload on the named channel. A transport rejection
	// (engine not running) is returned as a non-fatal error.
	Send(channel string, payload []byte) error
}

// Registrar is the boundary handed to embedding features so each can own a
// channel registration without knowing about the others.
type Registrar interface {
	Messenger
	// Register installs or overwrites the handler for channel.
	// Last registration wins.
	Register(channel string, handler Handler)
	// Unregister removes the handler; later inbound messages on that
	// channel receive the empty-payload acknowledgment.
	Unregister(channel string)
}

// Plugin owns one or more channel registrations.
type Plugin interface {
	Name() string
	Setup(r Registrar) error
}

// RouterObserver is notified of router traffic. Observers must not affect
// routing semantics; failures inside an observer are its own concern.
type RouterObserver interface {
	MessageDispatched(channel string, payload []byte, handled bool)
	MessageSent(channel string, payload []byte)
	SendFailed(channel string)
	ReplySent(channel string, payload []byte)
	DuplicateReply(channel string)
}

// Transport moves raw frames between host and engine.
type Transport interface {
	Connect(ctx context.Context) error
	Send(frame domain.Frame) error
	Frames() <-chan domain.Frame
	Errors() <-chan error
	Close() error
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
