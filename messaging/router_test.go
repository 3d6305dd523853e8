package messaging

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"render-host/contract"
	"render-host/domain"
	"render-host/errors"
)

// RecordingTransport captures outbound frames for assertions.
type RecordingTransport struct {
	mu     sync.Mutex
	frames []domain.Frame
	fail   error
}

func (t *RecordingTransport) Connect(ctx context.Context) error { return nil }

func (t *RecordingTransport) Send(frame domain.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	t.frames = append(t.frames, frame)
	return nil
}

func (t *RecordingTransport) Frames() <-chan domain.Frame { return nil }
func (t *RecordingTransport) Errors() <-chan error        { return nil }
func (t *RecordingTransport) Close() error                { return nil }

func (t *RecordingTransport) Sent() []domain.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Frame(nil), t.frames...)
}

// replySink collects reply payloads the way the pump would send them.
type replySink struct {
	mu      sync.Mutex
	replies [][]byte
}

func (s *replySink) send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, payload)
	return nil
}

func TestRouter_Dispatch_Echo_Handler(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	// Given a handler on "echo" that replies with its input
	var seen [][]byte
	router.Register("echo", func(payload []byte, reply contract.BinaryReply) {
		seen = append(seen, payload)
		reply(payload)
	})

	// When a payload is dispatched on "echo"
	token := router.BindReply("echo", sink.send)
	router.DispatchInbound("echo", []byte("hello"), token)

	// Then the handler ran exactly once with the payload unchanged
	req.Len(seen, 1)
	req.Equal([]byte("hello"), seen[0])

	// And exactly one reply equal to the input was sent
	req.Len(sink.replies, 1)
	req.Equal([]byte("hello"), sink.replies[0])
}

func TestRouter_Dispatch_Unregistered_Channel_Acknowledges(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	handlerCalled := false
	router.Register("present", func(payload []byte, reply contract.BinaryReply) {
		handlerCalled = true
		reply(nil)
	})

	// When a message arrives on a channel nobody registered
	token := router.BindReply("ghost", sink.send)
	router.DispatchInbound("ghost", []byte("anyone there?"), token)

	// Then exactly one empty reply was sent and no handler was invoked
	req.Len(sink.replies, 1)
	req.Empty(sink.replies[0])
	req.False(handlerCalled)
}

func TestRouter_Register_Then_Unregister_Restores_Fallback(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	calls := 0
	router.Register("volatile", func(payload []byte, reply contract.BinaryReply) {
		calls++
		reply([]byte("handled"))
	})

	// When the handler is removed right after registration
	router.Unregister("volatile")

	token := router.BindReply("volatile", sink.send)
	router.DispatchInbound("volatile", []byte("x"), token)

	// Then the dispatch took the no-handler path
	req.Zero(calls)
	req.Len(sink.replies, 1)
	req.Empty(sink.replies[0])
}

func TestRouter_Reregister_Replaces_Old_Handler(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	oldCalls, newCalls := 0, 0
	router.Register("swap", func(payload []byte, reply contract.BinaryReply) {
		oldCalls++
		reply(nil)
	})

	// When the channel is registered again: last registration wins
	router.Register("swap", func(payload []byte, reply contract.BinaryReply) {
		newCalls++
		reply(nil)
	})

	token := router.BindReply("swap", sink.send)
	router.DispatchInbound("swap", []byte("x"), token)

	// Then only the new handler ran
	req.Zero(oldCalls)
	req.Equal(1, newCalls)
}

func TestRouter_Send_Without_Transport(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())

	// When sending before any transport is attached
	err := router.Send("engine/ping", []byte("ping"))

	// Then the failure is reported, not fatal
	req.ErrorIs(err, errors.ErrEngineNotRunning)
}

func TestRouter_Send_Forwards_To_Transport(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	transport := &RecordingTransport{}
	router.AttachTransport(transport)

	err := router.Send("engine/ping", []byte("ping"))
	req.NoError(err)

	sent := transport.Sent()
	req.Len(sent, 1)
	req.Equal("engine/ping", sent[0].Channel)
	req.Equal([]byte("ping"), sent[0].Payload)
	req.Empty(sent[0].ResponseID)
}

func TestRouter_Send_Transport_Rejection_Is_Reported(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	transport := &RecordingTransport{fail: errors.ErrNotConnected}
	router.AttachTransport(transport)

	err := router.Send("engine/ping", []byte("ping"))
	req.ErrorIs(err, errors.ErrNotConnected)
}
