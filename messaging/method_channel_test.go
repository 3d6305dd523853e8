package messaging

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONStrict_Rejects_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	var call MethodCall

	err := JSONStrict.Unmarshal([]byte(`{"method":"ping","bogus":1}`), &call)

	req.Error(err)
}

func TestJSONStrict_Rejects_Trailing_Content(t *testing.T) {
	req := require.New(t)
	var call MethodCall

	err := JSONStrict.Unmarshal([]byte(`{"method":"ping"}{"method":"pong"}`), &call)

	req.Error(err)
}

func TestMethodChannel_Handler_Round_Trip(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	// Given a method handler answering "ping" with "pong"
	channel := NewMethodChannel(router, "engine/lifecycle")
	channel.SetHandler(func(call MethodCall) MethodResult {
		if call.Method != "ping" {
			return MethodResult{Error: "unknown method " + call.Method}
		}
		return MethodResult{Result: json.RawMessage(`"pong"`)}
	})

	// When a ping call arrives on the raw channel
	payload, err := JSONStrict.Marshal(MethodCall{Method: "ping"})
	req.NoError(err)
	router.DispatchInbound("engine/lifecycle", payload, router.BindReply("engine/lifecycle", sink.send))

	// Then the reply decodes to a pong result
	req.Len(sink.replies, 1)
	var res MethodResult
	req.NoError(JSONStrict.Unmarshal(sink.replies[0], &res))
	req.Empty(res.Error)
	req.JSONEq(`"pong"`, string(res.Result))
}

func TestMethodChannel_Malformed_Payload_Gets_Error_Result(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	channel := NewMethodChannel(router, "engine/lifecycle")
	channel.SetHandler(func(call MethodCall) MethodResult {
		return MethodResult{Result: json.RawMessage(`true`)}
	})

	// When the payload is not a method call at all
	router.DispatchInbound("engine/lifecycle", []byte("not json"), router.BindReply("engine/lifecycle", sink.send))

	// Then the caller still gets exactly one reply, carrying an error result
	req.Len(sink.replies, 1)
	var res MethodResult
	req.NoError(JSONStrict.Unmarshal(sink.replies[0], &res))
	req.Contains(res.Error, "malformed method call")
}

func TestMethodChannel_Nil_Handler_Unregisters(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	sink := &replySink{}

	channel := NewMethodChannel(router, "engine/lifecycle")
	channel.SetHandler(func(call MethodCall) MethodResult {
		return MethodResult{Result: json.RawMessage(`true`)}
	})
	channel.SetHandler(nil)

	router.DispatchInbound("engine/lifecycle", []byte(`{"method":"ping"}`), router.BindReply("engine/lifecycle", sink.send))

	// The no-handler acknowledgment takes over
	req.Len(sink.replies, 1)
	req.Empty(sink.replies[0])
}

func TestMethodChannel_Invoke_Encodes_Call(t *testing.T) {
	req := require.New(t)
	router := NewRouter(slog.Default())
	transport := &RecordingTransport{}
	router.AttachTransport(transport)

	channel := NewMethodChannel(router, "engine/lifecycle")
	req.NoError(channel.Invoke("setScale", map[string]float64{"ratio": 2.0}))

	sent := transport.Sent()
	req.Len(sent, 1)
	req.Equal("engine/lifecycle", sent[0].Channel)

	var call MethodCall
	req.NoError(JSONStrict.Unmarshal(sent[0].Payload, &call))
	req.Equal("setScale", call.Method)
	req.JSONEq(`{"ratio":2}`, string(call.Args))
}
