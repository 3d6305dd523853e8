package messaging

import (
	"encoding/json"
	"fmt"

	"render-host/contract"
)

// MethodCall is the JSON envelope for named invocations on a channel.
type MethodCall struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// MethodResult answers a MethodCall. Exactly one of Result and Error is set.
type MethodResult struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// MethodHandler serves one decoded method call and produces its result.
type MethodHandler func(call MethodCall) MethodResult

// MethodChannel layers the method-call codec over one raw platform channel.
// Undecodable payloads are a codec-layer concern: they are answered with an
// error result, never dropped, so the engine-side caller is not left pending.
type MethodChannel struct {
	name      string
	codec     Codec
	registrar contract.Registrar
}

func NewMethodChannel(registrar contract.Registrar, name string) *MethodChannel {
	return &MethodChannel{
		name:      name,
		codec:     JSONStrict,
		registrar: registrar,
	}
}

// SetHandler installs h behind the channel's raw registration.
// A nil handler unregisters the channel.
func (c *MethodChannel) SetHandler(h MethodHandler) {
	if h == nil {
		c.registrar.Unregister(c.name)
		return
	}
	c.registrar.Register(c.name, func(payload []byte, reply contract.BinaryReply) {
		var call MethodCall
		if err := c.codec.Unmarshal(payload, &call); err != nil {
			c.replyResult(reply, MethodResult{Error: fmt.Sprintf("malformed method call: %v", err)})
			return
		}
		c.replyResult(reply, h(call))
	})
}

func (c *MethodChannel) replyResult(reply contract.BinaryReply, res MethodResult) {
	data, err := c.codec.Marshal(res)
	if err != nil {
		// Still consume the reply slot so the caller is not left pending.
		reply(nil)
		return
	}
	reply(data)
}

// Invoke sends a host-originated method call on the channel.
func (c *MethodChannel) Invoke(method string, args any) error {
	call := MethodCall{Method: method}
	if args != nil {
		raw, err := c.codec.Marshal(args)
		if err != nil {
			return fmt.Errorf("encode args for %s: %w", method, err)
		}
		call.Args = raw
	}
	payload, err := c.codec.Marshal(call)
	if err != nil {
		return fmt.Errorf("encode method call %s: %w", method, err)
	}
	return c.registrar.Send(c.name, payload)
}
