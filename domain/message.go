package domain

// Direction qualifies a platform message as seen by the host.
type Direction string

const (
	Inbound  Direction = "inbound"  // engine -> host
	Outbound Direction = "outbound" // host -> engine
	Reply    Direction = "reply"    // host -> engine, answering an inbound message
)

// PlatformMessage carries opaque bytes on a named logical channel.
// Channel names are opaque strings; the router never interprets payloads.
type PlatformMessage struct {
	Channel string
	Payload []byte
}

// Frame is the wire envelope exchanged with the engine over the transport.
// Inbound frames carry a ResponseID identifying the one-shot reply slot;
// reply frames echo that ResponseID back with no channel. Payload bytes are
// base64-encoded by encoding/json.
type Frame struct {
	Channel    string `json:"channel,omitempty"`
	Payload    []byte `json:"payload,omitempty"`
	ResponseID string `json:"response_id,omitempty"`
}
