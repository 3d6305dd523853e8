// Package input translates host view events into the engine's wire formats
// and forwards them over the platform message channels.
package input

import (
	"fmt"
	"log/slog"
	"sync"

	"render-host/contract"
	"render-host/domain"
	"render-host/messaging"
)

const (
	KeyEventChannel     = "engine/keyevent"
	PointerEventChannel = "engine/pointerevent"
)

// ViewMetrics describes the hosting view's geometry. The view uses a
// bottom-left origin in logical points; the engine expects a top-left origin
// in physical pixels.
type ViewMetrics struct {
	Width       float64
	Height      float64
	ScaleFactor float64
}

// keyEventWire is the JSON body sent on the key event channel.
type keyEventWire struct {
	Type       string `json:"type"`
	KeyCode    uint16 `json:"keyCode"`
	Modifiers  uint32 `json:"modifiers"`
	Characters string `json:"characters,omitempty"`
	Keymap     string `json:"keymap"`
}

// pointerEventWire is the JSON body sent on the pointer event channel.
// Coordinates are physical pixels, origin top-left.
type pointerEventWire struct {
	Phase     string  `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Buttons   uint32  `json:"buttons"`
	Modifiers uint32  `json:"modifiers"`
	DeltaX    float64 `json:"deltaX,omitempty"`
	DeltaY    float64 `json:"deltaY,omitempty"`
}

// Forwarder owns the event translation for one view.
type Forwarder struct {
	mu        sync.RWMutex
	log       *slog.Logger
	messenger contract.Messenger
	metrics   ViewMetrics
}

func NewForwarder(log *slog.Logger, messenger contract.Messenger, metrics ViewMetrics) *Forwarder {
	if metrics.ScaleFactor <= 0 {
		metrics.ScaleFactor = 1
	}
	return &Forwarder{log: log, messenger: messenger, metrics: metrics}
}

// SetMetrics updates the view geometry, typically on resize or monitor change.
func (f *Forwarder) SetMetrics(metrics ViewMetrics) {
	if metrics.ScaleFactor <= 0 {
		metrics.ScaleFactor = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = metrics
}

// ForwardKey encodes and sends one keyboard event.
func (f *Forwarder) ForwardKey(e domain.KeyEvent) error {
	wire := keyEventWire{
		Type:       string(e.Phase),
		KeyCode:    e.KeyCode,
		Modifiers:  uint32(e.Modifiers),
		Characters: e.Characters,
		Keymap:     "macos",
	}
	return f.send(KeyEventChannel, wire)
}

// ForwardPointer converts view coordinates and sends one mouse event.
func (f *Forwarder) ForwardPointer(e domain.PointerEvent) error {
	x, y := f.toEngineCoords(e.X, e.Y)
	wire := pointerEventWire{
		Phase:     string(e.Phase),
		X:         x,
		Y:         y,
		Buttons:   uint32(e.Buttons),
		Modifiers: uint32(e.Modifiers),
	}
	return f.send(PointerEventChannel, wire)
}

// ForwardScroll sends one scroll event as a pointer message in the scroll phase.
func (f *Forwarder) ForwardScroll(e domain.ScrollEvent) error {
	f.mu.RLock()
	m := f.metrics
	f.mu.RUnlock()

	x, y := e.X*m.ScaleFactor, (m.Height-e.Y)*m.ScaleFactor
	deltaX, deltaY := e.DeltaX*m.ScaleFactor, e.DeltaY*m.ScaleFactor
	if e.ByPage {
		// Page scrolling is resolved against the view size, not line height
		deltaX = e.DeltaX * m.Width * m.ScaleFactor
		deltaY = e.DeltaY * m.Height * m.ScaleFactor
	}

	wire := pointerEventWire{
		Phase:     string(domain.PointerScroll),
		X:         x,
		Y:         y,
		Modifiers: uint32(e.Modifiers),
		DeltaX:    deltaX,
		DeltaY:    deltaY,
	}
	return f.send(PointerEventChannel, wire)
}

// toEngineCoords flips the vertical axis and applies the device pixel ratio.
func (f *Forwarder) toEngineCoords(x, y float64) (float64, float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return x * f.metrics.ScaleFactor, (f.metrics.Height - y) * f.metrics.ScaleFactor
}

func (f *Forwarder) send(channel string, wire any) error {
	payload, err := messaging.JSONStrict.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode input event: %w", err)
	}
	if err := f.messenger.Send(channel, payload); err != nil {
		f.log.Warn("Failed to forward input event", "channel", channel, "error", err)
		return err
	}
	return nil
}
