package domain

// KeyPhase distinguishes press and release events.
type KeyPhase string

const (
	KeyDown KeyPhase = "keydown"
	KeyUp   KeyPhase = "keyup"
)

// Modifiers is a bitmask of modifier keys held during an input event.
type Modifiers uint32

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta
	ModCapsLock
)

// KeyEvent is a host keyboard event before wire encoding.
type KeyEvent struct {
	Phase      KeyPhase
	KeyCode    uint16
	Modifiers  Modifiers
	Characters string
}

// PointerPhase follows the engine's pointer lifecycle vocabulary.
type PointerPhase string

const (
	PointerDown   PointerPhase = "down"
	PointerMove   PointerPhase = "move"
	PointerUp     PointerPhase = "up"
	PointerScroll PointerPhase = "scroll"
)

// PointerButtons is a bitmask of pressed mouse buttons.
type PointerButtons uint32

const (
	ButtonPrimary PointerButtons = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

// PointerEvent is a host mouse event in view coordinates.
// The view origin is bottom-left (AppKit convention); the input forwarder
// flips and scales coordinates before they reach the engine.
type PointerEvent struct {
	Phase     PointerPhase
	X, Y      float64
	Buttons   PointerButtons
	Modifiers Modifiers
}

// ScrollEvent is a host scroll-wheel event in view coordinates.
type ScrollEvent struct {
	X, Y           float64
	DeltaX, DeltaY float64
	Modifiers      Modifiers
	ByPage         bool
}
