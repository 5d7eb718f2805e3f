package certedit

import "math"

// Bounds is the container's rendered bounding box in client (viewport) pixels.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) degenerate() bool {
	for _, v := range []float64{b.Left, b.Top, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return b.Width <= 0 || b.Height <= 0
}

// ToPercent maps client coordinates into the container's percentage space.
// A container that is not laid out yet maps everything to the midpoint.
func ToPercent(clientX, clientY float64, b Bounds) Position {
	if b.degenerate() {
		return Position{Top: 50, Left: 50}
	}

	return Position{
		Top:  (clientY - b.Top) / b.Height * 100,
		Left: (clientX - b.Left) / b.Width * 100,
	}.Clamp()
}

// ToClient is the inverse of ToPercent, used to place drag handles.
func ToClient(p Position, b Bounds) (x, y float64) {
	if b.degenerate() {
		return b.Left, b.Top
	}
	return b.Left + p.Left/100*b.Width, b.Top + p.Top/100*b.Height
}

type PointerKind string

const (
	PointerDown  PointerKind = "pointerdown"
	PointerMove  PointerKind = "pointermove"
	PointerUp    PointerKind = "pointerup"
	PointerLeave PointerKind = "pointerleave"
	TouchStart   PointerKind = "touchstart"
	TouchMove    PointerKind = "touchmove"
	TouchEnd     PointerKind = "touchend"
)

func (k PointerKind) IsTouch() bool {
	return k == TouchStart || k == TouchMove || k == TouchEnd
}

type Touch struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// PointerEvent is a pointer or touch event as delivered by the client, together
// with the container bounds measured when it fired.
type PointerEvent struct {
	Kind    PointerKind `json:"kind"`
	Field   FieldKey    `json:"field,omitempty"`
	ClientX float64     `json:"clientX"`
	ClientY float64     `json:"clientY"`
	Touches []Touch     `json:"touches,omitempty"`
	Bounds  Bounds      `json:"bounds"`
}

// MapEvent converts an event to a position. ok is false for touch events that
// carry no touches, which means no movement this tick.
func MapEvent(e PointerEvent) (p Position, ok bool) {
	x, y := e.ClientX, e.ClientY
	if e.Kind.IsTouch() {
		if len(e.Touches) == 0 {
			return Position{}, false
		}
		x, y = e.Touches[0].ClientX, e.Touches[0].ClientY
	}
	return ToPercent(x, y, e.Bounds), true
}
