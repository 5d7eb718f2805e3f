package certedit

import (
	"math"
	"testing"
)

func TestToPercentClamp(t *testing.T) {
	bounds := Bounds{Left: 100, Top: 50, Width: 800, Height: 600}
	coords := []float64{-1e9, -5000, -1, 0, 49, 50, 100, 140, 500, 899, 900, 901, 5000, 1e9, math.Inf(1), math.Inf(-1)}

	for _, x := range coords {
		for _, y := range coords {
			p := ToPercent(x, y, bounds)
			if p.Top < MinPercent || p.Top > MaxPercent || p.Left < MinPercent || p.Left > MaxPercent {
				t.Fatalf("ToPercent(%v, %v) = %+v, out of [%v, %v]", x, y, p, MinPercent, MaxPercent)
			}
		}
	}
}

func TestToPercentMapping(t *testing.T) {
	bounds := Bounds{Left: 100, Top: 50, Width: 800, Height: 600}

	tests := []struct {
		name     string
		x, y     float64
		expected Position
	}{
		{"center", 500, 350, Position{Top: 50, Left: 50}},
		{"quarter", 300, 200, Position{Top: 25, Left: 25}},
		{"top left corner clamps", 100, 50, Position{Top: 5, Left: 5}},
		{"outside bottom right clamps", 2000, 2000, Position{Top: 95, Left: 95}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPercent(tt.x, tt.y, bounds)
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestToPercentDegenerateContainer(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
	}{
		{"zero width", Bounds{Left: 10, Top: 10, Width: 0, Height: 300}},
		{"zero height", Bounds{Left: 10, Top: 10, Width: 300, Height: 0}},
		{"zero area", Bounds{}},
		{"negative width", Bounds{Width: -5, Height: 100}},
		{"NaN height", Bounds{Width: 100, Height: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPercent(123, 456, tt.bounds)
			if got != (Position{Top: 50, Left: 50}) {
				t.Errorf("expected midpoint, got %+v", got)
			}
			if math.IsNaN(got.Top) || math.IsNaN(got.Left) {
				t.Errorf("got NaN position %+v", got)
			}
		})
	}
}

func TestToClientInverse(t *testing.T) {
	bounds := Bounds{Left: 20, Top: 40, Width: 400, Height: 200}
	p := Position{Top: 30, Left: 60}

	x, y := ToClient(p, bounds)
	if math.Abs(x-260) > 1e-9 || math.Abs(y-100) > 1e-9 {
		t.Fatalf("expected (260, 100), got (%v, %v)", x, y)
	}

	back := ToPercent(x, y, bounds)
	if math.Abs(back.Top-p.Top) > 1e-9 || math.Abs(back.Left-p.Left) > 1e-9 {
		t.Errorf("round trip: expected %+v, got %+v", p, back)
	}
}

func TestMapEvent(t *testing.T) {
	bounds := Bounds{Width: 200, Height: 100}

	if _, ok := MapEvent(PointerEvent{Kind: TouchEnd, Bounds: bounds}); ok {
		t.Error("touch event without touches should not map")
	}

	p, ok := MapEvent(PointerEvent{Kind: TouchMove, Touches: []Touch{{ClientX: 100, ClientY: 50}}, Bounds: bounds})
	if !ok || p != (Position{Top: 50, Left: 50}) {
		t.Errorf("expected midpoint from touch, got %+v ok=%v", p, ok)
	}

	p, ok = MapEvent(PointerEvent{Kind: PointerMove, ClientX: 50, ClientY: 25, Bounds: bounds})
	if !ok || p != (Position{Top: 25, Left: 25}) {
		t.Errorf("expected (25, 25) from pointer, got %+v ok=%v", p, ok)
	}
}
