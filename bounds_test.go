package strata

import "testing"

func TestBoundsOfStroke(t *testing.T) {
	pts := []Point{Pt(10, 10), Pt(20, 10), Pt(30, 10)}
	got := BoundsOf(pts, 5)
	want := Bounds{MinX: 5, MinY: 5, MaxX: 35, MaxY: 15, Width: 30, Height: 10}
	if got != want {
		t.Errorf("BoundsOf = %+v, want %+v", got, want)
	}

	moved := got.Translate(5, 5)
	if moved.MinX != 10 || moved.MinY != 10 || moved.MaxX != 40 || moved.MaxY != 20 {
		t.Errorf("Translate = %+v", moved)
	}
	if !moved.Consistent() || moved.Width != 30 || moved.Height != 10 {
		t.Errorf("translated bounds inconsistent: %+v", moved)
	}
}

func TestBoundsRecomputeSwaps(t *testing.T) {
	b := Bounds{MinX: 10, MaxX: 2, MinY: 1, MaxY: 3}.Recompute()
	if b.MinX != 2 || b.MaxX != 10 || b.Width != 8 || b.Height != 2 {
		t.Errorf("Recompute = %+v", b)
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{MinX: 4, MaxX: 4, MinY: 0, MaxY: 10}.Clamp(MinExtent)
	if b.Width != 1 || b.MinX != 3.5 || b.MaxX != 4.5 {
		t.Errorf("Clamp width = %+v", b)
	}
	if b.Height != 10 {
		t.Errorf("Clamp touched a valid height: %+v", b)
	}
}

func TestBoundsContains(t *testing.T) {
	b := BoundsAround(Pt(0, 0), 2)
	tests := []struct {
		p    Point
		want bool
	}{
		{Pt(0, 0), true},
		{Pt(2, 2), true},
		{Pt(2.1, 0), false},
		{Pt(0, -3), false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if c := b.Center(); c != Pt(0, 0) {
		t.Errorf("Center = %v", c)
	}
}

func TestBoundsOfEmpty(t *testing.T) {
	if b := BoundsOf(nil, 3); !b.IsEmpty() {
		t.Errorf("BoundsOf(nil) = %+v, want empty", b)
	}
}
