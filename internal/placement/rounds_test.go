package placement

import "testing"

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name      string
		active    []int
		requested int
		wantOrder int
		wantShift bool
	}{
		{name: "first round", active: nil, requested: 0, wantOrder: 1},
		{name: "append when unspecified", active: []int{1, 2, 3}, requested: 0, wantOrder: 4},
		{name: "occupied slot shifts", active: []int{1, 2, 3}, requested: 2, wantOrder: 2, wantShift: true},
		{name: "head insert shifts", active: []int{1, 2}, requested: 1, wantOrder: 1, wantShift: true},
		{name: "next free slot", active: []int{1, 2, 3}, requested: 4, wantOrder: 4},
		{name: "beyond end clamps to append", active: []int{1, 2, 3}, requested: 9, wantOrder: 4},
		{name: "gap slot needs no shift", active: []int{1, 3}, requested: 2, wantOrder: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, shift := placeOrder(tt.active, tt.requested)
			if order != tt.wantOrder || shift != tt.wantShift {
				t.Fatalf("placeOrder(%v, %d) = (%d, %v), want (%d, %v)",
					tt.active, tt.requested, order, shift, tt.wantOrder, tt.wantShift)
			}
		})
	}
}

func TestClampOrder(t *testing.T) {
	tests := []struct {
		requested, max, want int
	}{
		{0, 5, 1},
		{-3, 5, 1},
		{3, 5, 3},
		{5, 5, 5},
		{9, 5, 5},
	}
	for _, tt := range tests {
		if got := clampOrder(tt.requested, tt.max); got != tt.want {
			t.Fatalf("clampOrder(%d, %d) = %d, want %d", tt.requested, tt.max, got, tt.want)
		}
	}
}
