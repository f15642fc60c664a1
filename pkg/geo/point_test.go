package geo

import "testing"

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want int
	}{
		{"same point", Point{3, 4}, Point{3, 4}, 0},
		{"horizontal", Point{0, 0}, Point{7, 0}, 7},
		{"vertical", Point{0, 0}, Point{0, 9}, 9},
		{"diagonal", Point{1, 2}, Point{4, 6}, 7},
		{"negative coordinates", Point{-3, -4}, Point{3, 4}, 14},
		{"order independent", Point{10, 20}, Point{2, 5}, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Distance(tt.b, tt.a); got != tt.want {
				t.Errorf("Distance(%v, %v) = %d, want %d", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestEquals(t *testing.T) {
	if !(Point{1, 2}).Equals(Point{1, 2}) {
		t.Error("Expected (1,2) to equal (1,2)")
	}
	if (Point{1, 2}).Equals(Point{2, 1}) {
		t.Error("Expected (1,2) to differ from (2,1)")
	}
}

func TestOnSegment(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    bool
	}{
		{"midpoint of horizontal segment", Point{5, 0}, Point{0, 0}, Point{10, 0}, true},
		{"endpoint counts", Point{10, 0}, Point{0, 0}, Point{10, 0}, true},
		{"off horizontal segment", Point{5, 1}, Point{0, 0}, Point{10, 0}, false},
		{"beyond horizontal segment", Point{11, 0}, Point{0, 0}, Point{10, 0}, false},
		{"midpoint of vertical segment", Point{3, 4}, Point{3, 0}, Point{3, 8}, true},
		{"reversed endpoints", Point{3, 4}, Point{3, 8}, Point{3, 0}, true},
		{"diagonal segment never contains", Point{5, 5}, Point{0, 0}, Point{10, 10}, false},
		{"degenerate segment is its point", Point{2, 2}, Point{2, 2}, Point{2, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnSegment(tt.p, tt.a, tt.b); got != tt.want {
				t.Errorf("OnSegment(%v, %v, %v) = %v, want %v", tt.p, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPointString(t *testing.T) {
	if got := (Point{-1, 7}).String(); got != "(-1,7)" {
		t.Errorf("Expected (-1,7), got %s", got)
	}
}
