package model

import "testing"

func TestLoad_RatePerMile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		price    int64
		distance int64
		want     float64
	}{
		{"even split", 2400, 800, 3.0},
		{"rounds to cents", 1000, 301, 3.32},
		{"zero distance", 1500, 0, 0},
		{"negative distance", 1500, -10, 0},
		{"short haul", 950, 120, 7.92},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := &Load{Price: tt.price, Distance: tt.distance}
			if got := l.RatePerMile(); got != tt.want {
				t.Errorf("RatePerMile() = %v, want %v", got, tt.want)
			}
		})
	}
}
