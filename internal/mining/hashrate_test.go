package mining

import (
	"math"
	"testing"
)

func TestParseHashrate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.5G", 1.5e9},
		{"1.5g", 1.5e9},
		{"12.3 TH/s", 12.3e12},
		{"1,200K", 1.2e6},
		{"  7P ", 7e15},
		{"950", 950},
		{"3.2M extra", 3.2e6},
		{"garbage", 0},
		{"", 0},
		{"1.2.3T", 0},
		{"G1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseHashrate(tt.input)
			if math.Abs(got-tt.want) > 1e-6*math.Max(1, tt.want) {
				t.Errorf("ParseHashrate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashesToTH(t *testing.T) {
	if got := HashesToTH(1_234_567_890_123); got != 1.235 {
		t.Errorf("HashesToTH = %v, want 1.235", got)
	}
	if got := HashesToTH(0); got != 0 {
		t.Errorf("HashesToTH(0) = %v", got)
	}
}
