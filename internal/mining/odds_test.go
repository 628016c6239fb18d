package mining

import (
	"math"
	"testing"
	"time"
)

func TestBlockOdds_Zero(t *testing.T) {
	tests := []struct {
		name string
		hs   float64
		diff float64
	}{
		{"zero hashrate", 0, 1e12},
		{"negative hashrate", -5, 1e12},
		{"zero difficulty", 1e15, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlockOdds(tt.hs, HorizonYear, tt.diff); got != 0 {
				t.Errorf("BlockOdds = %v, want 0", got)
			}
		})
	}
}

func TestBlockOdds_KnownValue(t *testing.T) {
	// lambda = 2^32 * 1s / (1 * 2^32) = 1
	got := BlockOdds(1<<32, time.Second, 1)
	want := (1 - math.Exp(-1)) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("BlockOdds = %v, want %v", got, want)
	}
}

func TestBlockOdds_Monotonic(t *testing.T) {
	const diff = 1e14
	prev := 0.0
	for _, hs := range []float64{1e9, 1e12, 1e14, 1e16, 1e18, 1e20} {
		got := BlockOdds(hs, HorizonYear, diff)
		if got < prev {
			t.Fatalf("BlockOdds(%g) = %v < previous %v", hs, got, prev)
		}
		if got > 100 {
			t.Fatalf("BlockOdds(%g) = %v exceeds 100", hs, got)
		}
		prev = got
	}
}

func TestHorizonOdds(t *testing.T) {
	const diff = 1e14
	odds := HorizonOdds("100T", "50T", "10T", diff)

	if want := Round(BlockOdds(100e12, HorizonYear, diff), 6); odds.Year != want {
		t.Errorf("Year = %v, want %v", odds.Year, want)
	}
	if want := Round(BlockOdds(50e12, HorizonDay, diff), 6); odds.Day != want {
		t.Errorf("Day = %v, want %v", odds.Day, want)
	}
	if odds.Month <= odds.Week {
		t.Errorf("Month %v should exceed Week %v", odds.Month, odds.Week)
	}

	if z := HorizonOdds("0", "0", "0", diff); z != (Odds{}) {
		t.Errorf("zero rates = %+v", z)
	}
}
