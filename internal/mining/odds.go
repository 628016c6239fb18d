package mining

import (
	"math"
	"time"
)

// Odds horizons reported on /metrics.
const (
	HorizonDay   = 24 * time.Hour
	HorizonWeek  = 7 * HorizonDay
	HorizonMonth = 30 * HorizonDay
	HorizonYear  = 365 * HorizonDay
)

// hashesPerDifficulty is the expected number of hashes per unit of
// difficulty.
const hashesPerDifficulty = 1 << 32

// BlockOdds returns the percent chance of finding at least one block at
// hashrate hs (H/s) over d, given network difficulty diff. Block finds are
// modeled as a Poisson process.
func BlockOdds(hs float64, d time.Duration, diff float64) float64 {
	if hs <= 0 || diff <= 0 {
		return 0
	}
	lambda := hs * d.Seconds() / (diff * hashesPerDifficulty)
	return -math.Expm1(-lambda) * 100
}

// Odds holds the block-find percentages for each reporting horizon.
type Odds struct {
	Year  float64
	Day   float64
	Week  float64
	Month float64
}

// HorizonOdds computes Odds from a user's hashrate strings. The yearly
// figure uses the 1 minute rate, the daily figure the 1 day rate and the
// weekly and monthly figures the 7 day rate. Results are rounded to six
// decimals.
func HorizonOdds(rate1m, rate1d, rate7d string, diff float64) Odds {
	h1m := ParseHashrate(rate1m)
	h1d := ParseHashrate(rate1d)
	h7d := ParseHashrate(rate7d)
	return Odds{
		Year:  Round(BlockOdds(h1m, HorizonYear, diff), 6),
		Day:   Round(BlockOdds(h1d, HorizonDay, diff), 6),
		Week:  Round(BlockOdds(h7d, HorizonWeek, diff), 6),
		Month: Round(BlockOdds(h7d, HorizonMonth, diff), 6),
	}
}
