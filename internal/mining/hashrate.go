// Package mining converts ckpool hashrate strings and estimates the chance
// of solo-finding a block.
package mining

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hashrateRE = regexp.MustCompile(`^([0-9.]+)\s*([KMGTP]?)(?:H/S)?`)

var siMultiplier = map[string]float64{
	"":  1,
	"K": 1e3,
	"M": 1e6,
	"G": 1e9,
	"T": 1e12,
	"P": 1e15,
}

// ParseHashrate converts a ckpool rate such as "1.5G", "12.3 TH/s" or
// "1,200k" into hashes per second. Anything unparseable is 0.
func ParseHashrate(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	m := hashrateRE.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return n * siMultiplier[m[2]]
}

// HashesToTH converts H/s to TH/s rounded to three decimals.
func HashesToTH(hs float64) float64 {
	return Round(hs/1e12, 3)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
