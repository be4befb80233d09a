// Package oddsmath holds the pure odds-format and probability arithmetic used
// by the scanner and the veto pipeline. Nothing here has side effects, and
// malformed input always degrades to a neutral value instead of panicking so
// one corrupted quote cannot take down a whole-slate scan.
package oddsmath

import (
	"fmt"
	"math"
)

// sanityCeiling is the raw implied probability above which a two-way market
// is treated as corrupted rather than merely heavily juiced.
const sanityCeiling = 90.0

// ToAmerican normalizes a price that may be quoted in American or decimal
// format to American odds. A value v with 1.0 < |v| < 50 is treated as
// decimal: v >= 2.0 converts to (v-1)*100, otherwise to -100/(v-1). Anything
// else passes through as already-American. NaN/Inf input yields 0.
func ToAmerican(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	abs := math.Abs(v)
	if abs > 1.0 && abs < 50.0 {
		if v >= 2.0 {
			return math.Round((v - 1.0) * 100.0)
		}
		return math.Round(-100.0 / (v - 1.0))
	}

	return v
}

// ImpliedProbability converts American odds to a win probability percentage.
// Invalid or zero odds yield the coin-flip default of 50.0.
func ImpliedProbability(odds float64) float64 {
	if math.IsNaN(odds) || math.IsInf(odds, 0) || odds == 0 {
		return 50.0
	}

	if odds < 0 {
		abs := -odds
		return abs / (abs + 100.0) * 100.0
	}

	return 100.0 / (odds + 100.0) * 100.0
}

// NoVigProbabilities removes the bookmaker margin from a two-way market,
// rescaling both implied probabilities so they sum to 100. If both raw
// probabilities exceed the sanity ceiling the inputs are treated as corrupted
// and the coin-flip default is returned. Results are rounded to one decimal.
func NoVigProbabilities(oddsA, oddsB float64) (float64, float64) {
	probA := ImpliedProbability(oddsA)
	probB := ImpliedProbability(oddsB)

	if probA > sanityCeiling && probB > sanityCeiling {
		return 50.0, 50.0
	}

	total := probA + probB
	if total == 0 {
		return 50.0, 50.0
	}

	fairA := round1(probA / total * 100.0)
	fairB := round1(probB / total * 100.0)

	return fairA, fairB
}

// JuiceDifferenceCents compares two prices in cents of American juice.
// Both prices are linearized around even money (values >= 100 shifted down by
// 100, values < 100 shifted up by 100) and the difference competing-reference
// is returned, rounded to the nearest whole cent. Positive means the
// competing price is cheaper for the bettor.
func JuiceDifferenceCents(referenceOdds, competingOdds float64) float64 {
	ref := linearize(ToAmerican(referenceOdds))
	comp := linearize(ToAmerican(competingOdds))
	return math.Round(comp - ref)
}

// LineDifference returns competing minus reference, rounded to one decimal.
// Positive means the competing number is more favorable to the side being
// priced; the caller knows which side that is.
func LineDifference(referenceLine, competingLine float64) float64 {
	if math.IsNaN(referenceLine) || math.IsNaN(competingLine) {
		return 0
	}
	return round1(competingLine - referenceLine)
}

// FormatAmerican renders American odds with an explicit sign, e.g. "+150" or
// "-110".
func FormatAmerican(odds float64) string {
	rounded := int(math.Round(odds))
	if rounded > 0 {
		return fmt.Sprintf("+%d", rounded)
	}
	return fmt.Sprintf("%d", rounded)
}

// linearize maps American odds onto a single cents scale centered at even
// money so prices on opposite sides of +/-100 compare directly.
func linearize(odds float64) float64 {
	if math.IsNaN(odds) || math.IsInf(odds, 0) {
		return 0
	}
	if odds >= 100 {
		return odds - 100
	}
	return odds + 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
