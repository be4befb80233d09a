// Package scanner implements the cross-book market scan: for one event it
// finds the best available number on each standard outcome among the
// competing quotes, measured against the sharp reference quote.
package scanner

import (
	"math"

	"github.com/XavierBriggs/sharpedge/pkg/models"
	"github.com/XavierBriggs/sharpedge/pkg/oddsmath"
)

const (
	// maxOutlierOdds excludes quotes that are data-entry errors rather than
	// prices anyone could bet.
	maxOutlierOdds = 2000

	// maxGhostEdgeCents drops comparisons too good to be true. Real edges
	// are single-digit to low-double-digit cents; a 50+ cent gap is a stale
	// quote, not an opportunity.
	maxGhostEdgeCents = 50
)

// Scan compares every competing quote against the reference and returns the
// best candidate per outcome. Outcomes with no usable competing quote are
// omitted. Pure function of the event's quote data.
func Scan(event models.Event) []models.SideCandidate {
	if event.Sharp == nil {
		return nil
	}

	candidates := make([]models.SideCandidate, 0, len(models.AllOutcomes))

	for _, outcome := range models.AllOutcomes {
		if candidate, ok := scanOutcome(event, outcome); ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates
}

// BestCandidate returns the highest-scoring positive-value candidate, or nil
// if none exists.
func BestCandidate(candidates []models.SideCandidate) *models.SideCandidate {
	var best *models.SideCandidate

	for i := range candidates {
		c := &candidates[i]
		if !c.HasPositiveValue {
			continue
		}
		if best == nil || c.Score() > best.Score() {
			best = c
		}
	}

	return best
}

// FindOutcome returns the candidate for a specific outcome, or nil.
func FindOutcome(candidates []models.SideCandidate, outcome models.Outcome) *models.SideCandidate {
	for i := range candidates {
		if candidates[i].Outcome == outcome {
			return &candidates[i]
		}
	}
	return nil
}

// scanOutcome finds the best competing number for one outcome.
func scanOutcome(event models.Event, outcome models.Outcome) (models.SideCandidate, bool) {
	refLine, refPrice, ok := OutcomeNumbers(*event.Sharp, outcome)
	if !ok {
		return models.SideCandidate{}, false
	}

	var (
		best       models.SideCandidate
		found      bool
		supporting = make(map[string]bool)
	)

	for _, quote := range event.Competitors {
		line, price, ok := OutcomeNumbers(quote, outcome)
		if !ok {
			continue
		}

		lineDiff := oddsmath.LineDifference(refLine, line)
		centsDiff := oddsmath.JuiceDifferenceCents(refPrice, price)

		// Ghost-edge filter: a gap this wide is a stale or bad quote
		if math.Abs(centsDiff) > maxGhostEdgeCents {
			continue
		}

		positive := hasPositiveValue(outcome, lineDiff, centsDiff)
		if positive {
			supporting[quote.BookKey] = true
		}

		candidate := models.SideCandidate{
			Outcome:          outcome,
			RefLine:          refLine,
			RefPrice:         refPrice,
			Line:             line,
			Price:            price,
			BookKey:          quote.BookKey,
			LineDiff:         lineDiff,
			CentsDiff:        centsDiff,
			HasPositiveValue: positive,
		}

		if !found || candidate.Score() > best.Score() {
			best = candidate
			found = true
		}
	}

	if !found {
		return models.SideCandidate{}, false
	}

	best.SupportingBooks = len(supporting)
	return best, true
}

// hasPositiveValue applies the value rule: spreads win on points first and
// break ties on cents; moneylines and totals win on cents alone.
func hasPositiveValue(outcome models.Outcome, lineDiff, centsDiff float64) bool {
	if outcome.IsSpread() {
		return lineDiff > 0 || (lineDiff == 0 && centsDiff > 0)
	}
	return centsDiff > 0
}

// OutcomeNumbers extracts a quote's normalized line and American price for
// one outcome. Returns false when the book does not carry a usable number:
// missing/zero prices and outlier prices are both unusable.
func OutcomeNumbers(quote models.Quote, outcome models.Outcome) (line, price float64, ok bool) {
	var rawPrice float64

	switch outcome {
	case models.OutcomeAwaySpread:
		line, rawPrice = quote.AwaySpreadLine, quote.AwaySpreadPrice
	case models.OutcomeHomeSpread:
		line, rawPrice = quote.HomeSpreadLine, quote.HomeSpreadPrice
	case models.OutcomeAwayMoneyline:
		rawPrice = quote.AwayMoneyline
	case models.OutcomeHomeMoneyline:
		rawPrice = quote.HomeMoneyline
	case models.OutcomeOver:
		line, rawPrice = quote.TotalLine, quote.OverPrice
	case models.OutcomeUnder:
		line, rawPrice = quote.TotalLine, quote.UnderPrice
	default:
		return 0, 0, false
	}

	price = oddsmath.ToAmerican(rawPrice)
	if price == 0 || math.IsNaN(line) {
		return 0, 0, false
	}

	if math.Abs(price) > maxOutlierOdds {
		return 0, 0, false
	}

	return line, price, true
}
