package scanner_test

import (
	"math"
	"testing"
	"time"

	"github.com/XavierBriggs/sharpedge/internal/scanner"
	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// sharpQuote builds a standard reference sheet: AWAY -4.0 (-105) /
// HOME +4.0 (-115), total 215.5 at -110 both ways, moneylines -180/+160.
func sharpQuote() *models.Quote {
	return &models.Quote{
		BookKey:         "pinnacle",
		AwaySpreadLine:  -4.0,
		AwaySpreadPrice: -105,
		HomeSpreadLine:  4.0,
		HomeSpreadPrice: -115,
		TotalLine:       215.5,
		OverPrice:       -110,
		UnderPrice:      -110,
		AwayMoneyline:   -180,
		HomeMoneyline:   160,
		FetchedAt:       time.Now(),
	}
}

func testEvent(competitors ...models.Quote) models.Event {
	return models.Event{
		EventID:      "evt-1",
		SportKey:     "basketball_nba",
		HomeTeam:     "Denver Nuggets",
		AwayTeam:     "Dallas Mavericks",
		CommenceTime: time.Now().Add(4 * time.Hour),
		Sharp:        sharpQuote(),
		Competitors:  competitors,
	}
}

func TestScanFindsBetterAwaySpread(t *testing.T) {
	// One competing book lays a point less on the away side
	soft := models.Quote{
		BookKey:         "draftkings",
		AwaySpreadLine:  -3.0,
		AwaySpreadPrice: -110,
		HomeSpreadLine:  3.0,
		HomeSpreadPrice: -110,
	}

	candidates := scanner.Scan(testEvent(soft))

	away := scanner.FindOutcome(candidates, models.OutcomeAwaySpread)
	if away == nil {
		t.Fatal("expected an away spread candidate")
	}

	if away.LineDiff != 1.0 {
		t.Errorf("LineDiff = %v, want 1.0", away.LineDiff)
	}
	if !away.HasPositiveValue {
		t.Error("expected positive value on the away spread")
	}
	if away.BookKey != "draftkings" {
		t.Errorf("BookKey = %q, want draftkings", away.BookKey)
	}
	if away.SupportingBooks != 1 {
		t.Errorf("SupportingBooks = %d, want 1", away.SupportingBooks)
	}
}

func TestScanRanksSpreadPointsOverCents(t *testing.T) {
	// caesars has the better line, fanduel only the better price; points win
	betterLine := models.Quote{
		BookKey:         "caesars",
		AwaySpreadLine:  -3.0,
		AwaySpreadPrice: -105,
	}
	betterPrice := models.Quote{
		BookKey:         "fanduel",
		AwaySpreadLine:  -4.0,
		AwaySpreadPrice: 100,
	}

	candidates := scanner.Scan(testEvent(betterLine, betterPrice))

	away := scanner.FindOutcome(candidates, models.OutcomeAwaySpread)
	if away == nil {
		t.Fatal("expected an away spread candidate")
	}
	if away.BookKey != "caesars" {
		t.Errorf("best book = %q, want caesars (points dominate cents)", away.BookKey)
	}
	if away.SupportingBooks != 2 {
		t.Errorf("SupportingBooks = %d, want 2", away.SupportingBooks)
	}
}

func TestScanMoneylineRanksOnCents(t *testing.T) {
	a := models.Quote{BookKey: "betmgm", AwayMoneyline: -175}
	b := models.Quote{BookKey: "fanduel", AwayMoneyline: -165}

	candidates := scanner.Scan(testEvent(a, b))

	ml := scanner.FindOutcome(candidates, models.OutcomeAwayMoneyline)
	if ml == nil {
		t.Fatal("expected an away moneyline candidate")
	}
	if ml.BookKey != "fanduel" {
		t.Errorf("best book = %q, want fanduel", ml.BookKey)
	}
	if !ml.HasPositiveValue {
		t.Error("expected positive value: -165 beats the -180 reference")
	}
	if ml.CentsDiff != 15 {
		t.Errorf("CentsDiff = %v, want 15", ml.CentsDiff)
	}
}

func TestScanSkipsOutlierQuotes(t *testing.T) {
	// A -9000 price is an entry error, not a real quote
	outlier := models.Quote{BookKey: "fliff", AwayMoneyline: -9000}

	candidates := scanner.Scan(testEvent(outlier))

	if ml := scanner.FindOutcome(candidates, models.OutcomeAwayMoneyline); ml != nil {
		t.Errorf("expected outlier to be excluded entirely, got candidate from %q", ml.BookKey)
	}
}

func TestScanDropsGhostEdges(t *testing.T) {
	// +100 vs a -180 reference is an 80-cent gap: stale quote, not an edge
	stale := models.Quote{BookKey: "pointsbet", AwayMoneyline: 100}
	real := models.Quote{BookKey: "fanduel", AwayMoneyline: -170}

	candidates := scanner.Scan(testEvent(stale, real))

	ml := scanner.FindOutcome(candidates, models.OutcomeAwayMoneyline)
	if ml == nil {
		t.Fatal("expected the real quote to survive")
	}
	if ml.BookKey != "fanduel" {
		t.Errorf("best book = %q, want fanduel", ml.BookKey)
	}
}

func TestScanNeverReturnsGhostEdgeCents(t *testing.T) {
	quotes := []models.Quote{
		{BookKey: "a", AwayMoneyline: 120, HomeMoneyline: -300, AwaySpreadLine: -4, AwaySpreadPrice: 145, TotalLine: 215.5, OverPrice: -115, UnderPrice: -104},
		{BookKey: "b", AwayMoneyline: -172, HomeMoneyline: 150, HomeSpreadLine: 4.5, HomeSpreadPrice: -108},
	}

	for _, c := range scanner.Scan(testEvent(quotes...)) {
		if math.Abs(c.CentsDiff) > 50 {
			t.Errorf("candidate %s carries |cents| = %v > 50", c.Outcome, math.Abs(c.CentsDiff))
		}
	}
}

func TestScanOmitsOutcomesWithNoQuotes(t *testing.T) {
	// Book only carries moneylines; spread/total outcomes must be omitted
	mlOnly := models.Quote{BookKey: "novig", AwayMoneyline: -170, HomeMoneyline: 155}

	candidates := scanner.Scan(testEvent(mlOnly))

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (moneylines only)", len(candidates))
	}
	for _, c := range candidates {
		if !c.Outcome.IsMoneyline() {
			t.Errorf("unexpected candidate for %s", c.Outcome)
		}
	}
}

func TestScanNormalizesDecimalPricing(t *testing.T) {
	// Some books quote decimal; 1.95 on the away spread is -105 American
	decimalBook := models.Quote{
		BookKey:         "bet365",
		AwaySpreadLine:  -4.0,
		AwaySpreadPrice: 1.95,
	}

	candidates := scanner.Scan(testEvent(decimalBook))

	away := scanner.FindOutcome(candidates, models.OutcomeAwaySpread)
	if away == nil {
		t.Fatal("expected an away spread candidate")
	}
	// -105 reference vs -105 competing: no edge either way
	if away.CentsDiff != 0 {
		t.Errorf("CentsDiff = %v, want 0", away.CentsDiff)
	}
	if away.HasPositiveValue {
		t.Error("tied line and price must not count as positive value")
	}
}

func TestScanWithoutSharpQuote(t *testing.T) {
	event := testEvent(models.Quote{BookKey: "fanduel", AwayMoneyline: -170})
	event.Sharp = nil

	if candidates := scanner.Scan(event); candidates != nil {
		t.Errorf("expected nil candidates without a reference quote, got %d", len(candidates))
	}
}

func TestBestCandidatePrefersHighestScore(t *testing.T) {
	soft := models.Quote{
		BookKey:         "draftkings",
		AwaySpreadLine:  -3.0,
		AwaySpreadPrice: -110,
		AwayMoneyline:   -178,
	}

	candidates := scanner.Scan(testEvent(soft))

	best := scanner.BestCandidate(candidates)
	if best == nil {
		t.Fatal("expected a best candidate")
	}
	// A full point of spread value outscores the 2-cent moneyline
	if best.Outcome != models.OutcomeAwaySpread {
		t.Errorf("best outcome = %s, want away_spread", best.Outcome)
	}
}
