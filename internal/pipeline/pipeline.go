// Package pipeline implements the veto decision process: a fixed ordered
// sequence of checks that turns a scanned event into a terminal decision.
// Cheap arithmetic vetoes run first so the expensive research call only
// happens for events that already show a mathematical edge.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/XavierBriggs/sharpedge/internal/scanner"
	"github.com/XavierBriggs/sharpedge/pkg/contracts"
	"github.com/XavierBriggs/sharpedge/pkg/models"
	"github.com/XavierBriggs/sharpedge/pkg/oddsmath"
	"github.com/XavierBriggs/sharpedge/sports"
)

// Pipeline stage names, in execution order. Terminal states are PLAYABLE and
// PASS; a fresh analysis always starts over from NEW.
const (
	StateNew               = "NEW"
	StateStructuralCheck   = "STRUCTURAL_CHECK"
	StateMathScan          = "MATH_SCAN"
	StateConsensusCheck    = "CONSENSUS_CHECK"
	StateExternalJudgement = "EXTERNAL_JUDGEMENT"
	StateReconcile         = "RECONCILE"
	StateSafetyCheck       = "SAFETY_CHECK"
	StateJuiceCheck        = "JUICE_CHECK"
)

// Pipeline runs the veto sequence for one event at a time.
type Pipeline struct {
	oracle contracts.JudgementOracle
	config *sports.Config
}

// New creates a veto pipeline.
func New(oracle contracts.JudgementOracle, config *sports.Config) *Pipeline {
	return &Pipeline{
		oracle: oracle,
		config: config,
	}
}

// Analyze runs the full veto sequence and always returns a terminal decision.
// Every failure mode is a pass with a reason code; nothing propagates as an
// error past this boundary.
func (p *Pipeline) Analyze(ctx context.Context, event models.Event) models.Decision {
	// STRUCTURAL_CHECK: reference quote present, spread within the sport cap
	if event.Sharp == nil {
		return p.pass(event, StateStructuralCheck, models.ReasonDataMissing, "no reference quote available")
	}
	if len(event.Competitors) == 0 {
		return p.pass(event, StateStructuralCheck, models.ReasonDataMissing, "no competing quotes available")
	}

	refSpread := math.Abs(event.Sharp.AwaySpreadLine)
	if cap := p.config.SpreadCap(event.SportKey); refSpread > cap {
		return p.pass(event, StateStructuralCheck, models.ReasonSpreadCap,
			fmt.Sprintf("reference spread %.1f exceeds the %.0f-point cap for %s", refSpread, cap, event.SportKey))
	}

	// MATH_SCAN: find edges versus the reference
	candidates := scanner.Scan(event)
	if len(candidates) == 0 {
		return p.pass(event, StateMathScan, models.ReasonDataMissing, "no usable competing quotes on any outcome")
	}

	valueOutcomes := positiveCandidates(candidates)
	if len(valueOutcomes) == 0 {
		return p.pass(event, StateMathScan, models.ReasonNoValue, "no outcome beats the reference price")
	}

	// CONSENSUS_CHECK: a single-book edge is more likely a stale line
	best := scanner.BestCandidate(candidates)
	if best.SupportingBooks < p.config.MinConsensusBooks {
		return p.pass(event, StateConsensusCheck, models.ReasonMarketMaturity,
			fmt.Sprintf("edge on %s shown by %d book(s), need %d", best.Outcome, best.SupportingBooks, p.config.MinConsensusBooks))
	}

	// EXTERNAL_JUDGEMENT: only now pay for the research call
	judgement, err := p.judge(ctx, event, valueOutcomes)
	if err != nil {
		fmt.Printf("⚠️  oracle error for event %s: %v\n", event.EventID, err)
		return p.pass(event, StateExternalJudgement, models.ReasonAIError, "research call failed or returned unusable output")
	}

	if judgement.Verdict == models.VerdictPass {
		return p.pass(event, StateExternalJudgement, models.ReasonNoEdgeDirection, "research recommends passing: "+judgement.Findings)
	}
	if judgement.FavoredOutcome == models.OutcomeNone {
		return p.pass(event, StateExternalJudgement, models.ReasonNoEdgeDirection, "research found no situational edge direction")
	}

	// RECONCILE: intersect the oracle's side with the computed edges
	pick := scanner.FindOutcome(candidates, judgement.FavoredOutcome)
	if pick == nil || !pick.HasPositiveValue {
		// The oracle's side has no computed edge: price it at the sharp
		// number rather than silently dropping the read (zero-edge pick).
		fallback, ok := p.referencePriced(event, judgement.FavoredOutcome)
		if !ok {
			return p.pass(event, StateReconcile, models.ReasonDataMissing,
				fmt.Sprintf("research favors %s but the reference carries no usable price for it", judgement.FavoredOutcome))
		}
		pick = &fallback
	}

	// SAFETY_CHECK: long moneyline underdogs get swapped for a same-side
	// spread when one carries value
	pick = p.applyUnderdogSafety(event, candidates, pick)

	// JUICE_CHECK: no edge justifies paying worse than the ceiling
	if pick.Price < p.config.JuiceCeiling {
		return p.pass(event, StateJuiceCheck, models.ReasonJuiceVeto,
			fmt.Sprintf("final price %s is worse than the %s ceiling",
				oddsmath.FormatAmerican(pick.Price), oddsmath.FormatAmerican(p.config.JuiceCeiling)))
	}

	return p.assemble(event, judgement, *pick)
}

// judge builds the research prompt and calls the oracle.
func (p *Pipeline) judge(ctx context.Context, event models.Event, valueOutcomes []models.SideCandidate) (models.Judgement, error) {
	judgeCtx, cancel := context.WithTimeout(ctx, 2*p.config.OracleTimeout+p.config.OracleRetryBackoff)
	defer cancel()

	return p.oracle.Judge(judgeCtx, models.JudgementRequest{
		EventID:          event.EventID,
		SportKey:         event.SportKey,
		Matchup:          event.Matchup(),
		CommenceTime:     event.CommenceTime,
		ReferenceSummary: referenceSummary(event),
		ValueOutcomes:    valueOutcomes,
		LineMovementNote: lineMovementNote(event),
	})
}

// referencePriced builds a zero-edge candidate priced at the sharp number,
// used when the oracle favors a side with no computed edge.
func (p *Pipeline) referencePriced(event models.Event, outcome models.Outcome) (models.SideCandidate, bool) {
	line, price, ok := scanner.OutcomeNumbers(*event.Sharp, outcome)
	if !ok {
		return models.SideCandidate{}, false
	}

	return models.SideCandidate{
		Outcome:  outcome,
		RefLine:  line,
		RefPrice: price,
		Line:     line,
		Price:    price,
		BookKey:  event.Sharp.BookKey,
	}, true
}

// applyUnderdogSafety swaps a long moneyline underdog for a positive-value
// spread on the same side. Same directional read, safer exposure. If no safe
// spread exists the moneyline pick stands.
func (p *Pipeline) applyUnderdogSafety(event models.Event, candidates []models.SideCandidate, pick *models.SideCandidate) *models.SideCandidate {
	if !pick.Outcome.IsMoneyline() || pick.Price <= 0 {
		return pick
	}
	if oddsmath.ImpliedProbability(pick.Price) >= p.config.UnderdogProbFloor {
		return pick
	}

	var spreadOutcome models.Outcome
	switch pick.Outcome.TeamSide() {
	case "away":
		spreadOutcome = models.OutcomeAwaySpread
	case "home":
		spreadOutcome = models.OutcomeHomeSpread
	default:
		return pick
	}

	alt := scanner.FindOutcome(candidates, spreadOutcome)
	if alt == nil || !alt.HasPositiveValue {
		return pick
	}

	fmt.Printf("event %s: substituting %s for long moneyline %s\n",
		event.EventID, spreadOutcome, oddsmath.FormatAmerican(pick.Price))
	return alt
}

// assemble builds the terminal decision for a pick that survived every veto.
func (p *Pipeline) assemble(event models.Event, judgement models.Judgement, pick models.SideCandidate) models.Decision {
	verdict := models.VerdictPlayable
	if judgement.Verdict == models.VerdictLean || !pick.HasPositiveValue {
		verdict = models.VerdictLean
	}

	decision := models.Decision{
		EventID:        event.EventID,
		SportKey:       event.SportKey,
		Matchup:        event.Matchup(),
		Verdict:        verdict,
		Pick:           &pick,
		Selection:      selection(event, pick),
		Price:          oddsmath.FormatAmerican(pick.Price),
		WinProbability: p.winProbability(event, pick),
		BookKey:        pick.BookKey,
		Narrative:      judgement.Findings,
		AnalyzedAt:     time.Now().UTC(),
	}

	// Floor: the sharp number at which the edge disappears, so the dashboard
	// can flag line movement after the fact
	if pick.Outcome.IsSpread() || pick.Outcome.IsTotal() {
		floorLine, floorPrice := pick.RefLine, pick.RefPrice
		decision.FloorLine = &floorLine
		decision.FloorPrice = &floorPrice
	}

	fmt.Printf("✓ %s decision for %s: %s %s (%s)\n",
		decision.Verdict, event.EventID, decision.Selection, decision.Price, decision.BookKey)

	return decision
}

// winProbability estimates the pick's win chance: no-vig against the sharp
// price on the opposite side, falling back to raw implied probability.
func (p *Pipeline) winProbability(event models.Event, pick models.SideCandidate) float64 {
	_, oppPrice, ok := scanner.OutcomeNumbers(*event.Sharp, oppositeOutcome(pick.Outcome))
	if !ok {
		return oddsmath.ImpliedProbability(pick.Price)
	}

	prob, _ := oddsmath.NoVigProbabilities(pick.Price, oppPrice)
	return prob
}

func (p *Pipeline) pass(event models.Event, stage string, code models.ReasonCode, reason string) models.Decision {
	fmt.Printf("event %s vetoed at %s: %s (%s)\n", event.EventID, stage, reason, code)

	return models.Decision{
		EventID:    event.EventID,
		SportKey:   event.SportKey,
		Matchup:    event.Matchup(),
		Verdict:    models.VerdictPass,
		ReasonCode: code,
		Reason:     reason,
		AnalyzedAt: time.Now().UTC(),
	}
}

func positiveCandidates(candidates []models.SideCandidate) []models.SideCandidate {
	positive := make([]models.SideCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.HasPositiveValue {
			positive = append(positive, c)
		}
	}
	return positive
}

// selection renders the recommended wager for display.
func selection(event models.Event, pick models.SideCandidate) string {
	switch pick.Outcome {
	case models.OutcomeAwaySpread:
		return fmt.Sprintf("%s %+.1f", event.AwayTeam, pick.Line)
	case models.OutcomeHomeSpread:
		return fmt.Sprintf("%s %+.1f", event.HomeTeam, pick.Line)
	case models.OutcomeAwayMoneyline:
		return event.AwayTeam + " ML"
	case models.OutcomeHomeMoneyline:
		return event.HomeTeam + " ML"
	case models.OutcomeOver:
		return fmt.Sprintf("Over %.1f", pick.Line)
	case models.OutcomeUnder:
		return fmt.Sprintf("Under %.1f", pick.Line)
	}
	return string(pick.Outcome)
}

func oppositeOutcome(outcome models.Outcome) models.Outcome {
	switch outcome {
	case models.OutcomeAwaySpread:
		return models.OutcomeHomeSpread
	case models.OutcomeHomeSpread:
		return models.OutcomeAwaySpread
	case models.OutcomeAwayMoneyline:
		return models.OutcomeHomeMoneyline
	case models.OutcomeHomeMoneyline:
		return models.OutcomeAwayMoneyline
	case models.OutcomeOver:
		return models.OutcomeUnder
	case models.OutcomeUnder:
		return models.OutcomeOver
	}
	return models.OutcomeNone
}

// referenceSummary describes the sharp sheet for the research prompt.
func referenceSummary(event models.Event) string {
	q := event.Sharp
	return fmt.Sprintf("%s reference: %s %+.1f (%s) / %s %+.1f (%s), total %.1f (o%s/u%s), ml %s/%s",
		q.BookKey,
		event.AwayTeam, q.AwaySpreadLine, oddsmath.FormatAmerican(oddsmath.ToAmerican(q.AwaySpreadPrice)),
		event.HomeTeam, q.HomeSpreadLine, oddsmath.FormatAmerican(oddsmath.ToAmerican(q.HomeSpreadPrice)),
		q.TotalLine,
		oddsmath.FormatAmerican(oddsmath.ToAmerican(q.OverPrice)),
		oddsmath.FormatAmerican(oddsmath.ToAmerican(q.UnderPrice)),
		oddsmath.FormatAmerican(oddsmath.ToAmerican(q.AwayMoneyline)),
		oddsmath.FormatAmerican(oddsmath.ToAmerican(q.HomeMoneyline)))
}

// lineMovementNote compares the current sharp spread against the first-seen
// snapshot.
func lineMovementNote(event models.Event) string {
	open := event.LineOpen
	if open == nil {
		return ""
	}

	spreadMove := oddsmath.LineDifference(open.AwaySpreadLine, event.Sharp.AwaySpreadLine)
	totalMove := oddsmath.LineDifference(open.TotalLine, event.Sharp.TotalLine)
	if spreadMove == 0 && totalMove == 0 {
		return "no line movement since open"
	}

	return fmt.Sprintf("away spread opened %+.1f now %+.1f; total opened %.1f now %.1f",
		open.AwaySpreadLine, event.Sharp.AwaySpreadLine, open.TotalLine, event.Sharp.TotalLine)
}
