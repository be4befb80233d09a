package models

import "time"

// Quote is one bookmaker's full price sheet for one event.
// Prices are stored exactly as the vendor sent them (American or decimal,
// inconsistently per book) and normalized by oddsmath at comparison time.
// A zero price means the book does not offer that outcome.
type Quote struct {
	BookKey string `json:"book_key"`

	AwaySpreadLine  float64 `json:"away_spread_line"`
	AwaySpreadPrice float64 `json:"away_spread_price"`
	HomeSpreadLine  float64 `json:"home_spread_line"`
	HomeSpreadPrice float64 `json:"home_spread_price"`

	TotalLine  float64 `json:"total_line"`
	OverPrice  float64 `json:"over_price"`
	UnderPrice float64 `json:"under_price"`

	AwayMoneyline float64 `json:"away_moneyline"`
	HomeMoneyline float64 `json:"home_moneyline"`

	FetchedAt time.Time `json:"fetched_at"`
}

// LineSnapshot captures the sharp book's numbers at first sight of an event,
// used to measure line movement on later scans.
type LineSnapshot struct {
	AwaySpreadLine  float64   `json:"away_spread_line"`
	AwaySpreadPrice float64   `json:"away_spread_price"`
	TotalLine       float64   `json:"total_line"`
	CapturedAt      time.Time `json:"captured_at"`
}

// Event is a single game with its reference (sharp) quote and zero or more
// competing (soft) quotes. Quotes are replaced wholesale on refresh.
type Event struct {
	EventID      string    `json:"event_id"`
	SportKey     string    `json:"sport_key"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`

	Sharp       *Quote  `json:"sharp,omitempty"`
	Competitors []Quote `json:"competitors,omitempty"`

	LineOpen *LineSnapshot `json:"line_open,omitempty"`
}

// Matchup returns the display identity of the event.
func (e Event) Matchup() string {
	return e.AwayTeam + " @ " + e.HomeTeam
}

// Outcome identifies one of the six standard two-way market sides.
type Outcome string

const (
	OutcomeAwaySpread    Outcome = "away_spread"
	OutcomeHomeSpread    Outcome = "home_spread"
	OutcomeAwayMoneyline Outcome = "away_moneyline"
	OutcomeHomeMoneyline Outcome = "home_moneyline"
	OutcomeOver          Outcome = "over"
	OutcomeUnder         Outcome = "under"

	OutcomeNone Outcome = ""
)

// AllOutcomes lists the six scanned outcomes in scan order.
var AllOutcomes = []Outcome{
	OutcomeAwaySpread,
	OutcomeHomeSpread,
	OutcomeAwayMoneyline,
	OutcomeHomeMoneyline,
	OutcomeOver,
	OutcomeUnder,
}

// IsSpread reports whether the outcome is a point spread side.
func (o Outcome) IsSpread() bool {
	return o == OutcomeAwaySpread || o == OutcomeHomeSpread
}

// IsMoneyline reports whether the outcome is a moneyline side.
func (o Outcome) IsMoneyline() bool {
	return o == OutcomeAwayMoneyline || o == OutcomeHomeMoneyline
}

// IsTotal reports whether the outcome is a totals side.
func (o Outcome) IsTotal() bool {
	return o == OutcomeOver || o == OutcomeUnder
}

// TeamSide returns "away" or "home" for team-linked outcomes, "" for totals.
func (o Outcome) TeamSide() string {
	switch o {
	case OutcomeAwaySpread, OutcomeAwayMoneyline:
		return "away"
	case OutcomeHomeSpread, OutcomeHomeMoneyline:
		return "home"
	}
	return ""
}

// SideCandidate is the result of scanning one outcome: the best competing
// number found versus the reference quote. Ephemeral, recomputed every scan.
type SideCandidate struct {
	Outcome Outcome `json:"outcome"`

	RefLine  float64 `json:"ref_line"`
	RefPrice float64 `json:"ref_price"` // American, normalized
	Line     float64 `json:"line"`
	Price    float64 `json:"price"` // American, normalized
	BookKey  string  `json:"book_key"`

	LineDiff  float64 `json:"line_diff"`  // points, competing - reference
	CentsDiff float64 `json:"cents_diff"` // cents of juice, competing - reference

	HasPositiveValue bool `json:"has_positive_value"`

	// SupportingBooks counts distinct competing books showing any positive
	// edge on this outcome, not just the best one.
	SupportingBooks int `json:"supporting_books"`
}

// Score is the composite ranking used to pick the best candidate: points
// dominate cents on spreads, totals and moneylines rank on cents alone.
func (c SideCandidate) Score() float64 {
	if c.Outcome.IsSpread() {
		return c.LineDiff*10 + c.CentsDiff
	}
	return c.CentsDiff
}

// Verdict is the terminal classification of an analysis run.
type Verdict string

const (
	VerdictPlayable Verdict = "playable"
	VerdictLean     Verdict = "lean"
	VerdictPass     Verdict = "pass"
)

// ReasonCode names the veto that rejected an event. Every pass decision
// carries one; they are display strings, not errors.
type ReasonCode string

const (
	ReasonDataMissing     ReasonCode = "DATA_MISSING"
	ReasonSpreadCap       ReasonCode = "SPREAD_CAP"
	ReasonNoValue         ReasonCode = "NO_VALUE"
	ReasonMarketMaturity  ReasonCode = "MARKET_MATURITY"
	ReasonNoEdgeDirection ReasonCode = "NO_EDGE_DIRECTION"
	ReasonJuiceVeto       ReasonCode = "JUICE_VETO"
	ReasonAIError         ReasonCode = "AI_ERROR"
)

// Decision is the terminal output of the veto pipeline for one event.
// Superseded, never mutated, by the next analysis run.
type Decision struct {
	ID       int64  `json:"id,omitempty"`
	EventID  string `json:"event_id"`
	SportKey string `json:"sport_key"`
	Matchup  string `json:"matchup"`

	Verdict    Verdict    `json:"verdict"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	Reason     string     `json:"reason,omitempty"`

	Pick           *SideCandidate `json:"pick,omitempty"`
	Selection      string         `json:"selection,omitempty"`
	Price          string         `json:"price,omitempty"`
	WinProbability float64        `json:"win_probability,omitempty"`
	BookKey        string         `json:"book_key,omitempty"`

	// Floor is the sharp number/price at which the edge disappears, kept for
	// spread and total picks so the dashboard can flag line movement later.
	FloorLine  *float64 `json:"floor_line,omitempty"`
	FloorPrice *float64 `json:"floor_price,omitempty"`

	Narrative  string    `json:"narrative,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// JudgementRequest is the structured prompt sent to the research oracle.
type JudgementRequest struct {
	EventID          string          `json:"event_id"`
	SportKey         string          `json:"sport_key"`
	Matchup          string          `json:"matchup"`
	CommenceTime     time.Time       `json:"commence_time"`
	ReferenceSummary string          `json:"reference_summary"`
	ValueOutcomes    []SideCandidate `json:"value_outcomes"`
	LineMovementNote string          `json:"line_movement_note,omitempty"`
}

// Judgement is the oracle's structured answer. A zero FavoredOutcome means it
// found no situational edge direction.
type Judgement struct {
	Verdict        Verdict `json:"verdict"`
	FavoredOutcome Outcome `json:"favored_outcome"`
	Findings       string  `json:"findings"`
}

// ErrorResponse is the JSON error body returned by the HTTP API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
