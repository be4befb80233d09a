package contracts

import (
	"context"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// DecisionMaker turns a fully loaded event into a terminal decision. Veto
// policies are swappable behind this interface; the canonical implementation
// is the cents/points pipeline in internal/pipeline.
type DecisionMaker interface {
	// Analyze never returns an error: every failure mode is a pass decision
	// with a reason code.
	Analyze(ctx context.Context, event models.Event) models.Decision
}

// JudgementOracle is the external research model consulted after the cheap
// arithmetic vetoes have passed.
type JudgementOracle interface {
	// Judge returns the oracle's structured verdict for the matchup. An error
	// means the call or parse failed after retries; callers convert that into
	// an AI_ERROR pass, never a crash.
	Judge(ctx context.Context, req models.JudgementRequest) (models.Judgement, error)
}

// OddsSource supplies raw bookmaker quote tables per sport and per event.
type OddsSource interface {
	// FetchEvents returns all upcoming events for a sport with their quotes.
	FetchEvents(ctx context.Context, sportKey string) ([]models.Event, error)

	// FetchEvent returns a single event's quotes, or nil if unknown.
	FetchEvent(ctx context.Context, sportKey, eventID string) (*models.Event, error)
}

// QuoteCache holds per-event quote sets so a pipeline run sees a consistent
// snapshot, with a TTL and explicit invalidation.
type QuoteCache interface {
	// GetEvent returns the cached event, or nil on a miss.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// PutEvent stores the event's quote set, replacing any prior entry, and
	// records the sharp line snapshot if this is the first sight of the event.
	PutEvent(ctx context.Context, event *models.Event) error

	// Invalidate drops the cached quotes for an event.
	Invalidate(ctx context.Context, eventID string) error

	// LineOpen returns the first-seen sharp line snapshot, or nil if the
	// event has never been cached.
	LineOpen(ctx context.Context, eventID string) (*models.LineSnapshot, error)
}
