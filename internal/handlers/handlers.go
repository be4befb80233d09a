// Package handlers exposes the dashboard HTTP API: enqueue and cancel
// analyses, inspect the queue, and read decision history.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/XavierBriggs/sharpedge/internal/scheduler"
	"github.com/XavierBriggs/sharpedge/internal/writer"
	"github.com/XavierBriggs/sharpedge/pkg/contracts"
	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	scheduler    *scheduler.Scheduler
	decisions    *writer.DecisionWriter
	source       contracts.OddsSource
	cache        contracts.QuoteCache
	defaultSport string
}

// NewHandler creates a new handler with dependencies.
func NewHandler(
	sched *scheduler.Scheduler,
	decisions *writer.DecisionWriter,
	source contracts.OddsSource,
	cache contracts.QuoteCache,
	defaultSport string,
) *Handler {
	return &Handler{
		scheduler:    sched,
		decisions:    decisions,
		source:       source,
		cache:        cache,
		defaultSport: defaultSport,
	}
}

// HealthCheck returns the health status of the service.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "sharpedge",
	})
}

// EnqueueAnalysis queues an event for analysis. Idempotent: enqueueing an
// event already queued or in flight is a no-op.
func (h *Handler) EnqueueAnalysis(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		respondError(w, http.StatusBadRequest, "event_id is required", nil)
		return
	}

	if queued := h.scheduler.Enqueue(eventID); !queued {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"event_id": eventID,
			"queued":   false,
			"detail":   "already queued or in flight",
		})
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"event_id": eventID,
		"queued":   true,
	})
}

// CancelAnalysis removes a queued event. In-flight analyses cannot be
// cancelled and run to completion.
func (h *Handler) CancelAnalysis(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if h.scheduler.InFlight() == eventID {
		respondError(w, http.StatusConflict, "analysis already in flight", nil)
		return
	}

	if !h.scheduler.Cancel(eventID) {
		respondError(w, http.StatusNotFound, "event not queued", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":  eventID,
		"cancelled": true,
	})
}

// GetQueue returns the scheduler state.
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	pending := h.scheduler.Pending()
	processed, failures := h.scheduler.Metrics()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"in_flight": h.scheduler.InFlight(),
		"pending":   pending,
		"processed": processed,
		"failures":  failures,
	})
}

// GetDecisions retrieves recent decisions.
// Query params: sport, limit
func (h *Handler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sportKey := r.URL.Query().Get("sport")
	limit := parseIntParam(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	decisions, err := h.decisions.GetRecentDecisions(ctx, sportKey, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve decisions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"count":     len(decisions),
	})
}

// GetDecision retrieves the latest decision for one event.
func (h *Handler) GetDecision(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	eventID := chi.URLParam(r, "eventID")

	decision, err := h.decisions.GetLatestForEvent(ctx, eventID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve decision", err)
		return
	}
	if decision == nil {
		respondError(w, http.StatusNotFound, "no decision for event", nil)
		return
	}

	respondJSON(w, http.StatusOK, decision)
}

// GetEvents lists upcoming events with their quote tables.
// Query params: sport
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	sportKey := r.URL.Query().Get("sport")
	if sportKey == "" {
		sportKey = h.defaultSport
	}

	events, err := h.source.FetchEvents(ctx, sportKey)
	if err != nil {
		respondError(w, http.StatusBadGateway, "odds source unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"sport":  sportKey,
	})
}

// InvalidateQuotes drops the cached quote set for an event so the next
// analysis refetches.
func (h *Handler) InvalidateQuotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	eventID := chi.URLParam(r, "eventID")

	if err := h.cache.Invalidate(ctx, eventID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to invalidate quotes", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":    eventID,
		"invalidated": true,
	})
}

// Helper functions

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
