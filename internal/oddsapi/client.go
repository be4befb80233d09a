// Package oddsapi fetches raw bookmaker quote tables from the odds vendor
// and assembles them into events with a sharp reference quote and soft
// competitors. Vendors mix American and decimal pricing per book; prices are
// stored raw and normalized downstream by oddsmath.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// Client talks to a The Odds API-compatible endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	sharpBook  string
	httpClient *http.Client
}

// NewClient creates an odds source client. sharpBook is the book key whose
// quote becomes the event's reference.
func NewClient(baseURL, apiKey, sharpBook string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		sharpBook: sharpBook,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// vendor wire format

type vendorEvent struct {
	ID           string            `json:"id"`
	SportKey     string            `json:"sport_key"`
	CommenceTime time.Time         `json:"commence_time"`
	HomeTeam     string            `json:"home_team"`
	AwayTeam     string            `json:"away_team"`
	Bookmakers   []vendorBookmaker `json:"bookmakers"`
}

type vendorBookmaker struct {
	Key        string         `json:"key"`
	LastUpdate time.Time      `json:"last_update"`
	Markets    []vendorMarket `json:"markets"`
}

type vendorMarket struct {
	Key      string          `json:"key"`
	Outcomes []vendorOutcome `json:"outcomes"`
}

type vendorOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// FetchEvents returns all upcoming events for a sport with their quotes.
func (c *Client) FetchEvents(ctx context.Context, sportKey string) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds", c.baseURL, url.PathEscape(sportKey))

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	query.Set("regions", "us")
	query.Set("markets", "spreads,totals,h2h")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create odds request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds vendor returned status %d", resp.StatusCode)
	}

	var vendorEvents []vendorEvent
	if err := json.NewDecoder(resp.Body).Decode(&vendorEvents); err != nil {
		return nil, fmt.Errorf("failed to decode odds response: %w", err)
	}

	events := make([]models.Event, 0, len(vendorEvents))
	for _, ve := range vendorEvents {
		events = append(events, c.assembleEvent(ve))
	}

	return events, nil
}

// FetchEvent returns a single event's quotes, or nil if the vendor no longer
// lists it.
func (c *Client) FetchEvent(ctx context.Context, sportKey, eventID string) (*models.Event, error) {
	events, err := c.FetchEvents(ctx, sportKey)
	if err != nil {
		return nil, err
	}

	for i := range events {
		if events[i].EventID == eventID {
			return &events[i], nil
		}
	}

	return nil, nil
}

// assembleEvent converts one vendor event into the internal model, splitting
// the configured sharp book out as the reference quote.
func (c *Client) assembleEvent(ve vendorEvent) models.Event {
	event := models.Event{
		EventID:      ve.ID,
		SportKey:     ve.SportKey,
		HomeTeam:     ve.HomeTeam,
		AwayTeam:     ve.AwayTeam,
		CommenceTime: ve.CommenceTime,
	}

	for _, book := range ve.Bookmakers {
		quote := buildQuote(ve, book)

		if book.Key == c.sharpBook {
			sharp := quote
			event.Sharp = &sharp
			continue
		}
		event.Competitors = append(event.Competitors, quote)
	}

	return event
}

// buildQuote flattens a bookmaker's market/outcome rows into one price sheet.
func buildQuote(ve vendorEvent, book vendorBookmaker) models.Quote {
	quote := models.Quote{
		BookKey:   book.Key,
		FetchedAt: book.LastUpdate,
	}

	for _, market := range book.Markets {
		for _, outcome := range market.Outcomes {
			switch market.Key {
			case "spreads":
				if outcome.Name == ve.AwayTeam {
					quote.AwaySpreadPrice = outcome.Price
					if outcome.Point != nil {
						quote.AwaySpreadLine = *outcome.Point
					}
				} else if outcome.Name == ve.HomeTeam {
					quote.HomeSpreadPrice = outcome.Price
					if outcome.Point != nil {
						quote.HomeSpreadLine = *outcome.Point
					}
				}

			case "totals":
				if outcome.Point != nil {
					quote.TotalLine = *outcome.Point
				}
				if strings.EqualFold(outcome.Name, "over") {
					quote.OverPrice = outcome.Price
				} else if strings.EqualFold(outcome.Name, "under") {
					quote.UnderPrice = outcome.Price
				}

			case "h2h":
				if outcome.Name == ve.AwayTeam {
					quote.AwayMoneyline = outcome.Price
				} else if outcome.Name == ve.HomeTeam {
					quote.HomeMoneyline = outcome.Price
				}
			}
		}
	}

	return quote
}
