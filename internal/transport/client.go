// Package transport is the HTTP client adapter for the trip-planning API.
// It owns no session state: each call is one request/response round trip.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/logger"
)

const tracerName = "planner-client/transport"

// Client calls the planning service over HTTP with bearer authentication.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the planning service at baseURL.
func New(baseURL string, timeout time.Duration, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends one chat turn and returns the agent's response envelope.
func (c *Client) Chat(ctx context.Context, req model.ChatRequest) (*model.ChatEnvelope, error) {
	ctx, span := c.tracer.Start(ctx, "planner.chat")
	defer span.End()
	if req.ThreadID != nil {
		span.SetAttributes(attribute.String("planner.thread_id", *req.ThreadID))
	}

	var env model.ChatEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/trips/chat", nil, req, &env); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("planner.status", string(env.Status)))
	return &env, nil
}

// Trip fetches trip metadata by id.
func (c *Client) Trip(ctx context.Context, tripID string) (*model.Trip, error) {
	var trip model.Trip
	path := "/api/v1/trips/" + url.PathEscape(tripID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// LatestItinerary fetches the latest persisted itinerary version for a trip.
func (c *Client) LatestItinerary(ctx context.Context, tripID string) (*model.ItineraryVersion, error) {
	var version model.ItineraryVersion
	path := "/api/v1/trips/" + url.PathEscape(tripID) + "/itinerary"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// Conversation fetches the archived chat history for a trip.
func (c *Client) Conversation(ctx context.Context, tripID string) (*model.Conversation, error) {
	var conv model.Conversation
	path := "/api/v1/trips/" + url.PathEscape(tripID) + "/conversations"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListOptions filter and paginate the list endpoints. The server clamps
// Limit to 1-100 and returns results newest first.
type ListOptions struct {
	FromDate string // YYYY-MM-DD
	ToDate   string // YYYY-MM-DD
	Status   string // trips only
	Skip     int
	Limit    int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.FromDate != "" {
		q.Set("from_date", o.FromDate)
	}
	if o.ToDate != "" {
		q.Set("to_date", o.ToDate)
	}
	if o.Status != "" {
		q.Set("trip_status", o.Status)
	}
	if o.Skip > 0 {
		q.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// ListTrips fetches one page of a user's trips.
func (c *Client) ListTrips(ctx context.Context, userID string, opts ListOptions) (*model.TripPage, error) {
	var page model.TripPage
	path := "/api/v1/trips/user/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, http.MethodGet, path, opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListItineraries fetches one page of a user's itinerary versions across trips.
func (c *Client) ListItineraries(ctx context.Context, userID string, opts ListOptions) (*model.ItineraryPage, error) {
	var page model.ItineraryPage
	path := "/api/v1/trips/user/" + url.PathEscape(userID) + "/itineraries"
	if err := c.doJSON(ctx, http.MethodGet, path, opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
