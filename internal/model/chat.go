// Package model defines the wire contract shared with the trip-planning agent.
package model

import (
	"encoding/json"
	"fmt"
)

// Status is the agent's state discriminant carried on every chat response.
type Status string

const (
	StatusClarifying Status = "clarifying"
	StatusPlanning   Status = "planning"
	StatusReviewing  Status = "reviewing"
	StatusComplete   Status = "complete"
)

// Valid reports whether s is one of the protocol statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusClarifying, StatusPlanning, StatusReviewing, StatusComplete:
		return true
	}
	return false
}

// ChatRequest is one chat turn sent to the planning agent.
// ThreadID is nil on the first turn of a session; the agent assigns one.
type ChatRequest struct {
	UserID   string  `json:"user_id"`
	Message  string  `json:"message"`
	ThreadID *string `json:"thread_id"`
}

// ClarifyingData carries the trip parameters collected so far.
// Values are kept as raw JSON so unknown slot keys pass through untouched.
type ClarifyingData struct {
	SlotsCollected map[string]json.RawMessage `json:"slots_collected"`
}

// PlanningData is the transient payload while the agent is planning.
type PlanningData struct {
	TripRequest json.RawMessage `json:"trip_request,omitempty"`
}

// ReviewingData carries a draft itinerary awaiting user review.
type ReviewingData struct {
	Itinerary    Itinerary       `json:"itinerary"`
	TripRequest  json.RawMessage `json:"trip_request,omitempty"`
	TripStrategy json.RawMessage `json:"trip_strategy,omitempty"`
}

// CompleteData carries the persisted identifiers of a finalized trip.
type CompleteData struct {
	TripID             string          `json:"trip_id"`
	ItineraryVersionID string          `json:"itinerary_version_id,omitempty"`
	Itinerary          *Itinerary      `json:"itinerary,omitempty"`
	TripRequest        json.RawMessage `json:"trip_request,omitempty"`
}

// ChatEnvelope is the agent's response to one chat turn. The data payload is a
// union keyed by Status: exactly one of the variant fields is set after a
// successful decode, so call sites never see a complete response without a
// trip id or a reviewing response without an itinerary.
type ChatEnvelope struct {
	Status   Status
	ThreadID string
	Message  string

	Clarifying *ClarifyingData
	Planning   *PlanningData
	Reviewing  *ReviewingData
	Complete   *CompleteData
}

type chatEnvelopeWire struct {
	Status   Status          `json:"status"`
	ThreadID string          `json:"thread_id"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes the envelope and its status-dependent payload.
func (e *ChatEnvelope) UnmarshalJSON(b []byte) error {
	var w chatEnvelopeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if !w.Status.Valid() {
		return fmt.Errorf("chat envelope: unknown status %q", w.Status)
	}
	if w.ThreadID == "" {
		return fmt.Errorf("chat envelope: missing thread_id")
	}

	decoded := ChatEnvelope{
		Status:   w.Status,
		ThreadID: w.ThreadID,
		Message:  w.Message,
	}

	data := w.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	switch w.Status {
	case StatusClarifying:
		var d ClarifyingData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("chat envelope: clarifying data: %w", err)
		}
		decoded.Clarifying = &d
	case StatusPlanning:
		var d PlanningData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("chat envelope: planning data: %w", err)
		}
		decoded.Planning = &d
	case StatusReviewing:
		var d ReviewingData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("chat envelope: reviewing data: %w", err)
		}
		if len(d.Itinerary.Days) == 0 {
			return fmt.Errorf("chat envelope: reviewing response without itinerary days")
		}
		decoded.Reviewing = &d
	case StatusComplete:
		var d CompleteData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("chat envelope: complete data: %w", err)
		}
		if d.TripID == "" {
			return fmt.Errorf("chat envelope: complete response without trip_id")
		}
		decoded.Complete = &d
	}

	*e = decoded
	return nil
}

// MarshalJSON encodes the envelope with the payload variant matching Status.
func (e ChatEnvelope) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Status {
	case StatusClarifying:
		payload = e.Clarifying
	case StatusPlanning:
		payload = e.Planning
	case StatusReviewing:
		payload = e.Reviewing
	case StatusComplete:
		payload = e.Complete
	default:
		return nil, fmt.Errorf("chat envelope: unknown status %q", e.Status)
	}

	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}

	return json.Marshal(chatEnvelopeWire{
		Status:   e.Status,
		ThreadID: e.ThreadID,
		Message:  e.Message,
		Data:     data,
	})
}
