package model

import (
	"time"
)

// Trip statuses as persisted by the planning service.
const (
	TripStatusPlanning  = "planning"
	TripStatusFinalized = "finalized"
	TripStatusCancelled = "cancelled"
)

// TripConstraints are the structured parameters a trip was planned against.
type TripConstraints struct {
	Destination        string   `json:"destination"`
	StartDate          string   `json:"start_date,omitempty"`
	EndDate            string   `json:"end_date,omitempty"`
	DurationDays       int      `json:"duration_days"`
	Budget             float64  `json:"budget"`
	TravelGroup        string   `json:"travel_group,omitempty"`
	TravelerCount      int      `json:"traveler_count,omitempty"`
	SpecialConstraints []string `json:"special_constraints,omitempty"`
}

// Trip is the coarse trip record kept by the planning service. Read-only
// from this client's perspective.
type Trip struct {
	ID                    string          `json:"_id"`
	UserID                string          `json:"user_id"`
	Title                 string          `json:"title"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	TripConstraints       TripConstraints `json:"trip_constraints"`
	CurrentVersion        int             `json:"current_version"`
	FinalItineraryVersion *int            `json:"final_itinerary_version,omitempty"`
}

// TripPage is one page of a user's trips, newest first.
type TripPage struct {
	Trips []Trip `json:"trips"`
	Total int    `json:"total"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}
