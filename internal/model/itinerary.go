package model

import (
	"time"
)

// Location is where an activity takes place.
type Location struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Activity is one scheduled item within a day.
type Activity struct {
	Time         string   `json:"time"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Location     Location `json:"location"`
	CostEstimate float64  `json:"cost_estimate"`
	Tags         []string `json:"tags,omitempty"`
}

// Day is one day of an itinerary. Activities are chronological by Time;
// their order is significant and must not be re-sorted by the client.
type Day struct {
	DayNumber  int        `json:"day_number"`
	Date       string     `json:"date"`
	Theme      string     `json:"theme,omitempty"`
	Activities []Activity `json:"activities"`
}

// Itinerary is a full trip plan, either a draft embedded in a reviewing
// response or the detail of a persisted version.
type Itinerary struct {
	Title             string  `json:"title,omitempty"`
	Summary           string  `json:"summary,omitempty"`
	TotalCostEstimate float64 `json:"total_cost_estimate"`
	Currency          string  `json:"currency"`
	Days              []Day   `json:"days"`
}

// ItineraryVersion is a persisted, numbered itinerary snapshot for a trip.
type ItineraryVersion struct {
	ID            string    `json:"_id"`
	TripID        string    `json:"trip_id"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"` // "ai" or "user"
	ChangeSummary string    `json:"change_summary,omitempty"`
	Itinerary     Itinerary `json:"itinerary"`
}

// ItineraryPage is one page of a user's itinerary versions, newest first.
type ItineraryPage struct {
	Itineraries []ItineraryVersion `json:"itineraries"`
	Total       int                `json:"total"`
	Skip        int                `json:"skip"`
	Limit       int                `json:"limit"`
}
