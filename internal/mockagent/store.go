// Package mockagent is a deterministic stand-in for the remote planning
// agent. It implements the chat protocol and the read endpoints so the
// client can be exercised end-to-end without the real service.
package mockagent

import (
	"sort"
	"sync"
	"time"

	"github.com/wayfarer-ai/planner-client/internal/model"
)

// Store keeps finalized trips, itinerary versions, and archived
// conversations in memory.
type Store struct {
	mu            sync.RWMutex
	trips         map[string]*model.Trip
	versions      map[string][]model.ItineraryVersion // keyed by trip id
	conversations map[string]*model.Conversation      // keyed by trip id
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		trips:         make(map[string]*model.Trip),
		versions:      make(map[string][]model.ItineraryVersion),
		conversations: make(map[string]*model.Conversation),
	}
}

// SaveTrip inserts or replaces a trip.
func (s *Store) SaveTrip(trip *model.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = trip
}

// Trip returns a copy of the trip with the given id, or false. Copying keeps
// callers from observing the in-place updates SaveVersion makes.
func (s *Store) Trip(tripID string) (*model.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, false
	}
	out := *trip
	return &out, true
}

// SaveVersion appends an itinerary version for its trip.
func (s *Store) SaveVersion(version model.ItineraryVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version.TripID] = append(s.versions[version.TripID], version)
	if trip, ok := s.trips[version.TripID]; ok {
		trip.CurrentVersion = version.VersionNumber
		trip.UpdatedAt = time.Now().UTC()
	}
}

// LatestVersion returns the highest-numbered itinerary version for a trip.
func (s *Store) LatestVersion(tripID string) (*model.ItineraryVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[tripID]
	if len(versions) == 0 {
		return nil, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	return &latest, true
}

// SaveConversation archives the conversation for a trip.
func (s *Store) SaveConversation(conv *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.TripID] = conv
}

// Conversation returns a copy of the archived conversation for a trip, or
// false.
func (s *Store) Conversation(tripID string) (*model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[tripID]
	if !ok {
		return nil, false
	}
	out := *conv
	out.Messages = append([]model.ConversationMessage(nil), conv.Messages...)
	return &out, true
}

// ListFilter narrows and paginates list results.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Skip   int
	Limit  int // already clamped by the handler
}

func (f ListFilter) matches(createdAt time.Time, status string) bool {
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && createdAt.After(*f.To) {
		return false
	}
	if f.Status != "" && f.Status != status {
		return false
	}
	return true
}

func paginate(total, skip, limit int) (start, end int) {
	start = skip
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

// ListTrips returns one page of a user's trips, newest first.
func (s *Store) ListTrips(userID string, f ListFilter) *model.TripPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trips []model.Trip
	for _, trip := range s.trips {
		if trip.UserID == userID && f.matches(trip.CreatedAt, trip.Status) {
			trips = append(trips, *trip)
		}
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})

	total := len(trips)
	start, end := paginate(total, f.Skip, f.Limit)
	return &model.TripPage{
		Trips: trips[start:end],
		Total: total,
		Skip:  f.Skip,
		Limit: f.Limit,
	}
}

// ListItineraries returns one page of a user's itinerary versions across all
// their trips, newest first.
func (s *Store) ListItineraries(userID string, f ListFilter) *model.ItineraryPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var versions []model.ItineraryVersion
	for tripID, trip := range s.trips {
		if trip.UserID != userID {
			continue
		}
		for _, v := range s.versions[tripID] {
			if f.matches(v.CreatedAt, "") {
				versions = append(versions, v)
			}
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})

	total := len(versions)
	start, end := paginate(total, f.Skip, f.Limit)
	return &model.ItineraryPage{
		Itineraries: versions[start:end],
		Total:       total,
		Skip:        f.Skip,
		Limit:       f.Limit,
	}
}
