package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/metrics"
)

// ErrNoTrip means finalization has not happened yet, so there is no trip to
// fetch an itinerary for.
var ErrNoTrip = errors.New("no finalized trip for this session")

// fetchFinalized pulls the persisted itinerary version (and trip metadata)
// for tripID and stores it if the session still cares about that trip.
// Failures are swallowed: the itinerary simply stays unavailable until a
// re-trigger succeeds.
func (s *Session) fetchFinalized(ctx context.Context, seq uint64, tripID string) {
	version, err := s.client.LatestItinerary(ctx, tripID)
	if err != nil {
		metrics.ItineraryFetchesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("itinerary fetch failed",
			zap.String("trip_id", tripID),
			zap.Error(err),
		)
		return
	}

	// Trip metadata is display-only; its failure does not block the version.
	trip, err := s.client.Trip(ctx, tripID)
	if err != nil {
		s.logger.Warn("trip fetch failed",
			zap.String("trip_id", tripID),
			zap.Error(err),
		)
		trip = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A later completion supersedes this fetch; late results for a trip the
	// session has moved past are discarded, not applied.
	if seq != s.completionSeq || tripID != s.tripID {
		metrics.ItineraryFetchesTotal.WithLabelValues("stale").Inc()
		return
	}

	s.finalized = version
	if trip != nil {
		s.trip = trip
	}
	metrics.ItineraryFetchesTotal.WithLabelValues("ok").Inc()
}

// RefreshItinerary re-fetches the persisted itinerary version for the
// session's trip. Re-fetching replaces the stored value wholesale. There is
// no automatic retry; this is the manual re-trigger.
func (s *Session) RefreshItinerary(ctx context.Context) error {
	s.mu.Lock()
	tripID := s.tripID
	seq := s.completionSeq
	s.mu.Unlock()

	if tripID == "" {
		return ErrNoTrip
	}

	version, err := s.client.LatestItinerary(ctx, tripID)
	if err != nil {
		metrics.ItineraryFetchesTotal.WithLabelValues("error").Inc()
		return err
	}
	trip, err := s.client.Trip(ctx, tripID)
	if err != nil {
		trip = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.completionSeq || tripID != s.tripID {
		metrics.ItineraryFetchesTotal.WithLabelValues("stale").Inc()
		return nil
	}
	s.finalized = version
	if trip != nil {
		s.trip = trip
	}
	metrics.ItineraryFetchesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Finalized returns the fetched itinerary version, or nil when it is not
// available (not yet complete, fetch pending, or fetch failed).
func (s *Session) Finalized() *model.ItineraryVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Trip returns the trip metadata fetched alongside the finalized version.
func (s *Session) Trip() *model.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trip
}

// WaitForFetch blocks until any in-flight finalization fetch settles.
func (s *Session) WaitForFetch() {
	s.fetchWG.Wait()
}
