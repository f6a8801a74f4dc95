package mockagent

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/logger"
)

// Server exposes the planning protocol over HTTP.
type Server struct {
	flow   *Flow
	store  *Store
	logger *logger.Logger
}

// NewServer creates a Server around the given flow and store.
func NewServer(flow *Flow, store *Store, log *logger.Logger) *Server {
	return &Server{flow: flow, store: store, logger: log}
}

// Routes mounts the trip-planning API onto r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/trips", func(r chi.Router) {
		r.Post("/chat", s.chat)

		r.Route("/user/{userID}", func(r chi.Router) {
			r.Get("/", s.listTrips)
			r.Get("/itineraries", s.listItineraries)
		})

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.getTrip)
			r.Get("/itinerary", s.getItinerary)
			r.Get("/conversations", s.getConversations)
		})
	})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	threadID := ""
	if req.ThreadID != nil {
		threadID = *req.ThreadID
	}

	env, err := s.flow.Turn(req.UserID, req.Message, threadID)
	if err != nil {
		s.logger.Warn("chat turn rejected",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Trip planning failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := s.store.Trip(chi.URLParam(r, "tripID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) getItinerary(w http.ResponseWriter, r *http.Request) {
	version, ok := s.store.LatestVersion(chi.URLParam(r, "tripID"))
	if !ok {
		writeError(w, http.StatusNotFound, "No itinerary found for this trip")
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (s *Server) getConversations(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.store.Conversation(chi.URLParam(r, "tripID"))
	if !ok {
		writeError(w, http.StatusNotFound, "No conversation found for this trip")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	filter.Status = r.URL.Query().Get("trip_status")
	writeJSON(w, http.StatusOK, s.store.ListTrips(chi.URLParam(r, "userID"), filter))
}

func (s *Server) listItineraries(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.ListItineraries(chi.URLParam(r, "userID"), filter))
}

// parseListFilter reads pagination and date-range query parameters, writing
// a 400 and returning ok=false on a malformed date.
func parseListFilter(w http.ResponseWriter, r *http.Request) (ListFilter, bool) {
	q := r.URL.Query()
	filter := ListFilter{Limit: 20}

	if v := q.Get("from_date"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from_date must be YYYY-MM-DD")
			return filter, false
		}
		filter.From = &from
	}
	if v := q.Get("to_date"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to_date must be YYYY-MM-DD")
			return filter, false
		}
		// Inclusive of the whole end day.
		to = to.Add(24*time.Hour - time.Second)
		filter.To = &to
	}
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Skip = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 1 {
				n = 1
			}
			if n > 100 {
				n = 100
			}
			filter.Limit = n
		}
	}
	return filter, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the planning service's
// {"detail": ...} shape.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{
		"detail": detail,
	})
}
