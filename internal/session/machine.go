// Package session owns the conversation state machine for one trip-planning
// dialogue: thread identity, the message log, the agent's last known status,
// the single-flight send lock, and the draft/finalized itinerary views built
// on top of it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/logger"
	"github.com/wayfarer-ai/planner-client/pkg/metrics"
)

// AgentClient is the slice of the planning API the session consumes.
// *transport.Client satisfies it.
type AgentClient interface {
	Chat(ctx context.Context, req model.ChatRequest) (*model.ChatEnvelope, error)
	Trip(ctx context.Context, tripID string) (*model.Trip, error)
	LatestItinerary(ctx context.Context, tripID string) (*model.ItineraryVersion, error)
}

// Role identifies who authored a message in the local log.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one entry in the session's message log. Immutable once appended.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time

	// Agent messages only. Status is empty on user messages and on the
	// synthetic message appended after a transport failure.
	Status   model.Status
	Envelope *model.ChatEnvelope
}

var (
	// ErrEmptyMessage rejects a blank turn before any network call.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrTurnInFlight is returned when a turn is already outstanding.
	// The second call is a no-op; it is never queued.
	ErrTurnInFlight = errors.New("a chat turn is already in flight")

	// ErrThreadMismatch is a protocol violation: the agent returned a
	// thread id different from the one this session was assigned.
	ErrThreadMismatch = errors.New("agent returned a foreign thread id")
)

const errorReplyText = "Sorry, something went wrong while planning your trip. Please try again."

// Session is the client-side controller for one planning conversation.
// It is owned by exactly one active UI session; no two sessions share a
// thread id. State is discarded when the session ends.
type Session struct {
	userID string
	client AgentClient
	logger *logger.Logger

	mu       sync.Mutex
	threadID string
	status   model.Status
	messages []Message
	sending  bool
	draft    *model.Itinerary

	tripID        string
	trip          *model.Trip
	finalized     *model.ItineraryVersion
	completionSeq uint64

	// fetchWG tracks in-flight finalization fetches so tests can wait on them.
	fetchWG sync.WaitGroup
}

// New creates a Session for userID backed by the given API client.
func New(userID string, client AgentClient, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		userID: userID,
		client: client,
		logger: log,
	}
}

// SendTurn sends one user message to the agent and applies the response to
// the session. The user message is appended immediately and stays in the log
// regardless of outcome. While a turn is outstanding, further calls return
// ErrTurnInFlight without side effects. On transport failure the status is
// left untouched, a synthetic agent message is appended, and the thread
// remains usable for a retry.
func (s *Session) SendTurn(ctx context.Context, text string) (*model.ChatEnvelope, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.sending = true
	s.appendLocked(Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	})
	threadID := s.threadID
	s.mu.Unlock()

	req := model.ChatRequest{
		UserID:  s.userID,
		Message: text,
	}
	if threadID != "" {
		req.ThreadID = &threadID
	}

	start := time.Now()
	env, err := s.client.Chat(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false

	if err != nil {
		metrics.TurnFailuresTotal.Inc()
		s.logger.Warn("chat turn failed",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		s.appendLocked(Message{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Role:      RoleAgent,
			Content:   errorReplyText,
			CreatedAt: time.Now(),
		})
		return nil, err
	}

	if s.threadID == "" {
		s.threadID = env.ThreadID
	} else if env.ThreadID != s.threadID {
		// Applying the response would corrupt message ordering, so it is
		// dropped and the violation reported.
		s.logger.Error("thread id mismatch",
			zap.String("have", s.threadID),
			zap.String("got", env.ThreadID),
		)
		return nil, fmt.Errorf("%w: have %q, got %q", ErrThreadMismatch, s.threadID, env.ThreadID)
	}

	s.status = env.Status
	s.appendLocked(Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      RoleAgent,
		Content:   env.Message,
		CreatedAt: time.Now(),
		Status:    env.Status,
		Envelope:  env,
	})
	metrics.RecordTurn(string(env.Status), time.Since(start).Seconds())

	s.dispatchLocked(ctx, env)
	return env, nil
}

// dispatchLocked routes the response payload by status. Caller holds s.mu.
func (s *Session) dispatchLocked(ctx context.Context, env *model.ChatEnvelope) {
	switch env.Status {
	case model.StatusClarifying, model.StatusPlanning:
		// Nothing beyond the message log; the UI prompts for more input.

	case model.StatusReviewing:
		draft := env.Reviewing.Itinerary
		if s.draft == nil {
			metrics.DraftsHeld.Inc()
		}
		s.draft = &draft

	case model.StatusComplete:
		if s.draft != nil {
			metrics.DraftsHeld.Dec()
		}
		s.draft = nil
		s.tripID = env.Complete.TripID
		s.completionSeq++
		seq := s.completionSeq
		tripID := s.tripID

		// The fetch outlives the turn: it must not block further chat
		// interaction and must not die with the caller's context.
		fetchCtx := context.WithoutCancel(ctx)
		s.fetchWG.Add(1)
		go func() {
			defer s.fetchWG.Done()
			s.fetchFinalized(fetchCtx, seq, tripID)
		}()
	}
}

func (s *Session) appendLocked(msg Message) {
	s.messages = append(s.messages, msg)
}

// ThreadID returns the server-assigned thread id, empty before the first
// successful response.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Status returns the agent's last known status, empty before the first
// successful response.
func (s *Session) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Messages returns a snapshot of the message log in insertion order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Draft returns the itinerary currently held for review, or nil.
func (s *Session) Draft() *model.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// TripID returns the trip identifier recorded on completion, empty before.
func (s *Session) TripID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripID
}
