package session

import (
	"context"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/metrics"
)

// approveToken is the protocol's approval signal. It is free text on the
// wire: the agent treats this literal as approval and anything else as
// revision feedback, so it must never be altered or localized.
const approveToken = "approve"

// Approve accepts the draft itinerary under review.
func (s *Session) Approve(ctx context.Context) (*model.ChatEnvelope, error) {
	return s.SendTurn(ctx, approveToken)
}

// Revise asks the agent to rework the draft. Feedback content is not
// validated locally; an empty string is rejected like any empty turn.
func (s *Session) Revise(ctx context.Context, feedback string) (*model.ChatEnvelope, error) {
	return s.SendTurn(ctx, feedback)
}

// DismissDraft clears the held draft without sending a turn. The agent-side
// plan and the session status are unaffected, so a later turn may surface a
// reviewing response with the same or an updated draft.
func (s *Session) DismissDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != nil {
		metrics.DraftsHeld.Dec()
	}
	s.draft = nil
}
