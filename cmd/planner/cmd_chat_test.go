package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/internal/session"
)

type scriptedClient struct {
	chatFn func(req model.ChatRequest) (*model.ChatEnvelope, error)
}

func (c *scriptedClient) Chat(_ context.Context, req model.ChatRequest) (*model.ChatEnvelope, error) {
	return c.chatFn(req)
}

func (c *scriptedClient) Trip(_ context.Context, tripID string) (*model.Trip, error) {
	return &model.Trip{ID: tripID}, nil
}

func (c *scriptedClient) LatestItinerary(_ context.Context, tripID string) (*model.ItineraryVersion, error) {
	return &model.ItineraryVersion{TripID: tripID, VersionNumber: 1}, nil
}

func clarifying(threadID string) *model.ChatEnvelope {
	return &model.ChatEnvelope{
		Status:     model.StatusClarifying,
		ThreadID:   threadID,
		Message:    "Where to?",
		Clarifying: &model.ClarifyingData{},
	}
}

func TestTurnFailureReplyTransportError(t *testing.T) {
	client := &scriptedClient{
		chatFn: func(req model.ChatRequest) (*model.ChatEnvelope, error) {
			return nil, errors.New("connection reset")
		},
	}
	sess := session.New("user-1", client, nil)

	_, err := sess.SendTurn(context.Background(), "Plan a trip to Kyoto")
	require.Error(t, err)

	// The synthetic in-thread agent message is what the user sees.
	msgs := sess.Messages()
	assert.Equal(t, msgs[len(msgs)-1].Content, turnFailureReply(sess, err))
	assert.Equal(t, session.RoleAgent, msgs[len(msgs)-1].Role)
}

func TestTurnFailureReplyThreadMismatch(t *testing.T) {
	client := &scriptedClient{
		chatFn: func(req model.ChatRequest) (*model.ChatEnvelope, error) {
			return clarifying("t1"), nil
		},
	}
	sess := session.New("user-1", client, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "Plan a trip to Kyoto")
	require.NoError(t, err)

	client.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return clarifying("t2"), nil
	}
	_, err = sess.SendTurn(ctx, "5 days")
	require.ErrorIs(t, err, session.ErrThreadMismatch)

	// No agent message was appended for the dropped response, so the reply
	// must surface the error rather than echo the user's own message.
	reply := turnFailureReply(sess, err)
	assert.Contains(t, reply, "foreign thread id")
	assert.NotEqual(t, "5 days", reply)
}
