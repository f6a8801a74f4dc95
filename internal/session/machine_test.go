package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/pkg/metrics"
)

// fakeClient scripts agent responses for the state machine tests.
type fakeClient struct {
	mu       sync.Mutex
	requests []model.ChatRequest

	chatFn      func(req model.ChatRequest) (*model.ChatEnvelope, error)
	itineraryFn func(tripID string) (*model.ItineraryVersion, error)
	tripFn      func(tripID string) (*model.Trip, error)
}

func (f *fakeClient) Chat(_ context.Context, req model.ChatRequest) (*model.ChatEnvelope, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return clarifyingEnv("t1"), nil
	}
	return fn(req)
}

func (f *fakeClient) Trip(_ context.Context, tripID string) (*model.Trip, error) {
	if f.tripFn == nil {
		return &model.Trip{ID: tripID, Status: model.TripStatusPlanning}, nil
	}
	return f.tripFn(tripID)
}

func (f *fakeClient) LatestItinerary(_ context.Context, tripID string) (*model.ItineraryVersion, error) {
	if f.itineraryFn == nil {
		return &model.ItineraryVersion{TripID: tripID, VersionNumber: 1, Itinerary: sampleItinerary()}, nil
	}
	return f.itineraryFn(tripID)
}

func (f *fakeClient) sentRequests() []model.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func sampleItinerary() model.Itinerary {
	return model.Itinerary{
		Currency:          "USD",
		TotalCostEstimate: 900,
		Days: []model.Day{
			{
				DayNumber: 1,
				Date:      "2026-10-01",
				Activities: []model.Activity{
					{Time: "09:00 AM", Title: "Fushimi Inari", Location: model.Location{Name: "Kyoto"}, CostEstimate: 0, Tags: []string{"culture"}},
					{Time: "01:00 PM", Title: "Nishiki Market", Location: model.Location{Name: "Kyoto"}, CostEstimate: 40, Tags: []string{"food"}},
				},
			},
			{
				DayNumber: 2,
				Date:      "2026-10-02",
				Activities: []model.Activity{
					{Time: "10:00 AM", Title: "Arashiyama", Location: model.Location{Name: "Kyoto"}, CostEstimate: 20},
				},
			},
		},
	}
}

func clarifyingEnv(threadID string) *model.ChatEnvelope {
	return &model.ChatEnvelope{
		Status:   model.StatusClarifying,
		ThreadID: threadID,
		Message:  "Where would you like to go?",
		Clarifying: &model.ClarifyingData{
			SlotsCollected: map[string]json.RawMessage{"destination": json.RawMessage(`"Kyoto"`)},
		},
	}
}

func reviewingEnv(threadID string, it model.Itinerary) *model.ChatEnvelope {
	return &model.ChatEnvelope{
		Status:    model.StatusReviewing,
		ThreadID:  threadID,
		Message:   "Here's your draft itinerary!",
		Reviewing: &model.ReviewingData{Itinerary: it},
	}
}

func completeEnv(threadID, tripID string) *model.ChatEnvelope {
	return &model.ChatEnvelope{
		Status:   model.StatusComplete,
		ThreadID: threadID,
		Message:  "Your trip is finalized!",
		Complete: &model.CompleteData{TripID: tripID, ItineraryVersionID: "v1"},
	}
}

func TestSendTurnAssignsThreadOnce(t *testing.T) {
	fake := &fakeClient{}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	env, err := sess.SendTurn(ctx, "Plan a trip to Kyoto")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClarifying, env.Status)
	assert.Equal(t, "t1", sess.ThreadID())

	_, err = sess.SendTurn(ctx, "5 days")
	require.NoError(t, err)

	reqs := fake.sentRequests()
	require.Len(t, reqs, 2)
	assert.Nil(t, reqs[0].ThreadID, "first turn must carry a null thread id")
	require.NotNil(t, reqs[1].ThreadID)
	assert.Equal(t, "t1", *reqs[1].ThreadID)
	assert.Equal(t, "t1", sess.ThreadID())
}

func TestSendTurnRejectsEmptyInput(t *testing.T) {
	fake := &fakeClient{}
	sess := New("user-1", fake, nil)

	_, err := sess.SendTurn(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, fake.sentRequests(), "validation failures must not reach the network")
	assert.Empty(t, sess.Messages())
}

func TestSendTurnSingleFlight(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		close(started)
		<-block
		return clarifyingEnv("t1"), nil
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := sess.SendTurn(ctx, "first")
		done <- err
	}()
	<-started

	_, err := sess.SendTurn(ctx, "second")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(block)
	require.NoError(t, <-done)

	// Only the first turn went out, and only its user message was appended.
	assert.Len(t, fake.sentRequests(), 1)
	var userMessages []string
	for _, msg := range sess.Messages() {
		if msg.Role == RoleUser {
			userMessages = append(userMessages, msg.Content)
		}
	}
	assert.Equal(t, []string{"first"}, userMessages)

	// The lock is released: a new turn goes through.
	fake.chatFn = nil
	_, err = sess.SendTurn(ctx, "third")
	assert.NoError(t, err)
}

func TestSendTurnTransportFailure(t *testing.T) {
	fake := &fakeClient{}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "Plan a trip to Kyoto")
	require.NoError(t, err)
	require.Equal(t, model.StatusClarifying, sess.Status())

	boom := errors.New("connection reset")
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return nil, boom
	}

	before := len(sess.Messages())
	_, err = sess.SendTurn(ctx, "3 days")
	assert.ErrorIs(t, err, boom)

	msgs := sess.Messages()
	// Optimistic user message plus exactly one synthetic agent message.
	require.Len(t, msgs, before+2)
	last := msgs[len(msgs)-1]
	assert.Equal(t, RoleAgent, last.Role)
	assert.Empty(t, last.Status, "error message carries no agent status")
	assert.Nil(t, last.Envelope)
	assert.Equal(t, model.StatusClarifying, sess.Status(), "failure must not change status")

	// Retry reuses the established thread id.
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return clarifyingEnv("t1"), nil
	}
	_, err = sess.SendTurn(ctx, "3 days")
	require.NoError(t, err)
	reqs := fake.sentRequests()
	require.NotNil(t, reqs[len(reqs)-1].ThreadID)
	assert.Equal(t, "t1", *reqs[len(reqs)-1].ThreadID)
}

func TestSendTurnThreadMismatch(t *testing.T) {
	fake := &fakeClient{}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "Plan a trip to Kyoto")
	require.NoError(t, err)

	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return clarifyingEnv("t2"), nil
	}
	before := sess.Messages()
	_, err = sess.SendTurn(ctx, "5 days")
	assert.ErrorIs(t, err, ErrThreadMismatch)

	assert.Equal(t, "t1", sess.ThreadID(), "foreign thread id must not be adopted")
	// The response was dropped: no agent message was appended for it.
	msgs := sess.Messages()
	assert.Len(t, msgs, len(before)+1)
	assert.Equal(t, RoleUser, msgs[len(msgs)-1].Role)
}

func TestReviewingInstallsAndReplacesDraft(t *testing.T) {
	first := sampleItinerary()
	second := sampleItinerary()
	second.TotalCostEstimate = 1500

	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return reviewingEnv("t1", first), nil
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "plan it")
	require.NoError(t, err)
	require.NotNil(t, sess.Draft())
	assert.Equal(t, first.TotalCostEstimate, sess.Draft().TotalCostEstimate)

	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return reviewingEnv("t1", second), nil
	}
	_, err = sess.SendTurn(ctx, "make it fancier")
	require.NoError(t, err)
	assert.Equal(t, second.TotalCostEstimate, sess.Draft().TotalCostEstimate,
		"a new draft supersedes the old one")
}

func TestClarifyingAndPlanningNeverInstallDraft(t *testing.T) {
	fake := &fakeClient{}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "Plan a trip to Kyoto")
	require.NoError(t, err)
	assert.Nil(t, sess.Draft())

	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return &model.ChatEnvelope{
			Status:   model.StatusPlanning,
			ThreadID: "t1",
			Message:  "Working on it...",
			Planning: &model.PlanningData{},
		}, nil
	}
	_, err = sess.SendTurn(ctx, "go ahead")
	require.NoError(t, err)
	assert.Nil(t, sess.Draft())
	assert.Equal(t, model.StatusPlanning, sess.Status())
}

func TestApproveSendsLiteralToken(t *testing.T) {
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return reviewingEnv("t1", sampleItinerary()), nil
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "plan it")
	require.NoError(t, err)

	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return completeEnv("t1", "trip1"), nil
	}
	_, err = sess.Approve(ctx)
	require.NoError(t, err)

	reqs := fake.sentRequests()
	assert.Equal(t, "approve", reqs[len(reqs)-1].Message)
}

func TestDismissDraftKeepsStatus(t *testing.T) {
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return reviewingEnv("t1", sampleItinerary()), nil
	}
	sess := New("user-1", fake, nil)

	_, err := sess.SendTurn(context.Background(), "plan it")
	require.NoError(t, err)
	require.NotNil(t, sess.Draft())

	sess.DismissDraft()
	assert.Nil(t, sess.Draft())
	assert.Equal(t, model.StatusReviewing, sess.Status(), "dismissing never rolls back status")
}

func TestDraftsHeldGaugeCountsSessions(t *testing.T) {
	newReviewing := func() *Session {
		fake := &fakeClient{}
		fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
			return reviewingEnv("t1", sampleItinerary()), nil
		}
		sess := New("user-1", fake, nil)
		_, err := sess.SendTurn(context.Background(), "plan it")
		require.NoError(t, err)
		return sess
	}

	// The gauge is process-global, so assert deltas from the baseline.
	base := testutil.ToFloat64(metrics.DraftsHeld)

	a := newReviewing()
	b := newReviewing()
	assert.Equal(t, base+2, testutil.ToFloat64(metrics.DraftsHeld),
		"each session contributes one held draft")

	// A replacement draft in the same session does not double-count.
	_, err := a.SendTurn(context.Background(), "make it fancier")
	require.NoError(t, err)
	assert.Equal(t, base+2, testutil.ToFloat64(metrics.DraftsHeld))

	a.DismissDraft()
	a.DismissDraft() // dismissing twice must not go below
	assert.Equal(t, base+1, testutil.ToFloat64(metrics.DraftsHeld))

	bf := b.client.(*fakeClient)
	bf.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return completeEnv("t1", "trip1"), nil
	}
	_, err = b.Approve(context.Background())
	require.NoError(t, err)
	b.WaitForFetch()
	assert.Equal(t, base, testutil.ToFloat64(metrics.DraftsHeld))
}

func TestCompleteClearsDraftAndFetchesItinerary(t *testing.T) {
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return reviewingEnv("t1", sampleItinerary()), nil
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "plan it")
	require.NoError(t, err)

	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return completeEnv("t1", "trip1"), nil
	}
	_, err = sess.Approve(ctx)
	require.NoError(t, err)

	assert.Nil(t, sess.Draft(), "completion clears the held draft")
	assert.Equal(t, "trip1", sess.TripID())

	sess.WaitForFetch()
	version := sess.Finalized()
	require.NotNil(t, version)
	assert.Equal(t, "trip1", version.TripID)
	assert.Equal(t, 1, version.VersionNumber)
	require.NotNil(t, sess.Trip())
	assert.Equal(t, "trip1", sess.Trip().ID)
}

func TestFetchFailureIsSwallowedAndRetriable(t *testing.T) {
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return completeEnv("t1", "trip1"), nil
	}
	fake.itineraryFn = func(tripID string) (*model.ItineraryVersion, error) {
		return nil, errors.New("not ready")
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "approve")
	require.NoError(t, err)
	sess.WaitForFetch()
	assert.Nil(t, sess.Finalized(), "failed fetch leaves the itinerary unavailable")

	// Manual re-trigger after the service catches up.
	fake.itineraryFn = nil
	require.NoError(t, sess.RefreshItinerary(ctx))
	require.NotNil(t, sess.Finalized())
	assert.Equal(t, "trip1", sess.Finalized().TripID)
}

func TestRefreshItineraryRequiresTrip(t *testing.T) {
	sess := New("user-1", &fakeClient{}, nil)
	assert.ErrorIs(t, sess.RefreshItinerary(context.Background()), ErrNoTrip)
}

func TestRefreshItineraryReplacesWholesale(t *testing.T) {
	fake := &fakeClient{}
	fake.chatFn = func(req model.ChatRequest) (*model.ChatEnvelope, error) {
		return completeEnv("t1", "trip1"), nil
	}
	sess := New("user-1", fake, nil)
	ctx := context.Background()

	_, err := sess.SendTurn(ctx, "approve")
	require.NoError(t, err)
	sess.WaitForFetch()
	require.NotNil(t, sess.Finalized())

	fake.itineraryFn = func(tripID string) (*model.ItineraryVersion, error) {
		return &model.ItineraryVersion{TripID: tripID, VersionNumber: 2, ChangeSummary: "Revised", Itinerary: sampleItinerary()}, nil
	}
	require.NoError(t, sess.RefreshItinerary(ctx))
	assert.Equal(t, 2, sess.Finalized().VersionNumber)
	assert.Equal(t, "Revised", sess.Finalized().ChangeSummary)
}
