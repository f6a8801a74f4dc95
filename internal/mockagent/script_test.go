package mockagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/planner-client/internal/model"
)

// drive walks a flow to the reviewing state and returns the thread id.
func drive(t *testing.T, flow *Flow) string {
	t.Helper()

	env, err := flow.Turn("user-1", "Plan a trip to Kyoto", "")
	require.NoError(t, err)
	require.Equal(t, model.StatusClarifying, env.Status)
	threadID := env.ThreadID

	env, err = flow.Turn("user-1", "5 days", threadID)
	require.NoError(t, err)
	require.Equal(t, model.StatusClarifying, env.Status)

	env, err = flow.Turn("user-1", "around 2000 dollars", threadID)
	require.NoError(t, err)
	require.Equal(t, model.StatusReviewing, env.Status)
	return threadID
}

func TestFlowClarifiesUntilSlotsComplete(t *testing.T) {
	flow := NewFlow(NewStore())

	env, err := flow.Turn("user-1", "Plan a trip to Kyoto", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusClarifying, env.Status)
	assert.NotEmpty(t, env.ThreadID)
	require.NotNil(t, env.Clarifying)
	assert.JSONEq(t, `"Kyoto"`, string(env.Clarifying.SlotsCollected["destination"]))
	assert.NotContains(t, env.Clarifying.SlotsCollected, "duration_days")

	env2, err := flow.Turn("user-1", "5 days", env.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, env.ThreadID, env2.ThreadID, "thread id is stable across turns")
	assert.JSONEq(t, `5`, string(env2.Clarifying.SlotsCollected["duration_days"]))

	env3, err := flow.Turn("user-1", "2000", env.ThreadID)
	require.NoError(t, err)
	require.Equal(t, model.StatusReviewing, env3.Status)
	require.NotNil(t, env3.Reviewing)
	assert.Len(t, env3.Reviewing.Itinerary.Days, 5)
	assert.Equal(t, "USD", env3.Reviewing.Itinerary.Currency)
	assert.Less(t, env3.Reviewing.Itinerary.TotalCostEstimate, 2000.0)
}

func TestFlowDayNumbersAreStrictlyIncreasing(t *testing.T) {
	flow := NewFlow(NewStore())
	drive(t, flow)

	flow.mu.Lock()
	defer flow.mu.Unlock()
	for _, th := range flow.threads {
		for i, day := range th.draft.Days {
			assert.Equal(t, i+1, day.DayNumber)
		}
	}
}

func TestFlowRevisionRebuildsDraft(t *testing.T) {
	flow := NewFlow(NewStore())
	threadID := drive(t, flow)

	env, err := flow.Turn("user-1", "more food stops please", threadID)
	require.NoError(t, err)
	require.Equal(t, model.StatusReviewing, env.Status)
	assert.Contains(t, env.Reviewing.Itinerary.Title, "(rev 1)")
	assert.Contains(t, env.Reviewing.Itinerary.Summary, "more food stops please")
}

func TestFlowApprovalFinalizes(t *testing.T) {
	store := NewStore()
	flow := NewFlow(store)
	threadID := drive(t, flow)

	env, err := flow.Turn("user-1", "approve", threadID)
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, env.Status)
	require.NotNil(t, env.Complete)
	assert.NotEmpty(t, env.Complete.TripID)
	assert.NotEmpty(t, env.Complete.ItineraryVersionID)

	trip, ok := store.Trip(env.Complete.TripID)
	require.True(t, ok)
	assert.Equal(t, "user-1", trip.UserID)
	assert.Equal(t, model.TripStatusPlanning, trip.Status)
	assert.Equal(t, "Kyoto", trip.TripConstraints.Destination)

	version, ok := store.LatestVersion(env.Complete.TripID)
	require.True(t, ok)
	assert.Equal(t, 1, version.VersionNumber)
	assert.Equal(t, "ai", version.CreatedBy)
	assert.Equal(t, "Initial AI-generated itinerary", version.ChangeSummary)

	conv, ok := store.Conversation(env.Complete.TripID)
	require.True(t, ok)
	assert.NotEmpty(t, conv.Messages)
	assert.Equal(t, "user", conv.Messages[0].Role)
}

func TestFlowAcceptsAllApprovalTokens(t *testing.T) {
	for _, token := range []string{"approve", "Yes", "LOOKS GOOD", "confirm", "ok", "lgtm", "Perfect"} {
		t.Run(token, func(t *testing.T) {
			flow := NewFlow(NewStore())
			threadID := drive(t, flow)

			env, err := flow.Turn("user-1", token, threadID)
			require.NoError(t, err)
			assert.Equal(t, model.StatusComplete, env.Status)
		})
	}
}

func TestFlowChatAfterCompletionStartsNewTopic(t *testing.T) {
	flow := NewFlow(NewStore())
	threadID := drive(t, flow)

	_, err := flow.Turn("user-1", "approve", threadID)
	require.NoError(t, err)

	env, err := flow.Turn("user-1", "Now plan a trip to Lisbon", threadID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClarifying, env.Status)
	assert.Equal(t, threadID, env.ThreadID)
	assert.JSONEq(t, `"Lisbon"`, string(env.Clarifying.SlotsCollected["destination"]))
}

func TestFlowRejectsEmptyMessage(t *testing.T) {
	flow := NewFlow(NewStore())
	_, err := flow.Turn("user-1", "   ", "")
	assert.Error(t, err)
}
