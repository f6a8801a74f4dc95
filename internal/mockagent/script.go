package mockagent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/wayfarer-ai/planner-client/internal/model"
)

// approvals mirrors the token set the production agent accepts as approval.
var approvals = map[string]bool{
	"approve":    true,
	"yes":        true,
	"looks good": true,
	"confirm":    true,
	"ok":         true,
	"lgtm":       true,
	"perfect":    true,
}

// slots are the trip parameters the agent clarifies before planning.
type slots struct {
	Destination  string
	DurationDays int
	Budget       float64
}

func (sl slots) complete() bool {
	return sl.Destination != "" && sl.DurationDays > 0 && sl.Budget > 0
}

type thread struct {
	id       string
	userID   string
	slots    slots
	phase    model.Status
	draft    *model.Itinerary
	revision int
	log      []model.ConversationMessage
}

// Flow drives the scripted clarify/review/finalize state machine, one state
// per thread. It is deterministic so protocol flows are reproducible.
type Flow struct {
	store *Store

	mu      sync.Mutex
	threads map[string]*thread
	now     func() time.Time
}

// NewFlow creates a Flow backed by the given store.
func NewFlow(store *Store) *Flow {
	return &Flow{
		store:   store,
		threads: make(map[string]*thread),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Turn processes one user message and returns the response envelope.
// An empty threadID starts a new thread.
func (f *Flow) Turn(userID, message, threadID string) (*model.ChatEnvelope, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	t := f.resolve(userID, threadID)
	t.log = append(t.log, model.ConversationMessage{
		Role:      "user",
		Content:   message,
		Timestamp: f.now(),
	})

	var env *model.ChatEnvelope
	if t.phase == model.StatusReviewing {
		env = f.reviewTurn(t, message)
	} else {
		env = f.planningTurn(t, message)
	}

	t.log = append(t.log, model.ConversationMessage{
		Role:      "ai",
		Content:   env.Message,
		Timestamp: f.now(),
	})
	return env, nil
}

func (f *Flow) resolve(userID, threadID string) *thread {
	if threadID != "" {
		if t, ok := f.threads[threadID]; ok {
			return t
		}
	}
	id := threadID
	if id == "" {
		id = uuid.New().String()
	}
	t := &thread{id: id, userID: userID, phase: model.StatusClarifying}
	f.threads[id] = t
	return t
}

// planningTurn absorbs slots from the message and either asks a follow-up
// question or produces a draft itinerary for review.
func (f *Flow) planningTurn(t *thread, message string) *model.ChatEnvelope {
	if t.phase == model.StatusComplete {
		// Chatting after completion starts a new planning topic on the
		// same thread.
		t.slots = slots{}
		t.draft = nil
		t.revision = 0
		t.phase = model.StatusClarifying
	}

	t.slots = absorb(t.slots, message)

	if !t.slots.complete() {
		return &model.ChatEnvelope{
			Status:   model.StatusClarifying,
			ThreadID: t.id,
			Message:  followUpQuestion(t.slots),
			Clarifying: &model.ClarifyingData{
				SlotsCollected: collectedSlots(t.slots),
			},
		}
	}

	t.draft = buildItinerary(t.slots, t.revision, f.now())
	t.phase = model.StatusReviewing
	return f.reviewingEnvelope(t)
}

// reviewTurn finalizes on approval and revises the draft on anything else.
func (f *Flow) reviewTurn(t *thread, message string) *model.ChatEnvelope {
	if approvals[strings.ToLower(strings.TrimSpace(message))] {
		return f.finalize(t)
	}

	t.revision++
	t.draft = buildItinerary(t.slots, t.revision, f.now())
	t.draft.Summary = "Updated after your feedback: " + message
	return f.reviewingEnvelope(t)
}

func (f *Flow) reviewingEnvelope(t *thread) *model.ChatEnvelope {
	tripRequest, _ := json.Marshal(tripRequestFor(t.slots))
	return &model.ChatEnvelope{
		Status:   model.StatusReviewing,
		ThreadID: t.id,
		Message: fmt.Sprintf(
			"Here's your draft itinerary for %s! Review it below and reply 'approve' to finalize, or tell me what you'd like to change.",
			t.slots.Destination,
		),
		Reviewing: &model.ReviewingData{
			Itinerary:   *t.draft,
			TripRequest: tripRequest,
		},
	}
}

// finalize persists the trip, its first itinerary version, and the archived
// conversation, then reports completion.
func (f *Flow) finalize(t *thread) *model.ChatEnvelope {
	now := f.now()
	tripID := uuid.New().String()
	versionID := uuid.New().String()

	startDate, endDate := "", ""
	if len(t.draft.Days) > 0 {
		startDate = t.draft.Days[0].Date
		endDate = t.draft.Days[len(t.draft.Days)-1].Date
	}

	f.store.SaveTrip(&model.Trip{
		ID:        tripID,
		UserID:    t.userID,
		Title:     t.draft.Title,
		Status:    model.TripStatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
		TripConstraints: model.TripConstraints{
			Destination:   t.slots.Destination,
			StartDate:     startDate,
			EndDate:       endDate,
			DurationDays:  t.slots.DurationDays,
			Budget:        t.slots.Budget,
			TravelGroup:   "solo",
			TravelerCount: 1,
		},
		CurrentVersion: 1,
	})
	f.store.SaveVersion(model.ItineraryVersion{
		ID:            versionID,
		TripID:        tripID,
		VersionNumber: 1,
		CreatedAt:     now,
		CreatedBy:     "ai",
		ChangeSummary: "Initial AI-generated itinerary",
		Itinerary:     *t.draft,
	})
	f.store.SaveConversation(&model.Conversation{
		ID:        uuid.New().String(),
		TripID:    tripID,
		UserID:    t.userID,
		CreatedAt: now,
		Messages:  append([]model.ConversationMessage(nil), t.log...),
	})

	itinerary := *t.draft
	tripRequest, _ := json.Marshal(tripRequestFor(t.slots))
	t.phase = model.StatusComplete

	return &model.ChatEnvelope{
		Status:   model.StatusComplete,
		ThreadID: t.id,
		Message:  fmt.Sprintf("Your trip to %s is finalized! You can view the full itinerary any time.", t.slots.Destination),
		Complete: &model.CompleteData{
			TripID:             tripID,
			ItineraryVersionID: versionID,
			Itinerary:          &itinerary,
			TripRequest:        tripRequest,
		},
	}
}

var (
	destinationRe = regexp.MustCompile(`(?i)\bto\s+([a-zA-Z][a-zA-Z\s]*)`)
	numberRe      = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// absorb fills missing slots from the message. Small numbers read as trip
// length in days, larger ones as budget.
func absorb(sl slots, message string) slots {
	numberUsed := false
	for _, raw := range numberRe.FindAllString(message, -1) {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		switch {
		case sl.DurationDays == 0 && n >= 1 && n <= 30:
			sl.DurationDays = int(n)
			numberUsed = true
		case sl.Budget == 0 && n > 30:
			sl.Budget = n
			numberUsed = true
		}
	}

	if sl.Destination == "" {
		if m := destinationRe.FindStringSubmatch(message); m != nil {
			sl.Destination = strings.TrimSpace(m[1])
		} else if !numberUsed {
			sl.Destination = strings.TrimRight(message, ".!? ")
		}
	}
	return sl
}

func followUpQuestion(sl slots) string {
	switch {
	case sl.Destination == "":
		return "Where would you like to go?"
	case sl.DurationDays == 0:
		return "How many days are you planning for?"
	default:
		return "What's your budget in USD for this trip?"
	}
}

func collectedSlots(sl slots) map[string]json.RawMessage {
	collected := make(map[string]json.RawMessage)
	put := func(key string, v any) {
		b, _ := json.Marshal(v)
		collected[key] = b
	}
	if sl.Destination != "" {
		put("destination", sl.Destination)
	}
	if sl.DurationDays > 0 {
		put("duration_days", sl.DurationDays)
	}
	if sl.Budget > 0 {
		put("budget_max", sl.Budget)
	}
	return collected
}

func tripRequestFor(sl slots) map[string]any {
	return map[string]any{
		"destination":   sl.Destination,
		"duration_days": sl.DurationDays,
		"budget_max":    sl.Budget,
	}
}

type dayPart struct {
	time  string
	slot  string
	theme string
	tags  []string
}

var dayParts = []dayPart{
	{"09:00 AM", "Morning walk through", "old town", []string{"culture", "walking"}},
	{"01:00 PM", "Lunch and market tour in", "central market", []string{"food"}},
	{"06:00 PM", "Evening at", "riverside district", []string{"relaxation"}},
}

// buildItinerary produces a deterministic draft from the collected slots.
// The revision counter changes the activity mix so revised drafts are
// visibly different from the ones they replace.
func buildItinerary(sl slots, revision int, now time.Time) *model.Itinerary {
	start := now.AddDate(0, 0, 30)
	perActivity := sl.Budget * 0.6 / float64(sl.DurationDays*len(dayParts))

	days := lo.Map(lo.Range(sl.DurationDays), func(i, _ int) model.Day {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		activities := lo.Map(dayParts, func(p dayPart, j int) model.Activity {
			return model.Activity{
				Time:        p.time,
				Title:       fmt.Sprintf("%s %s (day %d)", p.slot, sl.Destination, i+1),
				Description: fmt.Sprintf("Suggested stop %d.%d for your %s trip", i+1, j+1, sl.Destination),
				Location: model.Location{
					Name: fmt.Sprintf("%s %s", sl.Destination, p.theme),
				},
				CostEstimate: perActivity,
				Tags:         p.tags,
			}
		})
		return model.Day{
			DayNumber:  i + 1,
			Date:       date,
			Theme:      fmt.Sprintf("Day %d in %s", i+1, sl.Destination),
			Activities: activities,
		}
	})

	total := lo.SumBy(days, func(d model.Day) float64 {
		return lo.SumBy(d.Activities, func(a model.Activity) float64 { return a.CostEstimate })
	})

	title := fmt.Sprintf("Trip to %s", sl.Destination)
	if revision > 0 {
		title = fmt.Sprintf("%s (rev %d)", title, revision)
	}

	return &model.Itinerary{
		Title:             title,
		Summary:           fmt.Sprintf("%d days in %s on a $%.0f budget", sl.DurationDays, sl.Destination, sl.Budget),
		TotalCostEstimate: total,
		Currency:          "USD",
		Days:              days,
	}
}
