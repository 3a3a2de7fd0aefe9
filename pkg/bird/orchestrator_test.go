package bird

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"crappybird/pkg/affinity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func ptr(v float64) *float64 { return &v }

// calibratedModel answers like a model that follows the tier rules it was given.
func calibratedModel() *MockModel {
	return &MockModel{
		GenerateFunc: func(_ context.Context, system, user string) (string, error) {
			var tier Tier = -1
			for _, t := range Tiers() {
				if InstructionsFor(t) == system {
					tier = t
				}
			}
			if tier < 0 {
				return "", errors.New("unknown system instruction")
			}
			var in map[string]string
			if err := json.Unmarshal([]byte(user), &in); err != nil {
				return "", err
			}
			p := ProfileFor(tier)
			delta := p.TypicalDelta.Max
			if UserAction(in["action"]).IsFeeding() {
				delta = (p.CrumbDelta.Min + p.CrumbDelta.Max) / 2
			}
			return fmt.Sprintf("```json\n{\"action\":[\"blink\"],\"chat\":\"\",\"mood\":\"%s\",\"activity\":\"standing still\",\"reflection\":\"Crappy Bird blinks.\",\"feeling_delta\":%d}\n```", tier, delta), nil
		},
	}
}

func TestHandleTurn_FeedCrumbAtDistant(t *testing.T) {
	ctx := context.Background()
	model := calibratedModel()
	store := affinity.NewStore(nil, affinity.NewMemoryBackend())
	store.Set(ctx, 50)

	o := NewOrchestrator(model, store, zap.NewNop(), Options{})
	turn := Turn{
		Action:         ActionFeedCrumb,
		Chat:           "",
		Mood:           "blank",
		Activity:       "standing still",
		LastReflection: "...",
		Intimacy:       ptr(50),
	}

	r, err := o.HandleTurn(ctx, turn)
	require.NoError(t, err)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, InstructionsFor(Distant), calls[0].System)
	assert.Equal(t, "distant", r.Mood)
	assert.Greater(t, r.FeelingDelta, 0)
	assert.True(t, ProfileFor(Distant).CrumbDelta.Contains(r.FeelingDelta))

	assert.Equal(t, 50, store.Get(ctx), "orchestrator leaves the store alone by default")
	after := store.ChangeBy(ctx, float64(r.FeelingDelta))
	assert.GreaterOrEqual(t, after, 51)
	assert.LessOrEqual(t, after, 53)
}

func TestHandleTurn_UserTurnPayload(t *testing.T) {
	model := &MockModel{}
	o := NewOrchestrator(model, nil, nil, Options{})

	_, err := o.HandleTurn(context.Background(), Turn{
		Action:         ActionPoke,
		Chat:           "hey, are you awake?",
		Mood:           "sleepy",
		Activity:       "resting under a leaf",
		LastReflection: "Crappy Bird had been half-asleep.",
		Intimacy:       ptr(700),
	})
	require.NoError(t, err)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"action":"poke","chat":"hey, are you awake?","mood":"sleepy","activity":"resting under a leaf","last_reflection":"Crappy Bird had been half-asleep."}`, calls[0].User)
	assert.NotContains(t, calls[0].User, "intimacy")
	assert.Equal(t, InstructionsFor(Comfortable), calls[0].System)
}

func TestHandleTurn_TrustingRegardlessOfFields(t *testing.T) {
	turns := []Turn{
		{Action: ActionPoke, Chat: "go away", Mood: "angry", Activity: "hiding"},
		{Action: ActionFeedCrumb, Mood: "", Activity: ""},
		{Action: ActionNone, Chat: "hi", LastReflection: "Crappy Bird had flinched."},
	}
	for _, turn := range turns {
		turn.Intimacy = ptr(950)
		model := &MockModel{}
		o := NewOrchestrator(model, nil, nil, Options{})
		_, err := o.HandleTurn(context.Background(), turn)
		require.NoError(t, err)
		assert.Equal(t, InstructionsFor(Trusting), model.Calls()[0].System)
	}
}

func TestHandleTurn_IntimacyFromStore(t *testing.T) {
	ctx := context.Background()
	store := affinity.NewStore(nil, affinity.NewMemoryBackend())
	store.Set(ctx, 450)
	model := &MockModel{}
	o := NewOrchestrator(model, store, nil, Options{})

	_, err := o.HandleTurn(ctx, Turn{Action: ActionPoke})
	require.NoError(t, err)
	assert.Equal(t, InstructionsFor(Familiar), model.Calls()[0].System)

	assert.Equal(t, 1000, o.ResolveIntimacy(ctx, Turn{Intimacy: ptr(4000)}))
	assert.Equal(t, 0, NewOrchestrator(model, nil, nil, Options{}).ResolveIntimacy(ctx, Turn{}))
}

func TestHandleTurn_ApplyAffinity(t *testing.T) {
	ctx := context.Background()
	store := affinity.NewStore(nil, affinity.NewMemoryBackend())
	store.Set(ctx, 50)
	rec := &MockRecorder{}

	o := NewOrchestrator(calibratedModel(), store, nil, Options{ApplyAffinity: true})
	o.SetRecorder(rec)

	r, err := o.HandleTurn(ctx, Turn{Action: ActionFeedCrumb, Mood: "blank", Activity: "standing still"})
	require.NoError(t, err)
	assert.Equal(t, 50+r.FeelingDelta, store.Get(ctx))
	assert.Equal(t, []int{50 + r.FeelingDelta}, rec.intimacy)
	assert.Equal(t, []recordedTurn{{Tier: Distant, Outcome: OutcomeOK}}, rec.turns)
}

func TestHandleTurn_MalformedNeverTouchesStore(t *testing.T) {
	ctx := context.Background()
	store := affinity.NewStore(nil, affinity.NewMemoryBackend())
	store.Set(ctx, 320)
	raw := "sure! here you go: {bad json"
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		return raw, nil
	}}
	rec := &MockRecorder{}
	o := NewOrchestrator(model, store, nil, Options{ApplyAffinity: true, UpstreamRetries: 3})
	o.SetRecorder(rec)

	r, err := o.HandleTurn(ctx, Turn{Action: ActionPoke})
	assert.Nil(t, r)
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrUpstream)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, raw, malformed.Raw)

	assert.Len(t, model.Calls(), 1, "malformed replies are not retried")
	assert.Equal(t, 320, store.Get(ctx))
	assert.Equal(t, []recordedTurn{{Tier: Familiar, Outcome: OutcomeMalformed}}, rec.turns)
}

func TestHandleTurn_UpstreamError(t *testing.T) {
	boom := errors.New("503 service unavailable")
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		return "", boom
	}}
	o := NewOrchestrator(model, nil, nil, Options{})

	_, err := o.HandleTurn(context.Background(), Turn{Action: ActionPoke})
	require.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
	assert.Len(t, model.Calls(), 1, "no retries by default")
}

func TestHandleTurn_UpstreamRetry(t *testing.T) {
	attempts := 0
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection reset")
		}
		return validReply, nil
	}}
	o := NewOrchestrator(model, nil, nil, Options{
		UpstreamRetries: 2,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
	})

	r, err := o.HandleTurn(context.Background(), Turn{Action: ActionPoke})
	require.NoError(t, err)
	assert.Equal(t, 2, r.FeelingDelta)
	assert.Equal(t, 3, attempts)
}

func TestHandleTurn_UpstreamRetryExhausted(t *testing.T) {
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		return "", errors.New("rate limited")
	}}
	o := NewOrchestrator(model, nil, nil, Options{
		UpstreamRetries: 2,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
	})

	_, err := o.HandleTurn(context.Background(), Turn{Action: ActionPoke})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Len(t, model.Calls(), 3)
}

func TestHandleTurn_CanceledContextNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &MockModel{GenerateFunc: func(ctx context.Context, _, _ string) (string, error) {
		cancel()
		return "", ctx.Err()
	}}
	o := NewOrchestrator(model, nil, nil, Options{UpstreamRetries: 5, InitialBackoff: time.Millisecond})

	_, err := o.HandleTurn(ctx, Turn{Action: ActionPoke})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Len(t, model.Calls(), 1)
}

func TestHandleTurn_IgnoredAndInvalid(t *testing.T) {
	model := &MockModel{}
	rec := &MockRecorder{}
	o := NewOrchestrator(model, nil, nil, Options{})
	o.SetRecorder(rec)

	_, err := o.HandleTurn(context.Background(), Turn{Action: ActionNone, Chat: "   "})
	assert.ErrorIs(t, err, ErrInputIgnored)

	_, err = o.HandleTurn(context.Background(), Turn{Action: "kick"})
	assert.ErrorIs(t, err, ErrInvalidTurn)

	assert.Empty(t, model.Calls())
	assert.Equal(t, []recordedTurn{
		{Tier: Distant, Outcome: OutcomeIgnored},
		{Tier: Distant, Outcome: OutcomeInvalid},
	}, rec.turns)
}

func TestHandleTurn_CrumbRuleViolationIsReported(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		return `{"action":["look_away"],"chat":"","mood":"flat","activity":"ignoring the crumb","reflection":"Crappy Bird looks away.","feeling_delta":-1}`, nil
	}}
	rec := &MockRecorder{}
	o := NewOrchestrator(model, nil, zap.New(core), Options{})
	o.SetRecorder(rec)

	r, err := o.HandleTurn(context.Background(), Turn{Action: ActionFeedCrumb, Intimacy: ptr(150)})
	require.NoError(t, err)
	assert.Equal(t, -1, r.FeelingDelta)
	assert.Equal(t, []Tier{Wary}, rec.violations)
	assert.Equal(t, 1, logs.FilterMessage("Feeding turn produced a feeling_delta outside the crumb range").Len())
}

func TestHandleTurn_CrumbDeltaAboveTierRange(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	model := &MockModel{GenerateFunc: func(context.Context, string, string) (string, error) {
		return `{"action":["peck_gently"],"chat":"","mood":"wary","activity":"pecking","reflection":"Crappy Bird pecks once.","feeling_delta":7}`, nil
	}}
	rec := &MockRecorder{}
	o := NewOrchestrator(model, nil, zap.New(core), Options{})
	o.SetRecorder(rec)

	// Wary teaches +1..+4 for crumbs.
	r, err := o.HandleTurn(context.Background(), Turn{Action: ActionFeedCrumb, Intimacy: ptr(150)})
	require.NoError(t, err)
	assert.Equal(t, 7, r.FeelingDelta)
	assert.Equal(t, []Tier{Wary}, rec.violations)

	entries := logs.FilterMessage("Feeding turn produced a feeling_delta outside the crumb range").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["crumb_max"])

	rec.violations = nil
	model.GenerateFunc = func(context.Context, string, string) (string, error) {
		return `{"action":["peck_gently"],"chat":"thanks.","mood":"wary","activity":"pecking","reflection":"Crappy Bird pecks once.","feeling_delta":3}`, nil
	}
	_, err = o.HandleTurn(context.Background(), Turn{Action: ActionFeedCrumb, Intimacy: ptr(150)})
	require.NoError(t, err)
	assert.Empty(t, rec.violations)
}
