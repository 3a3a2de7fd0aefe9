package bird

import (
	"context"
	"sync"
	"time"
)

type MockModel struct {
	GenerateFunc func(ctx context.Context, systemInstruction, userTurn string) (string, error)

	mu    sync.Mutex
	calls []modelCall
}

type modelCall struct {
	System string
	User   string
}

func (m *MockModel) Generate(ctx context.Context, systemInstruction, userTurn string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, modelCall{System: systemInstruction, User: userTurn})
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemInstruction, userTurn)
	}
	return validReply, nil
}

func (m *MockModel) Calls() []modelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]modelCall(nil), m.calls...)
}

type recordedTurn struct {
	Tier    Tier
	Outcome string
}

type MockRecorder struct {
	mu         sync.Mutex
	turns      []recordedTurn
	violations []Tier
	intimacy   []int
}

func (r *MockRecorder) ObserveTurn(tier Tier, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, recordedTurn{Tier: tier, Outcome: outcome})
}

func (r *MockRecorder) CrumbRuleViolation(tier Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, tier)
}

func (r *MockRecorder) SetIntimacy(score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intimacy = append(r.intimacy, score)
}
