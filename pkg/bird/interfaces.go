package bird

import (
	"context"
	"time"
)

// Model is a text-completion service that takes a system instruction and a
// single user message and returns whatever text it produced.
type Model interface {
	Generate(ctx context.Context, systemInstruction, userTurn string) (string, error)
}

// AffinityStore is the part of affinity.Store the orchestrator uses.
type AffinityStore interface {
	Get(ctx context.Context) int
	ChangeBy(ctx context.Context, delta float64) int
}

// Recorder receives per-turn telemetry.
type Recorder interface {
	ObserveTurn(tier Tier, outcome string, elapsed time.Duration)
	CrumbRuleViolation(tier Tier)
	SetIntimacy(score int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(Tier, string, time.Duration) {}
func (nopRecorder) CrumbRuleViolation(Tier)                 {}
func (nopRecorder) SetIntimacy(int)                         {}
