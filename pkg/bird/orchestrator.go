package bird

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crappybird/pkg/affinity"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Turn outcomes reported to the Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeIgnored   = "ignored"
	OutcomeInvalid   = "invalid"
	OutcomeUpstream  = "upstream_error"
	OutcomeMalformed = "malformed"
)

// Options tune the orchestrator. The zero value makes one model call per
// turn and leaves the stored score alone.
type Options struct {
	// ApplyAffinity folds feeling_delta into the store after validation.
	ApplyAffinity bool
	// UpstreamRetries is the number of extra attempts after a failed model
	// call. Malformed replies are never retried.
	UpstreamRetries int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
}

// Orchestrator turns one user turn into one validated reaction.
type Orchestrator struct {
	model    Model
	store    AffinityStore
	recorder Recorder
	logger   *zap.Logger
	opts     Options
}

// NewOrchestrator wires a model and an optional store. store may be nil, in
// which case turns without an intimacy value resolve to the coldest tier.
func NewOrchestrator(model Model, store AffinityStore, logger *zap.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	return &Orchestrator{
		model:    model,
		store:    store,
		recorder: nopRecorder{},
		logger:   logger,
		opts:     opts,
	}
}

// SetRecorder replaces the telemetry sink.
func (o *Orchestrator) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	o.recorder = r
}

// ResolveIntimacy returns the score used for tier selection on this turn.
func (o *Orchestrator) ResolveIntimacy(ctx context.Context, turn Turn) int {
	if turn.Intimacy != nil {
		return affinity.Clamp(*turn.Intimacy)
	}
	if o.store != nil {
		return o.store.Get(ctx)
	}
	return affinity.Min
}

// HandleTurn asks the model for the bird's reaction to turn.
//
// Errors match ErrInvalidTurn, ErrInputIgnored, ErrUpstream or
// ErrMalformedResponse. The store is only touched after the reply passed
// validation.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) (*Reaction, error) {
	start := time.Now()

	intimacy := o.ResolveIntimacy(ctx, turn)
	tier := SelectTier(intimacy)

	if err := turn.Validate(); err != nil {
		o.recorder.ObserveTurn(tier, OutcomeInvalid, time.Since(start))
		return nil, err
	}
	if turn.Empty() {
		o.recorder.ObserveTurn(tier, OutcomeIgnored, time.Since(start))
		return nil, ErrInputIgnored
	}

	userTurn, err := json.Marshal(modelTurn{
		Action:         turn.Action,
		Chat:           turn.Chat,
		Mood:           turn.Mood,
		Activity:       turn.Activity,
		LastReflection: turn.LastReflection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn: %w", err)
	}

	log := o.logger.With(
		zap.String("tier", tier.String()),
		zap.Int("intimacy", intimacy),
		zap.String("action", string(turn.Action)),
	)

	raw, err := o.generate(ctx, log, InstructionsFor(tier), string(userTurn))
	if err != nil {
		o.recorder.ObserveTurn(tier, OutcomeUpstream, time.Since(start))
		log.Error("Model call failed", zap.Error(err))
		return nil, &UpstreamError{Err: err}
	}

	reaction, err := DecodeReaction(raw)
	if err != nil {
		o.recorder.ObserveTurn(tier, OutcomeMalformed, time.Since(start))
		log.Warn("Model reply broke the reaction contract", zap.Error(err))
		return nil, err
	}

	if crumb := ProfileFor(tier).CrumbDelta; turn.Action.IsFeeding() && !crumb.Contains(reaction.FeelingDelta) {
		o.recorder.CrumbRuleViolation(tier)
		log.Warn("Feeding turn produced a feeling_delta outside the crumb range",
			zap.Int("feeling_delta", reaction.FeelingDelta),
			zap.Int("crumb_min", crumb.Min),
			zap.Int("crumb_max", crumb.Max))
	}

	if o.opts.ApplyAffinity && o.store != nil {
		next := o.store.ChangeBy(ctx, float64(reaction.FeelingDelta))
		o.recorder.SetIntimacy(next)
		log = log.With(zap.Int("intimacy_after", next))
	}

	o.recorder.ObserveTurn(tier, OutcomeOK, time.Since(start))
	log.Info("Turn handled",
		zap.Int("feeling_delta", reaction.FeelingDelta),
		zap.String("mood", reaction.Mood),
		zap.Duration("took", time.Since(start)))

	return reaction, nil
}

func (o *Orchestrator) generate(ctx context.Context, log *zap.Logger, system, user string) (string, error) {
	if o.opts.UpstreamRetries <= 0 {
		return o.model.Generate(ctx, system, user)
	}

	var raw string
	op := func() error {
		text, err := o.model.Generate(ctx, system, user)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		raw = text
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.opts.InitialBackoff
	policy.MaxInterval = o.opts.MaxBackoff
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		log.Warn("Model call failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}
	err := backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(o.opts.UpstreamRetries)), ctx),
		notify)
	return raw, err
}
