package bird

import (
	"fmt"
	"strings"
)

// UserAction is what the user did to the bird this turn.
type UserAction string

const (
	ActionPoke      UserAction = "poke"
	ActionFeedCrumb UserAction = "feed crumb"
	ActionNone      UserAction = "none"
)

// Valid reports whether a is one of the known user actions.
func (a UserAction) Valid() bool {
	switch a {
	case ActionPoke, ActionFeedCrumb, ActionNone:
		return true
	}
	return false
}

// IsFeeding reports whether the crumb rule applies to a.
func (a UserAction) IsFeeding() bool {
	return a == ActionFeedCrumb
}

// Motion tags the prompts teach the model. The contract does not restrict
// the reply to these, since calibration examples use a few more.
const (
	MotionBlink       = "blink"
	MotionFlinch      = "flinch"
	MotionTiltHead    = "tilt_head"
	MotionPeck        = "peck"
	MotionShift       = "shift"
	MotionLookAway    = "look_away"
	MotionStepBack    = "step_back"
	MotionLeanCloser  = "lean_closer"
	MotionSettleDown  = "settle_down"
	MotionPeckGently  = "peck_gently"
	MotionLookAtCrumb = "look_at_crumb"
	MotionMicroStep   = "micro_step"
	MotionRuffle      = "ruffle"
	MotionLeanABit    = "lean_a_bit"
)

const (
	InitialMood     = "crappy"
	InitialActivity = "resting"
)

// Turn is one user interaction as received from the client.
type Turn struct {
	Action         UserAction `json:"action"`
	Chat           string     `json:"chat"`
	Mood           string     `json:"mood"`
	Activity       string     `json:"activity"`
	LastReflection string     `json:"last_reflection"`
	// Intimacy is only used to pick the tier. Nil means "read the store".
	Intimacy *float64 `json:"intimacy,omitempty"`
}

// Validate checks the parts of a turn the server can judge on its own.
func (t Turn) Validate() error {
	if !t.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTurn, t.Action)
	}
	return nil
}

// Empty reports a turn that carries nothing for the bird to react to.
func (t Turn) Empty() bool {
	return t.Action == ActionNone && strings.TrimSpace(t.Chat) == ""
}

// modelTurn is exactly what the model sees as the user message.
type modelTurn struct {
	Action         UserAction `json:"action"`
	Chat           string     `json:"chat"`
	Mood           string     `json:"mood"`
	Activity       string     `json:"activity"`
	LastReflection string     `json:"last_reflection"`
}

// Reaction is the validated reply for one turn.
type Reaction struct {
	Action       []string `json:"action"`
	Chat         string   `json:"chat"`
	Mood         string   `json:"mood"`
	Activity     string   `json:"activity"`
	Reflection   string   `json:"reflection"`
	FeelingDelta int      `json:"feeling_delta"`
}
