package bird

import (
	"fmt"
	"strings"
)

// Tier is one of the five personality profiles, ordered coldest to warmest.
type Tier int

const (
	Distant Tier = iota
	Wary
	Familiar
	Comfortable
	Trusting
)

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

var tierNames = [...]string{
	Distant:     "distant",
	Wary:        "wary",
	Familiar:    "familiar",
	Comfortable: "comfortable",
	Trusting:    "trusting",
}

// Intimacy score bounds per tier. They partition [0, 1000].
var tierBounds = [...]Range{
	Distant:     {Min: 0, Max: 99},
	Wary:        {Min: 100, Max: 299},
	Familiar:    {Min: 300, Max: 599},
	Comfortable: {Min: 600, Max: 899},
	Trusting:    {Min: 900, Max: 1000},
}

// Tiers lists every tier from coldest to warmest.
func Tiers() []Tier {
	return []Tier{Distant, Wary, Familiar, Comfortable, Trusting}
}

// SelectTier maps an intimacy score to its tier. Scores outside [0, 1000]
// fall into the nearest end tier.
func SelectTier(score int) Tier {
	switch {
	case score < tierBounds[Wary].Min:
		return Distant
	case score < tierBounds[Familiar].Min:
		return Wary
	case score < tierBounds[Comfortable].Min:
		return Familiar
	case score < tierBounds[Trusting].Min:
		return Comfortable
	default:
		return Trusting
	}
}

// Bounds returns the intimacy scores that select t.
func (t Tier) Bounds() Range {
	return tierBounds[t]
}

func (t Tier) String() string {
	if t < Distant || t > Trusting {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	if t < Distant || t > Trusting {
		return nil, fmt.Errorf("unknown tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier accepts a tier name in any case.
func ParseTier(name string) (Tier, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return Distant, fmt.Errorf("unknown tier %q", name)
}
