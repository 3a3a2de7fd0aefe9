package bird

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

const (
	MinFeelingDelta = -10
	MaxFeelingDelta = 10
)

// jsonBlockRegex finds the first fenced block, optionally tagged json.
var jsonBlockRegex = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)```")

// reactionKeys is the complete key set of a reaction, in wire order.
var reactionKeys = []string{"action", "chat", "mood", "activity", "reflection", "feeling_delta"}

// ExtractPayload strips a surrounding code fence, if any, from raw model text.
func ExtractPayload(raw string) string {
	trimmed := trimPayload(raw)
	if m := jsonBlockRegex.FindStringSubmatch(trimmed); m != nil && m[1] != "" {
		return trimPayload(m[1])
	}
	return trimmed
}

// trimPayload drops surrounding whitespace and byte order marks.
func trimPayload(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})
}

// DecodeReaction extracts and validates a reaction from raw model text.
func DecodeReaction(raw string) (*Reaction, error) {
	return parseReaction(raw, ExtractPayload(raw))
}

// ParseReaction validates an already extracted payload.
func ParseReaction(payload string) (*Reaction, error) {
	return parseReaction(payload, payload)
}

func parseReaction(raw, payload string) (*Reaction, error) {
	malformed := func(format string, args ...any) error {
		return &MalformedResponseError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
	}

	if !strings.HasPrefix(payload, "{") || !strings.HasSuffix(payload, "}") {
		return nil, malformed("payload is not a single JSON object")
	}
	if !gjson.Valid(payload) {
		return nil, malformed("invalid JSON")
	}

	fields := make(map[string]gjson.Result, len(reactionKeys))
	var keyErr error
	gjson.Parse(payload).ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := fields[name]; dup {
			keyErr = malformed("duplicate key %q", name)
			return false
		}
		if !isReactionKey(name) {
			keyErr = malformed("unexpected key %q", name)
			return false
		}
		fields[name] = value
		return true
	})
	if keyErr != nil {
		return nil, keyErr
	}
	for _, k := range reactionKeys {
		if _, ok := fields[k]; !ok {
			return nil, malformed("missing key %q", k)
		}
	}

	action := fields["action"]
	if !action.IsArray() {
		return nil, malformed("action must be an array of strings")
	}
	motions := make([]string, 0, len(action.Array()))
	for _, m := range action.Array() {
		if m.Type != gjson.String {
			return nil, malformed("action must be an array of strings")
		}
		motions = append(motions, m.Str)
	}

	for _, k := range []string{"chat", "mood", "activity", "reflection"} {
		if fields[k].Type != gjson.String {
			return nil, malformed("%s must be a string", k)
		}
	}

	delta := fields["feeling_delta"]
	if delta.Type != gjson.Number {
		return nil, malformed("feeling_delta must be a number")
	}
	d := delta.Float()
	if math.Trunc(d) != d {
		return nil, malformed("feeling_delta must be an integer, got %s", delta.Raw)
	}
	if d < MinFeelingDelta || d > MaxFeelingDelta {
		return nil, malformed("feeling_delta %s outside [%d, %d]", delta.Raw, MinFeelingDelta, MaxFeelingDelta)
	}

	return &Reaction{
		Action:       motions,
		Chat:         fields["chat"].Str,
		Mood:         fields["mood"].Str,
		Activity:     fields["activity"].Str,
		Reflection:   fields["reflection"].Str,
		FeelingDelta: int(d),
	}, nil
}

func isReactionKey(name string) bool {
	for _, k := range reactionKeys {
		if k == name {
			return true
		}
	}
	return false
}
