package bird

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{"action":["look_at_crumb","blink"],"chat":"thanks.","mood":"mild","activity":"eating slowly nearby","reflection":"Crappy Bird looks at the crumb. He pecks once and stays near you.","feeling_delta":2}`

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced json with prose", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy.", `{"a":1}`},
		{"fenced without tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence tag any case", "```JSON {\"a\":1} ```", `{"a":1}`},
		{"plain", `{"a":1}`, `{"a":1}`},
		{"plain with whitespace", "  \n{\"a\":1}\n\t", `{"a":1}`},
		{"first block wins", "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```", `{"a":1}`},
		{"empty block falls back", "```json\n```", "```json\n```"},
		{"leading byte order mark", "\ufeff{\"a\":1}", `{"a":1}`},
		{"byte order mark inside fence", "```json\n\ufeff{\"a\":1}\n```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPayload(tt.raw))
		})
	}
}

func TestDecodeReaction_Valid(t *testing.T) {
	r, err := DecodeReaction("```json\n" + validReply + "\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"look_at_crumb", "blink"}, r.Action)
	assert.Equal(t, "thanks.", r.Chat)
	assert.Equal(t, "mild", r.Mood)
	assert.Equal(t, "eating slowly nearby", r.Activity)
	assert.Equal(t, 2, r.FeelingDelta)
}

func TestDecodeReaction_ByteOrderMark(t *testing.T) {
	r, err := DecodeReaction("\ufeff" + validReply)
	require.NoError(t, err)
	assert.Equal(t, 2, r.FeelingDelta)
}

func TestDecodeReaction_EmptyMotionsAndSpeech(t *testing.T) {
	r, err := DecodeReaction(`{"action":[],"chat":"","mood":"unmoved","activity":"looking away","reflection":"Crappy Bird blinks once.","feeling_delta":0}`)
	require.NoError(t, err)
	assert.NotNil(t, r.Action)
	assert.Empty(t, r.Action)
	assert.Equal(t, "", r.Chat)
	assert.Equal(t, 0, r.FeelingDelta)
}

func TestDecodeReaction_NegativeAndFloatIntegral(t *testing.T) {
	r, err := DecodeReaction(`{"action":["step_back"],"chat":"","mood":"uneasy","activity":"backing off","reflection":"Crappy Bird steps back.","feeling_delta":-3.0}`)
	require.NoError(t, err)
	assert.Equal(t, -3, r.FeelingDelta)
}

func TestDecodeReaction_Garbage(t *testing.T) {
	raw := "sure! here you go: {bad json"
	r, err := DecodeReaction(raw)
	assert.Nil(t, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, raw, malformed.Raw)
	assert.Contains(t, err.Error(), raw)
}

func TestDecodeReaction_KeepsRawNotPayload(t *testing.T) {
	raw := "```json\n{\"action\": oops}\n```"
	_, err := DecodeReaction(raw)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, raw, malformed.Raw)
}

func TestParseReaction_ContractViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		reason  string
	}{
		{"not an object", `["blink"]`, "single JSON object"},
		{"prose around object", `ok {"a":1}`, "single JSON object"},
		{"broken json", `{"action":["blink"],}`, "invalid JSON"},
		{"missing key", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r"}`, `missing key "feeling_delta"`},
		{"extra key", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":1,"tier":"wary"}`, `unexpected key "tier"`},
		{"duplicate key", `{"action":[],"chat":"","chat":"x","mood":"m","activity":"a","reflection":"r","feeling_delta":1}`, `duplicate key "chat"`},
		{"action not array", `{"action":"blink","chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":1}`, "action must be an array"},
		{"action with number", `{"action":["blink",3],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":1}`, "action must be an array"},
		{"null chat", `{"action":[],"chat":null,"mood":"m","activity":"a","reflection":"r","feeling_delta":1}`, "chat must be a string"},
		{"numeric mood", `{"action":[],"chat":"","mood":5,"activity":"a","reflection":"r","feeling_delta":1}`, "mood must be a string"},
		{"delta as string", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":"2"}`, "feeling_delta must be a number"},
		{"delta null", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":null}`, "feeling_delta must be a number"},
		{"delta fractional", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":1.5}`, "must be an integer"},
		{"delta too high", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":11}`, "outside [-10, 10]"},
		{"delta too low", `{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":-12}`, "outside [-10, 10]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReaction(tt.payload)
			assert.Nil(t, r)
			require.ErrorIs(t, err, ErrMalformedResponse)
			var malformed *MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Contains(t, malformed.Reason, tt.reason)
			assert.Equal(t, tt.payload, malformed.Raw)
		})
	}
}

func TestParseReaction_Bounds(t *testing.T) {
	for _, d := range []string{"-10", "10"} {
		r, err := ParseReaction(`{"action":[],"chat":"","mood":"m","activity":"a","reflection":"r","feeling_delta":` + d + `}`)
		require.NoError(t, err, d)
		assert.Contains(t, []int{-10, 10}, r.FeelingDelta)
	}
}
