package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	requestTimeout = 120 * time.Second
)

// ErrNoAPIKey is returned when no key was configured.
var ErrNoAPIKey = errors.New("no OpenAI API keys configured")

type KeyState struct {
	Key          string
	FailureCount int
	LastUsed     time.Time
	LastSuccess  time.Time
}

// Client talks to an OpenAI-compatible chat completions API. Several keys
// may be given comma separated; each call uses the one with the fewest
// recent failures.
type Client struct {
	keys      []*KeyState
	keyMu     sync.RWMutex
	clients   map[string]oai.Client
	clientsMu sync.RWMutex
	baseURL   string
	model     string
	logger    *zap.Logger

	temperature float64
	topP        float64
}

// NewClient builds a client. Empty baseURL and model select the public
// OpenAI endpoint and DefaultModel.
func NewClient(apiKeys, baseURL, model string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	var keys []*KeyState
	for _, k := range strings.Split(apiKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, &KeyState{Key: k})
		}
	}
	if len(keys) == 0 {
		logger.Warn("No OpenAI API keys provided")
	} else {
		logger.Info("Loaded OpenAI API keys", zap.Int("count", len(keys)), zap.String("model", model))
	}

	return &Client{
		keys:    keys,
		clients: make(map[string]oai.Client),
		baseURL: baseURL,
		model:   model,
		logger:  logger,
	}
}

// SetSampling sets temperature and top_p for Generate. Zero keeps the model
// default. Complete forwards the client's request as is.
func (c *Client) SetSampling(temperature, topP float64) {
	c.temperature = temperature
	c.topP = topP
}

// Model returns the model name used by Generate and Complete.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) getClient(key string) oai.Client {
	c.clientsMu.RLock()
	if client, ok := c.clients[key]; ok {
		c.clientsMu.RUnlock()
		return client
	}
	c.clientsMu.RUnlock()

	c.clientsMu.Lock()
	defer c.clientsMu.Unlock()

	client := oai.NewClient(
		option.WithBaseURL(c.baseURL),
		option.WithAPIKey(key),
		// Retries belong to the caller.
		option.WithMaxRetries(0),
	)
	c.clients[key] = client
	return client
}

func (c *Client) getBestKey() *KeyState {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()

	if len(c.keys) == 0 {
		return nil
	}
	best := c.keys[0]
	for _, k := range c.keys[1:] {
		if k.FailureCount < best.FailureCount {
			best = k
		}
	}
	return best
}

func (c *Client) recordSuccess(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.LastSuccess = time.Now()
	key.LastUsed = key.LastSuccess
	if key.FailureCount > 0 {
		key.FailureCount--
	}
}

func (c *Client) recordFailure(key *KeyState) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	key.FailureCount++
	key.LastUsed = time.Now()
}

// Generate implements bird.Model with one system and one user message.
func (c *Client) Generate(ctx context.Context, systemInstruction, userTurn string) (string, error) {
	keyState := c.getBestKey()
	if keyState == nil {
		return "", ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, oai.SystemMessage(systemInstruction))
	}
	messages = append(messages, oai.UserMessage(userTurn))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}
	if c.temperature > 0 {
		params.Temperature = oai.Float(c.temperature)
	}
	if c.topP > 0 {
		params.TopP = oai.Float(c.topP)
	}

	client := c.getClient(keyState.Key)
	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.recordFailure(keyState)
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		c.recordFailure(keyState)
		return "", fmt.Errorf("empty response")
	}

	c.recordSuccess(keyState)
	return resp.Choices[0].Message.Content, nil
}

// Completion is a raw upstream answer for the pass-through route.
type Completion struct {
	StatusCode int
	Body       []byte
}

// Complete forwards a client-built messages array to chat/completions with
// the configured model and returns the upstream JSON untouched. Upstream
// HTTP errors come back as a Completion carrying their status and body, only
// transport failures are returned as errors.
func (c *Client) Complete(ctx context.Context, messages json.RawMessage) (*Completion, error) {
	keyState := c.getBestKey()
	if keyState == nil {
		return nil, ErrNoAPIKey
	}
	if len(messages) == 0 {
		messages = json.RawMessage("null")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body := map[string]any{
		"model":    c.model,
		"messages": messages,
	}

	client := c.getClient(keyState.Key)
	var raw []byte
	err := client.Post(ctx, "chat/completions", body, &raw)
	if err != nil {
		c.recordFailure(keyState)
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			raw := []byte(apiErr.RawJSON())
			if len(raw) == 0 {
				raw, _ = json.Marshal(map[string]any{"error": map[string]string{"message": apiErr.Error()}})
			}
			return &Completion{StatusCode: apiErr.StatusCode, Body: raw}, nil
		}
		return nil, err
	}

	c.recordSuccess(keyState)
	return &Completion{StatusCode: 200, Body: raw}, nil
}
