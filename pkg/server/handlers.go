package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"crappybird/pkg/affinity"
	"crappybird/pkg/bird"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const generateFailedMessage = "Failed to generate response from Crappy Bird."

type errorResponse struct {
	Error string `json:"error"`
}

type intimacyResponse struct {
	Intimacy int       `json:"intimacy"`
	Tier     bird.Tier `json:"tier"`
}

func (s *Server) handleTurn(c *gin.Context) {
	var turn bird.Turn
	if err := c.ShouldBindJSON(&turn); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid turn body."})
		return
	}

	reaction, err := s.turns.HandleTurn(c.Request.Context(), turn)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, reaction)
	case errors.Is(err, bird.ErrInputIgnored):
		c.Status(http.StatusNoContent)
	case errors.Is(err, bird.ErrInvalidTurn):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, bird.ErrMalformedResponse):
		c.Error(err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: generateFailedMessage})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: generateFailedMessage})
	}
}

type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

func (s *Server) handleChat(c *gin.Context) {
	if s.chat == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "OpenAI pass-through is not configured."})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid chat body."})
		return
	}

	res, err := s.chat.Complete(c.Request.Context(), req.Messages)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to reach OpenAI."})
		return
	}
	if res.StatusCode != http.StatusOK {
		s.logger.Warn("OpenAI pass-through returned an error status", zap.Int("upstream_status", res.StatusCode))
	}
	c.Data(res.StatusCode, "application/json", res.Body)
}

func (s *Server) intimacy(c *gin.Context, score int) {
	if s.metrics != nil {
		s.metrics.SetIntimacy(score)
	}
	c.JSON(http.StatusOK, intimacyResponse{Intimacy: score, Tier: bird.SelectTier(score)})
}

func (s *Server) getIntimacy(c *gin.Context) {
	score := s.store.Get(c.Request.Context())
	c.JSON(http.StatusOK, intimacyResponse{Intimacy: score, Tier: bird.SelectTier(score)})
}

type setIntimacyRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

func (s *Server) setIntimacy(c *gin.Context) {
	var req setIntimacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Body must be {\"value\": number}."})
		return
	}
	ctx := c.Request.Context()
	s.store.Set(ctx, *req.Value)
	// Report what was stored, not what was asked for.
	s.intimacy(c, affinity.Clamp(*req.Value))
}

type changeIntimacyRequest struct {
	Delta *float64 `json:"delta" binding:"required"`
}

func (s *Server) changeIntimacy(c *gin.Context) {
	var req changeIntimacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Body must be {\"delta\": number}."})
		return
	}
	s.intimacy(c, s.store.ChangeBy(c.Request.Context(), *req.Delta))
}

func (s *Server) resetIntimacy(c *gin.Context) {
	s.store.Reset(c.Request.Context())
	s.intimacy(c, affinity.Min)
}
