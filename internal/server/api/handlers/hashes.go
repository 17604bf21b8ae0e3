package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/server/api/middleware"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/joekir/ssdeepviz/internal/server/engine"
	"github.com/joekir/ssdeepviz/internal/server/metrics"
	"github.com/joekir/ssdeepviz/internal/wire"
)

type HashHandler struct {
	engines *engine.Manager
	tokens  *crypto.TokenManager
}

func NewHashHandler(engines *engine.Manager, tokens *crypto.TokenManager) *HashHandler {
	return &HashHandler{engines: engines, tokens: tokens}
}

// NewHash handles POST /NewHash and POST /v1/hashes
func (h *HashHandler) NewHash(c *gin.Context) {
	var req wire.NewHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}
	if req.DataLength <= 0 {
		c.JSON(http.StatusUnprocessableEntity, wire.ErrorResponse{Error: "Invalid 'data_length'"})
		return
	}

	id, st, err := h.engines.Create(c.Request.Context(), req.DataLength, req.Byte)
	if err != nil {
		logger.Errorf("[hashes] create session length=%d: %v", req.DataLength, err)
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to create session"})
		return
	}
	token, err := h.tokens.CreateToken(id)
	if err != nil {
		logger.Errorf("[hashes] sign token for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to create session"})
		return
	}

	metrics.SessionsCreated.Inc()
	if req.Byte != nil {
		metrics.ObserveStep(st.IsTrigger1, st.IsTrigger2)
	}
	c.JSON(http.StatusCreated, wire.NewHashResponse{EngineState: st, Token: token})
}

// StepHash handles POST /StepHash and POST /v1/hashes/step
func (h *HashHandler) StepHash(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	var req wire.StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}

	if req.Byte == nil {
		// Nothing to step; the session is left as it is.
		c.Status(http.StatusNoContent)
		return
	}

	st, err := stepEngine(c.Request.Context(), h.engines, sessionID, req.Index, *req.Byte)
	if err != nil {
		writeEngineError(c, sessionID, err)
		return
	}

	metrics.ObserveStep(st.IsTrigger1, st.IsTrigger2)
	c.JSON(http.StatusOK, st)
}

// GetCurrent handles GET /v1/hashes/current
func (h *HashHandler) GetCurrent(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	st, err := h.engines.Current(c.Request.Context(), sessionID)
	if err != nil {
		writeEngineError(c, sessionID, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteCurrent handles DELETE /v1/hashes/current
func (h *HashHandler) DeleteCurrent(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	if err := h.engines.Delete(c.Request.Context(), sessionID); err != nil {
		writeEngineError(c, sessionID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Compare handles POST /v1/compare
func (h *HashHandler) Compare(c *gin.Context) {
	var req wire.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}

	dist, err := ctph.Compare(req.A, req.B)
	if err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, wire.CompareResponse{Distance: dist})
}

// Health handles GET /healthz
func (h *HashHandler) Health(c *gin.Context) {
	n, err := h.engines.Count(c.Request.Context())
	if err != nil {
		logger.Warnf("[hashes] health check: %v", err)
		c.JSON(http.StatusServiceUnavailable, wire.HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, wire.HealthResponse{Status: "ok", Sessions: n})
}

// stepEngine steps unconditionally unless the client named the index.
func stepEngine(ctx context.Context, engines *engine.Manager, sessionID string, index *int, b byte) (wire.EngineState, error) {
	if index != nil {
		return engines.StepAt(ctx, sessionID, *index, b)
	}
	return engines.Step(ctx, sessionID, b)
}

func writeEngineError(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, wire.ErrorResponse{Error: "session not found"})
		return
	case errors.Is(err, engine.ErrIndexMismatch):
		c.JSON(http.StatusConflict, wire.ErrorResponse{Error: err.Error()})
		return
	}
	logger.Errorf("[hashes] session %s: %v", sessionID, err)
	c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "engine failure"})
}
