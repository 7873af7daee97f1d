package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookwise/models"
	"bookwise/services/calendarsvc"
	"bookwise/services/dialogue"
)

// DialogueHandler exposes the dialogue engine over HTTP.
type DialogueHandler struct {
	Svc    dialogue.DialogueService
	Logger *zap.Logger
}

func NewDialogueHandler(svc dialogue.DialogueService, logger *zap.Logger) *DialogueHandler {
	return &DialogueHandler{Svc: svc, Logger: logger}
}

// Chat processes one user message. A request without a session ID opens a
// new session and runs the message through it.
func (h *DialogueHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sessionID := req.SessionID
	if sessionID == "" {
		start, err := h.Svc.StartSession(ctx)
		if err != nil {
			h.Logger.Error("failed to start session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
			return
		}
		sessionID = start.SessionID
	}

	result, err := h.Svc.HandleTurn(ctx, sessionID, req.Message)
	if err != nil {
		h.respondTurnError(c, sessionID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartSession opens a fresh session and returns the greeting.
func (h *DialogueHandler) StartSession(c *gin.Context) {
	result, err := h.Svc.StartSession(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetSession returns the stored session snapshot.
func (h *DialogueHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.Svc.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if dialogue.IsCode(err, "sessionNotFound") {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.Logger.Error("failed to fetch session", zap.String("sessionID", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Availability answers a direct availability query: ?date=2006-01-02&duration=30.
func (h *DialogueHandler) Availability(c *gin.Context) {
	date := c.Query("date")
	duration := 0
	if d := c.Query("duration"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a positive number of minutes"})
			return
		}
		duration = parsed
	}

	cands, err := h.Svc.CheckAvailability(c.Request.Context(), date, duration)
	if err != nil {
		if calendarsvc.IsTransient(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calendar temporarily unavailable"})
			return
		}
		h.Logger.Error("availability query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": cands})
}

func (h *DialogueHandler) respondTurnError(c *gin.Context, sessionID string, err error) {
	switch {
	case dialogue.IsCode(err, "sessionNotFound"):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case dialogue.IsCode(err, "sessionExpired"):
		c.JSON(http.StatusGone, gin.H{"error": "session expired, start a new one"})
	case dialogue.IsCode(err, "sessionClosed"):
		c.JSON(http.StatusConflict, gin.H{"error": "session is closed to further messages"})
	default:
		h.Logger.Error("turn failed", zap.String("sessionID", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
	}
}
