package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sellerctl/internal/model"
	"sellerctl/internal/service"
)

// CommandHandler handles the resolve / correct / preview / confirm lifecycle
type CommandHandler struct {
	sessions *service.Sessions
	logger   *zap.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(sessions *service.Sessions, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{sessions: sessions, logger: logger}
}

// Resolve handles POST /api/v1/sessions/:sid/commands
func (h *CommandHandler) Resolve(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req model.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sess.Resolve(c.Request.Context(), req.Text))
}

// Get handles GET /api/v1/sessions/:sid/commands/:cid
func (h *CommandHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	resp, err := sess.Pending(c.Param("cid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateField handles PATCH /api/v1/sessions/:sid/commands/:cid
func (h *CommandHandler) UpdateField(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req model.FieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := sess.UpdateField(c.Param("cid"), req.Field, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preview handles GET /api/v1/sessions/:sid/commands/:cid/preview
func (h *CommandHandler) Preview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	preview, err := sess.Preview(c.Request.Context(), c.Param("cid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Confirm handles POST /api/v1/sessions/:sid/commands/:cid/confirm
func (h *CommandHandler) Confirm(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	resp, err := sess.Confirm(c.Request.Context(), c.Param("cid"), nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmStream handles POST /api/v1/sessions/:sid/commands/:cid/confirm/stream.
// Bulk commands emit one "item" event per target before the final "result".
func (h *CommandHandler) ConfirmStream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := sess.Pending(c.Param("cid")); err != nil {
		writeError(c, err)
		return
	}

	flusher, ok := startSSE(c)
	if !ok {
		return
	}

	sendSSE(c, "start", gin.H{"command": c.Param("cid")})
	flusher.Flush()

	resp, err := sess.Confirm(c.Request.Context(), c.Param("cid"), func(done, total int, l model.ItemLog) {
		sendSSE(c, "item", gin.H{"done": done, "total": total, "item": l})
		flusher.Flush()
	})
	if err != nil {
		sendSSE(c, "error", gin.H{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "result", resp)
	sendSSE(c, "done", nil)
	flusher.Flush()
}

// Cancel handles DELETE /api/v1/sessions/:sid/commands/:cid
func (h *CommandHandler) Cancel(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.Cancel(c.Param("cid")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandler) session(c *gin.Context) (*service.Session, bool) {
	sess, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

// writeError maps pipeline errors onto HTTP statuses
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrCommandNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrUnknownField), errors.Is(err, model.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
