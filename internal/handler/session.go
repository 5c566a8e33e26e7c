package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sellerctl/internal/model"
	"sellerctl/internal/service"
)

// SessionHandler handles session lifecycle, audit and registry requests
type SessionHandler struct {
	sessions *service.Sessions
	registry *service.SchemaRegistry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.Sessions, registry *service.SchemaRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions, registry: registry}
}

// Intents handles GET /api/v1/intents
func (h *SessionHandler) Intents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"intents": h.registry.Describe()})
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, model.SessionResponse{ID: sess.ID})
}

// Close handles DELETE /api/v1/sessions/:sid
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("sid")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Audit handles GET /api/v1/sessions/:sid/audit
func (h *SessionHandler) Audit(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		writeError(c, err)
		return
	}
	entries := sess.Audit()
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}
