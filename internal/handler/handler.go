package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendanceportal/internal/config"
	"attendanceportal/internal/gateway"
	"attendanceportal/internal/logger"
)

// Handler wires the portal routes to the session layer and the backend
// gateway.
type Handler struct {
	cfg config.App
	log *logger.Logger
	gw  *gateway.Client
}

// New creates a handler.
func New(cfg config.App, log *logger.Logger, gw *gateway.Client) *Handler {
	return &Handler{cfg: cfg, log: log, gw: gw}
}

// respondError maps gateway failures onto the portal's error contract:
// remote errors pass the backend's status and message through, transport
// failures become a 502 with a retryable message. Neither is fatal to the
// session.
func (h *Handler) respondError(c *gin.Context, err error) {
	var remote *gateway.RemoteError
	if errors.As(err, &remote) {
		c.JSON(remote.Status, gin.H{"message": remote.Message})
		return
	}
	var network *gateway.NetworkError
	if errors.As(err, &network) {
		h.log.Errorf("backend unreachable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Server error. Please try again later."})
		return
	}
	h.log.Errorf("backend response unusable: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"message": "Server error. Please try again later."})
}
