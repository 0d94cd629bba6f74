package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains dependencies shared by the infrastructure endpoints.
type Handler struct {
	ConnectedUsers func() int
}

// NewHandler creates a new handler instance
func NewHandler(connectedUsers func() int) *Handler {
	return &Handler{ConnectedUsers: connectedUsers}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	data := gin.H{
		"status": "healthy",
		"time":   time.Now(),
	}
	if h.ConnectedUsers != nil {
		data["connected_users"] = h.ConnectedUsers()
	}
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
