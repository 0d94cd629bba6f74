package ws

import (
	"github.com/gin-gonic/gin"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/gateway"
)

// Handler exposes the real-time gateway's websocket endpoint. Token
// validation happens inside the gateway handshake, not in the auth
// middleware, because the transport carries the bearer token as a query
// parameter.
type Handler struct {
	gw *gateway.Gateway
}

func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{gw: gw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Connect)
}

func (h *Handler) Connect(c *gin.Context) {
	h.gw.HandleConnection(c.Writer, c.Request)
}
