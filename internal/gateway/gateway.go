package gateway

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/auth"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/metrics"
)

// Server→client event names.
const (
	EventConnected         = "connected"
	EventNewNotification   = "new_notification"
	EventUnreadCountUpdate = "unread_count_update"
)

// Event is the wire frame for every server→client push.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type ConnectedPayload struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

type UnreadCountPayload struct {
	UnreadCount int64 `json:"unreadCount"`
}

type session struct {
	connID  string
	userID  uuid.UUID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *session) send(event string, data interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(Event{Event: event, Data: data})
}

// Gateway authenticates live connections, tracks the active recipient
// registry and delivers best-effort push events. Delivery is at-most-once:
// no queue, no retry, the REST fetch path is the durable source of truth.
type Gateway struct {
	registry Registry
	jwtSvc   auth.JWTService
	upgrader websocket.Upgrader
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*session
}

type Config struct {
	// AllowedOrigins must match the REST CORS allow-list. Empty means any
	// origin is accepted.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

func New(cfg Config, registry Registry, jwtSvc auth.JWTService, log *logger.Logger, m *metrics.Metrics) *Gateway {
	readBuf, writeBuf := cfg.ReadBufferSize, cfg.WriteBufferSize
	if readBuf <= 0 {
		readBuf = 1024
	}
	if writeBuf <= 0 {
		writeBuf = 1024
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[origin] = true
	}

	return &Gateway{
		registry: registry,
		jwtSvc:   jwtSvc,
		logger:   log,
		metrics:  m,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 || allowed["*"] {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// HandleConnection runs the connection lifecycle: handshake auth, registry
// entry, connected ack, then a read loop that only exists to detect the
// disconnect. The bearer token arrives as a query parameter because the
// browser websocket API cannot set arbitrary headers.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := g.jwtSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error(err, "websocket upgrade failed")
		return
	}

	s := &session{
		connID: uuid.New().String(),
		userID: claims.UserID,
		conn:   conn,
	}

	g.mu.Lock()
	g.sessions[s.connID] = s
	g.mu.Unlock()
	g.registry.Register(s.userID, s.connID)
	g.metrics.GatewayConnections.Set(float64(g.registry.Len()))

	g.logger.Debug("gateway connection established",
		"user_id", s.userID.String(), "conn_id", s.connID)

	if err := s.send(EventConnected, ConnectedPayload{
		Message: "connected",
		UserID:  s.userID,
	}); err != nil {
		g.drop(s)
		return
	}

	g.readLoop(s)
}

// readLoop blocks until the peer goes away. No client→server events are
// part of the protocol beyond the handshake, so frames are discarded.
func (g *Gateway) readLoop(s *session) {
	defer g.drop(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (g *Gateway) drop(s *session) {
	g.mu.Lock()
	delete(g.sessions, s.connID)
	g.mu.Unlock()

	// Keyed by connection id: a reconnect that already overwrote the
	// registry entry is left untouched.
	g.registry.Unregister(s.userID, s.connID)
	g.metrics.GatewayConnections.Set(float64(g.registry.Len()))
	s.conn.Close()

	g.logger.Debug("gateway connection closed",
		"user_id", s.userID.String(), "conn_id", s.connID)
}

// PushNotification emits a new_notification event to the user's live
// connection. The boolean reports delivery; a missing connection is the
// expected common case, not an error.
func (g *Gateway) PushNotification(userID uuid.UUID, n *model.Notification) bool {
	return g.push(userID, EventNewNotification, n)
}

// PushUnreadCount emits a fresh unread count to the user's live connection.
func (g *Gateway) PushUnreadCount(userID uuid.UUID, count int64) bool {
	return g.push(userID, EventUnreadCountUpdate, UnreadCountPayload{UnreadCount: count})
}

func (g *Gateway) push(userID uuid.UUID, event string, data interface{}) bool {
	connID, ok := g.registry.Lookup(userID)
	if !ok {
		g.metrics.PushesDropped.WithLabelValues(event).Inc()
		return false
	}

	g.mu.RLock()
	s, ok := g.sessions[connID]
	g.mu.RUnlock()
	if !ok {
		g.metrics.PushesDropped.WithLabelValues(event).Inc()
		return false
	}

	if err := s.send(event, data); err != nil {
		g.logger.Debug("push write failed, dropping connection",
			"user_id", userID.String(), "event", event)
		g.drop(s)
		g.metrics.PushesDropped.WithLabelValues(event).Inc()
		return false
	}

	g.metrics.PushesDelivered.WithLabelValues(event).Inc()
	return true
}

// IsUserConnected reports whether the user has a live connection. Used for
// operational visibility only.
func (g *Gateway) IsUserConnected(userID uuid.UUID) bool {
	_, ok := g.registry.Lookup(userID)
	return ok
}

// ConnectedUsers returns the number of distinct users with a live connection.
func (g *Gateway) ConnectedUsers() int {
	return g.registry.Len()
}

// Close tears down every live session. Used on shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	sessions := make([]*session, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	for _, s := range sessions {
		g.drop(s)
	}
}
