package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

// Client owns the single real-time connection for a logged-in user and
// wraps the notification REST surface. All UI surfaces share one Client;
// Connect is idempotent so any of them may call it first.
//
// Push events are eventually-consistent hints. The locally tracked unread
// count is corrected by SeedUnreadCount after connect/reconnect and floored
// at zero on every local decrement.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	mu     sync.Mutex
	conn   *websocket.Conn
	userID uuid.UUID
	unread int64

	notifications chan *model.Notification
	unreadCounts  chan int64
	refresh       chan struct{}
}

type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080".
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.Token,
		http:          httpClient,
		notifications: make(chan *model.Notification, 32),
		unreadCounts:  make(chan int64, 32),
		refresh:       make(chan struct{}, 8),
	}
}

// Notifications streams incoming new_notification pushes.
func (c *Client) Notifications() <-chan *model.Notification { return c.notifications }

// UnreadCounts streams unread-count changes, from pushes and from local
// bookkeeping alike. This is the only source the badge may render from.
func (c *Client) UnreadCounts() <-chan int64 { return c.unreadCounts }

// Refresh signals that list consumers should reload from the REST API.
func (c *Client) Refresh() <-chan struct{} { return c.refresh }

// UserID returns the identity confirmed by the connected ack, or uuid.Nil
// before the first successful connect.
func (c *Client) UserID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// UnreadCount returns the locally tracked unread count.
func (c *Client) UnreadCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Connect establishes the real-time connection. Safe to call from multiple
// components; only the first call dials.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("gateway rejected token: %w", err)
		}
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		// Another caller won the race; keep theirs.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Disconnect tears down the connection. Used on logout.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws"
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev wireEvent) {
	switch ev.Event {
	case "connected":
		var payload struct {
			UserID uuid.UUID `json:"userId"`
		}
		if json.Unmarshal(ev.Data, &payload) == nil {
			c.mu.Lock()
			c.userID = payload.UserID
			c.mu.Unlock()
		}
	case "new_notification":
		var n model.Notification
		if json.Unmarshal(ev.Data, &n) == nil {
			emit(c.notifications, &n)
			emit(c.refresh, struct{}{})
		}
	case "unread_count_update":
		var payload struct {
			UnreadCount int64 `json:"unreadCount"`
		}
		if json.Unmarshal(ev.Data, &payload) == nil {
			c.setUnread(payload.UnreadCount)
		}
	}
}

// emit never blocks; a surface that is not draining its channel misses
// hints, and reconciles via REST.
func emit[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (c *Client) setUnread(count int64) {
	if count < 0 {
		count = 0
	}
	c.mu.Lock()
	c.unread = count
	c.mu.Unlock()
	emit(c.unreadCounts, count)
}

// GetNotifications fetches one page. filter is all, read or unread.
func (c *Client) GetNotifications(ctx context.Context, page, limit int, filter model.NotificationFilter) (*model.NotificationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("filter", string(filter))

	var result model.NotificationPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkAsRead marks one notification read. The server does not push a count
// update for this, so the local count is decremented here, never below zero.
func (c *Client) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodPatch, "/api/v1/notifications/"+id.String()+"/read", nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	count := c.unread - 1
	c.mu.Unlock()
	c.setUnread(count)
	return nil
}

// MarkAllAsRead marks everything read and zeroes the local count.
func (c *Client) MarkAllAsRead(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPatch, "/api/v1/notifications/read-all", nil, nil); err != nil {
		return err
	}
	c.setUnread(0)
	return nil
}

// DeleteNotification deletes one notification. wasUnread must reflect the
// deleted item's read state so the local count stays consistent.
func (c *Client) DeleteNotification(ctx context.Context, id uuid.UUID, wasUnread bool) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/notifications/"+id.String(), nil, nil); err != nil {
		return err
	}
	if wasUnread {
		c.mu.Lock()
		count := c.unread - 1
		c.mu.Unlock()
		c.setUnread(count)
	}
	return nil
}

// SeedUnreadCount fetches the authoritative count and publishes it,
// correcting for pushes missed while disconnected.
func (c *Client) SeedUnreadCount(ctx context.Context) (int64, error) {
	var result struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications/unread-count", nil, &result); err != nil {
		return 0, err
	}
	c.setUnread(result.Count)
	return result.Count, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// APIError is a non-2xx REST response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}
