package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": success,
		"message": message,
		"data":    data,
	})
}

// newAPIServer serves just enough of the REST surface for client tests.
// unread is the authoritative count returned by the unread-count endpoint.
func newAPIServer(t *testing.T, unread *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]int64{"count": unread.Load()})
	})
	mux.HandleFunc("PATCH /api/v1/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]int64{"modifiedCount": unread.Swap(0)})
	})
	mux.HandleFunc("PATCH /api/v1/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		if unread.Load() > 0 {
			unread.Add(-1)
		}
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})
	mux.HandleFunc("DELETE /api/v1/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSeedUnreadCount(t *testing.T) {
	var unread atomic.Int64
	unread.Store(5)
	srv := newAPIServer(t, &unread)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	count, err := c.SeedUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.Equal(t, int64(5), c.UnreadCount())

	select {
	case got := <-c.UnreadCounts():
		assert.Equal(t, int64(5), got)
	default:
		t.Fatal("expected a count emission")
	}
}

func TestMarkAsReadDecrementsLocalCount(t *testing.T) {
	var unread atomic.Int64
	unread.Store(2)
	srv := newAPIServer(t, &unread)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	_, err := c.SeedUnreadCount(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.MarkAsRead(context.Background(), uuid.New()))
	assert.Equal(t, int64(1), c.UnreadCount())
}

func TestMarkAsReadFloorsAtZero(t *testing.T) {
	var unread atomic.Int64
	srv := newAPIServer(t, &unread)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})

	// Local count starts at zero; a mark-read must not drive it negative.
	require.NoError(t, c.MarkAsRead(context.Background(), uuid.New()))
	assert.Equal(t, int64(0), c.UnreadCount())
}

func TestMarkAllAsReadZeroesCount(t *testing.T) {
	var unread atomic.Int64
	unread.Store(9)
	srv := newAPIServer(t, &unread)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	_, err := c.SeedUnreadCount(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.MarkAllAsRead(context.Background()))
	assert.Equal(t, int64(0), c.UnreadCount())
}

func TestDeleteBookkeeping(t *testing.T) {
	var unread atomic.Int64
	unread.Store(3)
	srv := newAPIServer(t, &unread)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	_, err := c.SeedUnreadCount(context.Background())
	require.NoError(t, err)

	// Deleting a read notification leaves the count alone.
	require.NoError(t, c.DeleteNotification(context.Background(), uuid.New(), false))
	assert.Equal(t, int64(3), c.UnreadCount())

	// Deleting an unread one decrements it.
	require.NoError(t, c.DeleteNotification(context.Background(), uuid.New(), true))
	assert.Equal(t, int64(2), c.UnreadCount())
}

func TestAPIErrorSurfacesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, "notification not found", nil)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	err := c.MarkAsRead(context.Background(), uuid.New())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "notification not found", apiErr.Message)

	// A failed call must not touch the local count.
	assert.Equal(t, int64(0), c.UnreadCount())
}

func TestGetNotifications(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "unread", r.URL.Query().Get("filter"))
		writeEnvelope(w, http.StatusOK, true, "", model.NotificationPage{
			Notifications: []*model.Notification{{ID: uuid.New(), UserID: userID}},
			Pagination:    model.Pagination{Page: 2, Limit: 20, Total: 25, Pages: 2},
			UnreadCount:   25,
		})
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	page, err := c.GetNotifications(context.Background(), 2, 20, model.NotificationFilterUnread)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 1)
	assert.Equal(t, int64(25), page.Pagination.Total)
}

// gatewayStub upgrades /api/v1/ws and plays a scripted server side.
func gatewayStub(t *testing.T, userID uuid.UUID, script func(*websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"event": "connected",
			"data":  map[string]interface{}{"message": "connected", "userId": userID},
		}))
		script(conn)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConnectDispatchesEvents(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	srv := gatewayStub(t, userID, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]interface{}{
			"event": "new_notification",
			"data":  model.Notification{ID: notificationID, UserID: userID, Type: model.NotificationTypeFollow},
		})
		conn.WriteJSON(map[string]interface{}{
			"event": "unread_count_update",
			"data":  map[string]int64{"unreadCount": 3},
		})
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	select {
	case n := <-c.Notifications():
		assert.Equal(t, notificationID, n.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification push")
	}

	select {
	case <-c.Refresh():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh signal")
	}

	select {
	case count := <-c.UnreadCounts():
		assert.Equal(t, int64(3), count)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for count push")
	}

	assert.Eventually(t, func() bool { return c.UserID() == userID },
		2*time.Second, 10*time.Millisecond)
}

func TestConnectIsIdempotent(t *testing.T) {
	srv := gatewayStub(t, uuid.New(), func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))
	c.Disconnect()
}
