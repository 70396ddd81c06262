package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/session"
)

// StatusSource reports the session lifecycle.
type StatusSource interface {
	Status() session.Status
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is the body of GET /api/v1/session.
type SessionResponse struct {
	session.Status
	Counts      core.Counts `json:"counts"`
	Subscribers int         `json:"subscribers"`
}

// SnapshotHandlers serves read-only views of the entity store.
type SnapshotHandlers struct {
	store   *core.Store
	session StatusSource
	feed    *Feed
}

// NewSnapshotHandlers creates a new handlers instance.
func NewSnapshotHandlers(store *core.Store, status StatusSource, feed *Feed) *SnapshotHandlers {
	return &SnapshotHandlers{store: store, session: status, feed: feed}
}

// Snapshot returns all three collections.
// GET /api/v1/snapshot
func (h *SnapshotHandlers) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Connections lists connections.
// GET /api/v1/connections
func (h *SnapshotHandlers) Connections(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Connections())
}

// Channels lists channels, optionally of one connection.
// GET /api/v1/channels?connectionId=1
func (h *SnapshotHandlers) Channels(c *gin.Context) {
	connID, ok := queryInt(c, "connectionId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, filterChannels(h.store.Channels(), core.ConnectionID(connID)))
}

// Clients lists clients, optionally of one connection and channel.
// GET /api/v1/clients?connectionId=1&channelId=2
func (h *SnapshotHandlers) Clients(c *gin.Context) {
	connID, ok := queryInt(c, "connectionId")
	if !ok {
		return
	}
	channelID, ok := queryInt(c, "channelId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, filterClients(h.store.Clients(), core.ConnectionID(connID), channelID))
}

// Session reports the lifecycle state and collection sizes.
// GET /api/v1/session
func (h *SnapshotHandlers) Session(c *gin.Context) {
	resp := SessionResponse{Counts: h.store.Counts()}
	if h.session != nil {
		resp.Status = h.session.Status()
	} else {
		resp.State = session.StateDisconnected
	}
	if h.feed != nil {
		resp.Subscribers = h.feed.Len()
	}
	c.JSON(http.StatusOK, resp)
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// queryInt reads an optional positive integer parameter; absent is 0.
// On a bad value it writes a 400 and returns false.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return v, true
}
