package http

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ts5-mirror/internal/core"
)

// WSHandler upgrades HTTP connections and streams store changes to them.
// The first message is a full snapshot; later messages carry one whole
// collection each time it changes.
type WSHandler struct {
	store *core.Store
	feed  *Feed
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(store *core.Store, feed *Feed, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{store: store, feed: feed, log: logger}
}

func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	// Subscribe before taking the snapshot so no change falls in between.
	sub := h.feed.Subscribe()
	defer sub.Close()

	// Inbound frames are not part of the feed protocol; CloseRead discards
	// them and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())

	if err := wsjson.Write(ctx, conn, snapshotMessage(h.store.Snapshot())); err != nil {
		h.log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("write ws snapshot")
		return
	}

	err = h.writeLoop(ctx, conn, sub)
	switch {
	case errors.Is(err, errSlowSubscriber):
		_ = wsjson.Write(ctx, conn, errorMessage("slow_consumer", err.Error()))
		conn.Close(websocket.StatusPolicyViolation, err.Error())
	case err != nil && !errors.Is(err, context.Canceled):
		h.log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("ws connection closed with error")
	default:
		conn.Close(websocket.StatusNormalClosure, "closing")
	}
}

var errSlowSubscriber = errors.New("subscriber fell behind")

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *Subscription) error {
	for {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return errSlowSubscriber
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
