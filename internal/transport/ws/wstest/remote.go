// Package wstest provides an in-process stand-in for the TS5 Remote Apps
// endpoint, for tests and local smoke runs.
package wstest

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ts5-mirror/internal/proto"
)

// Remote answers every auth request with Ack followed by Events, then
// keeps the socket open until the peer leaves or Drop is called.
type Remote struct {
	Ack    string
	Events []string

	mu       sync.Mutex
	requests []proto.AuthRequest
	conns    map[*websocket.Conn]struct{}
}

// NewRemote builds a remote that acknowledges with ack.
func NewRemote(ack string, events ...string) *Remote {
	return &Remote{Ack: ack, Events: events, conns: make(map[*websocket.Conn]struct{})}
}

func (r *Remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := req.Context()
	var auth proto.AuthRequest
	if err := wsjson.Read(ctx, conn, &auth); err != nil {
		return
	}

	r.mu.Lock()
	r.requests = append(r.requests, auth)
	r.conns[conn] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.conns, conn)
		r.mu.Unlock()
	}()

	for _, frame := range append([]string{r.Ack}, r.Events...) {
		if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
			return
		}
	}

	ctx = conn.CloseRead(ctx)
	<-ctx.Done()
}

// Push writes frame to every connected peer.
func (r *Remote) Push(ctx context.Context, frame string) error {
	for _, c := range r.peers() {
		if err := c.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
			return err
		}
	}
	return nil
}

// Drop closes every connected peer with a going-away status.
func (r *Remote) Drop() {
	for _, c := range r.peers() {
		c.Close(websocket.StatusGoingAway, "remote restarting")
	}
}

func (r *Remote) peers() []*websocket.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Requests returns the auth requests received so far.
func (r *Remote) Requests() []proto.AuthRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]proto.AuthRequest(nil), r.requests...)
}

// Connected reports the number of open peers.
func (r *Remote) Connected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
