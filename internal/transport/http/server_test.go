package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ts5-mirror/internal/auth"
	"github.com/vovakirdan/ts5-mirror/internal/config"
	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
	"github.com/vovakirdan/ts5-mirror/internal/session"
)

type fixedStatus session.Status

func (f fixedStatus) Status() session.Status { return session.Status(f) }

type testEnv struct {
	server *httptest.Server
	store  *core.Store
	feed   *Feed
}

func startTestServer(t *testing.T, jwtCfg *auth.JWTConfig) *testEnv {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	feed := NewFeed(8, &disabledLogger)
	st := core.NewStore(feed)

	require.NoError(t, st.AddConnection(core.Connection{ID: 1, Properties: core.ServerProperties{Name: "home"}}))
	require.NoError(t, st.AddConnection(core.Connection{ID: 2, Properties: core.ServerProperties{Name: "work"}}))
	require.NoError(t, st.AddChannel(core.Channel{ID: 10, ConnectionID: 1}))
	require.NoError(t, st.AddChannel(core.Channel{ID: 10, ConnectionID: 2}))
	require.NoError(t, st.AddClient(core.Client{ID: 5, ConnectionID: 1, ChannelID: 10}))
	require.NoError(t, st.AddClient(core.Client{ID: 6, ConnectionID: 2, ChannelID: 10}))
	require.NoError(t, st.AddClient(core.Client{ID: 7, ConnectionID: 2}))

	cfg := config.Default().HTTP
	router := NewRouter(Deps{
		Store:   st,
		Session: fixedStatus{State: session.StateStreaming, Attempts: 1},
		Feed:    feed,
		JWT:     jwtCfg,
	}, cfg, &disabledLogger)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: st, feed: feed}
}

func get(t *testing.T, env *testEnv, path, token string) (int, []byte) {
	t.Helper()
	req, err := stdhttp.NewRequest(stdhttp.MethodGet, env.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t, nil)

	status, body := get(t, env, "/health", "")
	assert.Equal(t, stdhttp.StatusOK, status)
	assert.Equal(t, "ok", string(body))
}

func TestSnapshotReflectsStore(t *testing.T) {
	env := startTestServer(t, nil)

	status, body := get(t, env, "/api/v1/snapshot", "")
	require.Equal(t, stdhttp.StatusOK, status)

	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, env.store.Snapshot(), snap)
}

func TestListFilters(t *testing.T) {
	env := startTestServer(t, nil)

	_, body := get(t, env, "/api/v1/channels?connectionId=2", "")
	var channels []core.Channel
	require.NoError(t, json.Unmarshal(body, &channels))
	require.Len(t, channels, 1)
	assert.Equal(t, core.ConnectionID(2), channels[0].ConnectionID)

	_, body = get(t, env, "/api/v1/clients?connectionId=2&channelId=10", "")
	var clients []core.Client
	require.NoError(t, json.Unmarshal(body, &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, 6, clients[0].ID)

	_, body = get(t, env, "/api/v1/connections", "")
	var connections []core.Connection
	require.NoError(t, json.Unmarshal(body, &connections))
	assert.Len(t, connections, 2)

	status, _ := get(t, env, "/api/v1/clients?channelId=abc", "")
	assert.Equal(t, stdhttp.StatusBadRequest, status)
}

func TestSessionEndpoint(t *testing.T) {
	env := startTestServer(t, nil)

	_, body := get(t, env, "/api/v1/session", "")
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, session.StateStreaming, resp.State)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, core.Counts{Connections: 2, Channels: 2, Clients: 3}, resp.Counts)
}

func TestJWTRequiredOnlyWhenSecretConfigured(t *testing.T) {
	open := startTestServer(t, nil)
	status, _ := get(t, open, "/api/v1/snapshot", "")
	assert.Equal(t, stdhttp.StatusOK, status)

	jwtCfg := &auth.JWTConfig{Secret: []byte("s3cret"), Issuer: "ts5-mirror", Audience: "ts5-mirror", TTL: time.Hour}
	guarded := startTestServer(t, jwtCfg)

	status, _ = get(t, guarded, "/api/v1/snapshot", "")
	assert.Equal(t, stdhttp.StatusUnauthorized, status)

	status, _ = get(t, guarded, "/api/v1/snapshot", "not-a-token")
	assert.Equal(t, stdhttp.StatusUnauthorized, status)

	token, err := auth.GenerateToken(jwtCfg, "overlay")
	require.NoError(t, err)
	status, _ = get(t, guarded, "/api/v1/snapshot", token)
	assert.Equal(t, stdhttp.StatusOK, status)

	status, _ = get(t, guarded, "/api/v1/snapshot?token="+token, "")
	assert.Equal(t, stdhttp.StatusOK, status)

	status, _ = get(t, guarded, "/health", "")
	assert.Equal(t, stdhttp.StatusOK, status)
}

func TestMetricsEndpoint(t *testing.T) {
	env := startTestServer(t, nil)

	status, body := get(t, env, "/metrics", "")
	assert.Equal(t, stdhttp.StatusOK, status)
	assert.Contains(t, string(body), "ts5mirror_feed_subscribers")
}

type outbound struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func TestWebSocketPushesSnapshotThenChanges(t *testing.T) {
	env := startTestServer(t, nil)
	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var msg outbound
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, proto.OutboundTypeSnapshot, msg.Type)
	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Len(t, snap.Clients, 3)

	require.Eventually(t, func() bool { return env.feed.Len() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, env.store.RemoveClient(core.ClientKey{ID: 7, ConnectionID: 2}))

	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, proto.OutboundTypeClients, msg.Type)
	var clients []core.Client
	require.NoError(t, json.Unmarshal(msg.Data, &clients))
	assert.Len(t, clients, 2)
}

func TestWebSocketRejectsWithoutToken(t *testing.T) {
	env := startTestServer(t, &auth.JWTConfig{Secret: []byte("s3cret")})
	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}
