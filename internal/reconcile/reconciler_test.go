package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
)

// counter tallies notifications per collection.
type counter struct {
	connections, channels, clients int
}

func (c *counter) ConnectionsChanged([]core.Connection) { c.connections++ }
func (c *counter) ChannelsChanged([]core.Channel)       { c.channels++ }
func (c *counter) ClientsChanged([]core.Client)         { c.clients++ }

func setup(t *testing.T) (*Reconciler, *core.Store, *counter) {
	t.Helper()
	n := &counter{}
	st := core.NewStore(n)
	return New(st, nil), st, n
}

func mustDecode(t *testing.T, raw string) proto.Event {
	t.Helper()
	ev, err := proto.Decode([]byte(raw))
	require.NoError(t, err)
	return ev
}

func TestApplyRoutesEntityEvents(t *testing.T) {
	r, st, _ := setup(t)

	require.NoError(t, r.Apply(mustDecode(t, `{"type":"connectionAdded","payload":{"id":1,"properties":{"name":"home"}}}`)))
	require.NoError(t, r.Apply(mustDecode(t, `{"type":"channelAdded","payload":{"id":5,"connectionId":1,"properties":{"name":"Lobby"}}}`)))
	require.NoError(t, r.Apply(mustDecode(t, `{"type":"clientAdded","payload":{"id":9,"connectionId":1,"channelId":5,"properties":{"nickname":"bob"}}}`)))
	require.NoError(t, r.Apply(mustDecode(t, `{"type":"clientUpdated","payload":{"id":9,"connectionId":1,"channelId":5,"properties":{"nickname":"bobby"}}}`)))

	cl, ok := st.Client(core.ClientKey{ID: 9, ConnectionID: 1})
	require.True(t, ok)
	assert.Equal(t, "bobby", cl.Properties.Nickname)

	require.NoError(t, r.Apply(mustDecode(t, `{"type":"channelRemoved","payload":{"id":5,"connectionId":1}}`)))
	assert.Empty(t, st.Clients())

	require.NoError(t, r.Apply(mustDecode(t, `{"type":"connectionRemoved","payload":{"id":1}}`)))
	assert.Equal(t, core.Counts{}, st.Counts())
}

func TestUpdateForMissingEntityIsNotPromoted(t *testing.T) {
	r, st, n := setup(t)

	err := r.Apply(proto.ClientUpdated{Client: core.Client{ID: 1, ConnectionID: 1}})
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, st.ClientExists(core.ClientKey{ID: 1, ConnectionID: 1}))

	err = r.Apply(proto.TalkStatusChanged{Key: core.ClientKey{ID: 1, ConnectionID: 1}, Status: 1})
	require.ErrorIs(t, err, core.ErrNotFound)

	err = r.Apply(proto.ClientPropertiesUpdated{Key: core.ClientKey{ID: 1, ConnectionID: 1}})
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, counter{}, *n)
}

func TestDuplicateAddIsDropped(t *testing.T) {
	r, st, n := setup(t)

	require.NoError(t, r.Apply(proto.ConnectionAdded{Connection: core.Connection{ID: 1, Properties: core.ServerProperties{Name: "a"}}}))
	err := r.Apply(proto.ConnectionAdded{Connection: core.Connection{ID: 1, Properties: core.ServerProperties{Name: "b"}}})
	require.ErrorIs(t, err, core.ErrDuplicateKey)

	c, _ := st.Connection(1)
	assert.Equal(t, "a", c.Properties.Name)
	assert.Equal(t, 1, n.connections)
}

func TestUnknownEventIsInert(t *testing.T) {
	r, st, n := setup(t)
	require.NoError(t, st.AddConnection(core.Connection{ID: 1}))
	before := *n

	err := r.Apply(mustDecode(t, `{"type":"somethingUnhandled","payload":{"id":1}}`))
	require.ErrorIs(t, err, core.ErrUnrecognizedEvent)

	assert.Equal(t, before, *n)
	assert.Len(t, st.Connections(), 1)
}

func TestClientMoved(t *testing.T) {
	r, st, _ := setup(t)
	key := core.ClientKey{ID: 9, ConnectionID: 1}

	// Unknown client without properties cannot be created.
	err := r.Apply(proto.ClientMoved{Key: key, NewChannelID: 5})
	require.ErrorIs(t, err, core.ErrNotFound)

	props := &core.ClientProperties{Nickname: "bob"}
	require.NoError(t, r.Apply(proto.ClientMoved{Key: key, NewChannelID: 5, Properties: props}))
	cl, _ := st.Client(key)
	assert.Equal(t, 5, cl.ChannelID)
	assert.Equal(t, "bob", cl.Properties.Nickname)

	require.NoError(t, r.Apply(proto.ClientMoved{Key: key, OldChannelID: 5, NewChannelID: 6}))
	cl, _ = st.Client(key)
	assert.Equal(t, 6, cl.ChannelID)
	assert.Equal(t, "bob", cl.Properties.Nickname)

	require.NoError(t, r.Apply(proto.ClientMoved{Key: key, OldChannelID: 6}))
	assert.False(t, st.ClientExists(key))
}

func TestTalkStatusAndProperties(t *testing.T) {
	r, st, _ := setup(t)
	key := core.ClientKey{ID: 9, ConnectionID: 1}
	require.NoError(t, st.AddClient(core.Client{ID: 9, ConnectionID: 1, ChannelID: 5, Properties: core.ClientProperties{Nickname: "bob"}}))

	require.NoError(t, r.Apply(proto.TalkStatusChanged{Key: key, Status: core.TalkStatusTalking, IsWhisper: true}))
	cl, _ := st.Client(key)
	assert.Equal(t, core.TalkStatusTalking, cl.TalkStatus)
	assert.True(t, cl.IsWhisper)

	require.NoError(t, r.Apply(proto.ClientPropertiesUpdated{Key: key, Properties: core.ClientProperties{Nickname: "robert", InputMuted: true}}))
	cl, _ = st.Client(key)
	assert.Equal(t, core.ClientProperties{Nickname: "robert", InputMuted: true}, cl.Properties)
	assert.Equal(t, core.TalkStatusTalking, cl.TalkStatus)
	assert.Equal(t, 5, cl.ChannelID)
}

func TestConnectStatusChanged(t *testing.T) {
	r, st, _ := setup(t)

	require.NoError(t, r.Apply(proto.ConnectStatusChanged{ConnectionID: 2, Status: proto.ConnectStatusConnected, ClientID: 4, ServerName: "srv"}))
	c, ok := st.Connection(2)
	require.True(t, ok)
	assert.Equal(t, "srv", c.Properties.Name)

	require.NoError(t, r.Apply(proto.ConnectStatusChanged{ConnectionID: 2, Status: 3}))
	c, _ = st.Connection(2)
	assert.Equal(t, 3, c.Status)
	assert.Equal(t, "srv", c.Properties.Name)
	assert.Equal(t, 4, c.ClientID)

	require.NoError(t, st.AddChannel(core.Channel{ID: 1, ConnectionID: 2}))
	require.NoError(t, r.Apply(proto.ConnectStatusChanged{ConnectionID: 2, Status: proto.ConnectStatusDisconnected}))
	assert.Equal(t, core.Counts{}, st.Counts())
}

func TestAuthSeedsStore(t *testing.T) {
	r, st, _ := setup(t)

	err := r.Apply(proto.Auth{
		APIKey: "k",
		Connections: []proto.ConnectionState{{
			Connection: core.Connection{ID: 1},
			Channels:   []core.Channel{{ID: 1, ConnectionID: 1}, {ID: 2, ConnectionID: 1}, {ID: 1, ConnectionID: 1}},
			Clients:    []core.Client{{ID: 3, ConnectionID: 1, ChannelID: 2}},
		}},
	})
	// The repeated channel is dropped but does not stop the seed.
	require.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Equal(t, core.Counts{Connections: 1, Channels: 2, Clients: 1}, st.Counts())
}
