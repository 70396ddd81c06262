package proto

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ts5-mirror/internal/core"
)

func TestDecodeEntityEvents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "connection added",
			raw:  `{"type":"connectionAdded","payload":{"id":1,"clientId":3,"status":4,"properties":{"name":"home"}}}`,
			want: ConnectionAdded{Connection: core.Connection{ID: 1, ClientID: 3, Status: 4, Properties: core.ServerProperties{Name: "home"}}},
		},
		{
			name: "connection removed",
			raw:  `{"type":"connectionRemoved","payload":{"id":2}}`,
			want: ConnectionRemoved{ID: 2},
		},
		{
			name: "channel updated",
			raw:  `{"type":"channelUpdated","payload":{"id":5,"connectionId":1,"parentId":2,"order":7,"properties":{"name":"AFK"}}}`,
			want: ChannelUpdated{Channel: core.Channel{ID: 5, ConnectionID: 1, ParentID: 2, Order: 7, Properties: core.ChannelProperties{Name: "AFK"}}},
		},
		{
			name: "client removed accepts full entity",
			raw:  `{"type":"clientRemoved","payload":{"id":9,"connectionId":1,"channelId":5,"properties":{"nickname":"bob"}}}`,
			want: ClientRemoved{Key: core.ClientKey{ID: 9, ConnectionID: 1}},
		},
		{
			name: "talk status",
			raw:  `{"type":"talkStatusChanged","payload":{"connectionId":1,"clientId":9,"status":1,"isWhisper":true}}`,
			want: TalkStatusChanged{Key: core.ClientKey{ID: 9, ConnectionID: 1}, Status: 1, IsWhisper: true},
		},
		{
			name: "client moved out",
			raw:  `{"type":"clientMoved","payload":{"connectionId":1,"clientId":9,"oldChannelId":5,"newChannelId":0}}`,
			want: ClientMoved{Key: core.ClientKey{ID: 9, ConnectionID: 1}, OldChannelID: 5},
		},
		{
			name: "connect status",
			raw:  `{"type":"connectStatusChanged","payload":{"connectionId":2,"status":4,"info":{"clientId":12,"serverName":"srv"}}}`,
			want: ConnectStatusChanged{ConnectionID: 2, Status: 4, ClientID: 12, ServerName: "srv"},
		},
		{
			name: "server properties with no payload",
			raw:  `{"type":"serverPropertiesUpdated"}`,
			want: ServerPropertiesUpdated{},
		},
		{
			name: "unknown type",
			raw:  `{"type":"somethingUnhandled","payload":{"whatever":true}}`,
			want: Unrecognized{Type: "somethingUnhandled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"missing type", `{"payload":{}}`},
		{"missing payload", `{"type":"clientAdded"}`},
		{"null payload", `{"type":"channelRemoved","payload":null}`},
		{"wrong field type", `{"type":"clientAdded","payload":{"id":"nine","connectionId":1}}`},
		{"missing connection id", `{"type":"channelAdded","payload":{"id":5}}`},
		{"missing client id", `{"type":"talkStatusChanged","payload":{"connectionId":1,"status":1}}`},
		{"missing properties", `{"type":"clientPropertiesUpdated","payload":{"connectionId":1,"clientId":9}}`},
		{"bad sub channel parent", `{"type":"channels","payload":{"connectionId":1,"info":{"subChannels":{"x":[{"id":3}]}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.raw))
			require.ErrorIs(t, err, core.ErrMalformedMessage)
			assert.Nil(t, ev)
		})
	}
}

func TestDecodeAuthFlattensState(t *testing.T) {
	raw := `{
		"type": "auth",
		"payload": {
			"apiKey": "new-key",
			"connections": [{
				"id": 1,
				"clientId": 7,
				"status": 4,
				"properties": {"name": "home"},
				"channelInfos": {
					"rootChannels": [{"id": 1, "properties": {"name": "Lobby"}}, {"id": 2, "properties": {"name": "Games"}}],
					"subChannels": {"2": [{"id": 4, "properties": {"name": "CS"}}], "1": [{"id": 3, "properties": {"name": "AFK"}}]}
				},
				"clientInfos": [{"id": 7, "channelId": 1, "properties": {"nickname": "me"}}]
			}]
		}
	}`

	ev, err := Decode([]byte(raw))
	require.NoError(t, err)

	auth, ok := ev.(Auth)
	require.True(t, ok)
	assert.Equal(t, "new-key", auth.APIKey)
	require.Len(t, auth.Connections, 1)

	state := auth.Connections[0]
	assert.Equal(t, core.ConnectionID(1), state.Connection.ID)

	var ids []int
	for _, ch := range state.Channels {
		ids = append(ids, ch.ID)
		assert.Equal(t, core.ConnectionID(1), ch.ConnectionID)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
	assert.Equal(t, 1, state.Channels[2].ParentID)
	assert.Equal(t, 2, state.Channels[3].ParentID)

	require.Len(t, state.Clients, 1)
	assert.Equal(t, core.ClientKey{ID: 7, ConnectionID: 1}, state.Clients[0].Key())
}

func TestAuthRequestShape(t *testing.T) {
	req := NewAuthRequest(AuthPayload{
		Identifier:  "de.tealfire.obs",
		Version:     "2.2.0",
		Name:        "overlay",
		Description: "desc",
	}, "secret")

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "auth",
		"payload": {
			"identifier": "de.tealfire.obs",
			"version": "2.2.0",
			"name": "overlay",
			"description": "desc",
			"content": {"apiKey": "secret"}
		}
	}`, string(data))
}
