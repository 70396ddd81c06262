package proto

import "github.com/vovakirdan/ts5-mirror/internal/core"

// Event is a decoded inbound message. The set of implementations is closed;
// consumers switch over the concrete types.
type Event interface {
	EventType() string
}

// ConnectionState is the full state of one connection as carried by the
// auth acknowledgment.
type ConnectionState struct {
	Connection core.Connection
	Channels   []core.Channel
	Clients    []core.Client
}

// Auth acknowledges the auth request and carries the initial state.
type Auth struct {
	APIKey      string
	Connections []ConnectionState
}

type ConnectionAdded struct{ Connection core.Connection }
type ConnectionUpdated struct{ Connection core.Connection }
type ConnectionRemoved struct{ ID core.ConnectionID }

type ChannelAdded struct{ Channel core.Channel }
type ChannelUpdated struct{ Channel core.Channel }
type ChannelRemoved struct{ Key core.ChannelKey }

type ClientAdded struct{ Client core.Client }
type ClientUpdated struct{ Client core.Client }
type ClientRemoved struct{ Key core.ClientKey }

// ClientMoved reports a client switching channel. NewChannelID zero means
// the client left the server. Properties are set when the client is new to
// this connection.
type ClientMoved struct {
	Key          core.ClientKey
	OldChannelID int
	NewChannelID int
	Properties   *core.ClientProperties
}

// ClientPropertiesUpdated replaces a client's property set.
type ClientPropertiesUpdated struct {
	Key        core.ClientKey
	Properties core.ClientProperties
}

// TalkStatusChanged reports a client starting or stopping to talk.
type TalkStatusChanged struct {
	Key       core.ClientKey
	Status    int
	IsWhisper bool
}

// ServerPropertiesUpdated is treated as a request to resynchronise.
type ServerPropertiesUpdated struct {
	ConnectionID core.ConnectionID
}

// Connect status values reported by connectStatusChanged.
const (
	ConnectStatusDisconnected = 0
	ConnectStatusConnected    = 4
)

// ConnectStatusChanged reports a server connection coming or going.
type ConnectStatusChanged struct {
	ConnectionID core.ConnectionID
	Status       int
	ClientID     int
	ServerName   string
}

// ChannelsListed carries the channel tree of one connection.
type ChannelsListed struct {
	ConnectionID core.ConnectionID
	Channels     []core.Channel
}

// Unrecognized is any message whose type this build does not handle.
type Unrecognized struct {
	Type string
}

func (Auth) EventType() string                    { return TypeAuth }
func (ConnectionAdded) EventType() string         { return TypeConnectionAdded }
func (ConnectionUpdated) EventType() string       { return TypeConnectionUpdated }
func (ConnectionRemoved) EventType() string       { return TypeConnectionRemoved }
func (ChannelAdded) EventType() string            { return TypeChannelAdded }
func (ChannelUpdated) EventType() string          { return TypeChannelUpdated }
func (ChannelRemoved) EventType() string          { return TypeChannelRemoved }
func (ClientAdded) EventType() string             { return TypeClientAdded }
func (ClientUpdated) EventType() string           { return TypeClientUpdated }
func (ClientRemoved) EventType() string           { return TypeClientRemoved }
func (ClientMoved) EventType() string             { return TypeClientMoved }
func (ClientPropertiesUpdated) EventType() string { return TypeClientPropertiesUpdated }
func (TalkStatusChanged) EventType() string       { return TypeTalkStatusChanged }
func (ServerPropertiesUpdated) EventType() string { return TypeServerPropertiesUpdated }
func (ConnectStatusChanged) EventType() string    { return TypeConnectStatusChanged }
func (ChannelsListed) EventType() string          { return TypeChannels }
func (u Unrecognized) EventType() string          { return u.Type }
