package proto

import "github.com/goccy/go-json"

// Inbound is the envelope for messages coming from the remote client.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	TypeAuth = "auth"

	TypeConnectionAdded   = "connectionAdded"
	TypeConnectionUpdated = "connectionUpdated"
	TypeConnectionRemoved = "connectionRemoved"
	TypeChannelAdded      = "channelAdded"
	TypeChannelUpdated    = "channelUpdated"
	TypeChannelRemoved    = "channelRemoved"
	TypeClientAdded       = "clientAdded"
	TypeClientUpdated     = "clientUpdated"
	TypeClientRemoved     = "clientRemoved"

	TypeClientMoved             = "clientMoved"
	TypeClientPropertiesUpdated = "clientPropertiesUpdated"
	TypeTalkStatusChanged       = "talkStatusChanged"
	TypeServerPropertiesUpdated = "serverPropertiesUpdated"
	TypeConnectStatusChanged    = "connectStatusChanged"
	TypeChannels                = "channels"
)

// Outbound types published to snapshot consumers.
const (
	OutboundTypeSnapshot    = "snapshot"
	OutboundTypeConnections = "connections"
	OutboundTypeChannels    = "channels"
	OutboundTypeClients     = "clients"
	OutboundTypeError       = "error"
)

// AuthRequest is sent once per connection, right after the socket opens.
type AuthRequest struct {
	Type    string      `json:"type"`
	Payload AuthPayload `json:"payload"`
}

// AuthPayload identifies this application to the remote client.
type AuthPayload struct {
	Identifier  string      `json:"identifier"`
	Version     string      `json:"version"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Content     AuthContent `json:"content"`
}

// AuthContent carries the credential. An empty key asks the remote client
// to prompt the user and issue a new one.
type AuthContent struct {
	APIKey string `json:"apiKey"`
}

// NewAuthRequest builds the auth message for the given identity and key.
func NewAuthRequest(identity AuthPayload, apiKey string) AuthRequest {
	identity.Content = AuthContent{APIKey: apiKey}
	return AuthRequest{Type: TypeAuth, Payload: identity}
}

// Outbound is the envelope for messages sent to snapshot consumers.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
