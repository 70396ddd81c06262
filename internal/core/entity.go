package core

// Kind names one of the three mirrored collections.
type Kind string

const (
	KindConnection Kind = "connection"
	KindChannel    Kind = "channel"
	KindClient     Kind = "client"
)

// ConnectionID identifies a server connection within one session.
type ConnectionID int

// ChannelKey is the composite identity of a channel.
type ChannelKey struct {
	ID           int
	ConnectionID ConnectionID
}

// ClientKey is the composite identity of a client.
type ClientKey struct {
	ID           int
	ConnectionID ConnectionID
}

// ServerProperties describe the server behind a connection.
type ServerProperties struct {
	Name             string `json:"name"`
	UniqueIdentifier string `json:"uniqueIdentifier,omitempty"`
	Platform         string `json:"platform,omitempty"`
	Version          string `json:"version,omitempty"`
	WelcomeMessage   string `json:"welcomeMessage,omitempty"`
	MaxClients       int    `json:"maxClients,omitempty"`
	ClientsOnline    int    `json:"clientsOnline,omitempty"`
}

// Connection is one server the remote client is joined to.
type Connection struct {
	ID         ConnectionID     `json:"id"`
	ClientID   int              `json:"clientId"`
	Status     int              `json:"status"`
	Properties ServerProperties `json:"properties"`
}

// ChannelProperties are the display and membership attributes of a channel.
type ChannelProperties struct {
	Name            string `json:"name"`
	Topic           string `json:"topic,omitempty"`
	Description     string `json:"description,omitempty"`
	MaxClients      int    `json:"maxClients,omitempty"`
	IsDefault       bool   `json:"isDefault"`
	IsPermanent     bool   `json:"isPermanent"`
	IsSemiPermanent bool   `json:"isSemiPermanent"`
	HasPassword     bool   `json:"hasPassword"`
	Codec           int    `json:"codec,omitempty"`
	CodecQuality    int    `json:"codecQuality,omitempty"`
}

// Channel groups clients within a connection.
type Channel struct {
	ID           int               `json:"id"`
	ConnectionID ConnectionID      `json:"connectionId"`
	ParentID     int               `json:"parentId"`
	Order        int               `json:"order"`
	Properties   ChannelProperties `json:"properties"`
}

// Key returns the channel's composite identity.
func (c Channel) Key() ChannelKey {
	return ChannelKey{ID: c.ID, ConnectionID: c.ConnectionID}
}

// ClientProperties hold the flags a renderer needs for a participant.
type ClientProperties struct {
	Nickname           string `json:"nickname"`
	UniqueIdentifier   string `json:"uniqueIdentifier,omitempty"`
	Description        string `json:"description,omitempty"`
	InputMuted         bool   `json:"inputMuted"`
	OutputMuted        bool   `json:"outputMuted"`
	InputHardware      bool   `json:"inputHardware"`
	OutputHardware     bool   `json:"outputHardware"`
	Away               bool   `json:"away"`
	AwayMessage        string `json:"awayMessage,omitempty"`
	IsRecording        bool   `json:"isRecording"`
	IsChannelCommander bool   `json:"isChannelCommander"`
	IsPrioritySpeaker  bool   `json:"isPrioritySpeaker"`
	MyTeamSpeakAvatar  string `json:"myteamspeakAvatar,omitempty"`
}

// TalkStatus values reported by the remote client.
const (
	TalkStatusNotTalking = 0
	TalkStatusTalking    = 1
)

// Client is a remote participant. ChannelID is zero while unassigned.
type Client struct {
	ID           int              `json:"id"`
	ConnectionID ConnectionID     `json:"connectionId"`
	ChannelID    int              `json:"channelId"`
	TalkStatus   int              `json:"talkStatus"`
	IsWhisper    bool             `json:"isWhisper"`
	Properties   ClientProperties `json:"properties"`
}

// Key returns the client's composite identity.
func (c Client) Key() ClientKey {
	return ClientKey{ID: c.ID, ConnectionID: c.ConnectionID}
}

// HasChannel reports whether the client currently sits in a channel.
func (c Client) HasChannel() bool {
	return c.ChannelID != 0
}

// InChannel reports whether the client belongs to the given channel.
func (c Client) InChannel(key ChannelKey) bool {
	return c.HasChannel() && c.ChannelID == key.ID && c.ConnectionID == key.ConnectionID
}
