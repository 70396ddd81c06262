package proto

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/vovakirdan/ts5-mirror/internal/core"
)

type entityKey struct {
	ID           int               `json:"id"`
	ConnectionID core.ConnectionID `json:"connectionId"`
}

type channelInfos struct {
	RootChannels []core.Channel            `json:"rootChannels"`
	SubChannels  map[string][]core.Channel `json:"subChannels"`
}

type connectionInfo struct {
	core.Connection
	ChannelInfos channelInfos  `json:"channelInfos"`
	ClientInfos  []core.Client `json:"clientInfos"`
}

type authPayload struct {
	APIKey      string           `json:"apiKey"`
	Connections []connectionInfo `json:"connections"`
}

type clientMovedPayload struct {
	ConnectionID core.ConnectionID      `json:"connectionId"`
	ClientID     int                    `json:"clientId"`
	OldChannelID int                    `json:"oldChannelId"`
	NewChannelID int                    `json:"newChannelId"`
	Properties   *core.ClientProperties `json:"properties"`
}

type clientPropertiesPayload struct {
	ConnectionID core.ConnectionID      `json:"connectionId"`
	ClientID     int                    `json:"clientId"`
	Properties   *core.ClientProperties `json:"properties"`
}

type talkStatusPayload struct {
	ConnectionID core.ConnectionID `json:"connectionId"`
	ClientID     int               `json:"clientId"`
	Status       int               `json:"status"`
	IsWhisper    bool              `json:"isWhisper"`
}

type serverPropertiesPayload struct {
	ConnectionID core.ConnectionID `json:"connectionId"`
}

type connectStatusPayload struct {
	ConnectionID core.ConnectionID `json:"connectionId"`
	Status       int               `json:"status"`
	Info         *struct {
		ClientID   int    `json:"clientId"`
		ServerName string `json:"serverName"`
	} `json:"info"`
}

type channelsPayload struct {
	ConnectionID core.ConnectionID `json:"connectionId"`
	Info         channelInfos      `json:"info"`
}

// Decode parses one inbound frame into an Event. It fails closed: any frame
// that is not valid JSON, lacks a type, or whose payload misses required
// identifiers yields an error wrapping core.ErrMalformedMessage. Unknown
// types decode to Unrecognized without inspecting the payload.
func Decode(data []byte) (Event, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, malformed("envelope: %v", err)
	}
	if in.Type == "" {
		return nil, malformed("missing type")
	}

	switch in.Type {
	case TypeAuth:
		return decodeAuth(in.Payload)

	case TypeConnectionAdded, TypeConnectionUpdated:
		var c core.Connection
		if err := decodePayload(in, &c); err != nil {
			return nil, err
		}
		if c.ID <= 0 {
			return nil, malformed("%s: missing connection id", in.Type)
		}
		if in.Type == TypeConnectionAdded {
			return ConnectionAdded{Connection: c}, nil
		}
		return ConnectionUpdated{Connection: c}, nil

	case TypeConnectionRemoved:
		var k entityKey
		if err := decodePayload(in, &k); err != nil {
			return nil, err
		}
		if k.ID <= 0 {
			return nil, malformed("%s: missing connection id", in.Type)
		}
		return ConnectionRemoved{ID: core.ConnectionID(k.ID)}, nil

	case TypeChannelAdded, TypeChannelUpdated:
		var ch core.Channel
		if err := decodePayload(in, &ch); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, ch.ID, ch.ConnectionID); err != nil {
			return nil, err
		}
		if in.Type == TypeChannelAdded {
			return ChannelAdded{Channel: ch}, nil
		}
		return ChannelUpdated{Channel: ch}, nil

	case TypeChannelRemoved:
		var k entityKey
		if err := decodePayload(in, &k); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, k.ID, k.ConnectionID); err != nil {
			return nil, err
		}
		return ChannelRemoved{Key: core.ChannelKey{ID: k.ID, ConnectionID: k.ConnectionID}}, nil

	case TypeClientAdded, TypeClientUpdated:
		var cl core.Client
		if err := decodePayload(in, &cl); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, cl.ID, cl.ConnectionID); err != nil {
			return nil, err
		}
		if in.Type == TypeClientAdded {
			return ClientAdded{Client: cl}, nil
		}
		return ClientUpdated{Client: cl}, nil

	case TypeClientRemoved:
		var k entityKey
		if err := decodePayload(in, &k); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, k.ID, k.ConnectionID); err != nil {
			return nil, err
		}
		return ClientRemoved{Key: core.ClientKey{ID: k.ID, ConnectionID: k.ConnectionID}}, nil

	case TypeClientMoved:
		var p clientMovedPayload
		if err := decodePayload(in, &p); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, p.ClientID, p.ConnectionID); err != nil {
			return nil, err
		}
		return ClientMoved{
			Key:          clientKey(p.ConnectionID, p.ClientID),
			OldChannelID: p.OldChannelID,
			NewChannelID: p.NewChannelID,
			Properties:   p.Properties,
		}, nil

	case TypeClientPropertiesUpdated:
		var p clientPropertiesPayload
		if err := decodePayload(in, &p); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, p.ClientID, p.ConnectionID); err != nil {
			return nil, err
		}
		if p.Properties == nil {
			return nil, malformed("%s: missing properties", in.Type)
		}
		return ClientPropertiesUpdated{Key: clientKey(p.ConnectionID, p.ClientID), Properties: *p.Properties}, nil

	case TypeTalkStatusChanged:
		var p talkStatusPayload
		if err := decodePayload(in, &p); err != nil {
			return nil, err
		}
		if err := validKey(in.Type, p.ClientID, p.ConnectionID); err != nil {
			return nil, err
		}
		return TalkStatusChanged{Key: clientKey(p.ConnectionID, p.ClientID), Status: p.Status, IsWhisper: p.IsWhisper}, nil

	case TypeServerPropertiesUpdated:
		var p serverPropertiesPayload
		// The payload is informational only; a broken one still signals.
		_ = json.Unmarshal(in.Payload, &p)
		return ServerPropertiesUpdated{ConnectionID: p.ConnectionID}, nil

	case TypeConnectStatusChanged:
		var p connectStatusPayload
		if err := decodePayload(in, &p); err != nil {
			return nil, err
		}
		if p.ConnectionID <= 0 {
			return nil, malformed("%s: missing connection id", in.Type)
		}
		ev := ConnectStatusChanged{ConnectionID: p.ConnectionID, Status: p.Status}
		if p.Info != nil {
			ev.ClientID = p.Info.ClientID
			ev.ServerName = p.Info.ServerName
		}
		return ev, nil

	case TypeChannels:
		var p channelsPayload
		if err := decodePayload(in, &p); err != nil {
			return nil, err
		}
		if p.ConnectionID <= 0 {
			return nil, malformed("%s: missing connection id", in.Type)
		}
		channels, err := flattenChannels(p.ConnectionID, p.Info)
		if err != nil {
			return nil, err
		}
		return ChannelsListed{ConnectionID: p.ConnectionID, Channels: channels}, nil

	default:
		return Unrecognized{Type: in.Type}, nil
	}
}

func decodeAuth(raw json.RawMessage) (Event, error) {
	var p authPayload
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, malformed("auth: %v", err)
		}
	}

	ev := Auth{APIKey: p.APIKey, Connections: make([]ConnectionState, 0, len(p.Connections))}
	for _, info := range p.Connections {
		if info.ID <= 0 {
			return nil, malformed("auth: connection without id")
		}
		channels, err := flattenChannels(info.ID, info.ChannelInfos)
		if err != nil {
			return nil, err
		}
		clients := make([]core.Client, 0, len(info.ClientInfos))
		for _, cl := range info.ClientInfos {
			if cl.ID <= 0 {
				return nil, malformed("auth: client without id")
			}
			cl.ConnectionID = info.ID
			clients = append(clients, cl)
		}
		ev.Connections = append(ev.Connections, ConnectionState{
			Connection: info.Connection,
			Channels:   channels,
			Clients:    clients,
		})
	}
	return ev, nil
}

// flattenChannels orders root channels first, then sub channels grouped by
// ascending parent id. Every channel is stamped with connID.
func flattenChannels(connID core.ConnectionID, infos channelInfos) ([]core.Channel, error) {
	out := make([]core.Channel, 0, len(infos.RootChannels))
	for _, ch := range infos.RootChannels {
		if ch.ID <= 0 {
			return nil, malformed("channel without id")
		}
		ch.ConnectionID = connID
		out = append(out, ch)
	}

	parents := make([]int, 0, len(infos.SubChannels))
	byParent := make(map[int][]core.Channel, len(infos.SubChannels))
	for key, chans := range infos.SubChannels {
		parent, err := strconv.Atoi(key)
		if err != nil {
			return nil, malformed("sub channel parent %q: %v", key, err)
		}
		parents = append(parents, parent)
		byParent[parent] = chans
	}
	slices.Sort(parents)

	for _, parent := range parents {
		for _, ch := range byParent[parent] {
			if ch.ID <= 0 {
				return nil, malformed("channel without id")
			}
			ch.ConnectionID = connID
			if ch.ParentID == 0 {
				ch.ParentID = parent
			}
			out = append(out, ch)
		}
	}
	return out, nil
}

func clientKey(connID core.ConnectionID, id int) core.ClientKey {
	return core.ClientKey{ID: id, ConnectionID: connID}
}

func decodePayload(in Inbound, dst any) error {
	raw := bytes.TrimSpace(in.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return malformed("%s: missing payload", in.Type)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed("%s: %v", in.Type, err)
	}
	return nil
}

func validKey(typ string, id int, connID core.ConnectionID) error {
	if id <= 0 {
		return malformed("%s: missing id", typ)
	}
	if connID <= 0 {
		return malformed("%s: missing connection id", typ)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrMalformedMessage, fmt.Sprintf(format, args...))
}
