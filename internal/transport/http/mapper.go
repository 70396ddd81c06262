package http

import (
	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
)

func snapshotMessage(snap core.Snapshot) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeSnapshot, Data: snap}
}

func connectionsMessage(connections []core.Connection) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeConnections, Data: connections}
}

func channelsMessage(channels []core.Channel) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeChannels, Data: channels}
}

func clientsMessage(clients []core.Client) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeClients, Data: clients}
}

func errorMessage(code, msg string) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: code, Msg: msg}}
}

func filterChannels(channels []core.Channel, connID core.ConnectionID) []core.Channel {
	if connID == 0 {
		return channels
	}
	out := make([]core.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.ConnectionID == connID {
			out = append(out, ch)
		}
	}
	return out
}

func filterClients(clients []core.Client, connID core.ConnectionID, channelID int) []core.Client {
	out := make([]core.Client, 0, len(clients))
	for _, cl := range clients {
		if connID != 0 && cl.ConnectionID != connID {
			continue
		}
		if channelID != 0 && cl.ChannelID != channelID {
			continue
		}
		out = append(out, cl)
	}
	return out
}
