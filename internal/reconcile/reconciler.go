package reconcile

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/metrics"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
)

// Reconciler routes decoded events onto the entity store. It holds no state
// of its own and performs no validation beyond what the store enforces.
type Reconciler struct {
	store *core.Store
	log   *zerolog.Logger
}

// New builds a reconciler writing into store.
func New(store *core.Store, logger *zerolog.Logger) *Reconciler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Reconciler{store: store, log: logger}
}

// Apply performs the single store operation ev maps to. The returned error
// is informational: it has already been logged and the store is unchanged.
func (r *Reconciler) Apply(ev proto.Event) error {
	err := r.apply(ev)
	metrics.EventsTotal.WithLabelValues(ev.EventType(), metrics.Outcome(err)).Inc()
	r.logResult(ev, err)
	return err
}

func (r *Reconciler) apply(ev proto.Event) error {
	switch e := ev.(type) {
	case proto.ConnectionAdded:
		return r.store.AddConnection(e.Connection)
	case proto.ConnectionUpdated:
		return r.store.UpdateConnection(e.Connection)
	case proto.ConnectionRemoved:
		return r.store.RemoveConnection(e.ID)

	case proto.ChannelAdded:
		return r.store.AddChannel(e.Channel)
	case proto.ChannelUpdated:
		return r.store.UpdateChannel(e.Channel)
	case proto.ChannelRemoved:
		return r.store.RemoveChannel(e.Key)

	case proto.ClientAdded:
		return r.store.AddClient(e.Client)
	case proto.ClientUpdated:
		return r.store.UpdateClient(e.Client)
	case proto.ClientRemoved:
		return r.store.RemoveClient(e.Key)

	case proto.ClientMoved:
		return r.clientMoved(e)

	case proto.ClientPropertiesUpdated:
		cl, ok := r.store.Client(e.Key)
		if !ok {
			return core.NewError(core.KindClient, e.Key, core.ErrNotFound)
		}
		cl.Properties = e.Properties
		return r.store.UpdateClient(cl)

	case proto.TalkStatusChanged:
		cl, ok := r.store.Client(e.Key)
		if !ok {
			return core.NewError(core.KindClient, e.Key, core.ErrNotFound)
		}
		cl.TalkStatus = e.Status
		cl.IsWhisper = e.IsWhisper
		return r.store.UpdateClient(cl)

	case proto.ConnectStatusChanged:
		return r.connectStatusChanged(e)

	case proto.Auth:
		return r.Seed(e.Connections)

	case proto.ChannelsListed:
		return r.seedChannels(e.Channels)

	default:
		return fmt.Errorf("%w: %s", core.ErrUnrecognizedEvent, ev.EventType())
	}
}

func (r *Reconciler) clientMoved(e proto.ClientMoved) error {
	if e.NewChannelID == 0 {
		return r.store.RemoveClient(e.Key)
	}

	cl, ok := r.store.Client(e.Key)
	if ok {
		cl.ChannelID = e.NewChannelID
		return r.store.UpdateClient(cl)
	}
	if e.Properties == nil {
		return core.NewError(core.KindClient, e.Key, core.ErrNotFound)
	}
	return r.store.AddClient(core.Client{
		ID:           e.Key.ID,
		ConnectionID: e.Key.ConnectionID,
		ChannelID:    e.NewChannelID,
		Properties:   *e.Properties,
	})
}

func (r *Reconciler) connectStatusChanged(e proto.ConnectStatusChanged) error {
	if e.Status == proto.ConnectStatusDisconnected {
		return r.store.RemoveConnection(e.ConnectionID)
	}

	existing, ok := r.store.Connection(e.ConnectionID)
	next := core.Connection{
		ID:         e.ConnectionID,
		ClientID:   e.ClientID,
		Status:     e.Status,
		Properties: core.ServerProperties{Name: e.ServerName},
	}
	if !ok {
		return r.store.AddConnection(next)
	}
	// Status transitions carry no full property set; keep what we know.
	if next.Properties.Name == "" {
		next.Properties = existing.Properties
	}
	if next.ClientID == 0 {
		next.ClientID = existing.ClientID
	}
	return r.store.UpdateConnection(next)
}

// Seed loads the state carried by an auth acknowledgment. Individual
// failures are logged; the first one is returned after all adds ran.
func (r *Reconciler) Seed(states []proto.ConnectionState) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	for _, st := range states {
		err := r.store.AddConnection(st.Connection)
		r.logResult(proto.ConnectionAdded{Connection: st.Connection}, err)
		keep(err)

		keep(r.seedChannels(st.Channels))

		for _, cl := range st.Clients {
			err := r.store.AddClient(cl)
			r.logResult(proto.ClientAdded{Client: cl}, err)
			keep(err)
		}
	}
	return first
}

func (r *Reconciler) seedChannels(channels []core.Channel) error {
	var first error
	for _, ch := range channels {
		err := r.store.AddChannel(ch)
		r.logResult(proto.ChannelAdded{Channel: ch}, err)
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Reconciler) logResult(ev proto.Event, err error) {
	switch {
	case err == nil:
		r.log.Debug().Str("type", ev.EventType()).Msg("event applied")
	case errors.Is(err, core.ErrUnrecognizedEvent):
		r.log.Info().Str("type", ev.EventType()).Msg("no handler for event type")
	default:
		r.log.Warn().Err(err).Str("type", ev.EventType()).Str("code", core.CodeOf(err)).Msg("event dropped")
	}
}
