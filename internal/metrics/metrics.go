package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vovakirdan/ts5-mirror/internal/core"
)

var (
	// EventsTotal counts inbound events by type and reconciliation outcome
	// ("applied", or an error code such as "not_found").
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ts5mirror_events_total",
			Help: "Inbound events by type and reconciliation outcome",
		},
		[]string{"type", "outcome"},
	)

	// MalformedMessages counts frames that failed to decode.
	MalformedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ts5mirror_malformed_messages_total",
			Help: "Inbound frames dropped because they failed to decode",
		},
	)

	// SessionState is 1 for the controller's current state, 0 otherwise.
	SessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ts5mirror_session_state",
			Help: "Current session lifecycle state",
		},
		[]string{"state"},
	)

	// ConnectAttempts counts dial attempts by result.
	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ts5mirror_connect_attempts_total",
			Help: "Dial attempts to the remote client by result",
		},
		[]string{"result"},
	)

	// StoreClears counts full store resets.
	StoreClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ts5mirror_store_clears_total",
			Help: "Number of times the entity store was cleared",
		},
	)

	// Entities reports the current size of each mirrored collection.
	Entities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ts5mirror_entities",
			Help: "Number of mirrored entities by kind",
		},
		[]string{"kind"},
	)

	// FeedSubscribers reports connected snapshot consumers.
	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ts5mirror_feed_subscribers",
			Help: "Snapshot feed WebSocket subscribers",
		},
	)
)

// Outcome labels an event result for EventsTotal.
func Outcome(err error) string {
	if err == nil {
		return "applied"
	}
	if code := core.CodeOf(err); code != "" {
		return code
	}
	return "error"
}

// EntityGauges keeps the Entities gauge in step with the store.
type EntityGauges struct{}

func (EntityGauges) ConnectionsChanged(c []core.Connection) {
	Entities.WithLabelValues(string(core.KindConnection)).Set(float64(len(c)))
}

func (EntityGauges) ChannelsChanged(c []core.Channel) {
	Entities.WithLabelValues(string(core.KindChannel)).Set(float64(len(c)))
}

func (EntityGauges) ClientsChanged(c []core.Client) {
	Entities.WithLabelValues(string(core.KindClient)).Set(float64(len(c)))
}
