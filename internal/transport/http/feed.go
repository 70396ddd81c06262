package http

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/metrics"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
	"github.com/vovakirdan/ts5-mirror/internal/utils"
)

const defaultFeedBuffer = 32

// Feed is a core.Notifier that fans store changes out to WebSocket
// subscribers. Publishing never blocks: a subscriber whose buffer is full
// is dropped and its channel closed.
type Feed struct {
	mu     sync.Mutex
	subs   map[string]chan proto.Outbound
	buffer int
	log    *zerolog.Logger
}

// Subscription is one consumer of the feed.
type Subscription struct {
	ID   string
	C    <-chan proto.Outbound
	feed *Feed
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.feed.unsubscribe(s.ID)
}

// NewFeed builds a feed with the given per-subscriber buffer.
func NewFeed(buffer int, logger *zerolog.Logger) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Feed{
		subs:   make(map[string]chan proto.Outbound),
		buffer: buffer,
		log:    logger,
	}
}

func (f *Feed) Subscribe() *Subscription {
	ch := make(chan proto.Outbound, f.buffer)
	id := utils.NewID()

	f.mu.Lock()
	f.subs[id] = ch
	metrics.FeedSubscribers.Set(float64(len(f.subs)))
	f.mu.Unlock()

	return &Subscription{ID: id, C: ch, feed: f}
}

// Len returns the number of live subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close drops every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
	metrics.FeedSubscribers.Set(0)
}

func (f *Feed) ConnectionsChanged(connections []core.Connection) {
	f.publish(connectionsMessage(connections))
}

func (f *Feed) ChannelsChanged(channels []core.Channel) {
	f.publish(channelsMessage(channels))
}

func (f *Feed) ClientsChanged(clients []core.Client) {
	f.publish(clientsMessage(clients))
}

func (f *Feed) publish(msg proto.Outbound) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, ch := range f.subs {
		select {
		case ch <- msg:
		default:
			delete(f.subs, id)
			close(ch)
			f.log.Warn().Str("subscriber_id", id).Msg("dropping slow feed subscriber")
		}
	}
	metrics.FeedSubscribers.Set(float64(len(f.subs)))
}

func (f *Feed) unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
		metrics.FeedSubscribers.Set(float64(len(f.subs)))
	}
}
