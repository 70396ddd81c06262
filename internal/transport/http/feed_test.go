package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
)

func TestFeedFansOutInOrder(t *testing.T) {
	feed := NewFeed(4, nil)
	a, b := feed.Subscribe(), feed.Subscribe()
	defer a.Close()
	defer b.Close()

	st := core.NewStore(feed)
	require.NoError(t, st.AddConnection(core.Connection{ID: 1}))
	require.NoError(t, st.RemoveConnection(1))

	for _, sub := range []*Subscription{a, b} {
		var types []string
		for i := 0; i < 4; i++ {
			types = append(types, (<-sub.C).Type)
		}
		assert.Equal(t, []string{
			proto.OutboundTypeConnections,
			proto.OutboundTypeChannels,
			proto.OutboundTypeClients,
			proto.OutboundTypeConnections,
		}, types)
	}
}

func TestFeedDropsSlowSubscriber(t *testing.T) {
	feed := NewFeed(1, nil)
	slow := feed.Subscribe()
	fast := feed.Subscribe()

	feed.ClientsChanged(nil)
	<-fast.C
	feed.ClientsChanged(nil)

	assert.Equal(t, 1, feed.Len())
	_, ok := <-slow.C
	assert.True(t, ok, "buffered message is still delivered")
	_, ok = <-slow.C
	assert.False(t, ok, "channel closed after drop")

	slow.Close()
	fast.Close()
	fast.Close()
	assert.Equal(t, 0, feed.Len())
}
