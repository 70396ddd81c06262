package core

import "sync"

// Store mirrors the remote connections, channels and clients. It expects a
// single writer; reads are safe from any goroutine. Notifications are
// delivered on the writer's goroutine after every collection touched by the
// call has been updated.
type Store struct {
	mu          sync.RWMutex
	connections *collection[ConnectionID, Connection]
	channels    *collection[ChannelKey, Channel]
	clients     *collection[ClientKey, Client]
	notifier    Notifier
	disposed    bool
}

// Snapshot is a consistent copy of all three collections.
type Snapshot struct {
	Connections []Connection `json:"connections"`
	Channels    []Channel    `json:"channels"`
	Clients     []Client     `json:"clients"`
}

// Counts holds the size of each collection.
type Counts struct {
	Connections int `json:"connections"`
	Channels    int `json:"channels"`
	Clients     int `json:"clients"`
}

// NewStore builds an empty store. A nil notifier discards notifications.
func NewStore(notifier Notifier) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Store{
		connections: newCollection[ConnectionID, Connection](),
		channels:    newCollection[ChannelKey, Channel](),
		clients:     newCollection[ClientKey, Client](),
		notifier:    notifier,
	}
}

// pending records which collections changed, to be emitted children first.
type pending struct {
	connections []Connection
	channels    []Channel
	clients     []Client

	connectionsChanged bool
	channelsChanged    bool
	clientsChanged     bool
}

func (p pending) emit(n Notifier) {
	if p.channelsChanged {
		n.ChannelsChanged(p.channels)
	}
	if p.clientsChanged {
		n.ClientsChanged(p.clients)
	}
	if p.connectionsChanged {
		n.ConnectionsChanged(p.connections)
	}
}

func (s *Store) snapConnections(p *pending) {
	p.connections = s.connections.values()
	p.connectionsChanged = true
}

func (s *Store) snapChannels(p *pending) {
	p.channels = s.channels.values()
	p.channelsChanged = true
}

func (s *Store) snapClients(p *pending) {
	p.clients = s.clients.values()
	p.clientsChanged = true
}

// mutate runs fn under the write lock and emits whatever it recorded.
func (s *Store) mutate(fn func(p *pending) error) error {
	var p pending

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	err := fn(&p)
	notifier := s.notifier
	s.mu.Unlock()

	if err != nil {
		return err
	}
	p.emit(notifier)
	return nil
}

// ConnectionExists reports whether a connection with id is present.
func (s *Store) ConnectionExists(id ConnectionID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections.has(id)
}

// Connection returns the stored connection with id.
func (s *Store) Connection(id ConnectionID) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections.get(id)
}

// AddConnection inserts c or fails with ErrDuplicateKey.
func (s *Store) AddConnection(c Connection) error {
	return s.mutate(func(p *pending) error {
		if s.connections.has(c.ID) {
			return NewError(KindConnection, c.ID, ErrDuplicateKey)
		}
		s.connections.insert(c.ID, c)
		s.snapConnections(p)
		return nil
	})
}

// UpdateConnection replaces the stored connection or fails with ErrNotFound.
func (s *Store) UpdateConnection(c Connection) error {
	return s.mutate(func(p *pending) error {
		if !s.connections.has(c.ID) {
			return NewError(KindConnection, c.ID, ErrNotFound)
		}
		s.connections.replace(c.ID, c)
		s.snapConnections(p)
		return nil
	})
}

// RemoveConnection deletes the connection together with every channel and
// client belonging to it.
func (s *Store) RemoveConnection(id ConnectionID) error {
	return s.mutate(func(p *pending) error {
		if !s.connections.has(id) {
			return NewError(KindConnection, id, ErrNotFound)
		}
		s.connections.delete(id)
		s.channels.deleteWhere(func(ch Channel) bool { return ch.ConnectionID == id })
		s.clients.deleteWhere(func(cl Client) bool { return cl.ConnectionID == id })

		s.snapChannels(p)
		s.snapClients(p)
		s.snapConnections(p)
		return nil
	})
}

// ChannelExists reports whether a channel with key is present.
func (s *Store) ChannelExists(key ChannelKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels.has(key)
}

// Channel returns the stored channel with key.
func (s *Store) Channel(key ChannelKey) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels.get(key)
}

// AddChannel inserts ch or fails with ErrDuplicateKey.
func (s *Store) AddChannel(ch Channel) error {
	return s.mutate(func(p *pending) error {
		key := ch.Key()
		if s.channels.has(key) {
			return NewError(KindChannel, key, ErrDuplicateKey)
		}
		s.channels.insert(key, ch)
		s.snapChannels(p)
		return nil
	})
}

// UpdateChannel replaces the stored channel or fails with ErrNotFound.
func (s *Store) UpdateChannel(ch Channel) error {
	return s.mutate(func(p *pending) error {
		key := ch.Key()
		if !s.channels.has(key) {
			return NewError(KindChannel, key, ErrNotFound)
		}
		s.channels.replace(key, ch)
		s.snapChannels(p)
		return nil
	})
}

// RemoveChannel deletes the channel and the clients sitting in it. Clients
// of other channels, including same-numbered channels on other
// connections, are untouched.
func (s *Store) RemoveChannel(key ChannelKey) error {
	return s.mutate(func(p *pending) error {
		if !s.channels.has(key) {
			return NewError(KindChannel, key, ErrNotFound)
		}
		s.channels.delete(key)
		s.clients.deleteWhere(func(cl Client) bool { return cl.InChannel(key) })

		s.snapClients(p)
		s.snapChannels(p)
		return nil
	})
}

// ClientExists reports whether a client with key is present.
func (s *Store) ClientExists(key ClientKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.has(key)
}

// Client returns the stored client with key.
func (s *Store) Client(key ClientKey) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.get(key)
}

// AddClient inserts cl or fails with ErrDuplicateKey.
func (s *Store) AddClient(cl Client) error {
	return s.mutate(func(p *pending) error {
		key := cl.Key()
		if s.clients.has(key) {
			return NewError(KindClient, key, ErrDuplicateKey)
		}
		s.clients.insert(key, cl)
		s.snapClients(p)
		return nil
	})
}

// UpdateClient replaces the stored client or fails with ErrNotFound.
func (s *Store) UpdateClient(cl Client) error {
	return s.mutate(func(p *pending) error {
		key := cl.Key()
		if !s.clients.has(key) {
			return NewError(KindClient, key, ErrNotFound)
		}
		s.clients.replace(key, cl)
		s.snapClients(p)
		return nil
	})
}

// RemoveClient deletes the client or fails with ErrNotFound.
func (s *Store) RemoveClient(key ClientKey) error {
	return s.mutate(func(p *pending) error {
		if !s.clients.has(key) {
			return NewError(KindClient, key, ErrNotFound)
		}
		s.clients.delete(key)
		s.snapClients(p)
		return nil
	})
}

// ClearAll empties every collection and notifies for each of them, even
// when they were already empty.
func (s *Store) ClearAll() {
	_ = s.mutate(func(p *pending) error {
		s.connections.reset()
		s.channels.reset()
		s.clients.reset()

		s.snapConnections(p)
		s.snapChannels(p)
		s.snapClients(p)
		return nil
	})
}

// Dispose drops all state without notifying and detaches the notifier.
// Later mutations fail with ErrDisposed.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections.reset()
	s.channels.reset()
	s.clients.reset()
	s.notifier = nopNotifier{}
	s.disposed = true
}

// Connections returns a copy of the connections in insertion order.
func (s *Store) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections.values()
}

// Channels returns a copy of the channels in insertion order.
func (s *Store) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels.values()
}

// Clients returns a copy of the clients in insertion order.
func (s *Store) Clients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.values()
}

// Snapshot returns all three collections taken under one read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Connections: s.connections.values(),
		Channels:    s.channels.values(),
		Clients:     s.clients.values(),
	}
}

// Counts returns the size of each collection.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Connections: s.connections.len(),
		Channels:    s.channels.len(),
		Clients:     s.clients.len(),
	}
}
