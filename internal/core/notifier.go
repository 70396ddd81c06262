package core

// Notifier receives the full current collection after every mutation that
// touched it. Slices are fresh copies; consumers replace, never diff.
type Notifier interface {
	ConnectionsChanged(connections []Connection)
	ChannelsChanged(channels []Channel)
	ClientsChanged(clients []Client)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnConnections func([]Connection)
	OnChannels    func([]Channel)
	OnClients     func([]Client)
}

func (f NotifierFuncs) ConnectionsChanged(connections []Connection) {
	if f.OnConnections != nil {
		f.OnConnections(connections)
	}
}

func (f NotifierFuncs) ChannelsChanged(channels []Channel) {
	if f.OnChannels != nil {
		f.OnChannels(channels)
	}
}

func (f NotifierFuncs) ClientsChanged(clients []Client) {
	if f.OnClients != nil {
		f.OnClients(clients)
	}
}

// MultiNotifier fans a notification out to several consumers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) ConnectionsChanged(connections []Connection) {
	for _, n := range m {
		n.ConnectionsChanged(connections)
	}
}

func (m MultiNotifier) ChannelsChanged(channels []Channel) {
	for _, n := range m {
		n.ChannelsChanged(channels)
	}
}

func (m MultiNotifier) ClientsChanged(clients []Client) {
	for _, n := range m {
		n.ClientsChanged(clients)
	}
}

type nopNotifier struct{}

func (nopNotifier) ConnectionsChanged([]Connection) {}
func (nopNotifier) ChannelsChanged([]Channel)       {}
func (nopNotifier) ClientsChanged([]Client)         {}
