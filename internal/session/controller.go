package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vovakirdan/ts5-mirror/internal/config"
	"github.com/vovakirdan/ts5-mirror/internal/core"
	"github.com/vovakirdan/ts5-mirror/internal/metrics"
	"github.com/vovakirdan/ts5-mirror/internal/proto"
	"github.com/vovakirdan/ts5-mirror/internal/reconcile"
	"github.com/vovakirdan/ts5-mirror/internal/transport"
	"github.com/vovakirdan/ts5-mirror/internal/utils"
)

// State is a phase of the session lifecycle.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateConnecting     State = "connecting"
	StateAuthenticating State = "authenticating"
	StateStreaming      State = "streaming"
)

var allStates = []State{StateDisconnected, StateConnecting, StateAuthenticating, StateStreaming}

var (
	ErrAuthTimeout     = errors.New("auth acknowledgment timed out")
	ErrResyncRequested = errors.New("server properties changed, resynchronising")
	ErrKeepaliveFailed = errors.New("keepalive ping failed")
)

// Config controls dialing, authentication and reconnect pacing.
type Config struct {
	Identity proto.AuthPayload
	APIKey   string

	ConnectTimeout time.Duration
	AuthTimeout    time.Duration
	PingInterval   time.Duration

	InitialDelay time.Duration
	MaxDelay     time.Duration

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// ConfigFrom maps the remote section of the process config.
func ConfigFrom(rc config.RemoteConfig) Config {
	return Config{
		Identity: proto.AuthPayload{
			Identifier:  rc.Identifier,
			Version:     rc.AppVersion,
			Name:        rc.Name,
			Description: rc.Description,
		},
		APIKey:             rc.APIKey,
		ConnectTimeout:     rc.ConnectTimeout,
		AuthTimeout:        rc.AuthTimeout,
		PingInterval:       rc.PingInterval,
		InitialDelay:       rc.ReconnectInitialDelay,
		MaxDelay:           rc.ReconnectMaxDelay,
		BreakerFailures:    rc.BreakerFailures,
		BreakerOpenTimeout: rc.BreakerOpenTimeout,
	}
}

// Status is a point-in-time view of the controller.
type Status struct {
	State          State      `json:"state"`
	SessionID      string     `json:"sessionId,omitempty"`
	Attempts       int        `json:"attempts"`
	LastError      string     `json:"lastError,omitempty"`
	StreamingSince *time.Time `json:"streamingSince,omitempty"`
	HasAPIKey      bool       `json:"hasApiKey"`
}

// Controller owns the connection to the remote client and is the only
// writer of the entity store.
type Controller struct {
	cfg     Config
	dialer  transport.Dialer
	store   *core.Store
	rec     *reconcile.Reconciler
	log     *zerolog.Logger
	breaker *gobreaker.CircuitBreaker[transport.Conn]

	mu     sync.RWMutex
	status Status
	apiKey string
}

// New builds a controller. Run starts it.
func New(cfg Config, dialer transport.Dialer, store *core.Store, rec *reconcile.Reconciler, logger *zerolog.Logger) *Controller {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	c := &Controller{
		cfg:    cfg,
		dialer: dialer,
		store:  store,
		rec:    rec,
		log:    logger,
		apiKey: cfg.APIKey,
		status: Status{State: StateDisconnected, HasAPIKey: cfg.APIKey != ""},
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker[transport.Conn](gobreaker.Settings{
		Name:        "ts5-dial",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("dial circuit breaker state changed")
		},
	})
	metrics.SessionState.WithLabelValues(string(StateDisconnected)).Set(1)
	return c
}

// Status returns a copy of the current status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := c.status
	if st.StreamingSince != nil {
		since := *st.StreamingSince
		st.StreamingSince = &since
	}
	return st
}

// APIKey is the key the next auth request will carry.
func (c *Controller) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Run drives the lifecycle until ctx is cancelled. It always returns a
// non-nil error: ctx.Err() on cancellation.
func (c *Controller) Run(ctx context.Context) error {
	delay := c.cfg.InitialDelay
	for {
		streamed, err := c.session(ctx)

		c.store.ClearAll()
		metrics.StoreClears.Inc()
		c.disconnected(err)

		if ctx.Err() != nil {
			c.log.Info().Msg("session controller stopped")
			return ctx.Err()
		}
		if streamed {
			delay = c.cfg.InitialDelay
		}

		c.log.Info().Err(err).Dur("retry_in", delay).Msg("disconnected from remote client")
		if err := sleep(ctx, delay); err != nil {
			c.log.Info().Msg("session controller stopped")
			return err
		}
		delay = nextDelay(delay, c.cfg.MaxDelay)
	}
}

// session runs one connect/auth/stream cycle and reports whether it reached
// the streaming phase.
func (c *Controller) session(ctx context.Context) (bool, error) {
	c.connecting()

	conn, err := c.breaker.Execute(func() (transport.Conn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
		return c.dialer.Dial(dialCtx)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "breaker_open"
		}
		metrics.ConnectAttempts.WithLabelValues(result).Inc()
		return false, transportFailure(err)
	}
	metrics.ConnectAttempts.WithLabelValues("success").Inc()
	defer func() {
		if cerr := conn.Close("session ended"); cerr != nil {
			c.log.Debug().Err(cerr).Msg("close connection")
		}
	}()

	c.setState(StateAuthenticating)
	c.store.ClearAll()
	metrics.StoreClears.Inc()

	if err := c.authenticate(ctx, conn); err != nil {
		return false, err
	}

	c.streaming()
	return true, c.stream(ctx, conn)
}

func (c *Controller) authenticate(ctx context.Context, conn transport.Conn) error {
	authCtx, cancel := context.WithTimeout(ctx, c.cfg.AuthTimeout)
	defer cancel()

	req, err := json.Marshal(proto.NewAuthRequest(c.cfg.Identity, c.APIKey()))
	if err != nil {
		return fmt.Errorf("encode auth request: %w", err)
	}
	if err := conn.Write(authCtx, req); err != nil {
		return transportFailure(err)
	}

	for {
		data, err := conn.Read(authCtx)
		if err != nil {
			if authCtx.Err() != nil && ctx.Err() == nil {
				return ErrAuthTimeout
			}
			return transportFailure(err)
		}

		ev, err := proto.Decode(data)
		if err != nil {
			c.malformed(err)
			continue
		}
		ack, ok := ev.(proto.Auth)
		if !ok {
			c.log.Debug().Str("type", ev.EventType()).Msg("dropping event received before auth acknowledgment")
			continue
		}

		if ack.APIKey != "" && ack.APIKey != c.APIKey() {
			c.mu.Lock()
			c.apiKey = ack.APIKey
			c.status.HasAPIKey = true
			c.mu.Unlock()
			c.log.Info().Msg("remote client issued a new api key")
		}
		_ = c.rec.Apply(ack)
		return nil
	}
}

func (c *Controller) stream(ctx context.Context, conn transport.Conn) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pingErr := make(chan error, 1)
	if c.cfg.PingInterval > 0 {
		go c.keepalive(streamCtx, conn, cancel, pingErr)
	}

	for {
		data, err := conn.Read(streamCtx)
		if err != nil {
			select {
			case perr := <-pingErr:
				return perr
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return transportFailure(err)
		}

		ev, err := proto.Decode(data)
		if err != nil {
			c.malformed(err)
			continue
		}
		if _, ok := ev.(proto.ServerPropertiesUpdated); ok {
			metrics.EventsTotal.WithLabelValues(ev.EventType(), "resync").Inc()
			return ErrResyncRequested
		}
		_ = c.rec.Apply(ev)
	}
}

func (c *Controller) keepalive(ctx context.Context, conn transport.Conn, cancel context.CancelFunc, errc chan<- error) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, c.cfg.PingInterval)
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("%w: %w", ErrKeepaliveFailed, err)
				cancel()
				return
			}
		}
	}
}

func (c *Controller) malformed(err error) {
	metrics.MalformedMessages.Inc()
	c.log.Warn().Err(err).Msg("dropping malformed message")
}

func (c *Controller) connecting() {
	c.mu.Lock()
	c.status.Attempts++
	c.status.SessionID = utils.NewID()
	c.status.StreamingSince = nil
	c.mu.Unlock()
	c.setState(StateConnecting)
}

func (c *Controller) streaming() {
	now := time.Now()
	c.mu.Lock()
	c.status.StreamingSince = &now
	c.status.LastError = ""
	c.mu.Unlock()
	c.setState(StateStreaming)
	c.log.Info().Str("session_id", c.Status().SessionID).Msg("streaming remote client state")
}

func (c *Controller) disconnected(err error) {
	c.mu.Lock()
	c.status.StreamingSince = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		c.status.LastError = err.Error()
	}
	c.mu.Unlock()
	c.setState(StateDisconnected)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.status.State = s
	c.mu.Unlock()

	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		metrics.SessionState.WithLabelValues(string(st)).Set(v)
	}
	c.log.Debug().Str("state", string(s)).Msg("session state")
}

func transportFailure(err error) error {
	if errors.Is(err, core.ErrTransportFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrTransportFailure, err)
}

func nextDelay(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit || next <= 0 {
		return limit
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
