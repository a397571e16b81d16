// Package reachability tracks whether the upstream API host can be reached.
package reachability

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the probe settings
type Config struct {
	// Addr is the host:port dialed by each probe
	Addr string
	// Interval between probes
	Interval time.Duration
	// Timeout for a single dial
	Timeout time.Duration
}

// Dialer opens the probe connection. *net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Monitor probes a TCP address on an interval. It reports connected until a
// probe fails
type Monitor struct {
	cfg       Config
	dialer    Dialer
	logger    *slog.Logger
	connected atomic.Bool
	started   atomic.Bool
	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewMonitor creates a monitor. Call Start to begin probing
func NewMonitor(cfg Config, dialer Dialer, logger *slog.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	m := &Monitor{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.connected.Store(true)
	return m
}

// Start runs the first probe immediately and then one per interval until
// Stop is called or ctx is done
func (m *Monitor) Start(ctx context.Context) {
	if m.started.Swap(true) {
		return
	}
	go m.loop(ctx)
}

// Stop ends the probe loop and waits for it to exit. Safe to call twice
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	if m.started.Load() {
		<-m.done
	}
}

// IsConnected reports the result of the latest probe
func (m *Monitor) IsConnected() bool {
	return m.connected.Load()
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Probe dials the address once and records the outcome
func (m *Monitor) Probe(ctx context.Context) bool {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	conn, err := m.dialer.DialContext(dialCtx, "tcp", m.cfg.Addr)
	ok := err == nil
	if ok {
		_ = conn.Close()
	}

	if prev := m.connected.Swap(ok); prev != ok {
		if ok {
			m.logger.Info("network reachable again", "addr", m.cfg.Addr)
		} else {
			m.logger.Warn("network unreachable", "addr", m.cfg.Addr, "error", err)
		}
	}
	return ok
}

// Static is an observer with a fixed answer
type Static bool

// IsConnected returns the fixed answer
func (s Static) IsConnected() bool {
	return bool(s)
}
