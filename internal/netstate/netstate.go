// Package netstate provides the boolean connectivity signal the rate resolver
// consults before attempting a live fetch.
package netstate

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Signal reports whether the network is believed to be reachable.
type Signal interface {
	IsOnline() bool
}

// Static is a fixed connectivity signal.
type Static bool

func (s Static) IsOnline() bool { return bool(s) }

// Monitor periodically issues a HEAD request to a probe URL and remembers whether
// it succeeded. It starts optimistic: online until a probe says otherwise.
type Monitor struct {
	probeURL   string
	interval   time.Duration
	httpClient *http.Client
	online     atomic.Bool
}

// DefaultInterval replaces a non-positive probe interval.
const DefaultInterval = 30 * time.Second

func NewMonitor(probeURL string, interval time.Duration) *Monitor {
	if interval <= 0 {
		slog.Warn("ConnectivityMonitor: non-positive interval, using default", "interval", interval, "default", DefaultInterval)
		interval = DefaultInterval
	}
	m := &Monitor{
		probeURL:   probeURL,
		interval:   interval,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	m.online.Store(true)
	return m
}

func (m *Monitor) IsOnline() bool { return m.online.Load() }

// Run probes immediately and then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("ConnectivityMonitor: starting", "probe", m.probeURL, "interval", m.interval)

	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ConnectivityMonitor: stopping")
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe performs one check and updates the stored state. A probe cut short by a
// cancelled ctx leaves the state unchanged.
func (m *Monitor) Probe(ctx context.Context) bool {
	if ctx.Err() != nil {
		return m.online.Load()
	}
	online := m.check(ctx)
	if ctx.Err() != nil {
		return m.online.Load()
	}
	if prev := m.online.Swap(online); prev != online {
		slog.Info("ConnectivityMonitor: state changed", "online", online)
	}
	return online
}

func (m *Monitor) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		slog.Warn("ConnectivityMonitor: invalid probe url", "url", m.probeURL, "error", err)
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
