// Package netwatch pings a URL in the background and reports
// transitions between online and offline. It never touches requests in flight.
package netwatch

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// OfflineMessage is shown while the device is offline.
const OfflineMessage = "No Internet Connection!"

// Watcher polls a ping URL.
type Watcher struct {
	pingURL string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
}

// New returns a Watcher that assumes it is online until a ping fails.
func New(pingURL string, interval time.Duration) *Watcher {
	return &Watcher{
		pingURL: pingURL,
		interval: interval,
		client:   &http.Client{Timeout: interval},
		logger:   slog.Default(),
		online:   true,
		subs:     map[int]func(bool){},
	}
}

// Online returns the last observed state.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Subscribe registers fn for transitions. The returned function removes it.
func (w *Watcher) Subscribe(fn func(online bool)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Run pings immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Check(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check pings once, publishes a transition if the state changed, and
// returns the new state.
func (w *Watcher) Check(ctx context.Context) bool {
	online := w.ping(ctx)
	if ctx.Err() != nil {
		return w.Online()
	}

	w.mu.Lock()
	changed := online != w.online
	w.online = online
	var fns []func(bool)
	if changed {
		for _, fn := range w.subs {
			fns = append(fns, fn)
		}
	}
	w.mu.Unlock()

	if changed {
		w.logger.Info("Connectivity changed", "online", online)
		for _, fn := range fns {
			fn(online)
		}
	}
	return online
}

// ping treats any HTTP answer as online; only transport failures count.
func (w *Watcher) ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.pingURL, nil)
	if err != nil {
		w.logger.Error("Invalid ping URL", "url", w.pingURL, "error", err)
		return false
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Debug("Ping failed", "url", w.pingURL, "error", err)
		return false
	}
	resp.Body.Close()
	return true
}
