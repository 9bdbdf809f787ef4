package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

// Poller settings.
const (
	defaultPollInterval = 30 * time.Second
	pollFetchTimeout    = 10 * time.Second
	pollPageSize        = 50
)

// NotificationSource is the slice of the API client the poller needs.
type NotificationSource interface {
	ListNotifications(ctx context.Context, limit int) (NotificationPage, error)
}

// Poller periodically fetches the notification feed, tracks the unread
// count, and raises a toast for each notification it has not seen
// before. The first successful fetch primes the seen set without
// toasting, so a fresh session is not flooded with history.
type Poller struct {
	api      NotificationSource
	notifier Notifier
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	seen    map[int64]struct{}
	primed  bool
	unread  int
	latest  []models.Notification
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewPoller creates a poller over the given source. A non-positive
// interval falls back to the default.
func NewPoller(api NotificationSource, notifier Notifier, logger *slog.Logger, interval time.Duration) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		api:      api,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		seen:     make(map[int64]struct{}),
	}
}

// Start launches the polling loop. Calling Start on a running poller is
// a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop()
}

// Stop halts the polling loop and waits for the in-flight cycle to
// finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	<-done
}

// Unread returns the unread count from the most recent fetch.
func (p *Poller) Unread() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// Notifications returns a copy of the most recently fetched feed.
func (p *Poller) Notifications() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Notification, len(p.latest))
	copy(out, p.latest)
	return out
}

// loop runs cycles on a fixed interval. Cycles never overlap: the next
// tick waits for the previous fetch to return.
func (p *Poller) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(context.Background())
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Poll(context.Background())
		}
	}
}

// Poll runs a single fetch cycle. Exported so callers can force an
// immediate refresh (e.g. after marking notifications read).
func (p *Poller) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pollFetchTimeout)
	defer cancel()

	page, err := p.api.ListNotifications(ctx, pollPageSize)
	if err != nil {
		p.logger.Warn("notification poll failed", "error", err)
		return
	}

	p.mu.Lock()
	wasPrimed := p.primed
	p.primed = true
	p.unread = page.UnreadCount
	p.latest = page.Notifications

	var fresh []models.Notification
	for _, n := range page.Notifications {
		if _, ok := p.seen[n.ID]; ok {
			continue
		}
		p.seen[n.ID] = struct{}{}
		if wasPrimed {
			fresh = append(fresh, n)
		}
	}
	p.mu.Unlock()

	if p.notifier == nil {
		return
	}
	for _, n := range fresh {
		// Only direct, actionable notifications interrupt the user.
		if n.Type != models.NotificationAssignment && n.Type != models.NotificationCompletion {
			continue
		}
		p.notifier.Notify(Toast{
			ID:      uuid.NewString(),
			Type:    ToastInfo,
			Message: n.Message,
		})
	}
}
