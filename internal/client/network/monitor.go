// Package network tracks backend reachability for the offline queue and the UI.
package network

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultBannerLinger сколько показывать offline-баннер после восстановления связи
const DefaultBannerLinger = 3 * time.Second

// Event описывает переход online/offline
type Event struct {
	At     time.Time
	Online bool
}

// Monitor хранит текущее состояние связи и рассылает события переходов.
// Events are emitted only on an actual change, so subscribers see exactly one
// online event per offline->online transition.
type Monitor struct {
	logger       *slog.Logger
	now          func() time.Time
	subs         map[int]chan Event
	lastOnlineAt time.Time
	bannerLinger time.Duration
	nextID       int
	mu           sync.RWMutex
	online       bool
}

// NewMonitor creates a monitor with the connectivity state read once at startup.
func NewMonitor(initialOnline bool, logger *slog.Logger) *Monitor {
	return &Monitor{
		logger:       logger,
		now:          time.Now,
		subs:         make(map[int]chan Event),
		bannerLinger: DefaultBannerLinger,
		online:       initialOnline,
	}
}

// IsOnline returns the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records the platform signal and reports whether it was a transition.
func (m *Monitor) SetOnline(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return false
	}

	m.online = online
	ev := Event{Online: online, At: m.now()}
	if online {
		m.lastOnlineAt = ev.At
	}

	m.logger.Info("Connectivity changed", "online", online)

	for _, ch := range m.subs {
		deliver(ch, ev)
	}

	return true
}

// Subscribe registers a listener for transition events.
// The returned release func unregisters it and closes the channel; it is safe
// to call more than once.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	ch := make(chan Event, 1)
	m.subs[id] = ch

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}

	return ch, release
}

// OfflineBanner reports whether the "you're offline" banner should be visible:
// while offline and for a short linger period after connectivity returns.
func (m *Monitor) OfflineBanner() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.online {
		return true
	}
	if m.lastOnlineAt.IsZero() {
		return false
	}
	return m.now().Sub(m.lastOnlineAt) < m.bannerLinger
}

// deliver отправляет последнее событие, вытесняя непрочитанное.
// Caller holds m.mu, so no other sender races on ch.
func deliver(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- ev:
	default:
	}
}
