package cooldown

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"
)

// Config cooldown window and tick step
type Config struct {
	Window      time.Duration
	Step        time.Duration
	PersistDays int
}

// DefaultConfig 60 s window ticking once per second
func DefaultConfig() Config {
	return Config{
		Window:      60 * time.Second,
		Step:        time.Second,
		PersistDays: 1,
	}
}

// Event emitted on every restart, tick and expiry
type Event struct {
	UserID    string        `json:"user_id"`
	Remaining time.Duration `json:"remaining"`
	Expired   bool          `json:"expired"`
}

// Listener receives cooldown events; it must not block
type Listener func(Event)

// tickSource is the subset of time.Ticker the manager drives timers with
type tickSource interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) tickSource {
	return realTicker{t: time.NewTicker(d)}
}

// timer one user's countdown; replaced, never reused, on restart
type timer struct {
	userID    string
	started   string // persisted start value the countdown derives from
	remaining time.Duration
	ticker    tickSource
	stop      chan struct{}
}

// Manager owns one independent countdown per user_id
type Manager struct {
	mu        sync.Mutex
	storeMu   sync.Mutex // orders store writes; never taken while holding mu
	store     Store
	cfg       Config
	now       func() time.Time
	newTicker func(time.Duration) tickSource
	timers    map[string]*timer
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// NewManager creates a cooldown manager backed by store
func NewManager(store Store, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	if cfg.PersistDays <= 0 {
		cfg.PersistDays = def.PersistDays
	}
	return &Manager{
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		newTicker: newRealTicker,
		timers:    make(map[string]*timer),
		listeners: make(map[int]Listener),
	}
}

// Window configured cooldown window
func (m *Manager) Window() time.Duration {
	return m.cfg.Window
}

// Remaining window minus the time elapsed since startedAt, clamped to [0, window]
func Remaining(startedAt, now time.Time, window time.Duration) time.Duration {
	remaining := window - now.Sub(startedAt)
	if remaining < 0 {
		return 0
	}
	if remaining > window {
		return window
	}
	return remaining
}

// Seed resumes a user's countdown from the persisted timestamp. An expired
// or unreadable entry is deleted and 0 is returned.
func (m *Manager) Seed(ctx context.Context, userID string) (time.Duration, error) {
	m.mu.Lock()
	if t, ok := m.timers[userID]; ok {
		remaining := t.remaining
		m.mu.Unlock()
		return remaining, nil
	}
	m.mu.Unlock()

	value, found, err := m.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	startedMs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[WARN] [Cooldown] Discarding unreadable entry for %s: %q", userID, value)
		return 0, m.deleteIfUnchanged(ctx, userID, value)
	}

	remaining := Remaining(time.UnixMilli(startedMs), m.now(), m.cfg.Window)
	if remaining <= 0 {
		log.Printf("[DEBUG] [Cooldown] Entry for %s already expired, deleting", userID)
		return 0, m.deleteIfUnchanged(ctx, userID, value)
	}

	return m.start(userID, value, remaining, false), nil
}

// Restart persists now as the user's start time and begins a fresh full
// window, cancelling any timer already running for that user.
func (m *Manager) Restart(ctx context.Context, userID string) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	started := strconv.FormatInt(m.now().UnixMilli(), 10)
	if err := m.store.Set(ctx, userID, started, m.cfg.PersistDays); err != nil {
		return err
	}
	remaining := m.start(userID, started, m.cfg.Window, true)
	log.Printf("[INFO] [Cooldown] Armed %s for %v", userID, remaining)
	return nil
}

// start registers a timer for userID. With replace unset an existing timer
// wins and its remaining time is returned.
func (m *Manager) start(userID, started string, remaining time.Duration, replace bool) time.Duration {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0
	}
	if old, ok := m.timers[userID]; ok {
		if !replace {
			m.mu.Unlock()
			return old.remaining
		}
		close(old.stop)
		delete(m.timers, userID)
	}

	t := &timer{
		userID:    userID,
		started:   started,
		remaining: remaining,
		ticker:    m.newTicker(m.cfg.Step),
		stop:      make(chan struct{}),
	}
	m.timers[userID] = t
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	go m.run(t)
	emit(listeners, Event{UserID: userID, Remaining: remaining})
	return remaining
}

func (m *Manager) run(t *timer) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C():
			if !m.advance(t) {
				return
			}
		}
	}
}

// advance applies one tick to t and reports whether it keeps running.
// Ticks from a timer that is no longer the user's current one are dropped.
func (m *Manager) advance(t *timer) bool {
	m.mu.Lock()
	if current, ok := m.timers[t.userID]; !ok || current != t {
		m.mu.Unlock()
		return false
	}

	t.remaining -= m.cfg.Step
	if t.remaining > 0 {
		ev := Event{UserID: t.userID, Remaining: t.remaining}
		listeners := m.snapshotListeners()
		m.mu.Unlock()
		emit(listeners, ev)
		return true
	}

	t.remaining = 0
	delete(m.timers, t.userID)
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	if err := m.deleteIfUnchanged(context.Background(), t.userID, t.started); err != nil {
		log.Printf("[ERROR] [Cooldown] Failed to delete entry for %s: %v", t.userID, err)
	}
	log.Printf("[DEBUG] [Cooldown] %s expired", t.userID)
	emit(listeners, Event{UserID: t.userID, Expired: true})
	return false
}

// deleteIfUnchanged removes the user's entry only while it still holds
// expected, so a restart persisted in the meantime survives.
func (m *Manager) deleteIfUnchanged(ctx context.Context, userID, expected string) error {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	value, found, err := m.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if value != expected {
		log.Printf("[DEBUG] [Cooldown] Entry for %s was restarted, keeping it", userID)
		return nil
	}
	return m.store.Delete(ctx, userID)
}

// RemainingFor remaining time of the user's running timer, 0 when none runs
func (m *Manager) RemainingFor(userID string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[userID]; ok {
		return t.remaining
	}
	return 0
}

// Active reports whether a timer is running for userID
func (m *Manager) Active(userID string) bool {
	return m.RemainingFor(userID) > 0
}

// ActiveCount number of running timers
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Teardown cancels the user's timer. The persisted entry is kept so a later
// Seed resumes where the wall clock says it should.
func (m *Manager) Teardown(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[userID]; ok {
		close(t.stop)
		delete(m.timers, userID)
	}
}

// Sync tears down timers of users missing from userIDs and seeds the rest
func (m *Manager) Sync(ctx context.Context, userIDs []string) error {
	keep := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		keep[id] = struct{}{}
	}

	m.mu.Lock()
	for id, t := range m.timers {
		if _, ok := keep[id]; !ok {
			close(t.stop)
			delete(m.timers, id)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range userIDs {
		if _, err := m.Seed(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close cancels every timer; the manager starts no new ones afterwards
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, t := range m.timers {
		close(t.stop)
		delete(m.timers, id)
	}
}

// Subscribe registers l and returns a function that removes it
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// snapshotListeners must be called with mu held
func (m *Manager) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}

func emit(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
