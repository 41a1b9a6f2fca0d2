package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"sentinel/internal/models"
)

const maxRecentEvents = 50

// eventLog keeps the most recent directory events, newest first.
type eventLog struct {
	seq    atomic.Uint64
	mu     sync.RWMutex
	events []models.DirectoryEvent
}

func (l *eventLog) record(kind string, svc models.Service, at time.Time) models.DirectoryEvent {
	entry := models.DirectoryEvent{
		ID:      l.seq.Add(1),
		Type:    kind,
		Service: svc,
		At:      at,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	buffer := make([]models.DirectoryEvent, 0, len(l.events)+1)
	buffer = append(buffer, entry)
	buffer = append(buffer, l.events...)
	if len(buffer) > maxRecentEvents {
		buffer = buffer[:maxRecentEvents]
	}
	l.events = buffer
	return entry
}

func (l *eventLog) recent(limit int) []models.DirectoryEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.events) {
		limit = len(l.events)
	}
	out := make([]models.DirectoryEvent, limit)
	copy(out, l.events[:limit])
	return out
}

// OnEvent registers fn to receive every recorded directory event, e.g. to
// broadcast it to websocket clients.
func (m *Manager) OnEvent(fn func(models.DirectoryEvent)) {
	if fn == nil {
		return
	}
	m.listenersMu.Lock()
	m.listeners = append(m.listeners, fn)
	m.listenersMu.Unlock()
}

// RecentEvents returns up to limit most recent directory events, newest first.
func (m *Manager) RecentEvents(limit int) []models.DirectoryEvent {
	return m.events.recent(limit)
}

func (m *Manager) serviceAdded(svc models.Service) {
	ev := m.events.record(models.EventServiceAdded, svc, m.now())
	m.Log.Writef("Service added: %s (%s) at %s", svc.Name, svc.ID, svc.Address())
	m.listenersMu.RLock()
	listeners := make([]func(models.DirectoryEvent), len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
