package manager

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel/internal/models"
)

// ErrInvalidDraft is returned when a draft is missing a field or has a bad port.
var ErrInvalidDraft = errors.New("invalid service draft")

// Directory is the ordered in-memory list of monitored services.
type Directory struct {
	mu       sync.RWMutex
	services []*models.Service
	index    map[string]*models.Service
	now      func() time.Time
	newID    func() string
	onAdd    []func(models.Service)
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		index: make(map[string]*models.Service),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// OnAdd registers a hook invoked, outside the lock, after every successful Add.
func (d *Directory) OnAdd(fn func(models.Service)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.onAdd = append(d.onAdd, fn)
	d.mu.Unlock()
}

// List returns copies of all services in insertion order.
func (d *Directory) List() []models.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Service, 0, len(d.services))
	for _, svc := range d.services {
		out = append(out, *svc)
	}
	return out
}

// Len returns the number of services.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.services)
}

// Get returns a copy of the service with the given id.
func (d *Directory) Get(id string) (models.Service, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.index[id]
	if !ok {
		return models.Service{}, false
	}
	return *svc, true
}

// Add creates a service from draft with a fresh id, status online, and a
// zero-error metrics snapshot.
func (d *Directory) Add(draft models.ServiceDraft) (models.Service, error) {
	name := strings.TrimSpace(draft.Name)
	ip := strings.TrimSpace(draft.IP)
	if name == "" || ip == "" {
		return models.Service{}, fmt.Errorf("%w: name and ip are required", ErrInvalidDraft)
	}
	if !models.PortInRange(draft.Port) {
		return models.Service{}, fmt.Errorf("%w: port %d out of range", ErrInvalidDraft, draft.Port)
	}

	d.mu.Lock()
	id := d.newID()
	for _, taken := d.index[id]; taken; _, taken = d.index[id] {
		id = d.newID()
	}
	svc := &models.Service{
		ID:          id,
		Name:        name,
		IP:          ip,
		Port:        draft.Port,
		Description: strings.TrimSpace(draft.Description),
		Status:      models.StatusOnline,
		LastCheck:   d.now(),
		Metrics: models.ServiceMetrics{
			ResponseTime: 0,
			Uptime:       models.DefaultUptime,
			Errors:       0,
		},
	}
	d.services = append(d.services, svc)
	d.index[id] = svc
	hooks := append([]func(models.Service){}, d.onAdd...)
	d.mu.Unlock()

	added := *svc
	for _, fn := range hooks {
		fn(added)
	}
	return added, nil
}

// Seed inserts pre-existing services, e.g. from a telemetry fixture, keeping
// their ids. Entries with a duplicate id or invalid port are skipped; the
// number inserted is returned.
func (d *Directory) Seed(services []models.Service) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	added := 0
	for _, svc := range services {
		if svc.ID == "" || !models.PortInRange(svc.Port) {
			continue
		}
		if _, exists := d.index[svc.ID]; exists {
			continue
		}
		if !svc.Status.Valid() {
			svc.Status = models.StatusOnline
		}
		copied := svc
		d.services = append(d.services, &copied)
		d.index[copied.ID] = &copied
		added++
	}
	return added
}

// Touch records a health probe time for id.
func (d *Directory) Touch(id string, at time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	svc, ok := d.index[id]
	if !ok {
		return false
	}
	svc.LastCheck = at
	return true
}
