// Package manager holds the Sentinel application state: the service
// directory, the snapshot provider, the user store, and the host sampler.
// Handlers receive a *Manager explicitly; nothing here is global.
package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sentinel/internal/config"
	"sentinel/internal/db"
	"sentinel/internal/models"
	"sentinel/internal/status"
	"sentinel/internal/telemetry"
	"sentinel/internal/utils"
)

// Manager is the explicit application-state object shared by the HTTP layer.
type Manager struct {
	Config    *config.Config
	Paths     *utils.Paths
	Log       *utils.Logger
	Directory *Directory
	Snapshots *SnapshotProvider
	Users     *UserStore
	Host      *HostMonitor

	db    *sql.DB
	redis *redis.Client
	now   func() time.Time

	events      eventLog
	listenersMu sync.RWMutex
	listeners   []func(models.DirectoryEvent)
}

// NewManager wires the application state from cfg. The fixture file and
// Redis are optional; the user database is not.
func NewManager(cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	paths := utils.NewPaths(cfg.RootPath)
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}
	m := &Manager{
		Config:    cfg,
		Paths:     paths,
		Log:       utils.NewLogger(paths.LogFile()),
		Directory: NewDirectory(),
		Host:      NewHostMonitor(cfg.TelemetryInterval.Duration, paths.RootPath),
		now:       time.Now,
	}

	dbPath := paths.Resolve(cfg.DatabasePath)
	if dbPath == "" {
		dbPath = paths.DatabaseFile()
	}
	sqldb, err := db.Open(dbPath)
	if err != nil {
		m.Log.Close()
		return nil, fmt.Errorf("open user database: %w", err)
	}
	if err := db.Migrate(sqldb); err != nil {
		_ = sqldb.Close()
		m.Log.Close()
		return nil, err
	}
	m.Directory.OnAdd(m.serviceAdded)
	m.db = sqldb
	m.Users = NewUserStore(db.NewRepository(sqldb))

	chain := telemetry.NewChain(m.Log.Slog().With("component", "telemetry"), m.telemetrySources()...)
	opts := []SnapshotOption{WithSource(chain), WithLogger(m.Log.Slog())}
	if cfg.SnapshotSeed != 0 {
		opts = append(opts, WithSeed(cfg.SnapshotSeed))
	}
	m.Snapshots = NewSnapshotProvider(opts...)

	m.Log.Writef("Manager initialized (root=%s, services=%d, telemetry sources=%d)", paths.RootPath, m.Directory.Len(), chain.Len())
	return m, nil
}

func (m *Manager) telemetrySources() []telemetry.Source {
	var sources []telemetry.Source
	if m.Config.Redis.Enabled {
		client, err := telemetry.DialRedis(context.Background(), telemetry.RedisOptions{
			Address:  m.Config.Redis.Address,
			Password: m.Config.Redis.Password,
			DB:       m.Config.Redis.DB,
			Prefix:   m.Config.Redis.Prefix,
		})
		if err != nil {
			m.Log.Writef("Redis telemetry disabled: %v", err)
		} else {
			m.redis = client
			sources = append(sources, telemetry.NewRedisSource(client, m.Config.Redis.Prefix))
		}
	}

	fixturePath := m.Paths.Resolve(m.Config.FixturePath)
	if fixturePath == "" {
		fixturePath = m.Paths.FixtureFile()
	}
	fixture, err := telemetry.LoadFixture(fixturePath)
	switch {
	case err == nil:
		seeded := m.Directory.Seed(fixture.Services())
		m.Log.Writef("Loaded telemetry fixture %s (%d services)", fixturePath, seeded)
		sources = append(sources, fixture)
	case errors.Is(err, os.ErrNotExist):
	default:
		m.Log.Writef("Telemetry fixture ignored: %v", err)
	}
	return sources
}

// Start launches background work.
func (m *Manager) Start() {
	m.Host.Start()
}

// Shutdown stops background work and releases resources.
func (m *Manager) Shutdown() {
	m.Host.Stop()
	if m.redis != nil {
		_ = m.redis.Close()
	}
	if m.db != nil {
		_ = m.db.Close()
	}
	m.Log.Write("Manager shut down")
	m.Log.Close()
}

// Ping checks the user database.
func (m *Manager) Ping(ctx context.Context) error {
	if m.db == nil {
		return errors.New("database not open")
	}
	return m.db.PingContext(ctx)
}

// Service returns the directory entry for id, or the placeholder service when
// the id is unknown; known reports which.
func (m *Manager) Service(id string) (svc models.Service, known bool) {
	if svc, ok := m.Directory.Get(id); ok {
		return svc, true
	}
	return DefaultService(id, m.now()), false
}

// Snapshot fetches the metrics snapshot for id and stamps lastCheck on the
// directory entry when id is known.
func (m *Manager) Snapshot(ctx context.Context, id string) models.Snapshot {
	snap := m.Snapshots.Snapshot(ctx, id)
	m.Directory.Touch(id, m.now())
	return snap
}

// View composes the dashboard view-model for id. Unknown ids get the
// placeholder service and a synthesized snapshot.
func (m *Manager) View(ctx context.Context, id string) status.ServiceView {
	snap := m.Snapshot(ctx, id)
	svc, _ := m.Service(id)
	return status.BuildView(svc, snap)
}

// Overview tallies directory services by status.
func (m *Manager) Overview() models.StatusCounts {
	return status.CountByStatus(m.Directory.List())
}
