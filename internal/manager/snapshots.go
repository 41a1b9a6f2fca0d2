package manager

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/telemetry"
)

const (
	// SeriesPoints is the number of points in every synthesized series.
	SeriesPoints = 9
	// SeriesStep is the spacing between synthesized points.
	SeriesStep = 5 * time.Minute
)

// Baseline values for synthesized snapshots.
const (
	baselineLatencyMs    = 150.0
	baselinePredictedMs  = 145.0
	baselineRPS          = 10.0
	baselineErrorRate    = 0.001
	baselineCPUPct       = 45.0
	baselineMemPct       = 60.0
	baselineAvailability = 0.999
	baselineFreshnessS   = 5.0
)

// SnapshotProvider resolves a metrics snapshot for any service id, falling back
// to a synthesized baseline when the telemetry source has nothing for it.
type SnapshotProvider struct {
	source telemetry.Source
	log    *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// SnapshotOption configures a SnapshotProvider.
type SnapshotOption func(*SnapshotProvider)

// WithSource sets the telemetry source consulted before synthesizing.
func WithSource(src telemetry.Source) SnapshotOption {
	return func(p *SnapshotProvider) { p.source = src }
}

// WithSeed makes the jitter in synthesized series reproducible.
func WithSeed(seed int64) SnapshotOption {
	return func(p *SnapshotProvider) {
		p.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) SnapshotOption {
	return func(p *SnapshotProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used to report source failures.
func WithLogger(l *slog.Logger) SnapshotOption {
	return func(p *SnapshotProvider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewSnapshotProvider builds a provider. Without WithSeed the jitter is seeded
// from the clock.
func NewSnapshotProvider(opts ...SnapshotOption) *SnapshotProvider {
	p := &SnapshotProvider{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		WithSeed(p.now().UnixNano())(p)
	}
	return p
}

// Snapshot returns the stored snapshot for id, or a synthesized one. It never
// fails: source errors are logged and treated as a missing key.
func (p *SnapshotProvider) Snapshot(ctx context.Context, id string) models.Snapshot {
	if p.source != nil {
		snap, ok, err := p.source.Lookup(ctx, id)
		if err != nil {
			p.log.Warn("telemetry lookup failed, using synthetic snapshot", "service_id", id, "error", err)
		} else if ok {
			return snap
		}
	}
	return p.Synthesize(id)
}

// Synthesize builds the baseline snapshot for id: fixed headline values and
// nine jittered points per series, five minutes apart, ending now.
func (p *SnapshotProvider) Synthesize(id string) models.Snapshot {
	now := p.now().UTC()
	snap := models.Snapshot{
		Record: models.MetricsRecord{
			App:             "service-" + id,
			TS:              now,
			RPS:             baselineRPS,
			LatencyP95Ms:    baselineLatencyMs,
			ErrorRate:       baselineErrorRate,
			CPUPct:          baselineCPUPct,
			MemPct:          baselineMemPct,
			Availability30d: baselineAvailability,
			DataFreshnessS:  baselineFreshnessS,
		},
		Series: models.ChartSeries{
			Latency:    make([]models.LatencyPoint, 0, SeriesPoints),
			ErrorRate:  make([]models.ErrorRatePoint, 0, SeriesPoints),
			Traffic:    make([]models.TrafficPoint, 0, SeriesPoints),
			Saturation: make([]models.SaturationPoint, 0, SeriesPoints),
		},
		Synthetic: true,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := SeriesPoints - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * SeriesStep)
		snap.Series.Latency = append(snap.Series.Latency, models.LatencyPoint{
			Time:      at,
			Latency:   baselineLatencyMs + p.jitter(20),
			Predicted: baselinePredictedMs + p.jitter(10),
		})
		snap.Series.ErrorRate = append(snap.Series.ErrorRate, models.ErrorRatePoint{
			Time:      at,
			ErrorRate: baselineErrorRate + p.jitter(0.005),
		})
		snap.Series.Traffic = append(snap.Series.Traffic, models.TrafficPoint{
			Time: at,
			RPS:  baselineRPS + p.jitter(5),
		})
		snap.Series.Saturation = append(snap.Series.Saturation, models.SaturationPoint{
			Time:   at,
			CPU:    baselineCPUPct + p.jitter(10),
			Memory: baselineMemPct + p.jitter(10),
		})
	}
	return snap
}

// jitter returns a uniform value in [0, span). Caller holds p.mu.
func (p *SnapshotProvider) jitter(span float64) float64 {
	return p.rng.Float64() * span
}

// DefaultService is the placeholder rendered for an id the directory does not know.
func DefaultService(id string, now time.Time) models.Service {
	return models.Service{
		ID:          id,
		Name:        "Service " + id,
		IP:          "192.168.1.100",
		Port:        8080,
		Description: "Dynamically added service",
		Status:      models.StatusOnline,
		LastCheck:   now,
		Metrics: models.ServiceMetrics{
			ResponseTime: baselineLatencyMs,
			Uptime:       99.8,
			Errors:       0,
		},
	}
}
