package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"sentinel/internal/models"
)

// Fixture is the on-disk shape of the dashboard mock data file.
type Fixture struct {
	Services       []models.Service                `json:"services"`
	ServiceMetrics map[string]models.MetricsRecord `json:"serviceMetrics"`
	ChartData      map[string]models.ChartSeries   `json:"chartData"`
}

// FixtureSource serves snapshots from a Fixture. It is read-only after
// construction and safe for concurrent use.
type FixtureSource struct {
	fixture Fixture
}

// NewFixtureSource wraps an in-memory fixture.
func NewFixtureSource(f Fixture) *FixtureSource {
	if f.ServiceMetrics == nil {
		f.ServiceMetrics = map[string]models.MetricsRecord{}
	}
	if f.ChartData == nil {
		f.ChartData = map[string]models.ChartSeries{}
	}
	return &FixtureSource{fixture: f}
}

// LoadFixture reads a fixture file from disk.
func LoadFixture(path string) (*FixtureSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewFixtureSource(f), nil
}

// Services returns the services listed in the fixture.
func (s *FixtureSource) Services() []models.Service {
	out := make([]models.Service, len(s.fixture.Services))
	copy(out, s.fixture.Services)
	return out
}

// Lookup returns a snapshot only when both the record and the chart series
// exist for the id.
func (s *FixtureSource) Lookup(_ context.Context, serviceID string) (models.Snapshot, bool, error) {
	rec, hasRec := s.fixture.ServiceMetrics[serviceID]
	series, hasSeries := s.fixture.ChartData[serviceID]
	if !hasRec || !hasSeries {
		return models.Snapshot{}, false, nil
	}
	return models.Snapshot{Record: rec, Series: cloneSeries(series)}, true, nil
}

func cloneSeries(in models.ChartSeries) models.ChartSeries {
	return models.ChartSeries{
		Latency:    append([]models.LatencyPoint(nil), in.Latency...),
		ErrorRate:  append([]models.ErrorRatePoint(nil), in.ErrorRate...),
		Traffic:    append([]models.TrafficPoint(nil), in.Traffic...),
		Saturation: append([]models.SaturationPoint(nil), in.Saturation...),
	}
}
