package status

import (
	"testing"
	"time"

	"sentinel/internal/models"
)

func TestClassifyAvailability(t *testing.T) {
	cases := []struct {
		in   float64
		want Availability
	}{
		{1.0, AvailabilityExcellent},
		{0.999, AvailabilityExcellent},
		{0.9989, AvailabilityGood},
		{0.99, AvailabilityGood},
		{0.9899, AvailabilityPoor},
		{0.98, AvailabilityPoor},
		{0, AvailabilityPoor},
	}
	for _, tc := range cases {
		if got := ClassifyAvailability(tc.in); got != tc.want {
			t.Fatalf("ClassifyAvailability(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAvailabilityDisplayColors(t *testing.T) {
	if d := AvailabilityDisplay(0.9995); d.Color != "text-green-400" {
		t.Fatalf("excellent color = %q", d.Color)
	}
	if d := AvailabilityDisplay(0.995); d.Color != "text-yellow-400" {
		t.Fatalf("good color = %q", d.Color)
	}
	if d := AvailabilityDisplay(0.5); d.Color != "text-red-400" || d.Key != "poor" {
		t.Fatalf("poor display = %+v", d)
	}
}

func TestClassifyFreshness(t *testing.T) {
	if got := ClassifyFreshness(15); got != FreshnessLive {
		t.Fatalf("15s: got %q, want Live", got)
	}
	if got := ClassifyFreshness(16); got != FreshnessStale {
		t.Fatalf("16s: got %q, want Stale", got)
	}
	if got := ClassifyFreshness(0); got != FreshnessLive {
		t.Fatalf("0s: got %q, want Live", got)
	}
}

func TestAnomalyDisplay(t *testing.T) {
	if d := AnomalyDisplay(nil); d.Key != SeverityNone {
		t.Fatalf("absent anomaly key = %q, want %q", d.Key, SeverityNone)
	}
	high := &models.Anomaly{TS: time.Now(), Z: 3.4, Severity: models.SeverityHigh}
	if d := AnomalyDisplay(high); d.Key != "high" || d.Color != "text-red-400" {
		t.Fatalf("high anomaly display = %+v", d)
	}
	if d := ClassifySeverity("critical"); d.Key != SeverityNone {
		t.Fatalf("unknown severity key = %q, want neutral", d.Key)
	}
	if d := ClassifySeverity(""); d.Key != SeverityNone {
		t.Fatalf("empty severity key = %q, want neutral", d.Key)
	}
	if d := ClassifySeverity("Medium"); d.Key != "medium" {
		t.Fatalf("case-insensitive severity key = %q", d.Key)
	}
	if d := ClassifySeverity("low"); d.Color != "text-blue-400" {
		t.Fatalf("low color = %q", d.Color)
	}
}

func TestServiceStatusDisplay(t *testing.T) {
	for _, s := range []models.ServiceStatus{models.StatusOnline, models.StatusOffline, models.StatusWarning} {
		if d := ServiceStatusDisplay(s); d.Key != string(s) {
			t.Fatalf("status %q mapped to %q", s, d.Key)
		}
	}
	if d := ServiceStatusDisplay("degraded"); d.Key != "unknown" {
		t.Fatalf("unknown status mapped to %q", d.Key)
	}
}

func TestCountByStatus(t *testing.T) {
	svcs := []models.Service{
		{Status: models.StatusOnline},
		{Status: models.StatusOnline},
		{Status: models.StatusWarning},
		{Status: models.StatusOffline},
	}
	got := CountByStatus(svcs)
	want := models.StatusCounts{Total: 4, Online: 2, Offline: 1, Warning: 1}
	if got != want {
		t.Fatalf("CountByStatus = %+v, want %+v", got, want)
	}
}

func TestBuildView(t *testing.T) {
	svc := models.Service{ID: "svc-1", Name: "api", Status: models.StatusWarning}
	snap := models.Snapshot{Record: models.MetricsRecord{
		ErrorRate:       0.02,
		Availability30d: 0.995,
		DataFreshnessS:  30,
		LastAnomaly:     &models.Anomaly{Severity: models.SeverityMedium},
	}}
	v := BuildView(svc, snap)
	if v.Status.Key != "warning" || v.Availability.Key != "good" || v.Anomaly.Key != "medium" {
		t.Fatalf("unexpected classifications: %+v", v)
	}
	if v.Freshness != FreshnessStale {
		t.Fatalf("freshness = %q, want Stale", v.Freshness)
	}
	if v.Signals.ErrorRatePercent != 2 {
		t.Fatalf("error rate percent = %v, want 2", v.Signals.ErrorRatePercent)
	}
}
