package status

import "sentinel/internal/models"

// ServiceView is the composed per-service dashboard model: the service, its
// snapshot, and every derived classification the page renders.
type ServiceView struct {
	Service      models.Service       `json:"service"`
	Record       models.MetricsRecord `json:"record"`
	Series       models.ChartSeries   `json:"series"`
	Synthetic    bool                 `json:"synthetic"`
	Status       Display              `json:"status"`
	Availability Display              `json:"availability"`
	Anomaly      Display              `json:"anomaly"`
	Freshness    Freshness            `json:"freshness"`
	Signals      GoldenSignals        `json:"signals"`
}

// GoldenSignals holds the headline numbers, pre-scaled for display.
type GoldenSignals struct {
	LatencyP95Ms     float64 `json:"latency_p95_ms"`
	RPS              float64 `json:"rps"`
	ErrorRatePercent float64 `json:"error_rate_percent"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	AvailabilityPct  float64 `json:"availability_percent"`
	DataFreshnessS   float64 `json:"data_freshness_s"`
}

// BuildView composes a ServiceView from a service and its snapshot.
func BuildView(svc models.Service, snap models.Snapshot) ServiceView {
	rec := snap.Record
	return ServiceView{
		Service:      svc,
		Record:       rec,
		Series:       snap.Series,
		Synthetic:    snap.Synthetic,
		Status:       ServiceStatusDisplay(svc.Status),
		Availability: AvailabilityDisplay(rec.Availability30d),
		Anomaly:      AnomalyDisplay(rec.LastAnomaly),
		Freshness:    ClassifyFreshness(rec.DataFreshnessS),
		Signals: GoldenSignals{
			LatencyP95Ms:     rec.LatencyP95Ms,
			RPS:              rec.RPS,
			ErrorRatePercent: rec.ErrorRate * 100,
			CPUPercent:       rec.CPUPct,
			MemoryPercent:    rec.MemPct,
			AvailabilityPct:  rec.Availability30d * 100,
			DataFreshnessS:   rec.DataFreshnessS,
		},
	}
}
