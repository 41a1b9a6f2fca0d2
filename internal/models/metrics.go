package models

import "time"

// Severity grades a detected anomaly.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is the most recent flagged deviation for a service.
type Anomaly struct {
	TS       time.Time `json:"ts"`
	Z        float64   `json:"z"`
	Severity Severity  `json:"severity"`
}

// MetricsRecord is the full golden-signal reading for one service at one instant.
type MetricsRecord struct {
	App             string    `json:"app"`
	TS              time.Time `json:"ts"`
	RPS             float64   `json:"rps"`
	LatencyP95Ms    float64   `json:"latency_p95_ms"`
	ErrorRate       float64   `json:"error_rate"`
	CPUPct          float64   `json:"cpu_pct"`
	MemPct          float64   `json:"mem_pct"`
	Availability30d float64   `json:"availability_30d"`
	DataFreshnessS  float64   `json:"data_freshness_s"`
	LastAnomaly     *Anomaly  `json:"last_anomaly,omitempty"`
}

type LatencyPoint struct {
	Time      time.Time `json:"time"`
	Latency   float64   `json:"latency"`
	Predicted float64   `json:"predicted"`
	Anomaly   bool      `json:"anomaly"`
}

type ErrorRatePoint struct {
	Time      time.Time `json:"time"`
	ErrorRate float64   `json:"errorRate"`
}

type TrafficPoint struct {
	Time time.Time `json:"time"`
	RPS  float64   `json:"rps"`
}

type SaturationPoint struct {
	Time   time.Time `json:"time"`
	CPU    float64   `json:"cpu"`
	Memory float64   `json:"memory"`
}

// ChartSeries holds one ascending time series per dashboard chart.
type ChartSeries struct {
	Latency    []LatencyPoint    `json:"latency"`
	ErrorRate  []ErrorRatePoint  `json:"errorRate"`
	Traffic    []TrafficPoint    `json:"traffic"`
	Saturation []SaturationPoint `json:"saturation"`
}

// Snapshot pairs a metrics record with the chart series for the same service.
type Snapshot struct {
	Record    MetricsRecord `json:"record"`
	Series    ChartSeries   `json:"series"`
	Synthetic bool          `json:"synthetic"`
}
