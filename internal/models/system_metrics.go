package models

import "time"

// SystemTelemetry captures host-level resource usage sampled by the backend itself.
type SystemTelemetry struct {
	CPUPercent           float64   `json:"cpu_percent"`
	MemoryPercent        float64   `json:"memory_percent"`
	MemoryUsed           uint64    `json:"memory_used_bytes"`
	MemoryTotal          uint64    `json:"memory_total_bytes"`
	DiskPercent          float64   `json:"disk_percent"`
	DiskUsed             uint64    `json:"disk_used_bytes"`
	DiskTotal            uint64    `json:"disk_total_bytes"`
	NetworkInboundBytes  uint64    `json:"network_inbound_bytes"`
	NetworkOutboundBytes uint64    `json:"network_outbound_bytes"`
	Load1                float64   `json:"load1"`
	UptimeSeconds        uint64    `json:"uptime_seconds"`
	SampledAt            time.Time `json:"sampled_at"`
}

// NetworkTraffic is the in/out byte pair reported by the system metrics endpoint.
type NetworkTraffic struct {
	In  uint64 `json:"in"`
	Out uint64 `json:"out"`
}

// SystemMetricsResponse is the wire shape of GET /api/metrics.
type SystemMetricsResponse struct {
	CPUUsage       float64        `json:"cpu_usage"`
	MemoryUsage    float64        `json:"memory_usage"`
	DiskUsage      float64        `json:"disk_usage"`
	NetworkTraffic NetworkTraffic `json:"network_traffic"`
	Timestamp      time.Time      `json:"timestamp"`
}

// SystemStatus is the wire shape of GET /api/status.
type SystemStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// MetricsResponse converts a telemetry sample into the API shape.
func (t *SystemTelemetry) MetricsResponse() SystemMetricsResponse {
	if t == nil {
		return SystemMetricsResponse{Timestamp: time.Now().UTC()}
	}
	return SystemMetricsResponse{
		CPUUsage:    t.CPUPercent,
		MemoryUsage: t.MemoryPercent,
		DiskUsage:   t.DiskPercent,
		NetworkTraffic: NetworkTraffic{
			In:  t.NetworkInboundBytes,
			Out: t.NetworkOutboundBytes,
		},
		Timestamp: t.SampledAt.UTC(),
	}
}

// DirectoryEvent is pushed to live dashboard clients when the directory changes.
type DirectoryEvent struct {
	ID      uint64    `json:"id"`
	Type    string    `json:"type"`
	Service Service   `json:"service"`
	At      time.Time `json:"at"`
}

const EventServiceAdded = "service.added"
