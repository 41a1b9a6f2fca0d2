package models

import (
	"net"
	"strconv"
	"time"
)

// ServiceStatus is the externally derived health state of a monitored service.
type ServiceStatus string

const (
	StatusOnline  ServiceStatus = "online"
	StatusOffline ServiceStatus = "offline"
	StatusWarning ServiceStatus = "warning"
)

// Valid reports whether s is one of the known service states.
func (s ServiceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusWarning:
		return true
	}
	return false
}

const (
	MinPort = 1
	MaxPort = 65535

	// DefaultUptime is the uptime percentage assigned to newly added services.
	DefaultUptime = 100.0
)

// ServiceMetrics is the lightweight snapshot shown on service cards.
type ServiceMetrics struct {
	ResponseTime float64 `json:"responseTime"`
	Uptime       float64 `json:"uptime"`
	Errors       int     `json:"errors"`
}

// Service is a monitored endpoint tracked by the directory.
type Service struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	IP          string         `json:"ip"`
	Port        int            `json:"port"`
	Description string         `json:"description,omitempty"`
	Status      ServiceStatus  `json:"status"`
	LastCheck   time.Time      `json:"lastCheck"`
	Metrics     ServiceMetrics `json:"metrics"`
}

// Address returns the host:port form of the service endpoint.
func (s Service) Address() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// ServiceDraft carries user-supplied fields for a new service.
type ServiceDraft struct {
	Name        string `json:"name" validate:"required,max=100"`
	IP          string `json:"ip" validate:"required,max=255"`
	Port        int    `json:"port" validate:"required,min=1,max=65535"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// PortInRange reports whether port is a valid TCP port number.
func PortInRange(port int) bool {
	return port >= MinPort && port <= MaxPort
}

// StatusCounts tallies services per status for the overview card.
type StatusCounts struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Warning int `json:"warning"`
}
