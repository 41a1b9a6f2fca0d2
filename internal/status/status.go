// Package status maps raw service and metrics values onto the closed set of
// display states used by the dashboard. Every function here is total: inputs
// outside the known domain resolve to a neutral descriptor instead of an error.
package status

import (
	"strings"

	"sentinel/internal/models"
)

// Display describes how a state is rendered by a dashboard client.
type Display struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	Background string `json:"background"`
	Border     string `json:"border"`
	Icon       string `json:"icon"`
}

const (
	colorGreen  = "green"
	colorYellow = "yellow"
	colorRed    = "red"
	colorBlue   = "blue"
	colorGray   = "gray"
)

func descriptor(key, label, color, icon string) Display {
	return Display{
		Key:        key,
		Label:      label,
		Color:      "text-" + color + "-400",
		Background: "bg-" + color + "-400/10",
		Border:     "border-" + color + "-400/20",
		Icon:       icon,
	}
}

var serviceDisplays = map[models.ServiceStatus]Display{
	models.StatusOnline:  descriptor("online", "Online", colorGreen, "check-circle"),
	models.StatusOffline: descriptor("offline", "Offline", colorRed, "x-circle"),
	models.StatusWarning: descriptor("warning", "Warning", colorYellow, "exclamation-triangle"),
}

var unknownService = descriptor("unknown", "Unknown", colorGray, "question-circle")

// ServiceStatusDisplay returns the descriptor for a service status.
func ServiceStatusDisplay(s models.ServiceStatus) Display {
	if d, ok := serviceDisplays[s]; ok {
		return d
	}
	return unknownService
}

// Availability grades a 30-day availability fraction.
type Availability string

const (
	AvailabilityExcellent Availability = "excellent"
	AvailabilityGood      Availability = "good"
	AvailabilityPoor      Availability = "poor"
)

const (
	excellentThreshold = 0.999
	goodThreshold      = 0.99
)

// ClassifyAvailability uses inclusive lower bounds: 0.999 is excellent, 0.99 is good.
func ClassifyAvailability(availability float64) Availability {
	switch {
	case availability >= excellentThreshold:
		return AvailabilityExcellent
	case availability >= goodThreshold:
		return AvailabilityGood
	default:
		return AvailabilityPoor
	}
}

var availabilityColors = map[Availability]string{
	AvailabilityExcellent: colorGreen,
	AvailabilityGood:      colorYellow,
	AvailabilityPoor:      colorRed,
}

// AvailabilityDisplay returns the descriptor for an availability fraction.
func AvailabilityDisplay(availability float64) Display {
	grade := ClassifyAvailability(availability)
	return descriptor(string(grade), string(grade), availabilityColors[grade], "")
}

// SeverityNone is the display key used when no anomaly is present or recognised.
const SeverityNone = "none"

var severityDisplays = map[models.Severity]Display{
	models.SeverityHigh:   descriptor(string(models.SeverityHigh), "high", colorRed, "fire"),
	models.SeverityMedium: descriptor(string(models.SeverityMedium), "medium", colorYellow, "exclamation"),
	models.SeverityLow:    descriptor(string(models.SeverityLow), "low", colorBlue, "info"),
}

var noAnomaly = descriptor(SeverityNone, "None detected", colorGray, "")

// ClassifySeverity maps a raw severity string. Unrecognised values such as
// "critical" resolve to the neutral no-anomaly descriptor.
func ClassifySeverity(raw string) Display {
	if d, ok := severityDisplays[models.Severity(strings.ToLower(strings.TrimSpace(raw)))]; ok {
		return d
	}
	return noAnomaly
}

// AnomalyDisplay classifies an optional anomaly; nil means no anomaly.
func AnomalyDisplay(a *models.Anomaly) Display {
	if a == nil {
		return noAnomaly
	}
	return ClassifySeverity(string(a.Severity))
}

// Freshness reports whether telemetry is recent enough to call live.
type Freshness string

const (
	FreshnessLive  Freshness = "Live"
	FreshnessStale Freshness = "Stale"
)

const staleAfterSeconds = 15

// ClassifyFreshness marks data older than 15 seconds as stale.
func ClassifyFreshness(ageSeconds float64) Freshness {
	if ageSeconds > staleAfterSeconds {
		return FreshnessStale
	}
	return FreshnessLive
}

// CountByStatus tallies services for the overview card.
func CountByStatus(services []models.Service) models.StatusCounts {
	counts := models.StatusCounts{Total: len(services)}
	for _, svc := range services {
		switch svc.Status {
		case models.StatusOnline:
			counts.Online++
		case models.StatusOffline:
			counts.Offline++
		case models.StatusWarning:
			counts.Warning++
		}
	}
	return counts
}
