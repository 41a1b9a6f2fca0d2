// Package webhook posts Discord-compatible webhook messages for directory
// events.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"
)

// Embed represents a minimal Discord embed payload.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Payload is the JSON body of a webhook call.
type Payload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

const (
	colorInfo    = 0x3B82F6
	colorSuccess = 0x22C55E
)

// Notifier delivers payloads to one webhook URL.
type Notifier struct {
	url    string
	footer string
	client *http.Client
	log    *utils.Logger
}

// New returns nil when url is empty; a nil Notifier ignores every call.
func New(url, footer string, log *utils.Logger) *Notifier {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return &Notifier{url: url, footer: footer, client: &http.Client{Timeout: 8 * time.Second}, log: log}
}

// Post sends payload and returns the HTTP status code.
func (n *Notifier) Post(ctx context.Context, payload Payload) (int, error) {
	if n == nil {
		return 0, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("webhook returned %s", resp.Status)
	}
	return resp.StatusCode, nil
}

// EventPayload renders a directory event as a single embed.
func (n *Notifier) EventPayload(ev models.DirectoryEvent) Payload {
	embed := Embed{
		Title:     eventTitle(ev.Type),
		Color:     colorInfo,
		Timestamp: ev.At.UTC().Format(time.RFC3339),
		Fields: []EmbedField{
			{Name: "Service", Value: ev.Service.Name, Inline: true},
			{Name: "Address", Value: ev.Service.Address(), Inline: true},
			{Name: "ID", Value: ev.Service.ID},
		},
	}
	if ev.Type == models.EventServiceAdded {
		embed.Color = colorSuccess
	}
	if ev.Service.Description != "" {
		embed.Description = ev.Service.Description
	}
	if n != nil && n.footer != "" {
		embed.Footer = &EmbedFooter{Text: n.footer}
	}
	return Payload{Embeds: []Embed{embed}}
}

// NotifyEvent posts ev. Failures are logged, never returned.
func (n *Notifier) NotifyEvent(ctx context.Context, ev models.DirectoryEvent) {
	if n == nil {
		return
	}
	status, err := n.Post(ctx, n.EventPayload(ev))
	if err != nil {
		n.log.Writef("Webhook notify failed (status=%d): %v", status, err)
	}
}

func eventTitle(kind string) string {
	switch kind {
	case models.EventServiceAdded:
		return "Service added"
	default:
		return kind
	}
}
