package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/utils"
)

func TestNilNotifierIsNoop(t *testing.T) {
	n := New("  ", "footer", nil)
	if n != nil {
		t.Fatal("expected nil notifier for empty url")
	}
	if code, err := n.Post(context.Background(), Payload{Content: "x"}); code != 0 || err != nil {
		t.Fatalf("nil post: %d %v", code, err)
	}
	n.NotifyEvent(context.Background(), models.DirectoryEvent{})
}

func TestNotifyEventPostsEmbed(t *testing.T) {
	received := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(srv.URL, "System-Sentinel", nil)
	ev := models.DirectoryEvent{
		ID:      1,
		Type:    models.EventServiceAdded,
		Service: models.Service{ID: "abc", Name: "Payments", IP: "10.0.0.1", Port: 8443},
		At:      time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
	}
	n.NotifyEvent(context.Background(), ev)

	p := <-received
	if len(p.Embeds) != 1 {
		t.Fatalf("expected one embed, got %+v", p)
	}
	e := p.Embeds[0]
	if e.Title != "Service added" || e.Color != colorSuccess || e.Footer == nil || e.Footer.Text != "System-Sentinel" {
		t.Fatalf("unexpected embed %+v", e)
	}
	if e.Fields[1].Value != "10.0.0.1:8443" || e.Timestamp != "2026-02-21T12:00:00Z" {
		t.Fatalf("unexpected fields %+v", e.Fields)
	}
}

func TestPostReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	n := New(srv.URL, "", utils.NewWriterLogger(&buf))
	code, err := n.Post(context.Background(), Payload{Content: "x"})
	if code != http.StatusBadRequest || err == nil {
		t.Fatalf("code=%d err=%v", code, err)
	}
	n.NotifyEvent(context.Background(), models.DirectoryEvent{Type: models.EventServiceAdded})
	if !strings.Contains(buf.String(), "Webhook notify failed (status=400)") {
		t.Fatalf("failure not logged: %q", buf.String())
	}
}
