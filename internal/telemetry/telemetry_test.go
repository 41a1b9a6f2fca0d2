package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"sentinel/internal/models"
)

func TestLoadFixture(t *testing.T) {
	src, err := LoadFixture("testdata/mockdata.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	svcs := src.Services()
	if len(svcs) != 2 || svcs[1].Status != models.StatusWarning {
		t.Fatalf("unexpected services: %+v", svcs)
	}

	snap, ok, err := src.Lookup(context.Background(), "1")
	if err != nil || !ok {
		t.Fatalf("lookup 1: ok=%v err=%v", ok, err)
	}
	if snap.Record.App != "payments-api" || len(snap.Series.Latency) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Synthetic {
		t.Fatal("fixture snapshots are not synthetic")
	}
}

func TestFixtureRequiresRecordAndSeries(t *testing.T) {
	src, err := LoadFixture("testdata/mockdata.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	// Service 2 has a record but no chart data.
	if _, ok, err := src.Lookup(context.Background(), "2"); ok || err != nil {
		t.Fatalf("lookup 2: ok=%v err=%v, want miss", ok, err)
	}
	if _, ok, _ := src.Lookup(context.Background(), "nope"); ok {
		t.Fatal("unknown id should miss")
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	if _, err := LoadFixture("testdata/missing.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

type stubSource struct {
	snap  models.Snapshot
	ok    bool
	err   error
	calls int
}

func (s *stubSource) Lookup(context.Context, string) (models.Snapshot, bool, error) {
	s.calls++
	return s.snap, s.ok, s.err
}

func TestChainFallsThrough(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	broken := &stubSource{err: errors.New("boom")}
	empty := &stubSource{}
	hit := &stubSource{ok: true, snap: models.Snapshot{Record: models.MetricsRecord{App: "hit"}}}
	after := &stubSource{ok: true}

	chain := NewChain(quiet, broken, nil, empty, hit, after)
	if chain.Len() != 4 {
		t.Fatalf("nil sources should be dropped, len=%d", chain.Len())
	}
	snap, ok, err := chain.Lookup(context.Background(), "x")
	if err != nil || !ok || snap.Record.App != "hit" {
		t.Fatalf("chain lookup = %+v ok=%v err=%v", snap, ok, err)
	}
	if after.calls != 0 {
		t.Fatal("sources after the first hit must not be consulted")
	}
}

func TestChainAllMiss(t *testing.T) {
	chain := NewChain(nil, &stubSource{}, &stubSource{err: errors.New("down")})
	if _, ok, err := chain.Lookup(context.Background(), "x"); ok || err != nil {
		t.Fatalf("ok=%v err=%v, want clean miss", ok, err)
	}
}

func TestRedisSourceKey(t *testing.T) {
	src := NewRedisSource(nil, "sentinel:")
	if got := src.Key("42"); got != "sentinel:snapshot:42" {
		t.Fatalf("key = %q", got)
	}
}

func TestRedisSourceUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	src := NewRedisSource(client, "t:")
	if _, ok, err := src.Lookup(context.Background(), "1"); ok || err == nil {
		t.Fatalf("ok=%v err=%v, want connection error", ok, err)
	}
	if _, err := DialRedis(context.Background(), RedisOptions{Address: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected dial error")
	}
}
