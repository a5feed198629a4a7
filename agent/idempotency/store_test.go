package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	if _, err := store.Load(context.Background(), "k1"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	if err := store.Save(context.Background(), &Entry{Key: "k1", StatusCode: 200, Body: json.RawMessage(`{"ok":true}`)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.StatusCode != 200 || string(got.Body) != `{"ok":true}` || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Minute)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Save(context.Background(), &Entry{Key: "k", StatusCode: 200}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Load(context.Background(), "k"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestMemoryStoreSweepsExpiredKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Millisecond)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	for i := 0; i < 1000; i++ {
		if err := store.Save(context.Background(), &Entry{Key: fmt.Sprintf("k-%d", i), StatusCode: 200}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if store.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", store.Len())
	}

	store.now = func() time.Time { return base.Add(10 * time.Millisecond) }
	if err := store.Save(context.Background(), &Entry{Key: "fresh", StatusCode: 200}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d after sweep, want 1", store.Len())
	}
}

func TestMemoryStoreFirstWriteWins(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	if err := store.Save(ctx, &Entry{Key: "k", StatusCode: 200, Body: json.RawMessage(`{"n":1}`)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, &Entry{Key: "k", StatusCode: 201, Body: json.RawMessage(`{"n":2}`)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.StatusCode != 200 || string(got.Body) != `{"n":1}` {
		t.Fatalf("expected first entry kept, got %+v", got)
	}
}

func TestMemoryStoreRewritesExpiredKey(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(time.Minute)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()
	if err := store.Save(ctx, &Entry{Key: "k", StatusCode: 200}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := store.Save(ctx, &Entry{Key: "k", StatusCode: 202}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.StatusCode != 202 {
		t.Fatalf("StatusCode = %d, want 202", got.StatusCode)
	}
}

func TestMemoryStoreInvalid(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilEntry) {
		t.Fatalf("expected ErrNilEntry, got %v", err)
	}
	if _, err := store.Load(context.Background(), "   "); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := ValidateKey(strings.Repeat("k", maxKeyLength+1)); err == nil {
		t.Fatal("expected long key to be rejected")
	}
}

type commandRecorder struct {
	mu       sync.Mutex
	commands [][]any
	reply    string
}

func (c *commandRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
		}
		c.mu.Lock()
		c.commands = append(c.commands, cmd)
		c.mu.Unlock()
		fmt.Fprint(w, c.reply)
	}))
	t.Cleanup(server.Close)
	return server
}

func (c *commandRecorder) command(i int) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.commands) {
		return nil
	}
	return c.commands[i]
}

func newTestUpstashStore(t *testing.T, server *httptest.Server) *UpstashRedisStore {
	t.Helper()

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token", TTL: 90 * time.Minute},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store
}

func TestUpstashRedisStoreSave(t *testing.T) {
	t.Parallel()

	rec := &commandRecorder{reply: `{"result":"OK"}`}
	store := newTestUpstashStore(t, rec.server(t))

	err := store.Save(context.Background(), &Entry{Key: "abc", StatusCode: 200, Body: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cmd := rec.command(0)
	if len(cmd) != 6 {
		t.Fatalf("unexpected command: %#v", cmd)
	}
	if cmd[0] != "SET" || cmd[1] != "salon:idempotency:abc" || cmd[3] != "NX" || cmd[4] != "EX" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
	if cmd[5] != float64(5400) {
		t.Fatalf("ttl = %v, want 5400", cmd[5])
	}
}

func TestUpstashRedisStoreLoad(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(Entry{Key: "abc", StatusCode: 200, Body: json.RawMessage(`{"status":"success"}`)})
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded entry: %v", err)
	}

	rec := &commandRecorder{reply: fmt.Sprintf(`{"result":%s}`, encoded)}
	store := newTestUpstashStore(t, rec.server(t))

	got, err := store.Load(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.StatusCode != 200 || string(got.Body) != `{"status":"success"}` {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if cmd := rec.command(0); len(cmd) != 2 || cmd[0] != "GET" || cmd[1] != "salon:idempotency:abc" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	rec := &commandRecorder{reply: `{"result":null}`}
	store := newTestUpstashStore(t, rec.server(t))

	if _, err := store.Load(context.Background(), "abc"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUpstashRedisStoreRedisError(t *testing.T) {
	t.Parallel()

	rec := &commandRecorder{reply: `{"error":"WRONGPASS"}`}
	store := newTestUpstashStore(t, rec.server(t))

	_, err := store.Load(context.Background(), "abc")
	if err == nil || err.Error() != "WRONGPASS" {
		t.Fatalf("expected WRONGPASS, got %v", err)
	}
}

func TestNewUpstashRedisStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "t"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if (UpstashRedisConfig{}).Enabled() {
		t.Fatal("empty config must be disabled")
	}
}
