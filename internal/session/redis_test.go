package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lumabot/wabridge/internal/agent"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	ctx := context.Background()
	turns := []agent.Turn{
		{Role: agent.RoleUser, Text: "hey bot"},
		{Role: agent.RoleModel, Text: "hello"},
	}
	if err := store.Save(ctx, "15551234567", turns); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "15551234567")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(loaded))
	}
	if loaded[0].Role != agent.RoleUser || loaded[0].Text != "hey bot" {
		t.Fatalf("unexpected first turn %+v", loaded[0])
	}

	raw, err := mr.DB(0).Get("session:15551234567")
	if err != nil {
		t.Fatalf("read raw transcript: %v", err)
	}
	var stored []agent.Turn
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("decode raw transcript: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(stored))
	}
}

func TestRedisStoreLoadMissingReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	turns, err := store.Load(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("expected nil error for missing session, got %v", err)
	}
	if turns != nil {
		t.Fatalf("expected nil transcript, got %+v", turns)
	}
}

func TestRedisStoreSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, WithTTL(time.Hour))

	if err := store.Save(context.Background(), "sender", []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if ttl := mr.TTL("session:sender"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", ttl)
	}
}

func TestRedisStoreSaveRefreshesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, WithTTL(time.Hour))

	ctx := context.Background()
	if err := store.Save(ctx, "sender", []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	mr.FastForward(30 * time.Minute)
	if err := store.Save(ctx, "sender", []agent.Turn{{Role: agent.RoleUser, Text: "hi again"}}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if ttl := mr.TTL("session:sender"); ttl != time.Hour {
		t.Fatalf("expected ttl refreshed to 1h, got %s", ttl)
	}
}

func TestRedisStoreLoadCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	if err := mr.Set("session:sender", "not-json"); err != nil {
		t.Fatalf("seed corrupt payload: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)

	if _, err := store.Load(context.Background(), "sender"); err == nil {
		t.Fatal("expected decode error for corrupt payload")
	}
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil client")
		}
	}()
	NewRedisStore(nil)
}
