package session

import (
	"context"
	"testing"

	"github.com/lumabot/wabridge/internal/agent"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	turns := []agent.Turn{
		{Role: agent.RoleUser, Text: "hey bot"},
		{Role: agent.RoleModel, Text: "hello"},
	}
	if err := store.Save(ctx, "sender", turns); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "sender")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(loaded))
	}
}

func TestMemoryStoreLoadMissingReturnsNil(t *testing.T) {
	store := NewMemoryStore()

	turns, err := store.Load(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("expected nil error for missing session, got %v", err)
	}
	if turns != nil {
		t.Fatalf("expected nil transcript, got %+v", turns)
	}
}

func TestMemoryStoreCopiesTranscripts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	turns := []agent.Turn{{Role: agent.RoleUser, Text: "original"}}
	if err := store.Save(ctx, "sender", turns); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	turns[0].Text = "mutated after save"
	loaded, err := store.Load(ctx, "sender")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded[0].Text != "original" {
		t.Fatalf("expected stored transcript isolated from caller, got %q", loaded[0].Text)
	}

	loaded[0].Text = "mutated after load"
	reloaded, err := store.Load(ctx, "sender")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded[0].Text != "original" {
		t.Fatalf("expected loaded copy isolated, got %q", reloaded[0].Text)
	}
}
