package cache

import (
	"encoding/json"
	"testing"
	"time"

	"mnemosyne-server/internal/domain"
)

func seedAssets(t *testing.T, store *mockSnapshotStore, key string, snapshot domain.AssetSnapshot) {
	t.Helper()
	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("failed to seed snapshot: %v", err)
	}
	store.docs[key] = data
}

func TestAssetCache_SetGet(t *testing.T) {
	store := newMockSnapshotStore()
	c := NewAssetCache(store, "assets:test", 24*time.Hour)

	if _, ok := c.Get("assets/a.png"); ok {
		t.Error("expected miss for unknown asset")
	}

	c.Set("assets/a.png", "aGVsbG8=")

	content, ok := c.Get("assets/a.png")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if content != "aGVsbG8=" {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestAssetCache_PersistsAcrossInstances(t *testing.T) {
	store := newMockSnapshotStore()

	first := NewAssetCache(store, "assets:test", 24*time.Hour)
	first.Set("assets/a.png", "aGVsbG8=")

	second := NewAssetCache(store, "assets:test", 24*time.Hour)
	content, ok := second.Get("assets/a.png")
	if !ok {
		t.Fatal("expected persisted entry to survive a new instance")
	}
	if content != "aGVsbG8=" {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestAssetCache_ExpiredSnapshotDiscarded(t *testing.T) {
	store := newMockSnapshotStore()
	seedAssets(t, store, "assets:test", domain.AssetSnapshot{
		URLs:      map[string]string{"assets/a.png": "aGVsbG8="},
		Timestamp: time.Now().Add(-25 * time.Hour),
	})

	c := NewAssetCache(store, "assets:test", 24*time.Hour)

	if _, ok := c.Get("assets/a.png"); ok {
		t.Error("expected expired snapshot to be discarded wholesale")
	}
	if _, ok := store.docs["assets:test"]; ok {
		t.Error("expected expired durable snapshot to be deleted")
	}
}

func TestAssetCache_EmptyIDIsNoop(t *testing.T) {
	store := newMockSnapshotStore()
	c := NewAssetCache(store, "assets:test", 24*time.Hour)

	c.Set("", "content")

	if store.puts != 0 {
		t.Error("set with empty id must not persist")
	}
	if _, ok := c.Get(""); ok {
		t.Error("get with empty id must miss")
	}
}
