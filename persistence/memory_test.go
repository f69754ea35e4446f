package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/wfunc/matchbot/models"
)

var testAddr = Address{ChannelID: "bot", ConversationID: "conv"}

func TestMemoryConversationStore_LoadMissing(t *testing.T) {
	store := NewMemoryConversationStore()
	_, _, err := store.Load(context.Background(), testAddr, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryConversationStore_CreateAndUpdate(t *testing.T) {
	store := NewMemoryConversationStore()
	ctx := context.Background()

	// Create with an empty tag.
	if err := store.Save(ctx, testAddr, "key", json.RawMessage(`1`), ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Creating again must conflict.
	if err := store.Save(ctx, testAddr, "key", json.RawMessage(`2`), ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate create should conflict, got %v", err)
	}

	value, etag, err := store.Load(ctx, testAddr, "key")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(value) != `1` {
		t.Errorf("loaded value = %s", value)
	}
	if etag == "" {
		t.Fatal("load should return a concurrency tag")
	}

	// Update with the current tag succeeds and rotates the tag.
	if err := store.Save(ctx, testAddr, "key", json.RawMessage(`2`), etag); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	// The old tag is now stale.
	if err := store.Save(ctx, testAddr, "key", json.RawMessage(`3`), etag); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale tag should conflict, got %v", err)
	}
}

// conflictingStore rejects the first n saves to exercise the retry
// loop.
type conflictingStore struct {
	*MemoryConversationStore
	mutex     sync.Mutex
	conflicts int
}

func (s *conflictingStore) Save(ctx context.Context, addr Address, key string, value json.RawMessage, etag string) error {
	s.mutex.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mutex.Unlock()
		return ErrConflict
	}
	s.mutex.Unlock()
	return s.MemoryConversationStore.Save(ctx, addr, key, value, etag)
}

func TestUpdateProperty_RetriesAndReapplies(t *testing.T) {
	store := &conflictingStore{MemoryConversationStore: NewMemoryConversationStore(), conflicts: 2}
	ctx := context.Background()

	applications := 0
	err := UpdateProperty(ctx, store, testAddr, "counter", 5, 0, func(raw json.RawMessage) (json.RawMessage, error) {
		applications++
		n := 0
		if raw != nil {
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, err
			}
		}
		return json.Marshal(n + 1)
	})
	if err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if applications != 3 {
		t.Errorf("mutate should rerun per attempt, ran %d times", applications)
	}

	value, _, err := store.Load(ctx, testAddr, "counter")
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != `1` {
		t.Errorf("counter = %s, want 1", value)
	}
}

func TestUpdateProperty_ExhaustionSurfacesConflict(t *testing.T) {
	store := &conflictingStore{MemoryConversationStore: NewMemoryConversationStore(), conflicts: 100}

	err := UpdateProperty(context.Background(), store, testAddr, "key", 3, 0, func(raw json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`1`), nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after exhaustion, got %v", err)
	}
}

func TestUpdateProperty_MutateErrorAborts(t *testing.T) {
	store := NewMemoryConversationStore()
	boom := errors.New("boom")

	err := UpdateProperty(context.Background(), store, testAddr, "key", 3, 0, func(raw json.RawMessage) (json.RawMessage, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error to surface, got %v", err)
	}
	if _, _, err := store.Load(context.Background(), testAddr, "key"); !errors.Is(err, ErrNotFound) {
		t.Error("nothing should be stored when mutate fails")
	}
}

func TestMemoryRecordStore_AddResultUpserts(t *testing.T) {
	store := NewMemoryRecordStore()
	ctx := context.Background()
	user := models.ChannelAccount{ID: "u1", Name: "Alice", ObjectID: "obj-1"}

	// First result creates the record.
	if err := store.AddResult(ctx, user, 1, 0, 2); err != nil {
		t.Fatal(err)
	}
	record, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Wins != 1 || record.Losses != 0 || record.Ties != 2 {
		t.Errorf("record = %+v", record)
	}

	// A second result adds deltas in place, it never duplicates or
	// overwrites.
	if err := store.AddResult(ctx, user, 0, 3, 1); err != nil {
		t.Fatal(err)
	}
	record, _ = store.Get(ctx, "u1")
	if record.Wins != 1 || record.Losses != 3 || record.Ties != 3 {
		t.Errorf("record after second result = %+v", record)
	}
}

func TestMemoryRecordStore_GetByObjectID(t *testing.T) {
	store := NewMemoryRecordStore()
	ctx := context.Background()
	if err := store.AddResult(ctx, models.ChannelAccount{ID: "u1", Name: "Alice", ObjectID: "obj-1"}, 1, 0, 0); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetByObjectID(ctx, "obj-1")
	if err != nil {
		t.Fatalf("GetByObjectID failed: %v", err)
	}
	if record.User.ID != "u1" {
		t.Errorf("record user = %s", record.User.ID)
	}

	if _, err := store.GetByObjectID(ctx, "obj-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRecordStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryRecordStore()
	ctx := context.Background()
	if err := store.AddResult(ctx, models.ChannelAccount{ID: "u1"}, 1, 1, 1); err != nil {
		t.Fatal(err)
	}

	record, _ := store.Get(ctx, "u1")
	record.Wins = 100

	again, _ := store.Get(ctx, "u1")
	if again.Wins != 1 {
		t.Error("mutating a returned record must not affect the store")
	}
}
