package persistence

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/matchbot/models"
)

type memoryEntry struct {
	value []byte
	etag  string
}

// MemoryConversationStore is the in-process ConversationStore. It is
// the default backend and the one tests run against; the etag
// discipline is identical to the durable implementations.
type MemoryConversationStore struct {
	entries map[Address]map[string]memoryEntry
	mutex   sync.Mutex
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		entries: make(map[Address]map[string]memoryEntry),
	}
}

func (s *MemoryConversationStore) Load(ctx context.Context, addr Address, key string) (json.RawMessage, string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	props, exists := s.entries[addr]
	if !exists {
		return nil, "", ErrNotFound
	}
	entry, exists := props[key]
	if !exists {
		return nil, "", ErrNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, entry.etag, nil
}

func (s *MemoryConversationStore) Save(ctx context.Context, addr Address, key string, value json.RawMessage, etag string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	props, exists := s.entries[addr]
	if !exists {
		props = make(map[string]memoryEntry)
		s.entries[addr] = props
	}

	current, exists := props[key]
	if exists {
		if etag != current.etag {
			return ErrConflict
		}
	} else if etag != "" {
		return ErrConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	props[key] = memoryEntry{value: stored, etag: uuid.New().String()}
	return nil
}

// MemoryRecordStore is the in-process RecordStore.
type MemoryRecordStore struct {
	records map[string]*models.ServiceRecord
	mutex   sync.Mutex
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]*models.ServiceRecord),
	}
}

func (s *MemoryRecordStore) Get(ctx context.Context, userID string) (*models.ServiceRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, exists := s.records[userID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryRecordStore) GetByObjectID(ctx context.Context, objectID string) (*models.ServiceRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, record := range s.records {
		if record.User.ObjectID != "" && record.User.ObjectID == objectID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryRecordStore) AddResult(ctx context.Context, user models.ChannelAccount, wins, losses, ties int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, exists := s.records[user.ID]
	if !exists {
		record = &models.ServiceRecord{User: user}
		s.records[user.ID] = record
	}
	record.Wins += wins
	record.Losses += losses
	record.Ties += ties
	return nil
}
