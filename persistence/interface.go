// persistence/interface.go
package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wfunc/matchbot/models"
)

// 错误定义
var (
	// ErrNotFound is returned when a key or record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by Save when the entity tag no longer
	// matches the stored one. Callers reload and reapply.
	ErrConflict = errors.New("concurrency conflict")
)

// Address scopes conversation data to one conversation on one channel.
type Address struct {
	ChannelID      string
	ConversationID string
}

// ConversationStore holds named properties per conversation address,
// guarded by entity tags. Load returns the raw property value and its
// current tag; Save succeeds only when the tag still matches (an empty
// tag means "create, fail if present").
type ConversationStore interface {
	Load(ctx context.Context, addr Address, key string) (json.RawMessage, string, error)
	Save(ctx context.Context, addr Address, key string, value json.RawMessage, etag string) error
}

// RecordStore keeps cumulative service records, addressable by user id
// and by directory object id.
type RecordStore interface {
	Get(ctx context.Context, userID string) (*models.ServiceRecord, error)
	GetByObjectID(ctx context.Context, objectID string) (*models.ServiceRecord, error)
	// AddResult applies win/loss/tie deltas to the user's record,
	// creating it when absent. Deltas add; they never overwrite.
	AddResult(ctx context.Context, user models.ChannelAccount, wins, losses, ties int) error
}
