// Package bot carries the per-message turn context handed to dialog
// handlers: the inbound activity plus the collaborators a handler may
// need. A turn lives for exactly one inbound message.
package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

type Turn struct {
	Activity      *models.Activity
	Connector     connector.Connector
	Conversations persistence.ConversationStore
	Records       persistence.RecordStore
	Log           *zap.SugaredLogger

	// Bounded retry settings for conversation-store updates.
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Address is the conversation-store address of the conversation this
// turn arrived from.
func (t *Turn) Address() persistence.Address {
	return persistence.Address{
		ChannelID:      t.Activity.Recipient.ID,
		ConversationID: t.Activity.Conversation.ID,
	}
}

// ReplyText posts a plain text message back into the originating
// conversation.
func (t *Turn) ReplyText(ctx context.Context, text string) error {
	reply := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         t.Activity.Recipient,
		Conversation: t.Activity.Conversation,
		Text:         text,
	}
	_, err := t.Connector.SendToConversation(ctx, t.Activity.Conversation.ID, reply)
	return err
}
