// Package connector talks to the chat service on the bot's behalf:
// roster lookups, sending messages, opening 1:1 conversations, and
// editing previously sent messages.
package connector

import (
	"context"
	"errors"

	"github.com/wfunc/matchbot/models"
)

// ErrUnauthorized is returned by GetConversationMembers when the bot
// has no access to the conversation roster. Callers treat it as an
// empty roster.
var ErrUnauthorized = errors.New("not authorized for conversation")

// ConversationParameters describe a 1:1 conversation to open (or
// reuse) between the bot and one member.
type ConversationParameters struct {
	Bot     models.ChannelAccount   `json:"bot"`
	Members []models.ChannelAccount `json:"members"`
	Tenant  *models.TenantInfo      `json:"tenant,omitempty"`
}

// Connector is the outbound surface of the chat service. Send and
// update operations return the message id usable for later edits.
type Connector interface {
	GetConversationMembers(ctx context.Context, conversationID string) ([]models.ChannelAccount, error)
	SendToConversation(ctx context.Context, conversationID string, activity *models.Activity) (string, error)
	CreateConversation(ctx context.Context, params ConversationParameters) (string, error)
	UpdateActivity(ctx context.Context, conversationID, activityID string, activity *models.Activity) (string, error)
}
