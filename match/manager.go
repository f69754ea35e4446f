// Package match implements the match session lifecycle: creating a
// match for a conversation's members, fanning out private prompt
// cards, collecting choices, and scoring the match when the last
// choice arrives.
package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/matchbot/cards"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/monitor"
	"github.com/wfunc/matchbot/persistence"
)

var (
	// ErrSessionNotFound means a submission referenced a session that
	// is not in the store (stale or forged card). Terminal for that
	// submission only.
	ErrSessionNotFound = errors.New("match session not found")
	// ErrSessionClosed means the match was already scored; late
	// submissions are rejected rather than double-counted.
	ErrSessionClosed = errors.New("match session closed")

	errUnknownParticipant = errors.New("submitter is not a match participant")
)

// Manager orchestrates match sessions against the conversation store,
// the record store, and the chat connector.
type Manager struct {
	connector     connector.Connector
	conversations persistence.ConversationStore
	records       persistence.RecordStore
	log           *zap.SugaredLogger
	metrics       *monitor.Monitor
	retryAttempts int
	retryBackoff  time.Duration
}

func NewManager(conn connector.Connector, conversations persistence.ConversationStore, records persistence.RecordStore, log *zap.SugaredLogger, metrics *monitor.Monitor, retryAttempts int, retryBackoff time.Duration) *Manager {
	return &Manager{
		connector:     conn,
		conversations: conversations,
		records:       records,
		log:           log,
		metrics:       metrics,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
	}
}

// StartMatch creates a match for the members of the activity's
// conversation, posts the shared status card, persists the match under
// a fresh session id, and sends each member a private prompt card.
// The caller has already verified the group-context precondition.
func (m *Manager) StartMatch(ctx context.Context, activity *models.Activity) error {
	members, err := m.connector.GetConversationMembers(ctx, activity.Conversation.ID)
	if err != nil {
		if !errors.Is(err, connector.ErrUnauthorized) {
			return fmt.Errorf("fetch roster: %w", err)
		}
		// No roster access behaves like an empty roster.
		m.log.Warnw("roster unavailable, no match created", "conversation", activity.Conversation.ID)
		members = nil
	}
	if len(members) < 2 {
		reply := &models.Activity{
			Type:         models.ActivityTypeMessage,
			From:         activity.Recipient,
			Conversation: activity.Conversation,
			Text:         "I could not find enough members to start a match.",
		}
		_, err := m.connector.SendToConversation(ctx, activity.Conversation.ID, reply)
		return err
	}

	results := make([]*models.MatchResult, 0, len(members))
	for _, member := range members {
		results = append(results, &models.MatchResult{User: member, Choice: models.ChoiceNone})
	}
	game := &models.Match{
		SessionID: uuid.New().String(),
		Results:   results,
	}

	// Post the status card first so its message id can be stored on
	// the match for later in-place edits.
	status := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         activity.Recipient,
		Conversation: activity.Conversation,
		Attachments:  []models.Attachment{cards.StatusCard(game.Results, nil)},
	}
	messageID, err := m.connector.SendToConversation(ctx, activity.Conversation.ID, status)
	if err != nil {
		return fmt.Errorf("send status card: %w", err)
	}
	game.MessageID = messageID

	addr := persistence.Address{
		ChannelID:      activity.Recipient.ID,
		ConversationID: activity.Conversation.ID,
	}
	err = persistence.UpdateProperty(ctx, m.conversations, addr, game.SessionID, m.retryAttempts, m.retryBackoff, func(json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(game)
	})
	if err != nil {
		return fmt.Errorf("persist match: %w", err)
	}
	if m.metrics != nil {
		m.metrics.IncMatchesStarted()
	}
	m.log.Infow("match created", "session", game.SessionID, "conversation", activity.Conversation.ID, "participants", len(members))

	// Prompt every member privately. One failed send must not keep the
	// rest from being prompted.
	for _, member := range members {
		if err := m.sendPrompt(ctx, activity, member, game.SessionID); err != nil {
			if m.metrics != nil {
				m.metrics.IncSendFailures()
			}
			m.log.Errorw("failed to prompt member", "session", game.SessionID, "member", member.ID, "error", err)
		}
	}
	return nil
}

func (m *Manager) sendPrompt(ctx context.Context, activity *models.Activity, member models.ChannelAccount, sessionID string) error {
	// Opening the conversation ensures it exists even when the bot has
	// never talked to the member before.
	conversationID, err := m.connector.CreateConversation(ctx, connector.ConversationParameters{
		Bot:     activity.Recipient,
		Members: []models.ChannelAccount{member},
		Tenant:  activity.ChannelData.Tenant,
	})
	if err != nil {
		return err
	}

	prompt := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         activity.Recipient,
		Conversation: models.ConversationAccount{ID: conversationID},
		Attachments:  []models.Attachment{cards.PromptCard(activity.Conversation.ID, sessionID)},
	}
	_, err = m.connector.SendToConversation(ctx, conversationID, prompt)
	return err
}
