package dialogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/matchbot/bot"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

// Greet sends every roster member except the sender a private
// greeting, together with how many times the bot has greeted them in
// this conversation. The per-member counter is a conversation-store
// property keyed by the member id.
func Greet(ctx context.Context, turn *bot.Turn) error {
	members, err := turn.Connector.GetConversationMembers(ctx, turn.Activity.Conversation.ID)
	if err != nil {
		if !errors.Is(err, connector.ErrUnauthorized) {
			return fmt.Errorf("fetch roster: %w", err)
		}
		members = nil
	}

	for _, member := range members {
		if member.ID == turn.Activity.From.ID {
			continue
		}
		if err := greetMember(ctx, turn, member); err != nil {
			turn.Log.Errorw("failed to greet member", "member", member.ID, "error", err)
		}
	}
	return nil
}

func greetMember(ctx context.Context, turn *bot.Turn, member models.ChannelAccount) error {
	var timesGreeted int
	err := persistence.UpdateProperty(ctx, turn.Conversations, turn.Address(), member.ID, turn.RetryAttempts, turn.RetryBackoff, func(raw json.RawMessage) (json.RawMessage, error) {
		timesGreeted = 0
		if raw != nil {
			if err := json.Unmarshal(raw, &timesGreeted); err != nil {
				return nil, err
			}
		}
		timesGreeted++
		return json.Marshal(timesGreeted)
	})
	if err != nil {
		return err
	}

	conversationID, err := turn.Connector.CreateConversation(ctx, connector.ConversationParameters{
		Bot:     turn.Activity.Recipient,
		Members: []models.ChannelAccount{member},
		Tenant:  turn.Activity.ChannelData.Tenant,
	})
	if err != nil {
		return err
	}

	plural := "s"
	if timesGreeted == 1 {
		plural = ""
	}
	greeting := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         turn.Activity.Recipient,
		Conversation: models.ConversationAccount{ID: conversationID},
		Text:         fmt.Sprintf("Greetings! (I have greeted you %d time%s)", timesGreeted, plural),
	}
	_, err = turn.Connector.SendToConversation(ctx, conversationID, greeting)
	return err
}
