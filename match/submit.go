package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/matchbot/cards"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

// SubmitChoice records one member's choice for a session. Submissions
// arrive concurrently and in any order; the match entry is updated
// under its entity tag with reload-reapply retries, so no submission
// is silently lost. The submission that stores the final choice also
// flips the Scored flag inside the same save and is the only one that
// commits service-record deltas.
func (m *Manager) SubmitChoice(ctx context.Context, activity *models.Activity, payload *models.CardActionPayload) error {
	choice, err := models.ParseChoice(payload.Choice)
	if err != nil {
		return err
	}

	addr := persistence.Address{
		ChannelID:      activity.Recipient.ID,
		ConversationID: payload.ConversationID,
	}

	var saved models.Match
	var scoredNow bool
	err = persistence.UpdateProperty(ctx, m.conversations, addr, payload.SessionID, m.retryAttempts, m.retryBackoff, func(raw json.RawMessage) (json.RawMessage, error) {
		// Reset per attempt; the closure reruns against fresh state
		// after a conflict.
		scoredNow = false

		if raw == nil {
			return nil, ErrSessionNotFound
		}
		var game models.Match
		if err := json.Unmarshal(raw, &game); err != nil {
			return nil, err
		}
		if game.Scored {
			return nil, ErrSessionClosed
		}

		result := game.ResultFor(activity.From.ID)
		if result == nil {
			return nil, errUnknownParticipant
		}
		result.Choice = choice

		if game.Complete() {
			game.Scored = true
			scoredNow = true
		}
		saved = game
		return json.Marshal(&game)
	})
	switch {
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, ErrSessionNotFound):
		// Stale or forged card. Terminal for this submission only.
		return ErrSessionNotFound
	case errors.Is(err, ErrSessionClosed):
		m.ackText(ctx, activity, "This match has already finished.")
		return ErrSessionClosed
	case errors.Is(err, errUnknownParticipant):
		m.log.Infow("submission from non-participant ignored", "session", payload.SessionID, "user", activity.From.ID)
		return nil
	case err != nil:
		return fmt.Errorf("update match: %w", err)
	}

	if m.metrics != nil {
		m.metrics.IncSubmissions()
	}

	// Acknowledge privately by replacing the prompt card.
	m.acknowledge(ctx, activity, choice)

	// Refresh the shared status card in place. Before completion it
	// only reveals who has responded.
	var wins map[string]int
	if saved.Scored {
		wins = make(map[string]int, len(saved.Results))
		for id, s := range ComputeStats(saved.Results) {
			wins[id] = s.Wins
		}
	}
	update := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         activity.Recipient,
		Conversation: models.ConversationAccount{ID: payload.ConversationID},
		Attachments:  []models.Attachment{cards.StatusCard(saved.Results, wins)},
	}
	if _, err := m.connector.UpdateActivity(ctx, payload.ConversationID, saved.MessageID, update); err != nil {
		m.log.Errorw("failed to update status card", "session", saved.SessionID, "error", err)
	}

	if scoredNow {
		m.commitRecords(ctx, &saved)
	}
	return nil
}

// commitRecords adds each participant's win/loss/tie deltas to the
// record store. Only the submission that flipped Scored reaches here.
func (m *Manager) commitRecords(ctx context.Context, game *models.Match) {
	stats := ComputeStats(game.Results)
	for _, result := range game.Results {
		s := stats[result.User.ID]
		if err := m.records.AddResult(ctx, result.User, s.Wins, s.Losses, s.Ties); err != nil {
			m.log.Errorw("failed to update service record", "session", game.SessionID, "user", result.User.ID, "error", err)
		}
	}
	if m.metrics != nil {
		m.metrics.IncMatchesScored()
	}
	m.log.Infow("match scored", "session", game.SessionID, "participants", len(game.Results))
}

// acknowledge edits the submitted prompt card into a thanks card, or
// falls back to a plain message when there is nothing to edit.
func (m *Manager) acknowledge(ctx context.Context, activity *models.Activity, choice models.Choice) {
	ack := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         activity.Recipient,
		Conversation: activity.Conversation,
		Attachments:  []models.Attachment{cards.ThanksCard(choice)},
	}
	var err error
	if activity.ReplyToID != "" {
		_, err = m.connector.UpdateActivity(ctx, activity.Conversation.ID, activity.ReplyToID, ack)
	} else {
		_, err = m.connector.SendToConversation(ctx, activity.Conversation.ID, ack)
	}
	if err != nil {
		m.log.Errorw("failed to acknowledge submission", "user", activity.From.ID, "error", err)
	}
}

func (m *Manager) ackText(ctx context.Context, activity *models.Activity, text string) {
	reply := &models.Activity{
		Type:         models.ActivityTypeMessage,
		From:         activity.Recipient,
		Conversation: activity.Conversation,
		Text:         text,
	}
	if _, err := m.connector.SendToConversation(ctx, activity.Conversation.ID, reply); err != nil {
		m.log.Errorw("failed to send reply", "user", activity.From.ID, "error", err)
	}
}
