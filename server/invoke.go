package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/wfunc/matchbot/cards"
	"github.com/wfunc/matchbot/connector"
	"github.com/wfunc/matchbot/logger"
	"github.com/wfunc/matchbot/models"
	"github.com/wfunc/matchbot/persistence"
)

type queryParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type composeExtensionQuery struct {
	CommandID  string           `json:"commandId"`
	Parameters []queryParameter `json:"parameters"`
}

type composeExtensionResult struct {
	Type             string              `json:"type"`
	AttachmentLayout string              `json:"attachmentLayout"`
	Attachments      []models.Attachment `json:"attachments"`
}

type composeExtensionResponse struct {
	ComposeExtension composeExtensionResult `json:"composeExtension"`
}

// handleInvoke answers record-search queries: it looks up the service
// record of every conversation member, optionally filtered by a name
// search parameter, and returns them as a card list. A member without
// a record shows up with a zeroed one.
func (s *BotServer) handleInvoke(ctx context.Context, activity *models.Activity, conn connector.Connector) interface{} {
	var query composeExtensionQuery
	if len(activity.Value) > 0 {
		if err := json.Unmarshal(activity.Value, &query); err != nil {
			logger.Log.Warnw("malformed invoke payload", "error", err)
			return nil
		}
	}

	var search string
	for _, p := range query.Parameters {
		if p.Name != "initialRun" {
			search = p.Value
			break
		}
	}

	// Without roster access the requester can still see their own
	// record.
	members, err := conn.GetConversationMembers(ctx, activity.Conversation.ID)
	if err != nil {
		if !errors.Is(err, connector.ErrUnauthorized) {
			logger.Log.Errorw("roster lookup failed", "error", err)
		}
		members = []models.ChannelAccount{activity.From}
	}

	attachments := make([]models.Attachment, 0, len(members))
	for _, member := range members {
		record, err := s.records.Get(ctx, member.ID)
		if errors.Is(err, persistence.ErrNotFound) {
			record = &models.ServiceRecord{User: member}
		} else if err != nil {
			logger.Log.Errorw("record lookup failed", "user", member.ID, "error", err)
			continue
		}

		if search != "" && !strings.Contains(strings.ToLower(record.User.Name), strings.ToLower(search)) {
			continue
		}
		attachments = append(attachments, cards.RecordCard(record))
	}

	return &composeExtensionResponse{
		ComposeExtension: composeExtensionResult{
			Type:             "result",
			AttachmentLayout: "list",
			Attachments:      attachments,
		},
	}
}
