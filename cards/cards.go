// Package cards builds the interactive card payloads the bot sends.
// The transport renders them; here they are only JSON-shaped content.
package cards

import (
	"fmt"

	"github.com/wfunc/matchbot/models"
)

const adaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// PromptCard is the private card asking one member to pick a choice.
// The submit action carries the session and originating conversation
// ids so the submission can be routed back to the right match.
func PromptCard(conversationID, sessionID string) models.Attachment {
	return models.Attachment{
		ContentType: adaptiveCardContentType,
		Content: map[string]interface{}{
			"type": "AdaptiveCard",
			"body": []interface{}{
				map[string]interface{}{
					"type": "TextBlock",
					"text": "Choose your action:",
				},
				map[string]interface{}{
					"type": "Input.ChoiceSet",
					"id":   "choice",
					"choices": []interface{}{
						map[string]interface{}{"title": "Rock", "value": "Rock"},
						map[string]interface{}{"title": "Paper", "value": "Paper"},
						map[string]interface{}{"title": "Scissors", "value": "Scissors"},
					},
				},
			},
			"actions": []interface{}{
				map[string]interface{}{
					"type":  "Action.Submit",
					"title": "Submit",
					"data": map[string]interface{}{
						"sessionId":      sessionID,
						"conversationId": conversationID,
					},
				},
			},
		},
	}
}

// StatusCard is the shared progress card in the group conversation.
// While any participant is still undecided it only shows who has
// responded; choices and win counts appear once everyone has answered.
// wins maps user id to win count and is only consulted when the match
// is complete.
func StatusCard(results []*models.MatchResult, wins map[string]int) models.Attachment {
	complete := true
	for _, r := range results {
		if r.Choice == models.ChoiceNone {
			complete = false
			break
		}
	}

	body := []interface{}{
		map[string]interface{}{
			"type":   "TextBlock",
			"text":   "Match status",
			"weight": "bolder",
		},
	}
	for _, r := range results {
		var line string
		if complete {
			line = fmt.Sprintf("%s chose %s, %d win(s)", r.User.Name, r.Choice, wins[r.User.ID])
		} else if r.Choice == models.ChoiceNone {
			line = fmt.Sprintf("%s has not responded", r.User.Name)
		} else {
			line = fmt.Sprintf("%s has responded", r.User.Name)
		}
		body = append(body, map[string]interface{}{
			"type": "TextBlock",
			"text": line,
		})
	}

	return models.Attachment{
		ContentType: adaptiveCardContentType,
		Content: map[string]interface{}{
			"type": "AdaptiveCard",
			"body": body,
		},
	}
}

// ThanksCard replaces the prompt card after a member submits, so the
// card cannot be casually re-submitted from the same surface.
func ThanksCard(choice models.Choice) models.Attachment {
	return models.Attachment{
		ContentType: adaptiveCardContentType,
		Content: map[string]interface{}{
			"type": "AdaptiveCard",
			"body": []interface{}{
				map[string]interface{}{
					"type": "TextBlock",
					"text": fmt.Sprintf("You chose %s. Thanks for playing!", choice),
				},
			},
		},
	}
}

// RecordCard renders a service record for the compose-extension search
// surface.
func RecordCard(record *models.ServiceRecord) models.Attachment {
	return models.Attachment{
		ContentType: "application/vnd.microsoft.card.hero",
		Content: map[string]interface{}{
			"text": record.Summary(),
		},
	}
}
