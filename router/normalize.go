package router

import (
	"strings"

	"github.com/wfunc/matchbot/models"
)

// Normalize prepares an activity's text for routing: any @-mention of
// the bot itself is stripped out of the text, surrounding whitespace is
// trimmed, and the remainder is lower-cased.
func Normalize(activity *models.Activity) string {
	text := activity.Text

	for _, mention := range activity.Mentions {
		if mention.Mentioned.ID != activity.Recipient.ID {
			continue
		}
		if mention.Text != "" {
			text = strings.ReplaceAll(text, mention.Text, "")
		}
	}

	return strings.ToLower(strings.TrimSpace(text))
}
