package dialogs

import (
	"context"

	"github.com/wfunc/matchbot/bot"
)

// Hello replies in the same conversation.
func Hello(ctx context.Context, turn *bot.Turn) error {
	return turn.ReplyText(ctx, "Hello!")
}
