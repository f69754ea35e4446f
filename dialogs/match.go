package dialogs

import (
	"context"

	"github.com/wfunc/matchbot/bot"
	"github.com/wfunc/matchbot/match"
	"github.com/wfunc/matchbot/router"
)

// BeginMatch starts a match for the conversation's members. Matches
// can only be created inside a team channel; elsewhere the bot
// explains instead of creating anything.
func BeginMatch(matches *match.Manager) router.Handler {
	return func(ctx context.Context, turn *bot.Turn) error {
		if !turn.Activity.InTeam() {
			return turn.ReplyText(ctx, "I'm sorry, you can only create a match from within a Team.")
		}
		return matches.StartMatch(ctx, turn.Activity)
	}
}
