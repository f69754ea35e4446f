// Package dialogs holds the one-shot conversational handlers the
// router dispatches to. Each handler runs to completion within one
// inbound message; there is no multi-turn state outside the
// conversation store.
package dialogs

import (
	"context"

	"github.com/wfunc/matchbot/bot"
	"github.com/wfunc/matchbot/match"
	"github.com/wfunc/matchbot/router"
)

// BuildRouter assembles the intent table: match creation and greetings
// in the first priority group, the apology fallback as default.
func BuildRouter(matches *match.Manager) *router.Router {
	r := router.New()
	r.Handle(1, BeginMatch(matches), "begin match")
	r.Handle(1, Hello, "hello", "hi")
	r.Handle(1, Greet, "greet")
	r.Default(Default)
	return r
}

// Default answers anything no trigger claimed.
func Default(ctx context.Context, turn *bot.Turn) error {
	return turn.ReplyText(ctx, "I'm sorry, but I didn't understand.")
}
