// Package router dispatches a normalized inbound message to the first
// matching intent handler. Routes are registered in priority groups;
// lower groups are evaluated first, and an unconditional default runs
// when nothing matches. The router keeps no state between messages.
package router

import (
	"context"
	"errors"
	"sort"

	"github.com/wfunc/matchbot/bot"
)

// Handler processes one routed message to completion.
type Handler func(ctx context.Context, turn *bot.Turn) error

// ErrNoRoute is returned when no trigger matches and no default handler
// was registered.
var ErrNoRoute = errors.New("no matching route")

type route struct {
	group    int
	triggers []string
	handler  Handler
}

type Router struct {
	routes   []route
	fallback Handler
}

func New() *Router {
	return &Router{}
}

// Handle registers a handler for a set of trigger texts inside a
// priority group. Triggers are compared against the full normalized
// message text.
func (r *Router) Handle(group int, handler Handler, triggers ...string) {
	r.routes = append(r.routes, route{
		group:    group,
		triggers: triggers,
		handler:  handler,
	})
	sort.SliceStable(r.routes, func(i, j int) bool {
		return r.routes[i].group < r.routes[j].group
	})
}

// Default registers the fallback handler run when no trigger matches.
func (r *Router) Default(handler Handler) {
	r.fallback = handler
}

// Dispatch normalizes the turn's message text and runs the first
// matching handler.
func (r *Router) Dispatch(ctx context.Context, turn *bot.Turn) error {
	text := Normalize(turn.Activity)

	for _, route := range r.routes {
		for _, trigger := range route.triggers {
			if text == trigger {
				return route.handler(ctx, turn)
			}
		}
	}

	if r.fallback != nil {
		return r.fallback(ctx, turn)
	}
	return ErrNoRoute
}
