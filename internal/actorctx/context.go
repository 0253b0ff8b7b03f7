package actorctx

import (
	"context"
	"strings"
)

type actorKey struct{}

// Actor identifies the user performing a repository operation. The HTTP
// layer fills it in from request headers; background workers use System.
type Actor struct {
	ID   string
	Name string
}

// System is the actor attached to scheduler and reconciler work.
var System = Actor{ID: "system", Name: "system"}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || strings.TrimSpace(actor.ID) == "" {
		return Actor{}, false
	}
	return actor, true
}
