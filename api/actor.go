package api

import (
	"context"
	"net/http"

	"github.com/ford69/flexi-ride-api/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFrom extracts the authenticated actor placed on the request context by
// the auth middleware
func ActorFrom(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(actorContextKey).(models.Actor)
	return actor, ok
}
