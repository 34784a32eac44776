package transport

import (
	"context"

	"mebelin-be/internal/cart"
)

type ctxKey string

const (
	actorKey ctxKey = "actor"
	adminKey ctxKey = "admin"
)

// WithActor stores the resolved cart owner for the request.
func WithActor(ctx context.Context, actor cart.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the request's actor, or nil when neither a valid
// token nor a guest session header was present.
func GetActor(ctx context.Context) cart.Actor {
	actor, _ := ctx.Value(actorKey).(cart.Actor)
	return actor
}

func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminKey, true)
}

func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey).(bool)
	return admin
}
