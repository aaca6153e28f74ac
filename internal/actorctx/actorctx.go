// Package actorctx carries the authenticated account through a request context.
package actorctx

import "context"

type ctxKey struct{}

type Actor struct {
	AccountID string
	Email     string
	Roles     []string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok && a.AccountID != ""
}

// AccountID returns "" for anonymous requests.
func AccountID(ctx context.Context) string {
	a, _ := From(ctx)
	return a.AccountID
}
