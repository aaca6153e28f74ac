package actorctx_test

import (
	"context"
	"testing"

	"github.com/geocoder89/eventrest/internal/actorctx"
	"github.com/stretchr/testify/assert"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := actorctx.WithActor(context.Background(), actorctx.Actor{AccountID: "acc-1", Email: "a@example.com"})

	a, ok := actorctx.From(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", a.Email)
	assert.Equal(t, "acc-1", actorctx.AccountID(ctx))
}

func TestAnonymous(t *testing.T) {
	_, ok := actorctx.From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", actorctx.AccountID(context.Background()))

	_, ok = actorctx.From(actorctx.WithActor(context.Background(), actorctx.Actor{}))
	assert.False(t, ok)
}
