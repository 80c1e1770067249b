package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActor_CanManage(t *testing.T) {
	ownerID := uuid.New()

	assert.True(t, Actor{ID: uuid.New(), Role: RoleAdmin}.CanManage(ownerID))
	assert.True(t, Actor{ID: ownerID, Role: RoleMember}.CanManage(ownerID))
	assert.False(t, Actor{ID: uuid.New(), Role: RoleMember}.CanManage(ownerID))
}

func TestActorFromContext(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: RoleAdmin}
	ctx := WithActor(context.Background(), actor)

	assert.Equal(t, actor, ActorFromContext(ctx))
	assert.Equal(t, Actor{}, ActorFromContext(context.Background()))
}
