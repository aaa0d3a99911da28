package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

func TestProfileService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alex := env.signup(t, "alex")
	sam := env.signup(t, "sam")
	env.createPost(t, alex, "One")
	env.createPost(t, sam, "Other")
	p := env.createPost(t, alex, "Two")

	_, err := env.post.ToggleLike(ctx, sam, p.ID)
	require.NoError(t, err)

	profile, err := env.profile.Get(ctx, sam, alex.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex", profile.User.Username)
	assert.Equal(t, alex.CreatedAt, profile.JoinedAt)
	assert.Equal(t, 2, profile.PostCount)
	require.Len(t, profile.Posts, 2)
	assert.Equal(t, "Two", profile.Posts[0].Title)
	assert.True(t, profile.Posts[0].LikedByMe)
	assert.Equal(t, "One", profile.Posts[1].Title)

	empty, err := env.profile.Get(ctx, nil, sam.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, empty.PostCount)

	_, err = env.profile.Get(ctx, nil, 42)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
