package posts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

var (
	alex = &domain.User{ID: 1, Username: "alex", FullName: "Alex Doe", Email: "alex@example.com", PasswordHash: "hash"}
	sam  = &domain.User{ID: 2, Username: "sam", FullName: "Sam Roe", Email: "sam@example.com"}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedPosts returns n posts, newest (highest id) first.
func seedPosts(n int) []*domain.Post {
	out := make([]*domain.Post, 0, n)
	for id := n; id >= 1; id-- {
		out = append(out, &domain.Post{
			ID:      int64(id),
			Title:   fmt.Sprintf("Post %d", id),
			Content: "body",
			Author:  alex.Public(),
			Tags:    []string{"general"},
		})
	}
	return out
}

func ids(posts []*domain.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestCreatePost(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewStore(seedPosts(3), WithClock(fixedClock(now)))

	p, err := s.CreatePost(domain.PostDraft{
		Title:   "Hello",
		Content: "World",
		Tags:    []string{"go"},
	}, alex)
	require.NoError(t, err)

	assert.Equal(t, int64(4), p.ID)
	assert.Equal(t, now, p.CreatedAt)
	assert.Zero(t, p.Likes)
	assert.Empty(t, p.LikedBy)
	assert.Empty(t, p.Comments)
	assert.Empty(t, p.Author.PasswordHash)
	assert.Equal(t, "alex", p.Author.Username)

	assert.Equal(t, []int64{4, 3, 2, 1}, ids(s.All()))
}

func TestCreatePost_IDIsMaxPlusOne(t *testing.T) {
	s := NewStore([]*domain.Post{{ID: 10}, {ID: 3}})

	p, err := s.CreatePost(domain.PostDraft{Title: "t"}, alex)
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)

	empty := NewStore(nil)
	p, err = empty.CreatePost(domain.PostDraft{Title: "first"}, alex)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}

func TestCreatePost_Anonymous(t *testing.T) {
	s := NewStore(seedPosts(2))

	_, err := s.CreatePost(domain.PostDraft{Title: "t"}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
	assert.Equal(t, 2, s.Len())
}

func TestCreateThenDeleteRestoresCollection(t *testing.T) {
	s := NewStore(seedPosts(5))
	before := s.All()

	p, err := s.CreatePost(domain.PostDraft{Title: "temp"}, sam)
	require.NoError(t, err)
	_, ok := s.DeletePost(p.ID)
	require.True(t, ok)

	assert.Equal(t, before, s.All())
}

func TestDeletePost_Missing(t *testing.T) {
	s := NewStore(seedPosts(2))

	_, ok := s.DeletePost(99)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestUpdatePost(t *testing.T) {
	s := NewStore(seedPosts(2))
	title := "Renamed"
	tags := []string{"a", "b"}

	p, ok := s.UpdatePost(1, domain.PostPatch{Title: &title, Tags: &tags})
	require.True(t, ok)
	assert.Equal(t, "Renamed", p.Title)
	assert.Equal(t, "body", p.Content)
	assert.Equal(t, []string{"a", "b"}, p.Tags)

	got, _ := s.Get(1)
	assert.Equal(t, "Renamed", got.Title)
}

func TestUpdatePost_MissingIsNoOp(t *testing.T) {
	s := NewStore(seedPosts(2))
	before := s.All()
	title := "x"

	_, ok := s.UpdatePost(42, domain.PostPatch{Title: &title})
	assert.False(t, ok)
	assert.Equal(t, before, s.All())
}

func TestToggleLike_RoundTrip(t *testing.T) {
	s := NewStore(seedPosts(1))

	res, err := s.ToggleLike(1, sam)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Post.Likes)
	assert.Equal(t, []int64{2}, res.Post.LikedBy)

	res, err = s.ToggleLike(1, sam)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Post.Likes)
	assert.Empty(t, res.Post.LikedBy)
}

func TestToggleLike_LikesEqualsLikedBy(t *testing.T) {
	s := NewStore(seedPosts(1))
	users := []*domain.User{alex, sam, {ID: 3}, {ID: 4}}

	// An arbitrary interleaving of toggles.
	sequence := []int{0, 1, 2, 1, 3, 0, 0, 2, 3, 3}
	for _, u := range sequence {
		res, err := s.ToggleLike(1, users[u])
		require.NoError(t, err)
		assert.Equal(t, len(res.Post.LikedBy), res.Post.Likes)

		seen := map[int64]bool{}
		for _, id := range res.Post.LikedBy {
			assert.False(t, seen[id], "user %d appears twice", id)
			seen[id] = true
		}
	}
}

func TestToggleLike_Errors(t *testing.T) {
	s := NewStore(seedPosts(1))

	_, err := s.ToggleLike(1, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	_, err = s.ToggleLike(99, sam)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	p, _ := s.Get(1)
	assert.Zero(t, p.Likes)
}

func TestNewStore_RepairsLikeCount(t *testing.T) {
	s := NewStore([]*domain.Post{{ID: 1, Likes: 9, LikedBy: []int64{1, 2}}})
	p, _ := s.Get(1)
	assert.Equal(t, 2, p.Likes)
}

func TestAddComment(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000).UTC()
	s := NewStore(seedPosts(1), WithClock(fixedClock(now)))

	c1, p, err := s.AddComment(1, sam, "  Nice post  ")
	require.NoError(t, err)
	assert.Equal(t, "Nice post", c1.Text)
	assert.Equal(t, now.UnixMilli(), c1.ID)
	assert.Equal(t, "sam", c1.Author.Username)
	require.Len(t, p.Comments, 1)

	// Same instant: the id still has to be unique within the post.
	c2, p, err := s.AddComment(1, alex, "Thanks")
	require.NoError(t, err)
	assert.Equal(t, c1.ID+1, c2.ID)
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "Thanks", p.Comments[1].Text)
}

func TestAddComment_Rejected(t *testing.T) {
	s := NewStore(seedPosts(1))

	_, _, err := s.AddComment(1, nil, "hi")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	_, _, err = s.AddComment(1, sam, "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, _, err = s.AddComment(7, sam, "hi")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	p, _ := s.Get(1)
	assert.Empty(t, p.Comments)
}

func TestDropComment(t *testing.T) {
	s := NewStore(seedPosts(1))
	c, _, err := s.AddComment(1, sam, "first")
	require.NoError(t, err)
	_, _, err = s.AddComment(1, alex, "second")
	require.NoError(t, err)

	s.DropComment(1, c.ID)
	s.DropComment(1, 12345) // unknown comment
	s.DropComment(9, c.ID)  // unknown post

	p, _ := s.Get(1)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "second", p.Comments[0].Text)
}

func TestReadsAreCopies(t *testing.T) {
	s := NewStore(seedPosts(1))

	p, _ := s.Get(1)
	p.Title = "mutated"
	p.LikedBy = append(p.LikedBy, 99)

	all := s.All()
	all[0].Tags[0] = "mutated"

	fresh, _ := s.Get(1)
	assert.Equal(t, "Post 1", fresh.Title)
	assert.Empty(t, fresh.LikedBy)
	assert.Equal(t, "general", fresh.Tags[0])
}

func TestByAuthor(t *testing.T) {
	s := NewStore(seedPosts(2))
	_, err := s.CreatePost(domain.PostDraft{Title: "by sam"}, sam)
	require.NoError(t, err)

	assert.Equal(t, []int64{3}, ids(s.ByAuthor(sam.ID)))
	assert.Equal(t, []int64{2, 1}, ids(s.ByAuthor(alex.ID)))
	assert.Empty(t, s.ByAuthor(42))
}

func TestRestore(t *testing.T) {
	s := NewStore(seedPosts(3))
	removed, ok := s.DeletePost(2)
	require.True(t, ok)

	s.Restore(removed)
	assert.Equal(t, []int64{3, 2, 1}, ids(s.All()))

	s.Restore(removed)
	assert.Equal(t, 3, s.Len())
}

func TestConcurrentLikes(t *testing.T) {
	s := NewStore(seedPosts(1))
	done := make(chan struct{})

	for i := range 50 {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = s.ToggleLike(1, &domain.User{ID: int64(100 + i)})
		}()
	}
	for range 50 {
		<-done
	}

	p, _ := s.Get(1)
	assert.Equal(t, 50, p.Likes)
	assert.Len(t, p.LikedBy, 50)
}
