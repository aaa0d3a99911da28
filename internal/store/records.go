package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// IDKey formats a numeric id as an entity key.
func IDKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// LoadUsers returns every stored user ordered by id, the order in which
// they signed up.
func (s *Store) LoadUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := collect(ctx, s.Users)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	slices.SortFunc(users, func(a, b *domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

// LoadPosts returns every stored post newest first. Post ids only grow, so
// descending id order is the order posts were prepended in.
func (s *Store) LoadPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := collect(ctx, s.Posts)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	slices.SortFunc(posts, func(a, b *domain.Post) int { return cmp.Compare(b.ID, a.ID) })
	return posts, nil
}

// SavePost creates or replaces a post.
func (s *Store) SavePost(ctx context.Context, post *domain.Post) error {
	key := IDKey(post.ID)
	err := s.Posts.Update(ctx, key, post)
	if errors.Is(err, ErrNotFound) {
		return s.Posts.Create(ctx, key, post)
	}
	return err
}

func collect[T any](ctx context.Context, e *Entity[T]) ([]*T, error) {
	var out []*T
	for v, err := range e.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
