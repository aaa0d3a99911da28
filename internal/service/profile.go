package service

import (
	"context"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/posts"
)

// ProfileView is a user's public profile with the posts they wrote.
type ProfileView struct {
	User      AuthorView `json:"user"`
	JoinedAt  time.Time  `json:"joined_at"`
	PostCount int        `json:"post_count"`
	Posts     []PostCard `json:"posts"`
}

// ProfileService builds user profiles.
type ProfileService struct {
	users *accounts.Directory
	posts *posts.Store
}

// NewProfileService creates a new profile service.
func NewProfileService(users *accounts.Directory, postStore *posts.Store) *ProfileService {
	return &ProfileService{users: users, posts: postStore}
}

// Get returns the profile of userID as seen by viewer, which may be nil.
func (s *ProfileService) Get(_ context.Context, viewer *domain.User, userID int64) (*ProfileView, error) {
	u, ok := s.users.Get(userID)
	if !ok {
		return nil, domainerrors.NotFoundf("user %d not found", userID)
	}

	authored := s.posts.ByAuthor(userID)
	return &ProfileView{
		User:      NewAuthorView(*u),
		JoinedAt:  u.CreatedAt,
		PostCount: len(authored),
		Posts:     newPostCards(authored, viewer),
	}, nil
}
