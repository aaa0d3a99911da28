// Package posts owns the in-memory post collection and the operations on it:
// search, pagination, create, update, delete, like toggling and comments.
//
// The collection is ordered newest first. Every read returns deep copies, so
// callers can never mutate the owned state.
package posts

import (
	"strings"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

// Store holds the authoritative post collection.
type Store struct {
	mu    sync.RWMutex
	posts []*domain.Post
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for creation timestamps and
// comment ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store seeded with initial, which must already be in
// newest-first order. The posts are copied.
func NewStore(initial []*domain.Post, opts ...Option) *Store {
	s := &Store{
		posts: make([]*domain.Post, 0, len(initial)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range initial {
		c := p.Clone()
		c.Likes = len(c.LikedBy)
		s.posts = append(s.posts, c)
	}
	return s
}

// LikeResult describes the outcome of ToggleLike.
type LikeResult struct {
	Post  *domain.Post
	Liked bool // true when the user now likes the post
}

// Len returns the number of posts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// All returns every post, newest first.
func (s *Store) All() []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.posts)
}

// Get returns the post with id.
func (s *Store) Get(id int64) (*domain.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.posts[i].Clone(), true
	}
	return nil, false
}

// ByAuthor returns the posts written by userID, newest first.
func (s *Store) ByAuthor(userID int64) []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Post
	for _, p := range s.posts {
		if p.IsAuthoredBy(userID) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Search returns posts matching query, newest first.
func (s *Store) Search(query string) []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if Matches(p, query) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// CreatePost commits draft as a new post by author and prepends it. The id is
// one more than the largest id in the collection. Fails with Unauthenticated
// when author is nil.
func (s *Store) CreatePost(draft domain.PostDraft, author *domain.User) (*domain.Post, error) {
	if author == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to create a post")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &domain.Post{
		ID:        s.maxID() + 1,
		Title:     draft.Title,
		Content:   draft.Content,
		Author:    author.Public(),
		CreatedAt: s.now().UTC(),
		Likes:     0,
		LikedBy:   []int64{},
		Comments:  []domain.Comment{},
		Tags:      append([]string{}, draft.Tags...),
		ImageURL:  draft.ImageURL,
	}

	s.posts = append([]*domain.Post{p}, s.posts...)
	return p.Clone(), nil
}

// UpdatePost merges patch into the post with id. The boolean is false, and
// nothing changes, when no such post exists.
func (s *Store) UpdatePost(id int64, patch domain.PostPatch) (*domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	patch.Apply(s.posts[i])
	return s.posts[i].Clone(), true
}

// DeletePost removes the post with id and returns it. Deleting a missing id
// is a no-op that returns false.
func (s *Store) DeletePost(id int64) (*domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	removed := s.posts[i]
	s.posts = append(s.posts[:i:i], s.posts[i+1:]...)
	return removed, true
}

// ToggleLike adds userID to the post's liked-by set, or removes it if
// already present, keeping Likes equal to the set size. A nil user fails
// with Unauthenticated; a missing post fails with NotFound and changes
// nothing.
func (s *Store) ToggleLike(postID int64, user *domain.User) (LikeResult, error) {
	if user == nil {
		return LikeResult{}, domainerrors.Unauthenticated("you must be logged in to like a post")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return LikeResult{}, domainerrors.NotFoundf("post %d not found", postID)
	}
	p := s.posts[i]

	liked := true
	if p.IsLikedBy(user.ID) {
		liked = false
		kept := p.LikedBy[:0]
		for _, id := range p.LikedBy {
			if id != user.ID {
				kept = append(kept, id)
			}
		}
		p.LikedBy = kept
	} else {
		p.LikedBy = append(p.LikedBy, user.ID)
	}
	p.Likes = len(p.LikedBy)

	return LikeResult{Post: p.Clone(), Liked: liked}, nil
}

// AddComment appends a comment by author to the post. The text is trimmed
// and must not be blank. The comment id is the current Unix millisecond,
// advanced past the post's newest comment id if needed so ids stay unique
// within the post.
func (s *Store) AddComment(postID int64, author *domain.User, text string) (*domain.Comment, *domain.Post, error) {
	if author == nil {
		return nil, nil, domainerrors.Unauthenticated("you must be logged in to comment")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, domainerrors.Validation("comment text is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return nil, nil, domainerrors.NotFoundf("post %d not found", postID)
	}
	p := s.posts[i]

	now := s.now().UTC()
	id := now.UnixMilli()
	for _, c := range p.Comments {
		if c.ID >= id {
			id = c.ID + 1
		}
	}

	c := domain.Comment{
		ID:        id,
		Text:      text,
		Author:    author.Public(),
		CreatedAt: now,
	}
	p.Comments = append(p.Comments, c)

	return &c, p.Clone(), nil
}

// DropComment removes one comment. Comments are never deleted by users;
// this only rolls back an AddComment whose persistence failed.
func (s *Store) DropComment(postID, commentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return
	}
	p := s.posts[i]
	for j, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:j:j], p.Comments[j+1:]...)
			return
		}
	}
}

// Restore reinserts a previously removed post at its id-ordered position.
// Used to roll back a delete whose persistence failed.
func (s *Store) Restore(p *domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return
	}
	at := len(s.posts)
	for i, existing := range s.posts {
		if existing.ID < p.ID {
			at = i
			break
		}
	}
	s.posts = append(s.posts[:at], append([]*domain.Post{p.Clone()}, s.posts[at:]...)...)
}

func (s *Store) indexOf(id int64) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) maxID() int64 {
	var m int64
	for _, p := range s.posts {
		m = max(m, p.ID)
	}
	return m
}

func cloneAll(posts []*domain.Post) []*domain.Post {
	out := make([]*domain.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}
