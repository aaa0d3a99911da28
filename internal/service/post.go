package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/events"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/posts"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/util"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// DefaultPageSize is the number of posts per listing page.
const DefaultPageSize = 6

// PostService applies the blog's rules on top of the post store: only
// signed-in users may write, only authors may edit or delete, and every
// committed change is persisted, indexed and announced.
//
// The in-memory store changes first. If persisting fails the change is
// rolled back, so memory never holds state a restart would lose. Writes
// are serialized: a change, its save and any rollback happen as one step.
type PostService struct {
	writeMu sync.Mutex

	posts     *posts.Store
	store     *store.Store
	search    *SearchService
	emitter   events.Emitter
	metrics   *metrics.Metrics
	validator *validation.Validator
	pageSize  int
	logger    *slog.Logger
}

// NewPostService creates a new post service. search and m may be nil.
func NewPostService(
	postStore *posts.Store,
	db *store.Store,
	search *SearchService,
	emitter events.Emitter,
	m *metrics.Metrics,
	validator *validation.Validator,
	pageSize int,
	logger *slog.Logger,
) *PostService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if emitter == nil {
		emitter = events.Noop{}
	}
	return &PostService{
		posts:     postStore,
		store:     db,
		search:    search,
		emitter:   emitter,
		metrics:   m,
		validator: validator,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// ListPostsRequest selects a page of posts matching a query.
type ListPostsRequest struct {
	Query string
	Page  int
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []PostCard `json:"posts"`
	Query      string     `json:"query"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	Total      int        `json:"total"`
}

// CreatePostRequest holds the fields of a new post. Tags entries may
// themselves be comma-separated lists. ImageID refers to an uploaded image
// and takes precedence over ImageURL.
type CreatePostRequest struct {
	Title    string   `json:"title" validate:"notblank,max=200"`
	Content  string   `json:"content" validate:"notblank,max=50000"`
	Tags     []string `json:"tags" validate:"max=20"`
	ImageURL string   `json:"image_url" validate:"omitempty,url"`
	ImageID  string   `json:"image_id"`
}

// UpdatePostRequest is a partial update; nil fields are left unchanged.
type UpdatePostRequest struct {
	Title    *string   `json:"title" validate:"omitnil,notblank,max=200"`
	Content  *string   `json:"content" validate:"omitnil,notblank,max=50000"`
	Tags     *[]string `json:"tags" validate:"omitnil,max=20"`
	ImageURL *string   `json:"image_url" validate:"omitnil,omitempty,url"`
	ImageID  *string   `json:"image_id"`
}

// AddCommentRequest holds a new comment.
type AddCommentRequest struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}

// LikeView reports the state of a post's likes after a toggle.
type LikeView struct {
	PostID int64 `json:"post_id"`
	Liked  bool  `json:"liked"`
	Likes  int   `json:"likes"`
}

// PageSize returns the listing page size.
func (s *PostService) PageSize() int {
	return s.pageSize
}

// List returns the requested page of posts matching the query, newest
// first. A page below 1 is page 1; a page past the end is empty.
func (s *PostService) List(_ context.Context, viewer *domain.User, req ListPostsRequest) *PostPage {
	query := strings.TrimSpace(req.Query)
	page := max(1, req.Page)

	matches := s.posts.Search(query)
	slice, totalPages := posts.Paginate(matches, page, s.pageSize)

	return &PostPage{
		Posts:      newPostCards(slice, viewer),
		Query:      query,
		Page:       page,
		PageSize:   s.pageSize,
		TotalPages: totalPages,
		Total:      len(matches),
	}
}

// Get returns the post with id.
func (s *PostService) Get(_ context.Context, viewer *domain.User, id int64) (*PostView, error) {
	p, ok := s.posts.Get(id)
	if !ok {
		return nil, domainerrors.NotFoundf("post %d not found", id)
	}
	return NewPostView(p, viewer), nil
}

// Create publishes a new post by actor.
func (s *PostService) Create(ctx context.Context, actor *domain.User, req CreatePostRequest) (*PostView, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to create a post")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	imageURL, err := s.resolveImage(ctx, req.ImageID, req.ImageURL)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if imageURL == "" {
		imageURL = images.CoverURL(title)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p, err := s.posts.CreatePost(domain.PostDraft{
		Title:    title,
		Content:  req.Content,
		Tags:     normalizeTags(req.Tags),
		ImageURL: imageURL,
	}, actor)
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePost(ctx, p); err != nil {
		s.posts.DeletePost(p.ID)
		return nil, fmt.Errorf("persist post: %w", err)
	}

	s.logger.Info("post created", "post_id", p.ID, "author_id", actor.ID)
	s.committed(p, sse.NewPostCreatedEvent(p), "created")
	return NewPostView(p, actor), nil
}

// Update applies a partial update to a post actor wrote.
func (s *PostService) Update(ctx context.Context, actor *domain.User, id int64, req UpdatePostRequest) (*PostView, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.authorize(actor, id, "edit")
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patch := domain.PostPatch{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	patch.Content = req.Content
	if req.Tags != nil {
		tags := normalizeTags(*req.Tags)
		patch.Tags = &tags
	}
	if req.ImageID != nil || req.ImageURL != nil {
		imageURL, err := s.resolveImage(ctx, deref(req.ImageID), deref(req.ImageURL))
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &imageURL
	}

	if patch.IsEmpty() {
		return NewPostView(existing, actor), nil
	}

	updated, ok := s.posts.UpdatePost(id, patch)
	if !ok {
		return nil, domainerrors.NotFoundf("post %d not found", id)
	}

	if err := s.store.SavePost(ctx, updated); err != nil {
		s.posts.UpdatePost(id, restorePatch(existing))
		return nil, fmt.Errorf("persist post: %w", err)
	}

	s.logger.Info("post updated", "post_id", id, "author_id", actor.ID)
	s.committed(updated, sse.NewPostUpdatedEvent(updated), "updated")
	return NewPostView(updated, actor), nil
}

// Delete removes a post actor wrote.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.authorize(actor, id, "delete"); err != nil {
		return err
	}

	removed, ok := s.posts.DeletePost(id)
	if !ok {
		return domainerrors.NotFoundf("post %d not found", id)
	}

	if err := s.store.Posts.Delete(ctx, store.IDKey(id)); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.posts.Restore(removed)
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("post deleted", "post_id", id, "author_id", actor.ID)
	if s.search != nil {
		s.search.DeletePost(removed)
	}
	s.emitter.Emit(sse.NewPostDeletedEvent(id))
	s.metrics.PostChanged("deleted")
	return nil
}

// ToggleLike likes the post for actor, or unlikes it if actor already does.
func (s *PostService) ToggleLike(ctx context.Context, actor *domain.User, id int64) (*LikeView, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.posts.ToggleLike(id, actor)
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePost(ctx, res.Post); err != nil {
		// Toggling again restores the previous membership.
		if _, rbErr := s.posts.ToggleLike(id, actor); rbErr != nil {
			s.logger.Error("failed to roll back like", "post_id", id, "error", rbErr)
		}
		return nil, fmt.Errorf("persist like: %w", err)
	}

	if s.search != nil {
		s.search.IndexPost(res.Post)
	}
	s.emitter.Emit(sse.NewPostLikedEvent(id, actor.ID, res.Liked, res.Post.Likes))
	s.metrics.LikeToggled(res.Liked)

	return &LikeView{PostID: id, Liked: res.Liked, Likes: res.Post.Likes}, nil
}

// AddComment appends a comment by actor.
func (s *PostService) AddComment(ctx context.Context, actor *domain.User, id int64, req AddCommentRequest) (*CommentView, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to comment")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	c, p, err := s.posts.AddComment(id, actor, req.Text)
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePost(ctx, p); err != nil {
		s.posts.DropComment(id, c.ID)
		return nil, fmt.Errorf("persist comment: %w", err)
	}

	if s.search != nil {
		s.search.IndexPost(p)
	}
	s.emitter.Emit(sse.NewPostCommentedEvent(id, c))
	s.metrics.CommentAdded()

	view := NewCommentView(*c)
	return &view, nil
}

// authorize loads the post and checks actor may modify it.
func (s *PostService) authorize(actor *domain.User, id int64, action string) (*domain.Post, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to " + action + " a post")
	}
	p, ok := s.posts.Get(id)
	if !ok {
		return nil, domainerrors.NotFoundf("post %d not found", id)
	}
	if !p.IsAuthoredBy(actor.ID) {
		return nil, domainerrors.Forbiddenf("only the author can %s this post", action)
	}
	return p, nil
}

func (s *PostService) committed(p *domain.Post, evt sse.Event, action string) {
	if s.search != nil {
		s.search.IndexPost(p)
	}
	s.emitter.Emit(evt)
	s.metrics.PostChanged(action)
}

// resolveImage turns an uploaded image id, or failing that a URL, into the
// post's image reference. Both empty yields "".
func (s *PostService) resolveImage(ctx context.Context, imageID, imageURL string) (string, error) {
	if imageID == "" {
		return strings.TrimSpace(imageURL), nil
	}
	if _, err := s.store.Images.Get(ctx, imageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domainerrors.Validationf("image %s does not exist", imageID)
		}
		return "", fmt.Errorf("load image: %w", err)
	}
	return ImagePath(imageID), nil
}

// normalizeTags splits comma-separated entries, trims them and drops blanks.
func normalizeTags(tags []string) []string {
	return util.SplitTags(strings.Join(tags, ","))
}

// restorePatch returns the patch that puts back p's editable fields.
func restorePatch(p *domain.Post) domain.PostPatch {
	tags := p.Tags
	return domain.PostPatch{
		Title:    &p.Title,
		Content:  &p.Content,
		Tags:     &tags,
		ImageURL: &p.ImageURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
