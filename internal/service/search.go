package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/posts"
	"github.com/inkwellapp/inkwell-server/internal/search"
)

// SearchService keeps the full-text index in step with the post and user
// collections and runs ranked queries against it.
type SearchService struct {
	index  *search.SearchIndex
	posts  *posts.Store
	users  *accounts.Directory
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, postStore *posts.Store, users *accounts.Directory, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		posts:  postStore,
		users:  users,
		logger: logger,
	}
}

// SearchRequest is a ranked search query.
type SearchRequest struct {
	Query  string
	Types  []string
	Tags   []string
	Author string
	SortBy string
	Limit  int
	Offset int
}

// Search runs a ranked full-text query.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*search.SearchResult, error) {
	params := search.DefaultSearchParams()
	params.Query = strings.TrimSpace(req.Query)
	params.Types = req.Types
	params.Tags = req.Tags
	params.Author = req.Author
	if req.SortBy != "" {
		params.SortBy = req.SortBy
	}
	if req.Limit > 0 {
		params.Limit = min(req.Limit, 100)
	}
	params.Offset = max(0, req.Offset)

	return s.index.Search(ctx, params)
}

// IndexPost adds or refreshes one post together with its author's
// document. Failures are logged, not returned: the index is derived data and
// Reindex repairs it.
func (s *SearchService) IndexPost(p *domain.Post) {
	docs := []*search.SearchDocument{search.PostToSearchDocument(p)}
	if u, ok := s.users.Get(p.Author.ID); ok {
		docs = append(docs, search.UserToSearchDocument(u, len(s.posts.ByAuthor(u.ID))))
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		s.logger.Warn("failed to index post", "post_id", p.ID, "error", err)
	}
}

// DeletePost removes a post from the index.
func (s *SearchService) DeletePost(p *domain.Post) {
	if err := s.index.DeleteDocument(search.PostDocID(p.ID)); err != nil {
		s.logger.Warn("failed to remove post from index", "post_id", p.ID, "error", err)
		return
	}
	s.refreshAuthor(p.Author.ID)
}

// IndexUser adds or refreshes a user document.
func (s *SearchService) IndexUser(u *domain.User) {
	doc := search.UserToSearchDocument(u, len(s.posts.ByAuthor(u.ID)))
	if err := s.index.IndexDocument(doc); err != nil {
		s.logger.Warn("failed to index user", "user_id", u.ID, "error", err)
	}
}

// refreshAuthor keeps the author's post count current.
func (s *SearchService) refreshAuthor(userID int64) {
	if u, ok := s.users.Get(userID); ok {
		s.IndexUser(u)
	}
}

// Reindex rebuilds the index from the in-memory collections.
func (s *SearchService) Reindex(ctx context.Context) error {
	all := s.posts.All()
	counts := make(map[int64]int)
	docs := make([]*search.SearchDocument, 0, len(all))
	for _, p := range all {
		docs = append(docs, search.PostToSearchDocument(p))
		counts[p.Author.ID]++
	}
	for _, u := range s.users.All() {
		docs = append(docs, search.UserToSearchDocument(u, counts[u.ID]))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	s.logger.Info("search index rebuilt", "documents", len(docs))
	return nil
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() uint64 {
	n, err := s.index.DocumentCount()
	if err != nil {
		s.logger.Warn("failed to count index documents", "error", err)
		return 0
	}
	return n
}
