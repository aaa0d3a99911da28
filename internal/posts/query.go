package posts

import (
	"slices"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// Matches reports whether the post contains query, case-insensitively, in
// its title, body, author username or any tag. An empty query matches.
func Matches(p *domain.Post, query string) bool {
	if query == "" {
		return true
	}
	if util.ContainsFold(p.Title, query) ||
		util.ContainsFold(p.Content, query) ||
		util.ContainsFold(p.Author.Username, query) {
		return true
	}
	return slices.ContainsFunc(p.Tags, func(tag string) bool {
		return util.ContainsFold(tag, query)
	})
}

// Search returns the posts matching query, preserving input order.
func Search(query string, posts []*domain.Post) []*domain.Post {
	if query == "" {
		return slices.Clone(posts)
	}
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if Matches(p, query) {
			out = append(out, p)
		}
	}
	return out
}

// Paginate returns the 1-indexed page of items and the total page count,
// ceil(len(items)/size). Pages below 1 are treated as page 1; pages past the
// end are empty. A size below 1 yields no pages.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size < 1 {
		return []T{}, 0
	}
	totalPages := (len(items) + size - 1) / size
	page = max(1, page)
	if page > totalPages {
		return []T{}, totalPages
	}

	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end], totalPages
}
