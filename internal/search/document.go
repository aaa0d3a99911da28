// Package search provides full-text search over posts and their authors
// using Bleve, with tag filtering, fuzzy matching and highlighting.
//
// The in-memory substring filter in package posts remains the behaviour of
// the listing endpoint; this index backs the richer /search endpoint.
package search

import (
	"strconv"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypePost DocType = "post"
	DocTypeUser DocType = "user"
)

// SearchDocument is the unified document structure for the Bleve index.
//
// Author names are denormalized into post documents so one query covers
// titles, bodies and bylines.
type SearchDocument struct {
	ID       string  `json:"id"`        // post-<id> or user-<id>
	Type     DocType `json:"type"`
	EntityID int64   `json:"entity_id"` // numeric post or user id

	// Post: title, User: username
	Name string `json:"name"`

	Content  string   `json:"content,omitempty"`
	Author   string   `json:"author,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	Tags     []string `json:"tags,omitempty"` // normalized slugs

	Likes     int `json:"likes,omitempty"`
	Comments  int `json:"comments,omitempty"`
	PostCount int `json:"post_count,omitempty"` // users only

	CreatedAt int64 `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map with the field names the mapping
// uses.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"entity_id":  d.EntityID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
	}

	if d.Content != "" {
		m["content"] = d.Content
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.FullName != "" {
		m["full_name"] = d.FullName
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Likes > 0 {
		m["likes"] = d.Likes
	}
	if d.Comments > 0 {
		m["comments"] = d.Comments
	}
	if d.PostCount > 0 {
		m["post_count"] = d.PostCount
	}

	return m
}

// PostDocID returns the index id of post id.
func PostDocID(id int64) string {
	return "post-" + strconv.FormatInt(id, 10)
}

// UserDocID returns the index id of user id.
func UserDocID(id int64) string {
	return "user-" + strconv.FormatInt(id, 10)
}

// PostToSearchDocument converts a post to a SearchDocument.
func PostToSearchDocument(p *domain.Post) *SearchDocument {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if slug := util.NormalizeTagSlug(t); slug != "" {
			tags = append(tags, slug)
		}
	}

	return &SearchDocument{
		ID:        PostDocID(p.ID),
		Type:      DocTypePost,
		EntityID:  p.ID,
		Name:      p.Title,
		Content:   p.Content,
		Author:    p.Author.Username,
		FullName:  p.Author.FullName,
		Tags:      tags,
		Likes:     p.Likes,
		Comments:  len(p.Comments),
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

// UserToSearchDocument converts a user to a SearchDocument. The post count
// is supplied by the caller.
func UserToSearchDocument(u *domain.User, postCount int) *SearchDocument {
	return &SearchDocument{
		ID:        UserDocID(u.ID),
		Type:      DocTypeUser,
		EntityID:  u.ID,
		Name:      u.Username,
		FullName:  u.FullName,
		PostCount: postCount,
		CreatedAt: u.CreatedAt.UnixMilli(),
	}
}
