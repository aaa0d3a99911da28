package domain

import (
	"slices"
	"time"
)

// Post is a published blog entry.
//
// Likes always equals len(LikedBy); both are maintained together by the post
// store and never edited independently.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	LikedBy   []int64   `json:"liked_by"`
	Comments  []Comment `json:"comments"`
	Tags      []string  `json:"tags"`
	ImageURL  string    `json:"image_url,omitempty"`
}

// Comment is an immutable remark on a post. Its ID is the creation instant in
// Unix milliseconds, bumped when needed to stay unique within the post.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	c := *p
	c.LikedBy = slices.Clone(p.LikedBy)
	c.Comments = slices.Clone(p.Comments)
	c.Tags = slices.Clone(p.Tags)
	if c.LikedBy == nil {
		c.LikedBy = []int64{}
	}
	if c.Comments == nil {
		c.Comments = []Comment{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// IsLikedBy reports whether userID is in the liked-by set.
func (p *Post) IsLikedBy(userID int64) bool {
	return slices.Contains(p.LikedBy, userID)
}

// IsAuthoredBy reports whether userID wrote the post.
func (p *Post) IsAuthoredBy(userID int64) bool {
	return p.Author.ID == userID
}

// PostDraft holds the editable fields of a post before it is committed.
type PostDraft struct {
	Title    string
	Content  string
	Tags     []string
	ImageURL string
}

// AppendGenerated appends generated prose to the draft body, separated from
// any existing text by a blank line.
func (d *PostDraft) AppendGenerated(text string) {
	if d.Content == "" {
		d.Content = text
		return
	}
	d.Content += "\n\n" + text
}

// PostPatch is a partial update. Only the title, body, tags and image can
// change; nil fields are left untouched. Identity, author, timestamps, likes
// and comments are not patchable.
type PostPatch struct {
	Title    *string
	Content  *string
	Tags     *[]string
	ImageURL *string
}

// IsEmpty reports whether the patch changes nothing.
func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil && p.ImageURL == nil
}

// Apply merges the patch into post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Tags != nil {
		post.Tags = slices.Clone(*p.Tags)
	}
	if p.ImageURL != nil {
		post.ImageURL = *p.ImageURL
	}
}
