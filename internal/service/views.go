package service

import (
	"time"

	"github.com/inkwellapp/inkwell-server/internal/color"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// excerptLength is the number of characters of body shown on a post card.
const excerptLength = 100

// AuthorView is the public face of a user as shown on posts and comments.
type AuthorView struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"full_name"`
	AvatarURL         string `json:"avatar_url"`
	FallbackAvatarURL string `json:"fallback_avatar_url"`
	Color             string `json:"color"`
}

// NewAuthorView builds the public view of u.
func NewAuthorView(u domain.User) AuthorView {
	return AuthorView{
		ID:                u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		AvatarURL:         u.AvatarURL,
		FallbackAvatarURL: images.AvatarFallbackURL(u.Username),
		Color:             color.ForUser(u.Username),
	}
}

// AccountView is the signed-in user's own record.
type AccountView struct {
	AuthorView
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAccountView builds the account view of u.
func NewAccountView(u *domain.User) AccountView {
	return AccountView{
		AuthorView: NewAuthorView(*u),
		Email:      u.Email,
		CreatedAt:  u.CreatedAt,
	}
}

// CommentView is a comment with its author's public view.
type CommentView struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Author    AuthorView `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewCommentView builds the view of c.
func NewCommentView(c domain.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Text:      c.Text,
		Author:    NewAuthorView(c.Author),
		CreatedAt: c.CreatedAt,
	}
}

// PostView is the full post as shown on its detail page.
type PostView struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Content          string        `json:"content"`
	Author           AuthorView    `json:"author"`
	CreatedAt        time.Time     `json:"created_at"`
	Likes            int           `json:"likes"`
	LikedBy          []int64       `json:"liked_by"`
	LikedByMe        bool          `json:"liked_by_me"`
	Comments         []CommentView `json:"comments"`
	Tags             []string      `json:"tags"`
	ImageURL         string        `json:"image_url"`
	FallbackImageURL string        `json:"fallback_image_url"`
}

// NewPostView builds the detail view of p for viewer, which may be nil.
func NewPostView(p *domain.Post, viewer *domain.User) *PostView {
	comments := make([]CommentView, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = NewCommentView(c)
	}
	c := p.Clone()
	return &PostView{
		ID:               p.ID,
		Title:            p.Title,
		Content:          p.Content,
		Author:           NewAuthorView(p.Author),
		CreatedAt:        p.CreatedAt,
		Likes:            p.Likes,
		LikedBy:          c.LikedBy,
		LikedByMe:        viewer != nil && p.IsLikedBy(viewer.ID),
		Comments:         comments,
		Tags:             c.Tags,
		ImageURL:         p.ImageURL,
		FallbackImageURL: images.CardCoverURL(p.ID),
	}
}

// PostCard is the summary shown in post listings.
type PostCard struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Excerpt          string     `json:"excerpt"`
	Author           AuthorView `json:"author"`
	CreatedAt        time.Time  `json:"created_at"`
	Likes            int        `json:"likes"`
	LikedByMe        bool       `json:"liked_by_me"`
	CommentCount     int        `json:"comment_count"`
	Tags             []string   `json:"tags"`
	ImageURL         string     `json:"image_url"`
	FallbackImageURL string     `json:"fallback_image_url"`
}

// NewPostCard builds the listing summary of p for viewer, which may be nil.
func NewPostCard(p *domain.Post, viewer *domain.User) PostCard {
	tags := p.Clone().Tags
	return PostCard{
		ID:               p.ID,
		Title:            p.Title,
		Excerpt:          util.Truncate(p.Content, excerptLength),
		Author:           NewAuthorView(p.Author),
		CreatedAt:        p.CreatedAt,
		Likes:            p.Likes,
		LikedByMe:        viewer != nil && p.IsLikedBy(viewer.ID),
		CommentCount:     len(p.Comments),
		Tags:             tags,
		ImageURL:         p.ImageURL,
		FallbackImageURL: images.CardCoverURL(p.ID),
	}
}

func newPostCards(list []*domain.Post, viewer *domain.User) []PostCard {
	cards := make([]PostCard, len(list))
	for i, p := range list {
		cards[i] = NewPostCard(p, viewer)
	}
	return cards
}
