package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List posts",
		Description: "Returns one page of posts matching the query, newest first",
		Tags:        []string{"Posts"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts",
		Summary:       "Create post",
		Description:   "Publishes a post by the signed-in user",
		Tags:          []string{"Posts"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post",
		Description: "Returns a post with its comments",
		Tags:        []string{"Posts"},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePost",
		Method:      http.MethodPatch,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Update post",
		Description: "Changes the title, body, tags or image of a post. Only the author may edit.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Removes a post. Only the author may delete.",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes the post, or removes the like if already given",
		Tags:        []string{"Posts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addComment",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts/{id}/comments",
		Summary:       "Add comment",
		Description:   "Appends a comment to the post",
		Tags:          []string{"Posts"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddComment)
}

// === DTOs ===

// ListPostsInput contains parameters for listing posts.
type ListPostsInput struct {
	Query string `query:"q" doc:"Case-insensitive text to match in title, body, author or tags"`
	Page  int    `query:"page" default:"1" doc:"1-based page number"`
}

// PostPageOutput wraps a page of posts for Huma.
type PostPageOutput struct {
	Body *service.PostPage
}

// PostIDInput identifies a post.
type PostIDInput struct {
	ID int64 `path:"id" doc:"Post ID"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string   `json:"title" doc:"Post title"`
	Content  string   `json:"content" doc:"Post body"`
	Tags     []string `json:"tags,omitempty" doc:"Tags; entries may be comma-separated lists"`
	ImageURL string   `json:"image_url,omitempty" doc:"Cover image URL"`
	ImageID  string   `json:"image_id,omitempty" doc:"Uploaded image ID, preferred over image_url"`
}

// CreatePostInput wraps the create request for Huma.
type CreatePostInput struct {
	Body CreatePostRequest
}

// UpdatePostRequest is a partial update; omitted fields are unchanged.
type UpdatePostRequest struct {
	Title    *string   `json:"title,omitempty" doc:"New title"`
	Content  *string   `json:"content,omitempty" doc:"New body"`
	Tags     *[]string `json:"tags,omitempty" doc:"Replacement tags"`
	ImageURL *string   `json:"image_url,omitempty" doc:"New cover image URL"`
	ImageID  *string   `json:"image_id,omitempty" doc:"New uploaded image ID"`
}

// UpdatePostInput wraps the update request for Huma.
type UpdatePostInput struct {
	ID   int64 `path:"id" doc:"Post ID"`
	Body UpdatePostRequest
}

// PostOutput wraps a post for Huma.
type PostOutput struct {
	Body *service.PostView
}

// LikeOutput wraps a like toggle result for Huma.
type LikeOutput struct {
	Body *service.LikeView
}

// AddCommentRequest is the request body for a comment.
type AddCommentRequest struct {
	Text string `json:"text" doc:"Comment text"`
}

// AddCommentInput wraps the comment request for Huma.
type AddCommentInput struct {
	ID   int64 `path:"id" doc:"Post ID"`
	Body AddCommentRequest
}

// CommentOutput wraps a comment for Huma.
type CommentOutput struct {
	Body *service.CommentView
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*PostPageOutput, error) {
	page := s.services.Post.List(ctx, currentUser(ctx), service.ListPostsRequest{
		Query: input.Query,
		Page:  input.Page,
	})
	return &PostPageOutput{Body: page}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	post, err := s.services.Post.Create(ctx, currentUser(ctx), service.CreatePostRequest{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		Tags:     input.Body.Tags,
		ImageURL: input.Body.ImageURL,
		ImageID:  input.Body.ImageID,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *PostIDInput) (*PostOutput, error) {
	post, err := s.services.Post.Get(ctx, currentUser(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleUpdatePost(ctx context.Context, input *UpdatePostInput) (*PostOutput, error) {
	post, err := s.services.Post.Update(ctx, currentUser(ctx), input.ID, service.UpdatePostRequest{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		Tags:     input.Body.Tags,
		ImageURL: input.Body.ImageURL,
		ImageID:  input.Body.ImageID,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *PostIDInput) (*MessageOutput, error) {
	if err := s.services.Post.Delete(ctx, currentUser(ctx), input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Post deleted"}}, nil
}

func (s *Server) handleToggleLike(ctx context.Context, input *PostIDInput) (*LikeOutput, error) {
	like, err := s.services.Post.ToggleLike(ctx, currentUser(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: like}, nil
}

func (s *Server) handleAddComment(ctx context.Context, input *AddCommentInput) (*CommentOutput, error) {
	comment, err := s.services.Post.AddComment(ctx, currentUser(ctx), input.ID, service.AddCommentRequest{
		Text: input.Body.Text,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}
