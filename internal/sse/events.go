// Package sse implements Server-Sent Events for live post updates.
package sse

import (
	"strconv"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventPostCreated is sent when a post is published.
	EventPostCreated EventType = "post.created"
	// EventPostUpdated is sent when an author edits a post.
	EventPostUpdated EventType = "post.updated"
	// EventPostDeleted is sent when a post is removed.
	EventPostDeleted EventType = "post.deleted"
	// EventPostLiked is sent when a like is added or removed.
	EventPostLiked EventType = "post.liked"
	// EventPostCommented is sent when a comment is appended.
	EventPostCommented EventType = "post.commented"

	// EventUserSignedUp is sent when a new account is created.
	EventUserSignedUp EventType = "user.signed_up"

	// EventGenerationFinished is sent to the requesting user when a
	// generation settles.
	EventGenerationFinished EventType = "generation.finished"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID, when set, limits delivery to that user's connections.
	UserID string `json:"-"`
	// Key identifies the aggregate the event is about, used for partitioning
	// when events are published to a broker.
	Key string `json:"-"`
}

// ForUser returns a copy of e delivered only to userID's streams.
func (e Event) ForUser(userID string) Event {
	e.UserID = userID
	return e
}

// PostEventData is the payload for post created and updated events.
type PostEventData struct {
	Post *domain.Post `json:"post"`
}

// PostDeletedEventData is the payload for post delete events.
type PostDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	PostID    int64     `json:"post_id"`
}

// PostLikedEventData is the payload for like toggles.
type PostLikedEventData struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
	Liked  bool  `json:"liked"`
	Likes  int   `json:"likes"`
}

// PostCommentedEventData is the payload for new comments.
type PostCommentedEventData struct {
	PostID  int64           `json:"post_id"`
	Comment *domain.Comment `json:"comment"`
}

// UserEventData is the payload for user events. Only public fields are
// included.
type UserEventData struct {
	User domain.User `json:"user"`
}

// GenerationEventData is the payload for generation events.
type GenerationEventData struct {
	TaskID  string `json:"task_id"`
	Outcome string `json:"outcome"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func postKey(id int64) string {
	return "post-" + strconv.FormatInt(id, 10)
}

// NewPostCreatedEvent creates a post.created event.
func NewPostCreatedEvent(p *domain.Post) Event {
	return Event{
		Type:      EventPostCreated,
		Data:      PostEventData{Post: p},
		Timestamp: time.Now(),
		Key:       postKey(p.ID),
	}
}

// NewPostUpdatedEvent creates a post.updated event.
func NewPostUpdatedEvent(p *domain.Post) Event {
	return Event{
		Type:      EventPostUpdated,
		Data:      PostEventData{Post: p},
		Timestamp: time.Now(),
		Key:       postKey(p.ID),
	}
}

// NewPostDeletedEvent creates a post.deleted event.
func NewPostDeletedEvent(postID int64) Event {
	now := time.Now()
	return Event{
		Type:      EventPostDeleted,
		Data:      PostDeletedEventData{PostID: postID, DeletedAt: now},
		Timestamp: now,
		Key:       postKey(postID),
	}
}

// NewPostLikedEvent creates a post.liked event.
func NewPostLikedEvent(postID, userID int64, liked bool, likes int) Event {
	return Event{
		Type:      EventPostLiked,
		Data:      PostLikedEventData{PostID: postID, UserID: userID, Liked: liked, Likes: likes},
		Timestamp: time.Now(),
		Key:       postKey(postID),
	}
}

// NewPostCommentedEvent creates a post.commented event.
func NewPostCommentedEvent(postID int64, c *domain.Comment) Event {
	return Event{
		Type:      EventPostCommented,
		Data:      PostCommentedEventData{PostID: postID, Comment: c},
		Timestamp: time.Now(),
		Key:       postKey(postID),
	}
}

// NewUserSignedUpEvent creates a user.signed_up event.
func NewUserSignedUpEvent(u *domain.User) Event {
	return Event{
		Type:      EventUserSignedUp,
		Data:      UserEventData{User: u.Public()},
		Timestamp: time.Now(),
		Key:       "user-" + strconv.FormatInt(u.ID, 10),
	}
}

// NewGenerationFinishedEvent creates a generation.finished event for the
// user who started the task.
func NewGenerationFinishedEvent(userID int64, taskID, outcome string) Event {
	return Event{
		Type:      EventGenerationFinished,
		Data:      GenerationEventData{TaskID: taskID, Outcome: outcome},
		Timestamp: time.Now(),
		Key:       "generation-" + taskID,
	}.ForUser(strconv.FormatInt(userID, 10))
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
