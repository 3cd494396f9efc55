package actors

import (
	"strings"

	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// postMessage is implemented by every message that targets a single post.
// The supervisor routes it to that post's actor.
type postMessage interface {
	postKey() string
}

// validator is implemented by messages that can be rejected before a post
// actor is involved.
type validator interface {
	validate() *utils.AppError
}

// Message types for Post operations
type (
	CreatePostMsg struct {
		Content   string
		CreatorID string
		Media     []string
	}

	ListPostsMsg struct{}

	ListUserPostsMsg struct {
		UserID string
	}

	GetCountsMsg struct{}

	GetPostMsg struct {
		PostID string
	}

	UpdatePostContentMsg struct {
		PostID  string
		Content string
	}

	DeletePostMsg struct {
		PostID string
	}

	SignalPostMsg struct {
		PostID string
		UserID string
	}
)

// Message types for Comment operations
type (
	AddCommentMsg struct {
		PostID     string
		AuthorID   string
		AuthorName string
		Body       string
	}

	ListCommentsMsg struct {
		PostID string
	}

	EditCommentMsg struct {
		PostID    string
		CommentID string
		Body      string
	}

	DeleteCommentMsg struct {
		PostID    string
		CommentID string
	}
)

// Message types for the reaction ledger
type (
	SetReactionMsg struct {
		PostID   string
		UserID   string
		Reaction string
	}

	// DecrementReactionMsg retracts one reaction. UserID is optional.
	DecrementReactionMsg struct {
		PostID   string
		Reaction string
		UserID   string
	}

	GetReactionCountsMsg struct {
		PostID string
	}

	SetCommentReactionMsg struct {
		PostID    string
		CommentID string
		UserID    string
		Emoji     string
	}

	GetCommentReactionCountsMsg struct {
		PostID string
	}
)

// Internal messages between the supervisor and its post actors
type (
	insertPostMsg struct {
		Post *models.Post
	}

	passivatePostMsg struct {
		PostID  string
		PID     *actor.PID
		Handled uint64
	}

	activePostsMsg struct{}
)

func (m *GetPostMsg) postKey() string                  { return m.PostID }
func (m *UpdatePostContentMsg) postKey() string        { return m.PostID }
func (m *DeletePostMsg) postKey() string               { return m.PostID }
func (m *SignalPostMsg) postKey() string               { return m.PostID }
func (m *AddCommentMsg) postKey() string               { return m.PostID }
func (m *ListCommentsMsg) postKey() string             { return m.PostID }
func (m *EditCommentMsg) postKey() string              { return m.PostID }
func (m *DeleteCommentMsg) postKey() string            { return m.PostID }
func (m *SetReactionMsg) postKey() string              { return m.PostID }
func (m *DecrementReactionMsg) postKey() string        { return m.PostID }
func (m *GetReactionCountsMsg) postKey() string        { return m.PostID }
func (m *SetCommentReactionMsg) postKey() string       { return m.PostID }
func (m *GetCommentReactionCountsMsg) postKey() string { return m.PostID }
func (m *insertPostMsg) postKey() string               { return m.Post.ID }

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (m *CreatePostMsg) validate() *utils.AppError {
	if isBlank(m.Content) {
		return utils.NewValidationError("Content is required")
	}
	return nil
}

func (m *UpdatePostContentMsg) validate() *utils.AppError {
	if isBlank(m.Content) {
		return utils.NewValidationError("Content is required")
	}
	return nil
}

func (m *SignalPostMsg) validate() *utils.AppError {
	if isBlank(m.UserID) {
		return utils.NewValidationError("User ID is required")
	}
	return nil
}

func (m *AddCommentMsg) validate() *utils.AppError {
	if isBlank(m.Body) {
		return utils.NewValidationError("Comment is required")
	}
	return nil
}

func (m *EditCommentMsg) validate() *utils.AppError {
	if isBlank(m.Body) {
		return utils.NewValidationError("Comment is required")
	}
	return nil
}

func (m *SetReactionMsg) validate() *utils.AppError {
	if _, ok := models.ParseReactionKind(m.Reaction); !ok {
		return utils.NewInvalidReactionError(m.Reaction)
	}
	if isBlank(m.UserID) {
		return utils.NewValidationError("User ID is required")
	}
	return nil
}

func (m *DecrementReactionMsg) validate() *utils.AppError {
	if _, ok := models.ParseReactionKind(m.Reaction); !ok {
		return utils.NewInvalidReactionError(m.Reaction)
	}
	return nil
}

func (m *SetCommentReactionMsg) validate() *utils.AppError {
	if isBlank(m.Emoji) {
		return utils.NewValidationError("Emoji is required")
	}
	if isBlank(m.UserID) {
		return utils.NewValidationError("User ID is required")
	}
	return nil
}
