package models

import (
	"time"
)

type Comment struct {
	ID         string            `json:"id"`
	Body       string            `json:"comment"`
	AuthorID   string            `json:"userId"`
	AuthorName string            `json:"username"`
	Reactions  map[string]string `json:"reactionsToComment"` // userID -> emoji
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	out := *c
	out.Reactions = make(map[string]string, len(c.Reactions))
	for user, emoji := range c.Reactions {
		out.Reactions[user] = emoji
	}
	return &out
}

// CommentReactionCount is the derived emoji tally for one comment.
type CommentReactionCount struct {
	CommentID        string         `json:"commentId"`
	ReactionCountMap map[string]int `json:"reactionCountMap"`
}

// CommentView is the listing shape returned for a post's comments.
type CommentView struct {
	ID       string `json:"id"`
	Comment  string `json:"comment"`
	Username string `json:"username"`
}
