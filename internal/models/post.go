package models

import (
	"time"
)

type Post struct {
	ID                string          `json:"id"`
	CreatorID         string          `json:"postCreator,omitempty"`
	Content           string          `json:"content"`
	Media             []string        `json:"media"`
	Reactions         ReactionCounts  `json:"reactions"`
	Comments          []*Comment      `json:"comments"`
	Signaled          bool            `json:"signaled"`
	SignaledBy        []string        `json:"signaledBy"`
	LastReactionState []ReactionState `json:"lastReactionState"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// NewPost builds a post with a zeroed reaction map and empty collections.
func NewPost(id, creatorID, content string, media []string, now time.Time) *Post {
	if media == nil {
		media = make([]string, 0)
	}
	return &Post{
		ID:                id,
		CreatorID:         creatorID,
		Content:           content,
		Media:             media,
		Reactions:         NewReactionCounts(),
		Comments:          make([]*Comment, 0),
		SignaledBy:        make([]string, 0),
		LastReactionState: make([]ReactionState, 0),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// FindComment returns the comment with the given id and its index, or -1.
func (p *Post) FindComment(commentID string) (*Comment, int) {
	for i, comment := range p.Comments {
		if comment.ID == commentID {
			return comment, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy, so callers can mutate it without aliasing storage.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	out := *p
	out.Media = append(make([]string, 0, len(p.Media)), p.Media...)
	out.SignaledBy = append(make([]string, 0, len(p.SignaledBy)), p.SignaledBy...)
	out.LastReactionState = append(make([]ReactionState, 0, len(p.LastReactionState)), p.LastReactionState...)
	out.Reactions = make(ReactionCounts, len(p.Reactions))
	for k, v := range p.Reactions {
		out.Reactions[k] = v
	}
	out.Comments = make([]*Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, c.Clone())
	}
	return &out
}
