package models

// ReactionKind is one of the fixed emoji kinds a user can cast on a post.
type ReactionKind string

const (
	ReactionHeart ReactionKind = "heart"
	ReactionSad   ReactionKind = "sad"
	ReactionLike  ReactionKind = "like"
	ReactionLaugh ReactionKind = "laugh"
)

// ReactionKinds lists every recognized kind in display order.
var ReactionKinds = []ReactionKind{ReactionHeart, ReactionSad, ReactionLike, ReactionLaugh}

// ParseReactionKind returns the kind named by s, or false if s is not recognized.
func ParseReactionKind(s string) (ReactionKind, bool) {
	for _, kind := range ReactionKinds {
		if string(kind) == s {
			return kind, true
		}
	}
	return "", false
}

// ReactionCounts maps every reaction kind to its tally on a post.
type ReactionCounts map[ReactionKind]int

// NewReactionCounts returns a mapping with all four kinds set to zero.
func NewReactionCounts() ReactionCounts {
	counts := make(ReactionCounts, len(ReactionKinds))
	for _, kind := range ReactionKinds {
		counts[kind] = 0
	}
	return counts
}

// Normalized returns a copy holding exactly the four recognized kinds, with
// missing kinds reported as zero.
func (c ReactionCounts) Normalized() ReactionCounts {
	out := NewReactionCounts()
	for _, kind := range ReactionKinds {
		if n, ok := c[kind]; ok && n > 0 {
			out[kind] = n
		}
	}
	return out
}

// ReactionState records the reaction a user currently has active on a post.
type ReactionState struct {
	UserID string       `json:"user"`
	Emoji  ReactionKind `json:"emoji"`
	Count  int          `json:"count"` // tally of Emoji right after this user's reaction
}
