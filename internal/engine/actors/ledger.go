package actors

import (
	"post-board/internal/models"
)

// applyReaction records userID's reaction on the post. A user holds at most
// one active reaction; switching moves their vote from the old kind to the
// new one. Re-sending the active kind changes nothing. Reports whether the
// post was modified.
func applyReaction(post *models.Post, userID string, kind models.ReactionKind) bool {
	post.Reactions = post.Reactions.Normalized()

	for i, state := range post.LastReactionState {
		if state.UserID != userID {
			continue
		}
		if state.Emoji == kind {
			return false
		}
		decrementCount(post.Reactions, state.Emoji)
		post.Reactions[kind]++
		post.LastReactionState[i] = models.ReactionState{
			UserID: userID,
			Emoji:  kind,
			Count:  post.Reactions[kind],
		}
		return true
	}

	post.Reactions[kind]++
	post.LastReactionState = append(post.LastReactionState, models.ReactionState{
		UserID: userID,
		Emoji:  kind,
		Count:  post.Reactions[kind],
	})
	return true
}

// retractReaction takes one kind reaction off the post together with the
// state entry that backs it. With a userID only that user's entry is eligible;
// without one the most recent entry of that kind is removed. Posts carrying
// counts but no entries (older documents) are decremented directly. Counts
// never go below zero.
func retractReaction(post *models.Post, kind models.ReactionKind, userID string) bool {
	post.Reactions = post.Reactions.Normalized()

	idx := -1
	for i := len(post.LastReactionState) - 1; i >= 0; i-- {
		state := post.LastReactionState[i]
		if userID != "" {
			if state.UserID == userID {
				if state.Emoji == kind {
					idx = i
				}
				break
			}
			continue
		}
		if state.Emoji == kind {
			idx = i
			break
		}
	}

	if idx < 0 {
		if userID != "" {
			return false
		}
		return decrementCount(post.Reactions, kind)
	}

	post.LastReactionState = append(post.LastReactionState[:idx], post.LastReactionState[idx+1:]...)
	decrementCount(post.Reactions, kind)
	return true
}

func decrementCount(counts models.ReactionCounts, kind models.ReactionKind) bool {
	if counts[kind] <= 0 {
		counts[kind] = 0
		return false
	}
	counts[kind]--
	return true
}

// tallyCommentReactions derives per-comment emoji counts from each comment's
// userID -> emoji mapping.
func tallyCommentReactions(post *models.Post) []models.CommentReactionCount {
	result := make([]models.CommentReactionCount, 0, len(post.Comments))
	for _, comment := range post.Comments {
		counts := make(map[string]int)
		for _, emoji := range comment.Reactions {
			counts[emoji]++
		}
		result = append(result, models.CommentReactionCount{
			CommentID:        comment.ID,
			ReactionCountMap: counts,
		})
	}
	return result
}

// addSignal flags the post and records userID once.
func addSignal(post *models.Post, userID string) bool {
	changed := !post.Signaled
	post.Signaled = true
	for _, id := range post.SignaledBy {
		if id == userID {
			return changed
		}
	}
	post.SignaledBy = append(post.SignaledBy, userID)
	return true
}
