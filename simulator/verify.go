package simulator

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type reactionEntry struct {
	UserID string `json:"user"`
	Emoji  string `json:"emoji"`
}

type postSnapshot struct {
	ID                string          `json:"id"`
	Reactions         map[string]int  `json:"reactions"`
	LastReactionState []reactionEntry `json:"lastReactionState"`
}

// VerificationReport lists every post whose final state broke the ledger
// rules after the run.
type VerificationReport struct {
	PostsChecked   int
	ExactlyMatched int
	Violations     []string
}

func (r *VerificationReport) OK() bool { return len(r.Violations) == 0 }

// Verify fetches every post and checks that each kind's count equals the
// number of ledger entries of that kind and that no user holds two entries.
// Posts without uncertain requests must also match the simulated state exactly.
func (s *EnhancedSimulator) Verify(ctx context.Context) (*VerificationReport, error) {
	report := &VerificationReport{}

	for _, postID := range s.posts {
		var post postSnapshot
		if err := s.makeRequest(ctx, http.MethodGet, "/posts/"+postID, nil, &post); err != nil {
			return nil, fmt.Errorf("failed to fetch post %s: %w", postID, err)
		}
		report.PostsChecked++

		entries := make(map[string]int)
		seen := make(map[string]bool)
		for _, entry := range post.LastReactionState {
			entries[entry.Emoji]++
			if seen[entry.UserID] {
				report.Violations = append(report.Violations,
					fmt.Sprintf("post %s: user %s has more than one reaction", postID, entry.UserID))
			}
			seen[entry.UserID] = true
		}
		for _, kind := range reactionKinds {
			if post.Reactions[kind] != entries[kind] {
				report.Violations = append(report.Violations,
					fmt.Sprintf("post %s: %s count %d but %d entries", postID, kind, post.Reactions[kind], entries[kind]))
			}
		}

		exp := s.expected[postID]
		exp.mu.Lock()
		if !exp.uncertain {
			if matchesExpectation(post, exp.active) {
				report.ExactlyMatched++
			} else {
				report.Violations = append(report.Violations,
					fmt.Sprintf("post %s: final reactions differ from the confirmed requests", postID))
			}
		}
		exp.mu.Unlock()
	}

	if report.OK() {
		zap.S().Infof("Verification passed: %d posts checked, %d matched exactly",
			report.PostsChecked, report.ExactlyMatched)
	} else {
		zap.S().Warnf("Verification found %d violations", len(report.Violations))
	}
	return report, nil
}

func matchesExpectation(post postSnapshot, active map[string]string) bool {
	if len(post.LastReactionState) != len(active) {
		return false
	}
	for _, entry := range post.LastReactionState {
		if active[entry.UserID] != entry.Emoji {
			return false
		}
	}
	return true
}
