package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	reactionKinds = []string{"heart", "sad", "like", "laugh"}
	commentEmojis = []string{"🔥", "👍", "😂", "🎉"}
)

// SimulateActivities runs one goroutine per user until ctx is done. Each
// user reacts, retracts and comments on Zipf-chosen posts.
func (s *EnhancedSimulator) SimulateActivities(ctx context.Context) {
	var wg sync.WaitGroup
	comments := &commentPool{byPost: make(map[string][]string)}

	for _, user := range s.users {
		wg.Add(1)
		go func(u *SimulatedUser) {
			defer wg.Done()
			s.simulateUser(ctx, u, comments)
		}(user)
	}
	wg.Wait()
}

type commentPool struct {
	mu     sync.RWMutex
	byPost map[string][]string
}

func (p *commentPool) add(postID, commentID string) {
	p.mu.Lock()
	p.byPost[postID] = append(p.byPost[postID], commentID)
	p.mu.Unlock()
}

func (p *commentPool) pick(rng *rand.Rand, postID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := p.byPost[postID]
	if len(ids) == 0 {
		return "", false
	}
	return ids[rng.Intn(len(ids))], true
}

func (s *EnhancedSimulator) simulateUser(ctx context.Context, user *SimulatedUser, comments *commentPool) {
	rate := s.config.ReactFrequency + s.config.CommentFrequency
	if rate <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	// Requests already sent finish even after the run ends so their outcome
	// is known at verification time.
	reqCtx := context.WithoutCancel(ctx)
	commentShare := s.config.CommentFrequency / rate
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		postID := s.pickPost(user.rng)
		var err error
		if user.rng.Float64() < commentShare {
			err = s.simulateComment(reqCtx, user, postID, comments)
		} else {
			err = s.simulateReaction(reqCtx, user, postID)
		}
		if err != nil {
			zap.S().Debugw("Simulated action failed", "user", user.Username, "post", postID, "error", err)
		}
	}
}

func (s *EnhancedSimulator) simulateReaction(ctx context.Context, user *SimulatedUser, postID string) error {
	kind := reactionKinds[user.rng.Intn(len(reactionKinds))]
	body := map[string]string{"userId": user.ID}
	exp := s.expected[postID]

	if user.rng.Float64() < s.config.DecrementRate {
		err := s.makeRequest(ctx, http.MethodPut,
			fmt.Sprintf("/posts/%s/reactions/%s/decrement", postID, kind), body, nil)
		exp.record(err, func() {
			if exp.active[user.ID] == kind {
				delete(exp.active, user.ID)
			}
		})
		if err == nil {
			s.bumpStat(func(st *SimulationStats) { st.TotalDecrements++ })
		}
		return err
	}

	err := s.makeRequest(ctx, http.MethodPut,
		fmt.Sprintf("/posts/%s/reactions/%s", postID, kind), body, nil)
	exp.record(err, func() { exp.active[user.ID] = kind })
	if err == nil {
		s.bumpStat(func(st *SimulationStats) { st.TotalReactions++ })
	}
	return err
}

func (s *EnhancedSimulator) simulateComment(ctx context.Context, user *SimulatedUser, postID string, comments *commentPool) error {
	if commentID, ok := comments.pick(user.rng, postID); ok && user.rng.Intn(2) == 0 {
		err := s.makeRequest(ctx, http.MethodPost,
			fmt.Sprintf("/%s/comment/%s/react", postID, commentID),
			map[string]string{
				"emoji":  commentEmojis[user.rng.Intn(len(commentEmojis))],
				"userId": user.ID,
			}, nil)
		if err == nil {
			s.bumpStat(func(st *SimulationStats) { st.CommentReactions++ })
		}
		return err
	}

	var created struct {
		ID string `json:"id"`
	}
	err := s.makeRequest(ctx, http.MethodPost, fmt.Sprintf("/posts/%s/comments", postID),
		map[string]string{
			"userId":   user.ID,
			"username": user.Username,
			"comment":  fmt.Sprintf("comment from %s at %s", user.Username, time.Now().Format(time.RFC3339Nano)),
		}, &created)
	if err != nil {
		return err
	}
	comments.add(postID, created.ID)
	s.bumpStat(func(st *SimulationStats) { st.TotalComments++ })
	return nil
}

// record applies change when the server confirmed the request. A rejected
// request leaves the expectation alone; an unknown outcome makes the exact
// comparison impossible for this post.
func (p *postExpectation) record(err error, change func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var reqErr *RequestError
	switch {
	case err == nil:
		change()
	case errors.As(err, &reqErr) && reqErr.Status < http.StatusInternalServerError:
	default:
		p.uncertain = true
	}
}

func (s *EnhancedSimulator) bumpStat(update func(*SimulationStats)) {
	s.stats.mu.Lock()
	update(s.stats)
	s.stats.mu.Unlock()
}
