package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SimConfig struct {
	NumUsers       int
	NumPosts       int
	SimulationTime time.Duration
	// ReactFrequency and CommentFrequency are actions per user per second.
	ReactFrequency   float64
	CommentFrequency float64
	DecrementRate    float64 // share of reaction actions that retract instead
	ZipfS            float64
	EngineURL        string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	TotalReactions   int
	TotalDecrements  int
	TotalComments    int
	CommentReactions int
}

// SimulatedUser is a registered account driven by one goroutine, so its
// requests reach the server in order.
type SimulatedUser struct {
	ID       string
	Username string
	rng      *rand.Rand
}

// postExpectation mirrors the reaction state the server should hold for a post.
type postExpectation struct {
	mu        sync.Mutex
	active    map[string]string // userID -> kind
	uncertain bool              // a request had an unknown outcome
}

type EnhancedSimulator struct {
	config   SimConfig
	stats    *SimulationStats
	users    []*SimulatedUser
	posts    []string
	expected map[string]*postExpectation
	client   *http.Client
	mu       sync.RWMutex
}

// Validate rejects configurations the simulator cannot run with.
func (c SimConfig) Validate() error {
	if c.NumUsers <= 0 {
		return fmt.Errorf("number of users must be positive, got %d", c.NumUsers)
	}
	if c.NumPosts <= 0 {
		return fmt.Errorf("number of posts must be positive, got %d", c.NumPosts)
	}
	if c.ReactFrequency < 0 || c.CommentFrequency < 0 {
		return fmt.Errorf("activity frequencies must not be negative")
	}
	return nil
}

func NewEnhancedSimulator(config SimConfig) *EnhancedSimulator {
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	return &EnhancedSimulator{
		config:   config,
		stats:    &SimulationStats{StartTime: time.Now()},
		expected: make(map[string]*postExpectation),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run registers users, seeds posts, drives concurrent activity until the
// context or SimulationTime ends and finally verifies every post.
func (s *EnhancedSimulator) Run(ctx context.Context) (*VerificationReport, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	zap.S().Info("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.SimulationTime)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(runCtx)
	}()
	s.SimulateActivities(runCtx)
	cancel()
	wg.Wait()

	return s.Verify(ctx)
}

func (s *EnhancedSimulator) initialize(ctx context.Context) error {
	zap.S().Infof("Phase 1: Creating %d users...", s.config.NumUsers)
	runID := time.Now().UnixNano()
	for i := 0; i < s.config.NumUsers; i++ {
		user := &SimulatedUser{
			Username: fmt.Sprintf("sim_%d_%d", runID, i),
			rng:      rand.New(rand.NewSource(runID + int64(i))),
		}
		var result struct {
			ID string `json:"id"`
		}
		err := s.makeRequest(ctx, http.MethodPost, "/users", map[string]string{
			"username": user.Username,
			"password": "testpass123",
		}, &result)
		if err != nil {
			return fmt.Errorf("failed to register %s: %w", user.Username, err)
		}
		user.ID = result.ID
		s.users = append(s.users, user)
	}

	zap.S().Infof("Phase 2: Creating %d posts...", s.config.NumPosts)
	for i := 0; i < s.config.NumPosts; i++ {
		creator := s.users[i%len(s.users)]
		var post struct {
			ID string `json:"id"`
		}
		err := s.makeRequest(ctx, http.MethodPost, "/posts", map[string]string{
			"content": fmt.Sprintf("Simulated post %d by %s", i, creator.Username),
			"userId":  creator.ID,
		}, &post)
		if err != nil {
			return fmt.Errorf("failed to create post %d: %w", i, err)
		}
		s.posts = append(s.posts, post.ID)
		s.expected[post.ID] = &postExpectation{active: make(map[string]string)}
	}
	return nil
}

// pickPost selects a post with Zipf-skewed popularity so a few posts see
// heavy concurrent traffic.
func (s *EnhancedSimulator) pickPost(rng *rand.Rand) string {
	if len(s.posts) == 1 {
		return s.posts[0]
	}
	zipf := rand.NewZipf(rng, s.config.ZipfS, 1, uint64(len(s.posts)-1))
	return s.posts[zipf.Uint64()]
}

// RequestError is returned for responses with a status of 400 or above.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

func (s *EnhancedSimulator) makeRequest(ctx context.Context, method, endpoint string, data, out interface{}) error {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequestMetrics(start, err)
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= 400 {
		err = &RequestError{Status: resp.StatusCode, Body: string(payload)}
	}
	s.recordRequestMetrics(start, err)
	if err != nil {
		return err
	}

	if out != nil {
		return json.Unmarshal(payload, out)
	}
	return nil
}

func (s *EnhancedSimulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *EnhancedSimulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			zap.S().Infof("Simulation: %.2f req/sec, %d failed, avg latency %v, %d reactions, %d comments",
				m.RequestsPerSecond, m.ErrorCount, m.AverageLatency, m.TotalReactions, m.TotalComments)
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	TotalPosts        int
	TotalReactions    int
	TotalDecrements   int
	TotalComments     int
	CommentReactions  int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *EnhancedSimulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	return SimulationMetrics{
		TotalUsers:        len(s.users),
		TotalPosts:        len(s.posts),
		TotalReactions:    s.stats.TotalReactions,
		TotalDecrements:   s.stats.TotalDecrements,
		TotalComments:     s.stats.TotalComments,
		CommentReactions:  s.stats.CommentReactions,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}
