package simulator

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"post-board/internal/database"
	"post-board/internal/engine"
	"post-board/internal/handlers"
	"post-board/internal/media"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func startEngine(t *testing.T, idle time.Duration) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	system := actor.NewActorSystem()
	t.Cleanup(func() { system.Shutdown() })
	metrics := utils.NewMetricsCollector()
	eng := engine.NewEngine(system, database.NewMemoryDB(), metrics, engine.Options{
		PostIdleTimeout: idle,
		BcryptCost:      bcrypt.MinCost,
	})

	r := gin.New()
	handlers.NewServer(system, eng, metrics, media.NewInlineStore(1<<20)).RegisterRoutes(r, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSimulationKeepsLedgerConsistent(t *testing.T) {
	sim := NewEnhancedSimulator(SimConfig{
		NumUsers:         8,
		NumPosts:         3,
		SimulationTime:   400 * time.Millisecond,
		ReactFrequency:   80,
		CommentFrequency: 20,
		DecrementRate:    0.3,
		EngineURL:        startEngine(t, time.Minute),
	})

	report, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "violations: %v", report.Violations)
	assert.Equal(t, 3, report.PostsChecked)
	assert.Equal(t, 3, report.ExactlyMatched)

	metrics := sim.GetMetrics()
	assert.Equal(t, 8, metrics.TotalUsers)
	assert.Positive(t, metrics.TotalReactions)
	assert.Zero(t, metrics.ErrorCount)
}

func TestSimulationSurvivesPostPassivation(t *testing.T) {
	sim := NewEnhancedSimulator(SimConfig{
		NumUsers:       6,
		NumPosts:       2,
		SimulationTime: 300 * time.Millisecond,
		ReactFrequency: 40,
		DecrementRate:  0.2,
		EngineURL:      startEngine(t, 10*time.Millisecond),
	})

	report, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), "violations: %v", report.Violations)
}

func TestRegistrationFailureAbortsRun(t *testing.T) {
	sim := NewEnhancedSimulator(SimConfig{
		NumUsers:       1,
		NumPosts:       1,
		SimulationTime: time.Second,
		EngineURL:      "http://127.0.0.1:1",
	})

	_, err := sim.Run(context.Background())
	assert.ErrorContains(t, err, "initialization failed")
}

func TestRunRejectsEmptyPopulation(t *testing.T) {
	for name, cfg := range map[string]SimConfig{
		"no users": {NumUsers: 0, NumPosts: 1, SimulationTime: time.Second},
		"no posts": {NumUsers: 1, NumPosts: 0, SimulationTime: time.Second},
	} {
		cfg.EngineURL = "http://127.0.0.1:1"
		_, err := NewEnhancedSimulator(cfg).Run(context.Background())
		assert.ErrorContains(t, err, "invalid simulation config", name)
	}
}
