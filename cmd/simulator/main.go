package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"post-board/simulator"

	"go.uber.org/zap"
)

func main() {
	config := simulator.SimConfig{}
	flag.StringVar(&config.EngineURL, "url", "http://localhost:8080", "post board base URL")
	flag.IntVar(&config.NumUsers, "users", 20, "number of simulated users")
	flag.IntVar(&config.NumPosts, "posts", 5, "number of posts to contend on")
	flag.DurationVar(&config.SimulationTime, "duration", time.Minute, "how long to generate load")
	flag.Float64Var(&config.ReactFrequency, "react-rate", 5, "reactions per user per second")
	flag.Float64Var(&config.CommentFrequency, "comment-rate", 0.5, "comments per user per second")
	flag.Float64Var(&config.DecrementRate, "decrement-rate", 0.2, "share of reaction actions that retract")
	flag.Float64Var(&config.ZipfS, "zipf", 1.07, "Zipf skew of post popularity")
	flag.Parse()
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	sugar.Infow("Starting simulation",
		"engineURL", config.EngineURL,
		"users", config.NumUsers,
		"posts", config.NumPosts,
		"duration", config.SimulationTime,
		"reactRate", config.ReactFrequency,
		"commentRate", config.CommentFrequency,
		"zipf", config.ZipfS,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := simulator.NewEnhancedSimulator(config)
	report, err := sim.Run(ctx)
	if err != nil {
		sugar.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	sugar.Infow("Simulation completed",
		"users", metrics.TotalUsers,
		"posts", metrics.TotalPosts,
		"reactions", metrics.TotalReactions,
		"decrements", metrics.TotalDecrements,
		"comments", metrics.TotalComments,
		"commentReactions", metrics.CommentReactions,
		"errors", metrics.ErrorCount,
		"avgLatency", metrics.AverageLatency,
		"requestsPerSecond", metrics.RequestsPerSecond,
	)

	for _, violation := range report.Violations {
		sugar.Errorw("Ledger violation", "detail", violation)
	}
	if !report.OK() {
		os.Exit(1)
	}
}
