package engine

import (
	"time"

	"post-board/internal/database"
	"post-board/internal/engine/actors"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	postSupervisor *actor.PID
	userActor      *actor.PID
}

type Options struct {
	PostIdleTimeout time.Duration
	BcryptCost      int // zero selects bcrypt.DefaultCost
}

func NewEngine(system *actor.ActorSystem, db database.DBAdapter, metrics *utils.MetricsCollector, opts Options) *Engine {
	context := system.Root

	// Spawn post supervisor; it spawns one child per post on demand
	postPID := context.Spawn(actors.NewPostSupervisorProps(db, metrics, opts.PostIdleTimeout))

	// Spawn user actor
	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(db, metrics, opts.BcryptCost)
	})
	userPID := context.Spawn(userProps)

	return &Engine{
		postSupervisor: postPID,
		userActor:      userPID,
	}
}

// GetPostSupervisor returns the PID that accepts every post, comment and reaction message
func (e *Engine) GetPostSupervisor() *actor.PID {
	return e.postSupervisor
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}
