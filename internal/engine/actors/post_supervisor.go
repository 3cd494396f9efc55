package actors

import (
	stdctx "context"
	"time"

	"post-board/internal/database"
	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// storeTimeout bounds every storage call made from an actor.
const storeTimeout = 5 * time.Second

type postChild struct {
	pid       *actor.PID
	forwarded uint64
}

// PostSupervisor owns one PostActor per post id. Post-scoped messages are
// forwarded to the owning child so that all changes to a post are applied
// one at a time. Children are spawned on demand and passivated when idle.
type PostSupervisor struct {
	children    map[string]*postChild
	db          database.DBAdapter
	metrics     *utils.MetricsCollector
	idleTimeout time.Duration
}

func NewPostSupervisor(db database.DBAdapter, metrics *utils.MetricsCollector, idleTimeout time.Duration) actor.Actor {
	return &PostSupervisor{
		children:    make(map[string]*postChild),
		db:          db,
		metrics:     metrics,
		idleTimeout: idleTimeout,
	}
}

// NewPostSupervisorProps builds the supervisor's props. A post actor that
// panics is stopped rather than restarted: a restarted instance would lose
// its handled count and could never pass the passivation check. The
// supervisor drops the child on Terminated and the next message spawns a
// fresh one.
func NewPostSupervisorProps(db database.DBAdapter, metrics *utils.MetricsCollector, idleTimeout time.Duration) *actor.Props {
	stopOnFailure := actor.NewOneForOneStrategy(0, 0, func(reason interface{}) actor.Directive {
		zap.S().Errorf("PostSupervisor: Post actor failed, stopping it: %v", reason)
		return actor.StopDirective
	})
	return actor.PropsFromProducer(func() actor.Actor {
		return NewPostSupervisor(db, metrics, idleTimeout)
	}, actor.WithSupervisor(stopOnFailure))
}

func (s *PostSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		zap.S().Info("PostSupervisor started")

	case *actor.Stopping:
		zap.S().Info("PostSupervisor stopping")

	case *actor.Stopped, *actor.Restarting:

	case *CreatePostMsg:
		s.handleCreatePost(context, msg)

	case *ListPostsMsg:
		s.handleListPosts(context, func(ctx stdctx.Context) ([]*models.Post, error) {
			return s.db.GetAllPosts(ctx)
		})

	case *ListUserPostsMsg:
		s.handleListPosts(context, func(ctx stdctx.Context) ([]*models.Post, error) {
			return s.db.GetPostsByCreator(ctx, msg.UserID)
		})

	case *GetCountsMsg:
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
		defer cancel()
		count, err := s.db.CountPosts(ctx)
		if err != nil {
			respondError(context, err)
			return
		}
		context.Respond(count)

	case *passivatePostMsg:
		s.handlePassivate(context, msg)

	case *activePostsMsg:
		context.Respond(len(s.children))

	case *actor.Terminated:
		for id, child := range s.children {
			if child.pid.Id == msg.Who.Id {
				delete(s.children, id)
				break
			}
		}

	case postMessage:
		if v, ok := msg.(validator); ok {
			if appErr := v.validate(); appErr != nil {
				context.Respond(appErr)
				return
			}
		}
		child := s.childFor(context, msg.postKey())
		child.forwarded++
		context.Forward(child.pid)

	default:
		zap.S().Warnf("PostSupervisor: Unknown message type: %T", msg)
	}
}

func (s *PostSupervisor) childFor(context actor.Context, postID string) *postChild {
	if child, ok := s.children[postID]; ok {
		return child
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(postID, s.db, s.metrics, s.idleTimeout)
	})
	child := &postChild{pid: context.Spawn(props)}
	s.children[postID] = child
	return child
}

func (s *PostSupervisor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	if appErr := msg.validate(); appErr != nil {
		context.Respond(appErr)
		return
	}

	post := models.NewPost(uuid.NewString(), msg.CreatorID, msg.Content, append([]string(nil), msg.Media...), time.Now().UTC())
	zap.S().Infof("PostSupervisor: Creating new post %s for creator %q", post.ID, post.CreatorID)

	child := s.childFor(context, post.ID)
	child.forwarded++
	context.RequestWithCustomSender(child.pid, &insertPostMsg{Post: post}, context.Sender())
}

func (s *PostSupervisor) handleListPosts(context actor.Context, query func(stdctx.Context) ([]*models.Post, error)) {
	startTime := time.Now()
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	posts, err := query(ctx)
	if err != nil {
		respondError(context, err)
		return
	}
	s.metrics.AddOperationLatency("list_posts", time.Since(startTime))
	context.Respond(posts)
}

// handlePassivate stops an idle child only if it has handled everything
// forwarded to it. Otherwise messages are in flight and the child stays.
func (s *PostSupervisor) handlePassivate(context actor.Context, msg *passivatePostMsg) {
	child, ok := s.children[msg.PostID]
	if !ok || child.pid.Id != msg.PID.Id || child.forwarded != msg.Handled {
		return
	}

	delete(s.children, msg.PostID)
	context.Poison(child.pid)
}

// respondError replies with err as an AppError, wrapping foreign errors as
// storage failures.
func respondError(context actor.Context, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		context.Respond(appErr)
		return
	}
	context.Respond(utils.NewDatabaseError("Storage operation failed", err))
}
