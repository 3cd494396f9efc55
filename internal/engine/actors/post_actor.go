package actors

import (
	stdctx "context"
	"strings"
	"time"

	"post-board/internal/database"
	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostActor serializes every read-modify-write of a single post. It keeps no
// copy of the post between messages; each message loads the aggregate,
// applies one change and saves it back.
type PostActor struct {
	postID      string
	db          database.DBAdapter
	metrics     *utils.MetricsCollector
	idleTimeout time.Duration
	handled     uint64
}

func NewPostActor(postID string, db database.DBAdapter, metrics *utils.MetricsCollector, idleTimeout time.Duration) actor.Actor {
	return &PostActor{
		postID:      postID,
		db:          db,
		metrics:     metrics,
		idleTimeout: idleTimeout,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	if _, ok := context.Message().(postMessage); ok {
		a.handled++
	}

	switch msg := context.Message().(type) {
	case *actor.Started:
		if a.idleTimeout > 0 {
			context.SetReceiveTimeout(a.idleTimeout)
		}

	case *actor.ReceiveTimeout:
		// the timer is one-shot; re-arm in case the supervisor declines
		context.SetReceiveTimeout(a.idleTimeout)
		a.requestPassivation(context)

	case *actor.Stopping, *actor.Stopped, *actor.Restarting:

	case *insertPostMsg:
		a.handleInsertPost(context, msg)
	case *GetPostMsg:
		a.withPost(context, func(post *models.Post) {
			context.Respond(post)
		})
	case *UpdatePostContentMsg:
		a.handleUpdateContent(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context)
	case *SignalPostMsg:
		a.mutate(context, "signal_post", func(post *models.Post) (interface{}, bool, *utils.AppError) {
			changed := addSignal(post, msg.UserID)
			return post, changed, nil
		})

	case *AddCommentMsg:
		a.handleAddComment(context, msg)
	case *ListCommentsMsg:
		a.withPost(context, func(post *models.Post) {
			views := make([]models.CommentView, 0, len(post.Comments))
			for _, c := range post.Comments {
				views = append(views, models.CommentView{ID: c.ID, Comment: c.Body, Username: c.AuthorName})
			}
			context.Respond(views)
		})
	case *EditCommentMsg:
		a.handleEditComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)

	case *SetReactionMsg:
		zap.S().Debugf("PostActor: Processing reaction %q on post %s from user %s", msg.Reaction, a.postID, msg.UserID)
		kind, _ := models.ParseReactionKind(msg.Reaction)
		a.mutate(context, "set_reaction", func(post *models.Post) (interface{}, bool, *utils.AppError) {
			changed := applyReaction(post, msg.UserID, kind)
			return post.Reactions.Normalized(), changed, nil
		})
	case *DecrementReactionMsg:
		kind, _ := models.ParseReactionKind(msg.Reaction)
		a.mutate(context, "decrement_reaction", func(post *models.Post) (interface{}, bool, *utils.AppError) {
			changed := retractReaction(post, kind, msg.UserID)
			return post.Reactions.Normalized(), changed, nil
		})
	case *GetReactionCountsMsg:
		a.withPost(context, func(post *models.Post) {
			context.Respond(post.Reactions.Normalized())
		})
	case *SetCommentReactionMsg:
		a.mutate(context, "set_comment_reaction", func(post *models.Post) (interface{}, bool, *utils.AppError) {
			comment, _ := post.FindComment(msg.CommentID)
			if comment == nil {
				return nil, false, utils.NewCommentNotFoundError(msg.CommentID)
			}
			if comment.Reactions == nil {
				comment.Reactions = make(map[string]string)
			}
			emoji := strings.TrimSpace(msg.Emoji)
			if comment.Reactions[msg.UserID] == emoji {
				return post, false, nil
			}
			comment.Reactions[msg.UserID] = emoji
			return post, true, nil
		})
	case *GetCommentReactionCountsMsg:
		a.withPost(context, func(post *models.Post) {
			context.Respond(tallyCommentReactions(post))
		})

	default:
		zap.S().Warnf("PostActor: Unknown message type: %T", msg)
	}
}

func (a *PostActor) requestPassivation(context actor.Context) {
	context.Send(context.Parent(), &passivatePostMsg{
		PostID:  a.postID,
		PID:     context.Self(),
		Handled: a.handled,
	})
}

func (a *PostActor) load(context actor.Context) (*models.Post, bool) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	post, err := a.db.GetPost(ctx, a.postID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			a.requestPassivation(context)
		} else {
			zap.S().Errorf("PostActor: Failed to load post %s: %v", a.postID, err)
		}
		respondError(context, err)
		return nil, false
	}
	return post, true
}

func (a *PostActor) save(post *models.Post) error {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()
	return a.db.SavePost(ctx, post)
}

func (a *PostActor) withPost(context actor.Context, fn func(post *models.Post)) {
	if post, ok := a.load(context); ok {
		fn(post)
	}
}

// mutate loads the post, applies change and saves the post when change
// reports a modification. The first return value of change is the reply.
func (a *PostActor) mutate(context actor.Context, operation string, change func(post *models.Post) (interface{}, bool, *utils.AppError)) {
	startTime := time.Now()

	post, ok := a.load(context)
	if !ok {
		return
	}

	reply, changed, appErr := change(post)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if changed {
		post.UpdatedAt = time.Now().UTC()
		if err := a.save(post); err != nil {
			zap.S().Errorf("PostActor: Failed to save post %s after %s: %v", a.postID, operation, err)
			respondError(context, err)
			return
		}
	}

	a.metrics.AddOperationLatency(operation, time.Since(startTime))
	context.Respond(reply)
}

func (a *PostActor) handleInsertPost(context actor.Context, msg *insertPostMsg) {
	startTime := time.Now()
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	if err := a.db.InsertPost(ctx, msg.Post); err != nil {
		zap.S().Errorf("PostActor: Failed to insert post %s: %v", a.postID, err)
		respondError(context, err)
		return
	}

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(msg.Post)
}

func (a *PostActor) handleUpdateContent(context actor.Context, msg *UpdatePostContentMsg) {
	a.mutate(context, "update_post", func(post *models.Post) (interface{}, bool, *utils.AppError) {
		post.Content = msg.Content
		return post, true, nil
	})
}

func (a *PostActor) handleDeletePost(context actor.Context) {
	startTime := time.Now()
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	if err := a.db.DeletePost(ctx, a.postID); err != nil {
		respondError(context, err)
		return
	}

	zap.S().Infof("PostActor: Deleted post %s", a.postID)
	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	context.Respond(&models.StatusResponse{Success: true, Message: "Post deleted successfully"})
	a.requestPassivation(context)
}

func (a *PostActor) handleAddComment(context actor.Context, msg *AddCommentMsg) {
	a.mutate(context, "add_comment", func(post *models.Post) (interface{}, bool, *utils.AppError) {
		now := time.Now().UTC()
		comment := &models.Comment{
			ID:         uuid.NewString(),
			Body:       msg.Body,
			AuthorID:   msg.AuthorID,
			AuthorName: msg.AuthorName,
			Reactions:  make(map[string]string),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		post.Comments = append(post.Comments, comment)
		return comment.Clone(), true, nil
	})
}

func (a *PostActor) handleEditComment(context actor.Context, msg *EditCommentMsg) {
	a.mutate(context, "edit_comment", func(post *models.Post) (interface{}, bool, *utils.AppError) {
		comment, _ := post.FindComment(msg.CommentID)
		if comment == nil {
			return nil, false, utils.NewCommentNotFoundError(msg.CommentID)
		}
		comment.Body = msg.Body
		comment.UpdatedAt = time.Now().UTC()
		return comment.Clone(), true, nil
	})
}

func (a *PostActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	a.mutate(context, "delete_comment", func(post *models.Post) (interface{}, bool, *utils.AppError) {
		_, idx := post.FindComment(msg.CommentID)
		if idx < 0 {
			return nil, false, utils.NewCommentNotFoundError(msg.CommentID)
		}
		post.Comments = append(post.Comments[:idx], post.Comments[idx+1:]...)
		return &models.StatusResponse{Success: true, Message: "Comment deleted successfully"}, true, nil
	})
}
