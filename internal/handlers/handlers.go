package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"post-board/internal/engine"
	"post-board/internal/media"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Media          media.Store
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	engine *engine.Engine,
	metrics *utils.MetricsCollector,
	mediaStore media.Store,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         engine,
		Metrics:        metrics,
		Media:          mediaStore,
		MaxUploadBytes: 5 << 20,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// RegisterRoutes mounts every endpoint on r. writeLimit guards the routes
// that modify state; nil leaves them unguarded.
func (s *Server) RegisterRoutes(r *gin.Engine, writeLimit gin.HandlerFunc) {
	if writeLimit == nil {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	r.GET("/health", s.HandleHealth())

	posts := r.Group("/posts")
	{
		posts.GET("", s.HandleListPosts())
		posts.POST("", writeLimit, s.HandleCreatePost())
		posts.GET("/user/:userId", s.HandleListUserPosts())
		posts.GET("/:id", s.HandleGetPost())
		posts.PUT("/:id", writeLimit, s.HandleUpdatePost())
		posts.DELETE("/:id", writeLimit, s.HandleDeletePost())
		posts.GET("/:id/image", s.HandleGetPostImage())
		posts.POST("/:id/signal", writeLimit, s.HandleSignalPost())

		posts.GET("/:id/comments", s.HandleListComments())
		posts.POST("/:id/comments", writeLimit, s.HandleAddComment())
		posts.PUT("/:id/comments/:commentId", writeLimit, s.HandleEditComment())
		posts.DELETE("/:id/comments/:commentId", writeLimit, s.HandleDeleteComment())

		posts.GET("/:id/reactions", s.HandleGetReactionCounts())
		posts.PUT("/:id/reactions/:reaction", writeLimit, s.HandleSetReaction())
		posts.PUT("/:id/reactions/:reaction/decrement", writeLimit, s.HandleDecrementReaction())
	}

	r.POST("/:postId/comment/:commentId/react", writeLimit, s.HandleSetCommentReaction())
	r.GET("/:postId/comments/react-count", s.HandleGetCommentReactionCounts())

	r.POST("/users", writeLimit, s.HandleUserRegistration())
	r.POST("/login", writeLimit, s.HandleUserLogin())
	r.POST("/users/username", s.HandleGetUsername())
}

// ask sends msg to pid and waits for the reply. An *utils.AppError reply is
// returned as the error.
func (s *Server) ask(pid *actor.PID, msg interface{}, actorName string) (interface{}, *utils.AppError) {
	result, err := s.Context.RequestFuture(pid, msg, s.RequestTimeout).Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError(actorName, err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

func (s *Server) askPosts(msg interface{}) (interface{}, *utils.AppError) {
	return s.ask(s.Engine.GetPostSupervisor(), msg, "PostSupervisor")
}

func (s *Server) askUsers(msg interface{}) (interface{}, *utils.AppError) {
	return s.ask(s.Engine.GetUserActor(), msg, "UserActor")
}

// writeError renders an AppError as {"error": message} with the mapped status.
func writeError(c *gin.Context, appErr *utils.AppError) {
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(utils.AppErrorToHTTPStatus(appErr.Code), gin.H{"error": appErr.Message})
}

// unexpectedReply covers a reply of the wrong type, which means a bug rather
// than a client error.
func unexpectedReply(c *gin.Context, result interface{}) {
	writeError(c, utils.NewAppError(utils.ErrInternal, fmt.Sprintf("Unexpected reply type %T", result), nil))
}

// bindJSON decodes the request body into req. An empty body is accepted
// when allowEmpty is set, leaving req at its zero value.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(c, utils.NewValidationError(validationMessage(err)))
	return false
}

// validationMessage turns binding failures into a short client-facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
