package actors

import (
	stdctx "context"
	"strings"
	"time"

	"post-board/internal/api"
	"post-board/internal/database"
	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Message types for User operations
type (
	RegisterUserMsg struct {
		Username string
		Password string
	}

	LoginMsg struct {
		Username string
		Password string
	}

	GetUsernameMsg struct {
		UserID string
	}
)

// UserActor handles account operations. Registrations pass through its
// mailbox one at a time, so the username check and the insert cannot
// interleave within this process.
type UserActor struct {
	db         database.DBAdapter
	metrics    *utils.MetricsCollector
	bcryptCost int
}

func NewUserActor(db database.DBAdapter, metrics *utils.MetricsCollector, bcryptCost int) actor.Actor {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserActor{
		db:         db,
		metrics:    metrics,
		bcryptCost: bcryptCost,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		zap.S().Info("UserActor started")

	case *actor.Stopping, *actor.Stopped, *actor.Restarting:

	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUsernameMsg:
		a.handleGetUsername(context, msg)
	default:
		zap.S().Warnf("UserActor: Unknown message type: %T", msg)
	}
}

func (a *UserActor) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	return string(bytes), err
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()
	username := strings.TrimSpace(msg.Username)
	if username == "" || msg.Password == "" {
		context.Respond(utils.NewValidationError("Username and password are required"))
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	existing, err := a.db.GetUserByUsername(ctx, username)
	if existing != nil {
		zap.S().Infof("UserActor: Username already exists: %s", username)
		context.Respond(utils.NewAppError(utils.ErrDuplicateUsername, "Username already exists", nil))
		return
	}
	if err != nil && !utils.IsErrorCode(err, utils.ErrNotFound) {
		respondError(context, err)
		return
	}

	hashed, err := a.hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrValidation, "Password cannot be hashed", err))
		return
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Username:       username,
		HashedPassword: hashed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.db.CreateUser(ctx, user); err != nil {
		respondError(context, err)
		return
	}

	zap.S().Infof("UserActor: Registered user %s (%s)", user.Username, user.ID)
	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(&api.RegisterResponse{ID: user.ID, Username: user.Username})
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	invalid := utils.NewAppError(utils.ErrInvalidCredentials, "Invalid username or password", nil)
	if strings.TrimSpace(msg.Username) == "" || msg.Password == "" {
		context.Respond(utils.NewValidationError("Username and password are required"))
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	user, err := a.db.GetUserByUsername(ctx, strings.TrimSpace(msg.Username))
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(invalid)
			return
		}
		respondError(context, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		zap.S().Infof("UserActor: Failed login for %s", user.Username)
		context.Respond(invalid)
		return
	}

	context.Respond(&api.LoginResponse{
		Message:  "Login successful",
		UserID:   user.ID,
		Username: user.Username,
	})
}

func (a *UserActor) handleGetUsername(context actor.Context, msg *GetUsernameMsg) {
	if strings.TrimSpace(msg.UserID) == "" {
		context.Respond(utils.NewValidationError("User ID is required"))
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), storeTimeout)
	defer cancel()

	user, err := a.db.GetUser(ctx, msg.UserID)
	if err != nil {
		respondError(context, err)
		return
	}
	context.Respond(&api.UsernameResponse{Username: user.Username})
}
