package actors

import (
	"context"
	"testing"
	"time"

	"post-board/internal/api"
	"post-board/internal/database"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserAuthentication(t *testing.T) {
	system := actor.NewActorSystem()
	defer system.Shutdown()
	db := database.NewMemoryDB()

	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(db, utils.NewMetricsCollector(), bcrypt.MinCost)
	}))

	ask := func(msg interface{}) interface{} {
		result, err := system.Root.RequestFuture(pid, msg, 5*time.Second).Result()
		require.NoError(t, err)
		return result
	}

	// Step 1: Register a new user
	reg, ok := ask(&RegisterUserMsg{Username: "testuser", Password: "password123"}).(*api.RegisterResponse)
	require.True(t, ok)
	assert.Equal(t, "testuser", reg.Username)

	stored, err := db.GetUser(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.HashedPassword)

	// Step 2: Duplicate username is rejected
	dup := ask(&RegisterUserMsg{Username: "testuser", Password: "other"}).(*utils.AppError)
	assert.Equal(t, utils.ErrDuplicateUsername, dup.Code)

	// Step 3: Try logging in
	login, ok := ask(&LoginMsg{Username: "testuser", Password: "password123"}).(*api.LoginResponse)
	require.True(t, ok)
	assert.Equal(t, reg.ID, login.UserID)

	// Step 4: Test invalid login
	bad := ask(&LoginMsg{Username: "testuser", Password: "wrongpassword"}).(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidCredentials, bad.Code)

	unknown := ask(&LoginMsg{Username: "ghost", Password: "x"}).(*utils.AppError)
	assert.Equal(t, utils.ErrInvalidCredentials, unknown.Code)

	// Step 5: Username lookup
	name := ask(&GetUsernameMsg{UserID: reg.ID}).(*api.UsernameResponse)
	assert.Equal(t, "testuser", name.Username)

	missing := ask(&GetUsernameMsg{UserID: "nope"}).(*utils.AppError)
	assert.Equal(t, utils.ErrNotFound, missing.Code)

	invalid := ask(&RegisterUserMsg{Username: " ", Password: "x"}).(*utils.AppError)
	assert.Equal(t, utils.ErrValidation, invalid.Code)
}
