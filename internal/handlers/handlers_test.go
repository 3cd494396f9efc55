package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"post-board/internal/api"
	"post-board/internal/database"
	"post-board/internal/engine"
	"post-board/internal/media"
	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var pixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	system := actor.NewActorSystem()
	t.Cleanup(func() { system.Shutdown() })
	metrics := utils.NewMetricsCollector()
	eng := engine.NewEngine(system, database.NewMemoryDB(), metrics, engine.Options{
		PostIdleTimeout: time.Minute,
		BcryptCost:      bcrypt.MinCost,
	})

	server := NewServer(system, eng, metrics, media.NewInlineStore(1<<20))
	r := gin.New()
	server.RegisterRoutes(r, nil)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createPost(t *testing.T, r http.Handler, content string) models.Post {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/posts", CreatePostRequest{Content: content, UserID: "creator-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Post](t, w)
}

func TestPostLifecycle(t *testing.T) {
	r := newTestRouter(t)
	post := createPost(t, r, "hello")
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "creator-1", post.CreatorID)

	w := doJSON(t, r, http.MethodGet, "/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/user/creator-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Post](t, w), 1)

	w = doJSON(t, r, http.MethodPut, "/posts/"+post.ID, UpdatePostRequest{Content: "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edited", decode[models.Post](t, w).Content)

	w = doJSON(t, r, http.MethodPost, "/posts/"+post.ID+"/signal", SignalPostRequest{UserID: "mod"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, w)["post_count"])

	w = doJSON(t, r, http.MethodDelete, "/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/posts/"+post.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "Post not found")

	w = doJSON(t, r, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Post](t, w))
}

func TestCreatePostValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/posts", CreatePostRequest{UserID: "u"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Content is required", decode[map[string]string](t, w)["error"])

	w = doJSON(t, r, http.MethodPut, "/posts/missing", UpdatePostRequest{Content: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReactionEndpoints(t *testing.T) {
	r := newTestRouter(t)
	post := createPost(t, r, "hello")
	base := "/posts/" + post.ID + "/reactions"

	w := doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"heart": 0, "sad": 0, "like": 0, "laugh": 0}, decode[map[string]int](t, w))

	w = doJSON(t, r, http.MethodPut, base+"/heart", SetReactionRequest{UserID: "userA"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[map[string]int](t, w)["heart"])

	w = doJSON(t, r, http.MethodPut, base+"/like", SetReactionRequest{UserID: "userA"})
	counts := decode[map[string]int](t, w)
	assert.Equal(t, 0, counts["heart"])
	assert.Equal(t, 1, counts["like"])

	// decrement without a body retracts the newest like
	w = doJSON(t, r, http.MethodPut, base+"/like/decrement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[map[string]int](t, w)["like"])

	w = doJSON(t, r, http.MethodPut, base+"/like/decrement", DecrementReactionRequest{UserID: "userA"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[map[string]int](t, w)["like"])

	w = doJSON(t, r, http.MethodPut, base+"/angry", SetReactionRequest{UserID: "userA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/posts/missing/reactions/heart", SetReactionRequest{UserID: "userA"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentEndpoints(t *testing.T) {
	r := newTestRouter(t)
	post := createPost(t, r, "hello")
	base := "/posts/" + post.ID + "/comments"

	w := doJSON(t, r, http.MethodPost, base, CreateCommentRequest{UserID: "u1", Username: "Alice", Comment: "nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[models.Comment](t, w)

	w = doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.CommentView{{ID: comment.ID, Comment: "nice", Username: "Alice"}}, decode[[]models.CommentView](t, w))

	w = doJSON(t, r, http.MethodPost, "/"+post.ID+"/comment/"+comment.ID+"/react", CommentReactionRequest{Emoji: "🔥", UserID: "u2"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/"+post.ID+"/comments/react-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		PostID           string                        `json:"postId"`
		CommentReactions []models.CommentReactionCount `json:"commentReactions"`
	}](t, w)
	assert.Equal(t, post.ID, body.PostID)
	require.Len(t, body.CommentReactions, 1)
	assert.Equal(t, map[string]int{"🔥": 1}, body.CommentReactions[0].ReactionCountMap)

	w = doJSON(t, r, http.MethodPut, base+"/"+comment.ID, EditCommentRequest{Comment: "nicer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nicer", decode[models.Comment](t, w).Body)

	w = doJSON(t, r, http.MethodDelete, base+"/"+comment.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, base+"/"+comment.ID, EditCommentRequest{Comment: "again"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/missing/comments/react-count", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/users", RegisterUserRequest{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode[api.RegisterResponse](t, w)
	assert.Equal(t, "alice", reg.Username)

	w = doJSON(t, r, http.MethodPost, "/users", RegisterUserRequest{Username: "alice", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/login", LoginRequest{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[api.LoginResponse](t, w)
	assert.Equal(t, reg.ID, login.UserID)

	w = doJSON(t, r, http.MethodPost, "/login", LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/users/username", UsernameRequest{UserID: reg.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[api.UsernameResponse](t, w).Username)

	w = doJSON(t, r, http.MethodPost, "/users/username", UsernameRequest{UserID: "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMultipartCreateAndImage(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "with picture"))
	require.NoError(t, mw.WriteField("userId", "u1"))
	part, err := mw.CreateFormFile("image", "pixel.png")
	require.NoError(t, err)
	_, err = part.Write(pixelPNG)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[models.Post](t, w)
	require.Len(t, post.Media, 1)

	w = doJSON(t, r, http.MethodGet, "/posts/"+post.ID+"/image", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename="+post.ID+".png", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, pixelPNG, w.Body.Bytes())
}

func TestImageEndpointRedirectsAndMissing(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/posts", CreatePostRequest{Content: "linked", Media: []string{"https://cdn.example.com/a.png"}})
	require.Equal(t, http.StatusCreated, w.Code)
	linked := decode[models.Post](t, w)

	w = doJSON(t, r, http.MethodGet, "/posts/"+linked.ID+"/image", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdn.example.com/a.png", w.Header().Get("Location"))

	plain := createPost(t, r, "no picture")
	w = doJSON(t, r, http.MethodGet, "/posts/"+plain.ID+"/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Image not found", decode[map[string]string](t, w)["error"])
}

func TestCreatePostValidatesJSONMedia(t *testing.T) {
	r := newTestRouter(t)

	for name, ref := range map[string]string{
		"html":       base64.StdEncoding.EncodeToString([]byte("<html><script>alert(1)</script></html>")),
		"not base64": "not base64!!",
	} {
		w := doJSON(t, r, http.MethodPost, "/posts", CreatePostRequest{Content: "bad media", Media: []string{ref}})
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w := doJSON(t, r, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Post](t, w))

	w = doJSON(t, r, http.MethodPost, "/posts", CreatePostRequest{
		Content: "inline picture",
		Media:   []string{base64.StdEncoding.EncodeToString(pixelPNG)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[models.Post](t, w)

	w = doJSON(t, r, http.MethodGet, "/posts/"+post.ID+"/image", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
