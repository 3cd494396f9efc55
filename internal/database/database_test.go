package database

import (
	"context"
	"testing"
	"time"

	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func samplePost(id string, created time.Time) *models.Post {
	post := models.NewPost(id, "creator-1", "hello", []string{"aGVsbG8="}, created)
	post.Reactions[models.ReactionLike] = 1
	post.LastReactionState = append(post.LastReactionState, models.ReactionState{
		UserID: "user-a", Emoji: models.ReactionLike, Count: 1,
	})
	post.Comments = append(post.Comments, &models.Comment{
		ID:         "c1",
		Body:       "nice",
		AuthorID:   "user-b",
		AuthorName: "Bob",
		Reactions:  map[string]string{"user-a": "🔥"},
		CreatedAt:  created,
		UpdatedAt:  created,
	})
	return post
}

func TestDocumentRoundTripKeepsAggregate(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := samplePost("p1", created)
	post.Signaled = true
	post.SignaledBy = []string{"user-c"}

	doc := ModelToDocument(post)
	assert.Equal(t, 1, doc.Reactions["like"])
	assert.Equal(t, 0, doc.Reactions["heart"])
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "🔥", doc.Comments[0].Reactions["user-a"])

	back := DocumentToModel(doc)
	assert.Equal(t, post, back)
}

func TestDocumentToModelDropsUnknownKindsAndFillsMissing(t *testing.T) {
	doc := &PostDocument{
		ID:        "p1",
		Content:   "legacy",
		Reactions: map[string]int{"heart": 2, "angry": 7},
	}
	post := DocumentToModel(doc)
	assert.Equal(t, models.ReactionCounts{"heart": 2, "sad": 0, "like": 0, "laugh": 0}, post.Reactions)
	assert.NotNil(t, post.Comments)
	assert.NotNil(t, post.Media)
}

func TestMemoryDBPostLifecycle(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	base := time.Now()

	require.NoError(t, db.InsertPost(ctx, samplePost("old", base.Add(-time.Minute))))
	require.NoError(t, db.InsertPost(ctx, samplePost("new", base)))

	got, err := db.GetPost(ctx, "new")
	require.NoError(t, err)
	got.Content = "mutated"
	again, err := db.GetPost(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Content, "stored copy must not alias returned value")

	require.NoError(t, db.SavePost(ctx, got))
	again, _ = db.GetPost(ctx, "new")
	assert.Equal(t, "mutated", again.Content)

	all, err := db.GetAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)

	byCreator, err := db.GetPostsByCreator(ctx, "creator-1")
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)
	none, err := db.GetPostsByCreator(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, db.DeletePost(ctx, "old"))
	assert.True(t, utils.IsErrorCode(db.DeletePost(ctx, "old"), utils.ErrNotFound))
	_, err = db.GetPost(ctx, "old")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))

	n, err := db.CountPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	missing := samplePost("ghost", base)
	assert.True(t, utils.IsErrorCode(db.SavePost(ctx, missing), utils.ErrNotFound))
}

func TestMemoryDBUsers(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()

	require.NoError(t, db.CreateUser(ctx, &models.User{ID: "u1", Username: "alice", HashedPassword: "h"}))
	err := db.CreateUser(ctx, &models.User{ID: "u2", Username: "alice", HashedPassword: "h"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicateUsername))

	user, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = db.GetUser(ctx, "u2")
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}

func TestPostListOrderMatchesAcrossBackends(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertPost(ctx, samplePost("b", same)))
	require.NoError(t, db.InsertPost(ctx, samplePost("a", same)))
	require.NoError(t, db.InsertPost(ctx, samplePost("c", same.Add(time.Second))))

	all, err := db.GetAllPosts(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, post := range all {
		ids = append(ids, post.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}, postListOrder)
}
