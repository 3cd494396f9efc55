// internal/database/post_repository.go
package database

import (
	"context"
	"errors"
	"time"

	"post-board/internal/models"
	"post-board/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID                string                  `bson:"_id"`
	CreatorID         string                  `bson:"postCreator"`
	Content           string                  `bson:"content"`
	Media             []string                `bson:"media"`
	Reactions         map[string]int          `bson:"reactions"`
	Comments          []CommentDocument       `bson:"comments"`
	Signaled          bool                    `bson:"signaled"`
	SignaledBy        []string                `bson:"signaledBy"`
	LastReactionState []ReactionStateDocument `bson:"lastReactionState"`
	CreatedAt         time.Time               `bson:"createdAt"`
	UpdatedAt         time.Time               `bson:"updatedAt"`
}

// CommentDocument is a comment embedded in its post document.
type CommentDocument struct {
	ID         string            `bson:"_id"`
	Body       string            `bson:"comment"`
	AuthorID   string            `bson:"userId"`
	AuthorName string            `bson:"username"`
	Reactions  map[string]string `bson:"reactionsToComment"`
	CreatedAt  time.Time         `bson:"createdAt"`
	UpdatedAt  time.Time         `bson:"updatedAt"`
}

type ReactionStateDocument struct {
	UserID string `bson:"user"`
	Emoji  string `bson:"emoji"`
	Count  int    `bson:"count"`
}

// ModelToDocument converts a Post model to a MongoDB document.
func ModelToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:                post.ID,
		CreatorID:         post.CreatorID,
		Content:           post.Content,
		Media:             append(make([]string, 0, len(post.Media)), post.Media...),
		Reactions:         make(map[string]int, len(post.Reactions)),
		Comments:          make([]CommentDocument, 0, len(post.Comments)),
		Signaled:          post.Signaled,
		SignaledBy:        append(make([]string, 0, len(post.SignaledBy)), post.SignaledBy...),
		LastReactionState: make([]ReactionStateDocument, 0, len(post.LastReactionState)),
		CreatedAt:         post.CreatedAt,
		UpdatedAt:         post.UpdatedAt,
	}

	for kind, count := range post.Reactions {
		doc.Reactions[string(kind)] = count
	}
	for _, comment := range post.Comments {
		reactions := make(map[string]string, len(comment.Reactions))
		for user, emoji := range comment.Reactions {
			reactions[user] = emoji
		}
		doc.Comments = append(doc.Comments, CommentDocument{
			ID:         comment.ID,
			Body:       comment.Body,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Reactions:  reactions,
			CreatedAt:  comment.CreatedAt,
			UpdatedAt:  comment.UpdatedAt,
		})
	}
	for _, state := range post.LastReactionState {
		doc.LastReactionState = append(doc.LastReactionState, ReactionStateDocument{
			UserID: state.UserID,
			Emoji:  string(state.Emoji),
			Count:  state.Count,
		})
	}
	return doc
}

// DocumentToModel converts a MongoDB document to a Post model.
func DocumentToModel(doc *PostDocument) *models.Post {
	post := models.NewPost(doc.ID, doc.CreatorID, doc.Content, append([]string(nil), doc.Media...), doc.CreatedAt)
	post.UpdatedAt = doc.UpdatedAt
	post.Signaled = doc.Signaled
	post.SignaledBy = append(post.SignaledBy, doc.SignaledBy...)

	for name, count := range doc.Reactions {
		if kind, ok := models.ParseReactionKind(name); ok {
			post.Reactions[kind] = count
		}
	}
	for _, c := range doc.Comments {
		reactions := make(map[string]string, len(c.Reactions))
		for user, emoji := range c.Reactions {
			reactions[user] = emoji
		}
		post.Comments = append(post.Comments, &models.Comment{
			ID:         c.ID,
			Body:       c.Body,
			AuthorID:   c.AuthorID,
			AuthorName: c.AuthorName,
			Reactions:  reactions,
			CreatedAt:  c.CreatedAt,
			UpdatedAt:  c.UpdatedAt,
		})
	}
	for _, s := range doc.LastReactionState {
		post.LastReactionState = append(post.LastReactionState, models.ReactionState{
			UserID: s.UserID,
			Emoji:  models.ReactionKind(s.Emoji),
			Count:  s.Count,
		})
	}
	return post
}

// InsertPost stores a new post document.
func (m *MongoDB) InsertPost(ctx context.Context, post *models.Post) error {
	if _, err := m.Posts.InsertOne(ctx, ModelToDocument(post)); err != nil {
		return utils.NewDatabaseError("Failed to insert post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(postID)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to get post", err)
	}

	return DocumentToModel(&doc), nil
}

// SavePost replaces the whole aggregate, comments included.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	result, err := m.Posts.ReplaceOne(ctx, bson.M{"_id": post.ID}, ModelToDocument(post))
	if err != nil {
		return utils.NewDatabaseError("Failed to save post", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewPostNotFoundError(post.ID)
	}
	return nil
}

// DeletePost removes the post document and with it every embedded comment.
func (m *MongoDB) DeletePost(ctx context.Context, postID string) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return utils.NewDatabaseError("Failed to delete post", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewPostNotFoundError(postID)
	}
	return nil
}

// GetAllPosts returns every post, newest first.
func (m *MongoDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{})
}

// GetPostsByCreator returns the posts created by one user, newest first.
func (m *MongoDB) GetPostsByCreator(ctx context.Context, creatorID string) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{"postCreator": creatorID})
}

func (m *MongoDB) CountPosts(ctx context.Context) (int64, error) {
	n, err := m.Posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, utils.NewDatabaseError("Failed to count posts", err)
	}
	return n, nil
}

// postListOrder is newest first, ties broken by ascending id like MemoryDB.
var postListOrder = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (m *MongoDB) findPosts(ctx context.Context, filter bson.M) ([]*models.Post, error) {
	opts := options.Find().SetSort(postListOrder)
	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("Post query failed", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			zap.S().Warnf("Error decoding post document: %v", err)
			continue
		}
		posts = append(posts, DocumentToModel(&doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("Post cursor iteration failed", err)
	}
	return posts, nil
}
