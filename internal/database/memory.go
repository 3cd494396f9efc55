package database

import (
	"context"
	"sort"
	"sync"

	"post-board/internal/models"
	"post-board/internal/utils"
)

// MemoryDB is an in-process DBAdapter. Posts are cloned on the way in and
// out so callers never share state with the store.
type MemoryDB struct {
	mu              sync.RWMutex
	posts           map[string]*models.Post
	users           map[string]*models.User
	usersByUsername map[string]string
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		posts:           make(map[string]*models.Post),
		users:           make(map[string]*models.User),
		usersByUsername: make(map[string]string),
	}
}

func (m *MemoryDB) Close(ctx context.Context) error { return nil }

func (m *MemoryDB) InsertPost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.posts[post.ID]; exists {
		return utils.NewDatabaseError("Failed to insert post", nil)
	}
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *MemoryDB) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	post, ok := m.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID)
	}
	return post.Clone(), nil
}

func (m *MemoryDB) SavePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; !ok {
		return utils.NewPostNotFoundError(post.ID)
	}
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *MemoryDB) DeletePost(ctx context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return utils.NewPostNotFoundError(postID)
	}
	delete(m.posts, postID)
	return nil
}

func (m *MemoryDB) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	return m.filterPosts(func(*models.Post) bool { return true }), nil
}

func (m *MemoryDB) GetPostsByCreator(ctx context.Context, creatorID string) ([]*models.Post, error) {
	return m.filterPosts(func(p *models.Post) bool { return p.CreatorID == creatorID }), nil
}

func (m *MemoryDB) CountPosts(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.posts)), nil
}

func (m *MemoryDB) filterPosts(keep func(*models.Post) bool) []*models.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		if keep(post) {
			posts = append(posts, post.Clone())
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (m *MemoryDB) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.usersByUsername[user.Username]; taken {
		return utils.NewAppError(utils.ErrDuplicateUsername, "Username already exists", nil)
	}
	stored := *user
	m.users[user.ID] = &stored
	m.usersByUsername[user.Username] = user.ID
	return nil
}

func (m *MemoryDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "User not found", nil)
	}
	out := *user
	return &out, nil
}

func (m *MemoryDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.usersByUsername[username]
	m.mu.RUnlock()
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "User not found", nil)
	}
	return m.GetUser(ctx, id)
}

var _ DBAdapter = (*MemoryDB)(nil)
