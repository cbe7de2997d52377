package database

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// MemoryStore keeps everything in process. It backs DB_TYPE=memory and the
// package tests across the module. A single lock makes every method atomic.
type MemoryStore struct {
	mu sync.RWMutex

	users      map[string]*models.User
	usernames  map[string]string
	categories map[string]*models.Category
	catSlugs   map[string]string
	posts      map[string]*models.Post
	postSlugs  map[string]string
	postOrder  []string
	comments   map[string]*models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*models.User),
		usernames:  make(map[string]string),
		categories: make(map[string]*models.Category),
		catSlugs:   make(map[string]string),
		posts:      make(map[string]*models.Post),
		postSlugs:  make(map[string]string),
		comments:   make(map[string]*models.Comment),
	}
}

var _ Store = (*MemoryStore)(nil)

func cloneUser(u *models.User) *models.User {
	c := *u
	c.FollowedUsers = nonNil(slices.Clone(u.FollowedUsers))
	c.FollowedCategories = nonNil(slices.Clone(u.FollowedCategories))
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = nonNil(slices.Clone(p.Likes))
	c.Dislikes = nonNil(slices.Clone(p.Dislikes))
	c.CommentIDs = nonNil(slices.Clone(p.CommentIDs))
	return &c
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	c.Likes = nonNil(slices.Clone(cm.Likes))
	c.Dislikes = nonNil(slices.Clone(cm.Dislikes))
	return &c
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, taken := m.usernames[key]; taken {
		return ErrDuplicate
	}
	user.UsernameKey = key
	m.users[user.ID] = cloneUser(user)
	m.usernames[key] = user.ID
	return nil
}

func (m *MemoryStore) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(m.users[id]), nil
}

func (m *MemoryStore) UsersByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = *cloneUser(u)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UsernameKey < out[j].UsernameKey })
	return out, nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id, bio, avatar string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Bio = bio
	u.Avatar = avatar
	return cloneUser(u), nil
}

func (m *MemoryStore) ToggleFollow(_ context.Context, followerID string, target models.Target) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	follower, ok := m.users[followerID]
	if !ok {
		return false, ErrNotFound
	}

	var set *[]string
	switch target.Kind {
	case models.TargetUser:
		if _, ok := m.users[target.ID]; !ok {
			return false, ErrNotFound
		}
		set = &follower.FollowedUsers
	case models.TargetCategory:
		if _, ok := m.categories[target.ID]; !ok {
			return false, ErrNotFound
		}
		set = &follower.FollowedCategories
	default:
		return false, ErrNotFound
	}

	if i := slices.Index(*set, target.ID); i >= 0 {
		*set = slices.Delete(*set, i, i+1)
		return false, nil
	}
	*set = append(*set, target.ID)
	return true, nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.catSlugs[category.Slug]; taken {
		return ErrDuplicate
	}
	c := *category
	m.categories[c.ID] = &c
	m.catSlugs[c.Slug] = c.ID
	return nil
}

func (m *MemoryStore) CategoryByID(_ context.Context, id string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *MemoryStore) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.catSlugs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m.categories[id]
	return &out, nil
}

func (m *MemoryStore) CategoriesByIDs(_ context.Context, ids []string) (map[string]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]models.Category, len(ids))
	for _, id := range ids {
		if c, ok := m.categories[id]; ok {
			out[id] = *c
		}
	}
	return out, nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.postSlugs[post.Slug]; taken {
		return ErrDuplicate
	}
	m.posts[post.ID] = clonePost(post)
	m.postSlugs[post.Slug] = post.ID
	m.postOrder = append(m.postOrder, post.ID)
	return nil
}

func (m *MemoryStore) PostBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.postSlugs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(m.posts[id]), nil
}

func (m *MemoryStore) ListPosts(_ context.Context, q PostQuery) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match := func(p *models.Post) bool { return true }
	switch {
	case q.AuthorID != "":
		match = func(p *models.Post) bool { return p.AuthorID == q.AuthorID }
	case q.CategoryID != "":
		match = func(p *models.Post) bool { return p.CategoryID == q.CategoryID }
	case q.InFollowedCategoriesOf != "":
		var followed []string
		if u, ok := m.users[q.InFollowedCategoriesOf]; ok {
			followed = u.FollowedCategories
		}
		match = func(p *models.Post) bool { return slices.Contains(followed, p.CategoryID) }
	case q.ByFollowedUsersOf != "":
		var followed []string
		if u, ok := m.users[q.ByFollowedUsersOf]; ok {
			followed = u.FollowedUsers
		}
		match = func(p *models.Post) bool { return slices.Contains(followed, p.AuthorID) }
	case q.LikedBy != "":
		match = func(p *models.Post) bool { return slices.Contains(p.Likes, q.LikedBy) }
	}

	// Newest insertion first, then a stable sort on created_at.
	var out []models.Post
	for i := len(m.postOrder) - 1; i >= 0; i-- {
		p := m.posts[m.postOrder[i]]
		if match(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return paginate(out, q.Skip, q.Limit), nil
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *MemoryStore) AddComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[comment.PostID]
	if !ok {
		return ErrNotFound
	}
	m.comments[comment.ID] = cloneComment(comment)
	post.CommentIDs = append(post.CommentIDs, comment.ID)
	return nil
}

func (m *MemoryStore) CommentByID(_ context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneComment(c), nil
}

func (m *MemoryStore) CommentsByPost(_ context.Context, postID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[postID]
	if !ok {
		return []models.Comment{}, nil
	}
	out := make([]models.Comment, 0, len(post.CommentIDs))
	for i := len(post.CommentIDs) - 1; i >= 0; i-- {
		if c, ok := m.comments[post.CommentIDs[i]]; ok {
			out = append(out, *cloneComment(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ApplyReaction(_ context.Context, target models.Target, userID string, dir models.Direction) (models.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var likes, dislikes *[]string
	switch target.Kind {
	case models.TargetPost:
		p, ok := m.posts[target.ID]
		if !ok {
			return 0, ErrNotFound
		}
		likes, dislikes = &p.Likes, &p.Dislikes
	case models.TargetComment:
		c, ok := m.comments[target.ID]
		if !ok {
			return 0, ErrNotFound
		}
		likes, dislikes = &c.Likes, &c.Dislikes
	default:
		return 0, ErrNotFound
	}

	same, opposite := likes, dislikes
	if dir == models.Dislike {
		same, opposite = dislikes, likes
	}

	if i := slices.Index(*same, userID); i >= 0 {
		*same = slices.Delete(*same, i, i+1)
		return models.Unreacted, nil
	}
	if i := slices.Index(*opposite, userID); i >= 0 {
		*opposite = slices.Delete(*opposite, i, i+1)
	}
	*same = append(*same, userID)
	return models.Reacted, nil
}

func (m *MemoryStore) Count(_ context.Context, kind CountKind, id string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	switch kind {
	case PostsByAuthor, PostsLikedBy, PostsDislikedBy, PostsInCategory:
		for _, p := range m.posts {
			if (kind == PostsByAuthor && p.AuthorID == id) ||
				(kind == PostsLikedBy && slices.Contains(p.Likes, id)) ||
				(kind == PostsDislikedBy && slices.Contains(p.Dislikes, id)) ||
				(kind == PostsInCategory && p.CategoryID == id) {
				n++
			}
		}
	case CommentsByAuthor, CommentsLikedBy, CommentsDislikedBy:
		for _, c := range m.comments {
			if (kind == CommentsByAuthor && c.AuthorID == id) ||
				(kind == CommentsLikedBy && slices.Contains(c.Likes, id)) ||
				(kind == CommentsDislikedBy && slices.Contains(c.Dislikes, id)) {
				n++
			}
		}
	case FollowersOfUser:
		for _, u := range m.users {
			if slices.Contains(u.FollowedUsers, id) {
				n++
			}
		}
	case FollowersOfCategory:
		for _, u := range m.users {
			if slices.Contains(u.FollowedCategories, id) {
				n++
			}
		}
	}
	return n, nil
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }
