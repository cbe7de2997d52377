package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresStore is the gorm-backed Store. Reaction and follow sets live in
// their own tables so that every toggle is a row insert or delete.
type PostgresStore struct {
	db *gorm.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a connection pool for dsn.
func NewPostgresStore(dsn string, logLevel logger.LogLevel) (*PostgresStore, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing gorm handle.
func NewPostgresStoreFromDB(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.UserFollow{},
		&models.CategoryFollow{},
		&models.Reaction{},
	)
	if err != nil {
		return fmt.Errorf("error migrating tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Health reports pool statistics alongside the connection status.
func (s *PostgresStore) Health(ctx context.Context) map[string]string {
	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	dbStats := sqlDB.Stats()
	stats["status"] = "up"
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

func (s *PostgresStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// --- users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	user.UsernameKey = strings.ToLower(user.Username)
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	users := []models.User{user}
	if err := s.loadFollows(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username_key = ?", strings.ToLower(username)).Error
	if err != nil {
		return nil, translate(err)
	}
	users := []models.User{user}
	if err := s.loadFollows(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (s *PostgresStore) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		u.FollowedUsers = nonNil(u.FollowedUsers)
		u.FollowedCategories = nonNil(u.FollowedCategories)
		out[u.ID] = u
	}
	return out, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username_key asc").Find(&users).Error; err != nil {
		return nil, err
	}
	if err := s.loadFollows(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// loadFollows fills the follow sets of users from the edge tables.
func (s *PostgresStore) loadFollows(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	index := make(map[string]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		index[users[i].ID] = i
		users[i].FollowedUsers = []string{}
		users[i].FollowedCategories = []string{}
	}

	var userEdges []models.UserFollow
	err := s.db.WithContext(ctx).
		Where("follower_id IN ?", ids).
		Order("created_at asc").
		Find(&userEdges).Error
	if err != nil {
		return fmt.Errorf("load followed users: %w", err)
	}
	for _, e := range userEdges {
		u := &users[index[e.FollowerID]]
		u.FollowedUsers = append(u.FollowedUsers, e.FollowedID)
	}

	var categoryEdges []models.CategoryFollow
	err = s.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("created_at asc").
		Find(&categoryEdges).Error
	if err != nil {
		return fmt.Errorf("load followed categories: %w", err)
	}
	for _, e := range categoryEdges {
		u := &users[index[e.UserID]]
		u.FollowedCategories = append(u.FollowedCategories, e.CategoryID)
	}
	return nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id, bio, avatar string) (*models.User, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"bio": bio, "avatar": avatar})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.UserByID(ctx, id)
}

func (s *PostgresStore) ToggleFollow(ctx context.Context, followerID string, target models.Target) (bool, error) {
	var following bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.User{}, followerID); err != nil {
			return err
		}

		var edge any
		var where *gorm.DB
		switch target.Kind {
		case models.TargetUser:
			if err := exists(tx, &models.User{}, target.ID); err != nil {
				return err
			}
			edge = &models.UserFollow{FollowerID: followerID, FollowedID: target.ID, CreatedAt: time.Now().UTC()}
			where = tx.Where("follower_id = ? AND followed_id = ?", followerID, target.ID)
		case models.TargetCategory:
			if err := exists(tx, &models.Category{}, target.ID); err != nil {
				return err
			}
			edge = &models.CategoryFollow{UserID: followerID, CategoryID: target.ID, CreatedAt: time.Now().UTC()}
			where = tx.Where("user_id = ? AND category_id = ?", followerID, target.ID)
		default:
			return ErrNotFound
		}

		res := where.Delete(edge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = false
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error; err != nil {
			return err
		}
		following = true
		return nil
	})
	return following, translate(err)
}

// exists returns ErrNotFound unless a row of model's table has the given id.
func exists(tx *gorm.DB, model any, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- categories ---

func (s *PostgresStore) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(category).Error)
}

func (s *PostgresStore) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *PostgresStore) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *PostgresStore) CategoriesByIDs(ctx context.Context, ids []string) (map[string]models.Category, error) {
	out := make(map[string]models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var categories []models.Category
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// --- posts ---

func reactionRows(kind models.TargetKind, id string, likes, dislikes []string, at time.Time) []models.Reaction {
	rows := make([]models.Reaction, 0, len(likes)+len(dislikes))
	for _, u := range likes {
		rows = append(rows, models.Reaction{TargetType: kind, TargetID: id, UserID: u, Direction: models.Like, CreatedAt: at})
	}
	for _, u := range dislikes {
		rows = append(rows, models.Reaction{TargetType: kind, TargetID: id, UserID: u, Direction: models.Dislike, CreatedAt: at})
	}
	return rows
}

func (s *PostgresStore) CreatePost(ctx context.Context, post *models.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		rows := reactionRows(models.TargetPost, post.ID, post.Likes, post.Dislikes, post.CreatedAt)
		if len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
	return translate(err)
}

func (s *PostgresStore) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	posts := []models.Post{post}
	if err := s.loadPostSets(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostgresStore) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	db := s.db.WithContext(ctx).Model(&models.Post{})

	switch {
	case q.AuthorID != "":
		db = db.Where("author_id = ?", q.AuthorID)
	case q.CategoryID != "":
		db = db.Where("category_id = ?", q.CategoryID)
	case q.InFollowedCategoriesOf != "":
		sub := s.db.Model(&models.CategoryFollow{}).Select("category_id").Where("user_id = ?", q.InFollowedCategoriesOf)
		db = db.Where("category_id IN (?)", sub)
	case q.ByFollowedUsersOf != "":
		sub := s.db.Model(&models.UserFollow{}).Select("followed_id").Where("follower_id = ?", q.ByFollowedUsersOf)
		db = db.Where("author_id IN (?)", sub)
	case q.LikedBy != "":
		sub := s.db.Model(&models.Reaction{}).Select("target_id").
			Where("target_type = ? AND user_id = ? AND direction = ?", models.TargetPost, q.LikedBy, models.Like)
		db = db.Where("id IN (?)", sub)
	}

	db = db.Order("created_at desc").Offset(q.Skip)
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var posts []models.Post
	if err := db.Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := s.loadPostSets(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// loadPostSets fills likes, dislikes and comment IDs for posts.
func (s *PostgresStore) loadPostSets(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Likes = []string{}
		posts[i].Dislikes = []string{}
		posts[i].CommentIDs = []string{}
	}

	var reactions []models.Reaction
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", models.TargetPost, ids).
		Order("created_at asc").
		Find(&reactions).Error
	if err != nil {
		return fmt.Errorf("load post reactions: %w", err)
	}
	for _, r := range reactions {
		p := &posts[index[r.TargetID]]
		if r.Direction == models.Like {
			p.Likes = append(p.Likes, r.UserID)
		} else {
			p.Dislikes = append(p.Dislikes, r.UserID)
		}
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Select("id", "post_id").
		Where("post_id IN ?", ids).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return fmt.Errorf("load post comments: %w", err)
	}
	for _, c := range comments {
		p := &posts[index[c.PostID]]
		p.CommentIDs = append(p.CommentIDs, c.ID)
	}
	return nil
}

// --- comments ---

func (s *PostgresStore) AddComment(ctx context.Context, comment *models.Comment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Post{}, comment.PostID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		rows := reactionRows(models.TargetComment, comment.ID, comment.Likes, comment.Dislikes, comment.CreatedAt)
		if len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
	return translate(err)
}

func (s *PostgresStore) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	comments := []models.Comment{c}
	if err := s.loadCommentSets(ctx, comments); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

func (s *PostgresStore) CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at desc").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if err := s.loadCommentSets(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *PostgresStore) loadCommentSets(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]string, len(comments))
	index := make(map[string]int, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
		index[comments[i].ID] = i
		comments[i].Likes = []string{}
		comments[i].Dislikes = []string{}
	}

	var reactions []models.Reaction
	err := s.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", models.TargetComment, ids).
		Order("created_at asc").
		Find(&reactions).Error
	if err != nil {
		return fmt.Errorf("load comment reactions: %w", err)
	}
	for _, r := range reactions {
		c := &comments[index[r.TargetID]]
		if r.Direction == models.Like {
			c.Likes = append(c.Likes, r.UserID)
		} else {
			c.Dislikes = append(c.Dislikes, r.UserID)
		}
	}
	return nil
}

// --- reactions ---

// ApplyReaction deletes the caller's reaction if it already points the same
// way; otherwise it upserts the single (target, user) row to dir, which
// replaces an opposite reaction in the same statement.
func (s *PostgresStore) ApplyReaction(ctx context.Context, target models.Target, userID string, dir models.Direction) (models.Outcome, error) {
	var model any
	switch target.Kind {
	case models.TargetPost:
		model = &models.Post{}
	case models.TargetComment:
		model = &models.Comment{}
	default:
		return 0, ErrNotFound
	}

	var outcome models.Outcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, model, target.ID); err != nil {
			return err
		}

		res := tx.Where("target_type = ? AND target_id = ? AND user_id = ? AND direction = ?",
			target.Kind, target.ID, userID, dir).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome = models.Unreacted
			return nil
		}

		row := models.Reaction{
			TargetType: target.Kind,
			TargetID:   target.ID,
			UserID:     userID,
			Direction:  dir,
			CreatedAt:  time.Now().UTC(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"direction", "created_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		outcome = models.Reacted
		return nil
	})
	return outcome, translate(err)
}

// --- stats ---

func (s *PostgresStore) Count(ctx context.Context, kind CountKind, id string) (int64, error) {
	db := s.db.WithContext(ctx)
	reactions := func(target models.TargetKind, dir models.Direction) *gorm.DB {
		return db.Model(&models.Reaction{}).
			Where("target_type = ? AND user_id = ? AND direction = ?", target, id, dir)
	}

	var q *gorm.DB
	switch kind {
	case PostsByAuthor:
		q = db.Model(&models.Post{}).Where("author_id = ?", id)
	case PostsLikedBy:
		q = reactions(models.TargetPost, models.Like)
	case PostsDislikedBy:
		q = reactions(models.TargetPost, models.Dislike)
	case CommentsByAuthor:
		q = db.Model(&models.Comment{}).Where("author_id = ?", id)
	case CommentsLikedBy:
		q = reactions(models.TargetComment, models.Like)
	case CommentsDislikedBy:
		q = reactions(models.TargetComment, models.Dislike)
	case FollowersOfUser:
		q = db.Model(&models.UserFollow{}).Where("followed_id = ?", id)
	case PostsInCategory:
		q = db.Model(&models.Post{}).Where("category_id = ?", id)
	case FollowersOfCategory:
		q = db.Model(&models.CategoryFollow{}).Where("category_id = ?", id)
	default:
		return 0, fmt.Errorf("unknown count %v", kind)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %v: %w", kind, err)
	}
	return n, nil
}
