package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// MongoStore keeps each entity as a document with its sets embedded as
// arrays. Set membership only ever changes through $addToSet and $pull on a
// single document, which MongoDB applies atomically.
type MongoStore struct {
	Client     *mongo.Client
	Users      *mongo.Collection
	Categories *mongo.Collection
	Posts      *mongo.Collection
	Comments   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to uri and uses database name.
func NewMongoStore(ctx context.Context, uri, name string) (*MongoStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(name)
	return &MongoStore{
		Client:     client,
		Users:      db.Collection("users"),
		Categories: db.Collection("categories"),
		Posts:      db.Collection("posts"),
		Comments:   db.Collection("comments"),
	}, nil
}

func (m *MongoStore) Migrate(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.Users, mongo.IndexModel{Keys: bson.D{{Key: "username_key", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{m.Users, mongo.IndexModel{Keys: bson.D{{Key: "followed_users", Value: 1}}}},
		{m.Users, mongo.IndexModel{Keys: bson.D{{Key: "followed_categories", Value: 1}}}},
		{m.Categories, mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "author", Value: 1}}}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}}}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "likes", Value: 1}}}},
		{m.Posts, mongo.IndexModel{Keys: bson.D{{Key: "dislikes", Value: 1}}}},
		{m.Comments, mongo.IndexModel{Keys: bson.D{{Key: "post", Value: 1}, {Key: "created_at", Value: -1}}}},
		{m.Comments, mongo.IndexModel{Keys: bson.D{{Key: "author", Value: 1}}}},
		{m.Comments, mongo.IndexModel{Keys: bson.D{{Key: "likes", Value: 1}}}},
		{m.Comments, mongo.IndexModel{Keys: bson.D{{Key: "dislikes", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, mongoErr(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- users ---

func (m *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	user.UsernameKey = strings.ToLower(user.Username)
	user.FollowedUsers = nonNil(user.FollowedUsers)
	user.FollowedCategories = nonNil(user.FollowedCategories)
	_, err := m.Users.InsertOne(ctx, user)
	return mongoErr(err)
}

func (m *MongoStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, m.Users, bson.M{"_id": id})
}

func (m *MongoStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, m.Users, bson.M{"username_key": strings.ToLower(username)})
}

func (m *MongoStore) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := findAll[models.User](ctx, m.Users, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (m *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, m.Users, bson.M{}, options.Find().SetSort(bson.D{{Key: "username_key", Value: 1}}))
}

func (m *MongoStore) UpdateProfile(ctx context.Context, id, bio, avatar string) (*models.User, error) {
	var user models.User
	err := m.Users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"bio": bio, "avatar": avatar}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

func (m *MongoStore) ToggleFollow(ctx context.Context, followerID string, target models.Target) (bool, error) {
	var field string
	var coll *mongo.Collection
	switch target.Kind {
	case models.TargetUser:
		field, coll = "followed_users", m.Users
	case models.TargetCategory:
		field, coll = "followed_categories", m.Categories
	default:
		return false, ErrNotFound
	}

	n, err := coll.CountDocuments(ctx, bson.M{"_id": target.ID})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}

	res, err := m.Users.UpdateOne(ctx,
		bson.M{"_id": followerID, field: target.ID},
		bson.M{"$pull": bson.M{field: target.ID}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return false, nil
	}

	res, err = m.Users.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$addToSet": bson.M{field: target.ID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

// --- categories ---

func (m *MongoStore) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := m.Categories.InsertOne(ctx, category)
	return mongoErr(err)
}

func (m *MongoStore) CategoryByID(ctx context.Context, id string) (*models.Category, error) {
	return findOne[models.Category](ctx, m.Categories, bson.M{"_id": id})
}

func (m *MongoStore) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return findOne[models.Category](ctx, m.Categories, bson.M{"slug": slug})
}

func (m *MongoStore) CategoriesByIDs(ctx context.Context, ids []string) (map[string]models.Category, error) {
	out := make(map[string]models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	categories, err := findAll[models.Category](ctx, m.Categories, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

func (m *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, m.Categories, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// --- posts ---

func (m *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	post.Likes = nonNil(post.Likes)
	post.Dislikes = nonNil(post.Dislikes)
	post.CommentIDs = nonNil(post.CommentIDs)
	_, err := m.Posts.InsertOne(ctx, post)
	return mongoErr(err)
}

func (m *MongoStore) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return findOne[models.Post](ctx, m.Posts, bson.M{"slug": slug})
}

func (m *MongoStore) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	filter := bson.M{}
	switch {
	case q.AuthorID != "":
		filter["author"] = q.AuthorID
	case q.CategoryID != "":
		filter["category"] = q.CategoryID
	case q.InFollowedCategoriesOf != "":
		u, err := m.UserByID(ctx, q.InFollowedCategoriesOf)
		if err != nil {
			return nil, err
		}
		filter["category"] = bson.M{"$in": nonNil(u.FollowedCategories)}
	case q.ByFollowedUsersOf != "":
		u, err := m.UserByID(ctx, q.ByFollowedUsersOf)
		if err != nil {
			return nil, err
		}
		filter["author"] = bson.M{"$in": nonNil(u.FollowedUsers)}
	case q.LikedBy != "":
		filter["likes"] = q.LikedBy
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(q.Skip))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return findAll[models.Post](ctx, m.Posts, filter, opts)
}

// --- comments ---

func (m *MongoStore) AddComment(ctx context.Context, comment *models.Comment) error {
	comment.Likes = nonNil(comment.Likes)
	comment.Dislikes = nonNil(comment.Dislikes)
	if _, err := m.Comments.InsertOne(ctx, comment); err != nil {
		return mongoErr(err)
	}

	res, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": comment.PostID},
		bson.M{"$push": bson.M{"comments": comment.ID}},
	)
	if err == nil && res.MatchedCount == 0 {
		err = ErrNotFound
	}
	if err != nil {
		// The post vanished or the push failed: drop the orphan.
		_, _ = m.Comments.DeleteOne(ctx, bson.M{"_id": comment.ID})
		return err
	}
	return nil
}

func (m *MongoStore) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return findOne[models.Comment](ctx, m.Comments, bson.M{"_id": id})
}

func (m *MongoStore) CommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	return findAll[models.Comment](ctx, m.Comments, bson.M{"post": postID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// --- reactions ---

// ApplyReaction first tries to pull an identical reaction (toggle off). If
// there was none, one update pulls the opposite reaction and adds this one.
func (m *MongoStore) ApplyReaction(ctx context.Context, target models.Target, userID string, dir models.Direction) (models.Outcome, error) {
	var coll *mongo.Collection
	switch target.Kind {
	case models.TargetPost:
		coll = m.Posts
	case models.TargetComment:
		coll = m.Comments
	default:
		return 0, ErrNotFound
	}

	same, opposite := "likes", "dislikes"
	if dir == models.Dislike {
		same, opposite = opposite, same
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": target.ID, same: userID},
		bson.M{"$pull": bson.M{same: userID}},
	)
	if err != nil {
		return 0, err
	}
	if res.ModifiedCount > 0 {
		return models.Unreacted, nil
	}

	res, err = coll.UpdateOne(ctx,
		bson.M{"_id": target.ID},
		bson.M{
			"$pull":     bson.M{opposite: userID},
			"$addToSet": bson.M{same: userID},
		},
	)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, ErrNotFound
	}
	return models.Reacted, nil
}

// --- stats ---

func (m *MongoStore) Count(ctx context.Context, kind CountKind, id string) (int64, error) {
	var coll *mongo.Collection
	var filter bson.M
	switch kind {
	case PostsByAuthor:
		coll, filter = m.Posts, bson.M{"author": id}
	case PostsLikedBy:
		coll, filter = m.Posts, bson.M{"likes": id}
	case PostsDislikedBy:
		coll, filter = m.Posts, bson.M{"dislikes": id}
	case CommentsByAuthor:
		coll, filter = m.Comments, bson.M{"author": id}
	case CommentsLikedBy:
		coll, filter = m.Comments, bson.M{"likes": id}
	case CommentsDislikedBy:
		coll, filter = m.Comments, bson.M{"dislikes": id}
	case FollowersOfUser:
		coll, filter = m.Users, bson.M{"followed_users": id}
	case PostsInCategory:
		coll, filter = m.Posts, bson.M{"category": id}
	case FollowersOfCategory:
		coll, filter = m.Users, bson.M{"followed_categories": id}
	default:
		return 0, fmt.Errorf("unknown count %v", kind)
	}

	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %v: %w", kind, err)
	}
	return n, nil
}
