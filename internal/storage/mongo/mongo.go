// Package mongo stores users, posts and comments as MongoDB documents. Like
// and comment bookkeeping relies on single-document updates that change a set
// and its counter together ($addToSet/$pull/$push with $inc).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

type Mongo struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewMongo(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	m := &Mongo{
		client:   client,
		users:    db.Collection("users"),
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
	}

	if err := m.createIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("Connected to MongoDB", slog.String("database", cfg.Mongo.Database))
	return m, nil
}

func (m *Mongo) createIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = m.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_public", Value: 1}, {Key: "datePosted", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = m.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return err
}

type userDoc struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	Username      string    `bson:"username"`
	Password      string    `bson:"password"`
	LongestStreak int       `bson:"longest_streak"`
	CreatedAt     time.Time `bson:"created_at"`
}

func (d userDoc) user() (users.User, error) {
	id, err := types.ParseEntityID(d.ID)
	if err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:            id,
		Email:         d.Email,
		Username:      d.Username,
		Password:      d.Password,
		LongestStreak: d.LongestStreak,
		CreatedAt:     d.CreatedAt,
	}, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (users.User, error) {
	var doc userDoc
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return users.User{}, notFound(err)
	}
	return doc.user()
}

func (m *Mongo) CreateUser(ctx context.Context, user users.User) error {
	_, err := m.users.InsertOne(ctx, userDoc{
		ID:            user.ID.String(),
		Email:         user.Email,
		Username:      user.Username,
		Password:      user.Password,
		LongestStreak: user.LongestStreak,
		CreatedAt:     user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (m *Mongo) GetUserByID(ctx context.Context, id types.EntityID) (users.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *Mongo) GetUserByUsername(ctx context.Context, username string) (users.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *Mongo) UpdateUserInfo(ctx context.Context, id types.EntityID, patch users.Patch) error {
	set := bson.M{}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}

	res, err := m.users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) UpdatePassword(ctx context.Context, id types.EntityID, hashedPassword string) error {
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"password": hashedPassword}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) RaiseLongestStreak(ctx context.Context, id types.EntityID, value int) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	err := m.users.FindOneAndUpdate(ctx, bson.M{"_id": id.String()},
		bson.M{"$max": bson.M{"longest_streak": value}}, opts).Decode(&doc)
	if err != nil {
		return 0, notFound(err)
	}
	return doc.LongestStreak, nil
}

func (m *Mongo) DeleteUser(ctx context.Context, id types.EntityID) error {
	uid := id.String()

	if _, err := m.GetUserByID(ctx, id); err != nil {
		return err
	}

	// comments under the user's posts, then the posts
	postIDs, err := m.userPostIDs(ctx, uid)
	if err != nil {
		return err
	}
	if len(postIDs) > 0 {
		if _, err := m.comments.DeleteMany(ctx, bson.M{"post_id": bson.M{"$in": postIDs}}); err != nil {
			return err
		}
		if _, err := m.posts.DeleteMany(ctx, bson.M{"user_id": uid}); err != nil {
			return err
		}
	}

	// the user's comments on other posts
	cur, err := m.comments.Find(ctx, bson.M{"user_id": uid})
	if err != nil {
		return err
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return err
	}
	for _, c := range docs {
		if err := m.detachComment(ctx, c.ID, c.PostID); err != nil {
			return err
		}
	}
	if _, err := m.comments.DeleteMany(ctx, bson.M{"user_id": uid}); err != nil {
		return err
	}

	if _, err := m.posts.UpdateMany(ctx, bson.M{"likes": uid}, bson.M{
		"$pull": bson.M{"likes": uid},
		"$inc":  bson.M{"number_of_likes": -1},
	}); err != nil {
		return err
	}

	res, err := m.users.DeleteOne(ctx, bson.M{"_id": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) userPostIDs(ctx context.Context, uid string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := m.posts.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, err
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ storage.Storage = (*Mongo)(nil)
