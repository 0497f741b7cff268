package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
)

type commentDoc struct {
	ID         string    `bson:"_id"`
	PostID     string    `bson:"post_id"`
	UserID     string    `bson:"user_id"`
	Username   string    `bson:"username"`
	Body       string    `bson:"body"`
	DatePosted time.Time `bson:"date_posted"`
}

func (d commentDoc) comment() (types.Comment, error) {
	var (
		c   types.Comment
		err error
	)
	if c.ID, err = types.ParseEntityID(d.ID); err != nil {
		return c, err
	}
	if c.PostID, err = types.ParseEntityID(d.PostID); err != nil {
		return c, err
	}
	if c.UserID, err = types.ParseEntityID(d.UserID); err != nil {
		return c, err
	}
	c.Username = d.Username
	c.Body = d.Body
	c.DatePosted = d.DatePosted
	return c, nil
}

func (m *Mongo) CreateComment(ctx context.Context, comment types.Comment) error {
	_, err := m.comments.InsertOne(ctx, commentDoc{
		ID:         comment.ID.String(),
		PostID:     comment.PostID.String(),
		UserID:     comment.UserID.String(),
		Username:   comment.Username,
		Body:       comment.Body,
		DatePosted: comment.DatePosted,
	})
	if err != nil {
		return err
	}

	res, err := m.posts.UpdateOne(ctx, bson.M{"_id": comment.PostID.String()}, bson.M{
		"$push": bson.M{"comments": comment.ID.String()},
		"$inc":  bson.M{"number_of_comments": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// the post vanished; do not leave the comment behind
		if _, err := m.comments.DeleteOne(ctx, bson.M{"_id": comment.ID.String()}); err != nil {
			slog.Warn("Failed to remove comment of a vanished post",
				slog.String("comment_id", comment.ID.String()),
				slog.String("post_id", comment.PostID.String()),
				slog.String("error", err.Error()))
		}
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) GetComment(ctx context.Context, id types.EntityID) (types.Comment, error) {
	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return types.Comment{}, notFound(err)
	}
	return doc.comment()
}

func (m *Mongo) UpdateComment(ctx context.Context, id, authorID types.EntityID, body string) (types.Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id.String(), "user_id": authorID.String()}

	var doc commentDoc
	err := m.comments.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"body": body}}, opts).Decode(&doc)
	if err == nil {
		return doc.comment()
	}
	if notFound(err) != storage.ErrNotFound {
		return types.Comment{}, err
	}

	if _, getErr := m.GetComment(ctx, id); getErr == nil {
		return types.Comment{}, storage.ErrNotOwner
	}
	return types.Comment{}, storage.ErrNotFound
}

func (m *Mongo) DeleteComment(ctx context.Context, id, authorID, postID types.EntityID) (bool, error) {
	res, err := m.comments.DeleteOne(ctx, bson.M{
		"_id":     id.String(),
		"user_id": authorID.String(),
		"post_id": postID.String(),
	})
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 0 {
		return false, nil
	}

	if err := m.detachComment(ctx, id.String(), postID.String()); err != nil {
		return false, err
	}
	return true, nil
}

// detachComment removes a comment id from its post and decrements the counter
// in one update.
func (m *Mongo) detachComment(ctx context.Context, commentID, postID string) error {
	_, err := m.posts.UpdateOne(ctx, bson.M{"_id": postID, "comments": commentID}, bson.M{
		"$pull": bson.M{"comments": commentID},
		"$inc":  bson.M{"number_of_comments": -1},
	})
	return err
}

func (m *Mongo) ListComments(ctx context.Context, postID types.EntityID) ([]types.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_posted", Value: 1}})
	cur, err := m.comments.Find(ctx, bson.M{"post_id": postID.String()}, opts)
	if err != nil {
		return nil, err
	}

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	comments := make([]types.Comment, 0, len(docs))
	for _, d := range docs {
		c, err := d.comment()
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
