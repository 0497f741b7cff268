package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
)

type postDoc struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"user_id"`
	Username         string    `bson:"username"`
	Title            string    `bson:"title"`
	Content          string    `bson:"content"`
	IsPublic         bool      `bson:"is_public"`
	MediaKey         string    `bson:"media_key"`
	DatePosted       time.Time `bson:"datePosted"`
	Likes            []string  `bson:"likes"`
	NumberOfLikes    int       `bson:"number_of_likes"`
	Comments         []string  `bson:"comments"`
	NumberOfComments int       `bson:"number_of_comments"`
}

func newPostDoc(p types.Post) postDoc {
	return postDoc{
		ID:               p.ID.String(),
		UserID:           p.UserID.String(),
		Username:         p.Username,
		Title:            p.Title,
		Content:          p.Content,
		IsPublic:         p.IsPublic,
		MediaKey:         p.MediaKey,
		DatePosted:       p.DatePosted,
		Likes:            types.FormatIDs(p.Likes),
		NumberOfLikes:    len(p.Likes),
		Comments:         types.FormatIDs(p.Comments),
		NumberOfComments: len(p.Comments),
	}
}

func (d postDoc) post() (types.Post, error) {
	var (
		p   types.Post
		err error
	)
	if p.ID, err = types.ParseEntityID(d.ID); err != nil {
		return p, err
	}
	if p.UserID, err = types.ParseEntityID(d.UserID); err != nil {
		return p, err
	}
	if p.Likes, err = types.ParseIDs(d.Likes); err != nil {
		return p, err
	}
	if p.Comments, err = types.ParseIDs(d.Comments); err != nil {
		return p, err
	}
	p.Username = d.Username
	p.Title = d.Title
	p.Content = d.Content
	p.IsPublic = d.IsPublic
	p.MediaKey = d.MediaKey
	p.DatePosted = d.DatePosted
	p.NumberOfLikes = d.NumberOfLikes
	p.NumberOfComments = d.NumberOfComments
	return p, nil
}

func (m *Mongo) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]types.Post, error) {
	cur, err := m.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]types.Post, 0, len(docs))
	for _, d := range docs {
		p, err := d.post()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (m *Mongo) CreatePost(ctx context.Context, post types.Post) error {
	_, err := m.posts.InsertOne(ctx, newPostDoc(post))
	return err
}

func (m *Mongo) GetPost(ctx context.Context, id types.EntityID) (types.Post, error) {
	var doc postDoc
	if err := m.posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return types.Post{}, notFound(err)
	}
	return doc.post()
}

func (m *Mongo) ListPublicPosts(ctx context.Context, offset, limit int) ([]types.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "datePosted", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return m.findPosts(ctx, bson.M{"is_public": true}, opts)
}

func (m *Mongo) CountPublicPosts(ctx context.Context) (int, error) {
	n, err := m.posts.CountDocuments(ctx, bson.M{"is_public": true})
	return int(n), err
}

func (m *Mongo) ListUserPosts(ctx context.Context, userID types.EntityID) ([]types.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "datePosted", Value: -1}})
	return m.findPosts(ctx, bson.M{"user_id": userID.String()}, opts)
}

func (m *Mongo) checkOwner(ctx context.Context, id, ownerID types.EntityID) error {
	post, err := m.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != ownerID {
		return storage.ErrNotOwner
	}
	return nil
}

func (m *Mongo) UpdatePost(ctx context.Context, post types.Post, ownerID types.EntityID) (types.Post, error) {
	if err := m.checkOwner(ctx, post.ID, ownerID); err != nil {
		return types.Post{}, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": post.ID.String(), "user_id": ownerID.String()}
	update := bson.M{"$set": bson.M{
		"title":     post.Title,
		"content":   post.Content,
		"is_public": post.IsPublic,
	}}

	var doc postDoc
	if err := m.posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return types.Post{}, notFound(err)
	}
	return doc.post()
}

func (m *Mongo) DeletePost(ctx context.Context, id, ownerID types.EntityID) (types.Post, error) {
	post, err := m.GetPost(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.UserID != ownerID {
		return types.Post{}, storage.ErrNotOwner
	}

	if _, err := m.comments.DeleteMany(ctx, bson.M{"post_id": id.String()}); err != nil {
		return types.Post{}, err
	}

	res, err := m.posts.DeleteOne(ctx, bson.M{"_id": id.String(), "user_id": ownerID.String()})
	if err != nil {
		return types.Post{}, err
	}
	if res.DeletedCount == 0 {
		return types.Post{}, storage.ErrNotFound
	}
	return post, nil
}

// toggle applies update to the post only when filter matches. Nothing matched
// means either the post is gone or the set is already in the wanted state.
func (m *Mongo) toggle(ctx context.Context, postID types.EntityID, filter, update bson.M) (bool, error) {
	res, err := m.posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	n, err := m.posts.CountDocuments(ctx, bson.M{"_id": postID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, storage.ErrNotFound
	}
	return false, nil
}

func (m *Mongo) AddLike(ctx context.Context, postID, userID types.EntityID) (bool, error) {
	uid := userID.String()
	return m.toggle(ctx, postID,
		bson.M{"_id": postID.String(), "likes": bson.M{"$ne": uid}},
		bson.M{
			"$addToSet": bson.M{"likes": uid},
			"$inc":      bson.M{"number_of_likes": 1},
		})
}

func (m *Mongo) RemoveLike(ctx context.Context, postID, userID types.EntityID) (bool, error) {
	uid := userID.String()
	return m.toggle(ctx, postID,
		bson.M{"_id": postID.String(), "likes": uid},
		bson.M{
			"$pull": bson.M{"likes": uid},
			"$inc":  bson.M{"number_of_likes": -1},
		})
}

func (m *Mongo) DeleteOrphanComments(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: m.posts.Name()},
			{Key: "localField", Value: "post_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "post"},
		}}},
		{{Key: "$match", Value: bson.M{"post": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	}

	cur, err := m.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var orphans []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &orphans); err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	ids := make([]string, len(orphans))
	for i, o := range orphans {
		ids[i] = o.ID
	}
	res, err := m.comments.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) ReconcileCounters(ctx context.Context) (int64, error) {
	if err := m.pruneMissingComments(ctx); err != nil {
		return 0, err
	}

	filter := bson.M{"$expr": bson.M{"$or": bson.A{
		bson.M{"$ne": bson.A{"$number_of_likes", bson.M{"$size": "$likes"}}},
		bson.M{"$ne": bson.A{"$number_of_comments", bson.M{"$size": "$comments"}}},
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "number_of_likes", Value: bson.M{"$size": "$likes"}},
			{Key: "number_of_comments", Value: bson.M{"$size": "$comments"}},
		}}},
	}

	res, err := m.posts.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// pruneMissingComments drops comment ids that point at deleted comments.
func (m *Mongo) pruneMissingComments(ctx context.Context) error {
	opts := options.Find().SetProjection(bson.M{"comments": 1})
	cur, err := m.posts.Find(ctx, bson.M{"comments.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc struct {
			ID       string   `bson:"_id"`
			Comments []string `bson:"comments"`
		}
		if err := cur.Decode(&doc); err != nil {
			return err
		}

		existing, err := m.existingCommentIDs(ctx, doc.Comments)
		if err != nil {
			return err
		}
		if len(existing) == len(doc.Comments) {
			continue
		}

		missing := missingCommentIDs(doc.Comments, existing)
		// $pull leaves ids pushed since the read untouched
		if _, err := m.posts.UpdateOne(ctx, bson.M{"_id": doc.ID},
			bson.M{"$pull": bson.M{"comments": bson.M{"$in": missing}}}); err != nil {
			return err
		}
	}
	return cur.Err()
}

func missingCommentIDs(ids []string, existing map[string]bool) []string {
	missing := make([]string, 0, len(ids)-len(existing))
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func (m *Mongo) existingCommentIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := m.comments.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(docs))
	for _, d := range docs {
		found[d.ID] = true
	}
	return found, nil
}
