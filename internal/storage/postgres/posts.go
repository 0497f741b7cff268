package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
)

const postColumns = `id, user_id, username, title, content, is_public, media_key, date_posted,
	likes, number_of_likes, comments, number_of_comments`

const detachCommentQuery = `
	UPDATE posts
	SET comments = array_remove(comments, $1::uuid), number_of_comments = number_of_comments - 1
	WHERE id = $2 AND $1::uuid = ANY(comments)
`

func scanPost(row rowScanner) (types.Post, error) {
	var (
		post            types.Post
		id, userID      string
		likes, comments []string
	)

	err := row.Scan(&id, &userID, &post.Username, &post.Title, &post.Content, &post.IsPublic,
		&post.MediaKey, &post.DatePosted, pq.Array(&likes), &post.NumberOfLikes,
		pq.Array(&comments), &post.NumberOfComments)
	if err != nil {
		return types.Post{}, notFound(err)
	}

	if post.ID, err = types.ParseEntityID(id); err != nil {
		return types.Post{}, err
	}
	if post.UserID, err = types.ParseEntityID(userID); err != nil {
		return types.Post{}, err
	}
	if post.Likes, err = types.ParseIDs(likes); err != nil {
		return types.Post{}, err
	}
	if post.Comments, err = types.ParseIDs(comments); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (p *Postgres) queryPosts(ctx context.Context, query string, args ...any) ([]types.Post, error) {
	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Postgres) CreatePost(ctx context.Context, post types.Post) error {
	query := `
	INSERT INTO posts (id, user_id, username, title, content, is_public, media_key, date_posted,
		likes, number_of_likes, comments, number_of_comments)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::uuid[], $10, $11::uuid[], $12)
	`

	_, err := p.Db.ExecContext(ctx, query,
		post.ID.String(), post.UserID.String(), post.Username, post.Title, post.Content,
		post.IsPublic, post.MediaKey, post.DatePosted,
		pq.Array(types.FormatIDs(post.Likes)), len(post.Likes),
		pq.Array(types.FormatIDs(post.Comments)), len(post.Comments))
	return err
}

func (p *Postgres) GetPost(ctx context.Context, id types.EntityID) (types.Post, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id.String())
	return scanPost(row)
}

func (p *Postgres) ListPublicPosts(ctx context.Context, offset, limit int) ([]types.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE is_public ORDER BY date_posted DESC OFFSET $1`
	if limit <= 0 {
		return p.queryPosts(ctx, query, offset)
	}
	return p.queryPosts(ctx, query+` LIMIT $2`, offset, limit)
}

func (p *Postgres) CountPublicPosts(ctx context.Context) (int, error) {
	var n int
	err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE is_public`).Scan(&n)
	return n, err
}

func (p *Postgres) ListUserPosts(ctx context.Context, userID types.EntityID) ([]types.Post, error) {
	return p.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE user_id = $1 ORDER BY date_posted DESC`, userID.String())
}

// ownerOf locks the post row and returns its owner.
func ownerOf(ctx context.Context, tx *sql.Tx, id types.EntityID) (types.EntityID, error) {
	var owner string
	err := tx.QueryRowContext(ctx, `SELECT user_id FROM posts WHERE id = $1 FOR UPDATE`, id.String()).Scan(&owner)
	if err != nil {
		return types.NilID, notFound(err)
	}
	return types.ParseEntityID(owner)
}

func (p *Postgres) UpdatePost(ctx context.Context, post types.Post, ownerID types.EntityID) (types.Post, error) {
	var updated types.Post

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		owner, err := ownerOf(ctx, tx, post.ID)
		if err != nil {
			return err
		}
		if owner != ownerID {
			return storage.ErrNotOwner
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE posts SET title = $2, content = $3, is_public = $4
			WHERE id = $1
			RETURNING `+postColumns,
			post.ID.String(), post.Title, post.Content, post.IsPublic)
		updated, err = scanPost(row)
		return err
	})
	return updated, err
}

func (p *Postgres) DeletePost(ctx context.Context, id, ownerID types.EntityID) (types.Post, error) {
	var deleted types.Post

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		owner, err := ownerOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if owner != ownerID {
			return storage.ErrNotOwner
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, id.String()); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `DELETE FROM posts WHERE id = $1 RETURNING `+postColumns, id.String())
		deleted, err = scanPost(row)
		return err
	})
	return deleted, err
}

func (p *Postgres) postExists(ctx context.Context, id types.EntityID) (bool, error) {
	var exists bool
	err := p.Db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id.String()).Scan(&exists)
	return exists, err
}

// toggle runs a single conditional UPDATE. When nothing matched it tells a
// missing post apart from a set that was already in the requested state.
func (p *Postgres) toggle(ctx context.Context, query string, postID, userID types.EntityID) (bool, error) {
	res, err := p.Db.ExecContext(ctx, query, postID.String(), userID.String())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	exists, err := p.postExists(ctx, postID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, storage.ErrNotFound
	}
	return false, nil
}

func (p *Postgres) AddLike(ctx context.Context, postID, userID types.EntityID) (bool, error) {
	return p.toggle(ctx, `
		UPDATE posts
		SET likes = array_append(likes, $2::uuid), number_of_likes = number_of_likes + 1
		WHERE id = $1 AND NOT ($2::uuid = ANY(likes))
	`, postID, userID)
}

func (p *Postgres) RemoveLike(ctx context.Context, postID, userID types.EntityID) (bool, error) {
	return p.toggle(ctx, `
		UPDATE posts
		SET likes = array_remove(likes, $2::uuid), number_of_likes = number_of_likes - 1
		WHERE id = $1 AND $2::uuid = ANY(likes)
	`, postID, userID)
}

func (p *Postgres) DeleteOrphanComments(ctx context.Context) (int64, error) {
	res, err := p.Db.ExecContext(ctx, `
		DELETE FROM comments c
		WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.id = c.post_id)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const pruneMissingCommentsQuery = `
	WITH missing AS (
		SELECT p.id, array_agg(u.c) AS ids
		FROM posts p, unnest(p.comments) AS u(c)
		WHERE NOT EXISTS (SELECT 1 FROM comments WHERE id = u.c)
		GROUP BY p.id
	)
	UPDATE posts p
	SET comments = ARRAY(
		SELECT t.c FROM unnest(p.comments) WITH ORDINALITY AS t(c, ord)
		WHERE t.c <> ALL(m.ids)
		ORDER BY t.ord
	)
	FROM missing m
	WHERE p.id = m.id
`

func (p *Postgres) ReconcileCounters(ctx context.Context) (int64, error) {
	var total int64

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		// only ids found missing are removed; an id appended by a concurrent
		// comment is kept when the row is re-checked
		if _, err := tx.ExecContext(ctx, pruneMissingCommentsQuery); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET number_of_likes = cardinality(likes), number_of_comments = cardinality(comments)
			WHERE number_of_likes <> cardinality(likes) OR number_of_comments <> cardinality(comments)
		`)
		if err != nil {
			return err
		}
		total, err = res.RowsAffected()
		return err
	})
	return total, err
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

var _ storage.Storage = (*Postgres)(nil)
