package postgres

import (
	"context"
	"database/sql"

	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
)

const commentColumns = `id, post_id, user_id, username, body, date_posted`

func scanComment(row rowScanner) (types.Comment, error) {
	var (
		comment            types.Comment
		id, postID, userID string
	)

	err := row.Scan(&id, &postID, &userID, &comment.Username, &comment.Body, &comment.DatePosted)
	if err != nil {
		return types.Comment{}, notFound(err)
	}

	if comment.ID, err = types.ParseEntityID(id); err != nil {
		return types.Comment{}, err
	}
	if comment.PostID, err = types.ParseEntityID(postID); err != nil {
		return types.Comment{}, err
	}
	if comment.UserID, err = types.ParseEntityID(userID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

func (p *Postgres) CreateComment(ctx context.Context, comment types.Comment) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comments (id, post_id, user_id, username, body, date_posted)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, comment.ID.String(), comment.PostID.String(), comment.UserID.String(),
			comment.Username, comment.Body, comment.DatePosted)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET comments = array_append(comments, $2::uuid), number_of_comments = number_of_comments + 1
			WHERE id = $1
		`, comment.PostID.String(), comment.ID.String())
		if err != nil {
			return err
		}
		return expectRow(res)
	})
}

func (p *Postgres) GetComment(ctx context.Context, id types.EntityID) (types.Comment, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id.String())
	return scanComment(row)
}

func (p *Postgres) UpdateComment(ctx context.Context, id, authorID types.EntityID, body string) (types.Comment, error) {
	row := p.Db.QueryRowContext(ctx, `
		UPDATE comments SET body = $3
		WHERE id = $1 AND user_id = $2
		RETURNING `+commentColumns,
		id.String(), authorID.String(), body)

	comment, err := scanComment(row)
	if err != storage.ErrNotFound {
		return comment, err
	}

	// tell a missing comment apart from one written by someone else
	if _, getErr := p.GetComment(ctx, id); getErr == nil {
		return types.Comment{}, storage.ErrNotOwner
	}
	return types.Comment{}, storage.ErrNotFound
}

func (p *Postgres) DeleteComment(ctx context.Context, id, authorID, postID types.EntityID) (bool, error) {
	deleted := false

	err := p.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM comments WHERE id = $1 AND user_id = $2 AND post_id = $3`,
			id.String(), authorID.String(), postID.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}

		if _, err := tx.ExecContext(ctx, detachCommentQuery, id.String(), postID.String()); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (p *Postgres) ListComments(ctx context.Context, postID types.EntityID) ([]types.Comment, error) {
	rows, err := p.Db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY date_posted ASC`, postID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
