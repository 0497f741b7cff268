package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Connected to Postgres database", slog.String("dbname", cfg.PGSQL.DBName))

	// Create tables if they don't exist
	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(64) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			longest_streak INTEGER NOT NULL DEFAULT 0 CHECK (longest_streak >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			username VARCHAR(64) NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			media_key VARCHAR(255) NOT NULL DEFAULT '',
			date_posted TIMESTAMPTZ NOT NULL,
			likes UUID[] NOT NULL DEFAULT '{}',
			number_of_likes INTEGER NOT NULL DEFAULT 0,
			comments UUID[] NOT NULL DEFAULT '{}',
			number_of_comments INTEGER NOT NULL DEFAULT 0
		);
		`,
		`CREATE INDEX IF NOT EXISTS posts_user_id_idx ON posts (user_id);`,
		`CREATE INDEX IF NOT EXISTS posts_public_date_idx ON posts (date_posted DESC) WHERE is_public;`,
		`
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			post_id UUID NOT NULL,
			user_id UUID NOT NULL,
			username VARCHAR(64) NOT NULL,
			body TEXT NOT NULL,
			date_posted TIMESTAMPTZ NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments (post_id);`,
		`CREATE INDEX IF NOT EXISTS comments_user_id_idx ON comments (user_id);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// withTx runs fn in a transaction, committing only when fn returns nil.
func (p *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.Db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

const userColumns = `id, email, username, password, longest_streak, created_at`

func scanUser(row rowScanner) (users.User, error) {
	var (
		user users.User
		id   string
	)

	err := row.Scan(&id, &user.Email, &user.Username, &user.Password, &user.LongestStreak, &user.CreatedAt)
	if err != nil {
		return users.User{}, notFound(err)
	}

	user.ID, err = types.ParseEntityID(id)
	if err != nil {
		return users.User{}, err
	}
	return user, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user users.User) error {
	query := `
	INSERT INTO users (id, email, username, password, longest_streak, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.Db.ExecContext(ctx, query,
		user.ID.String(), user.Email, user.Username, user.Password, user.LongestStreak, user.CreatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (p *Postgres) GetUserByID(ctx context.Context, id types.EntityID) (users.User, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return scanUser(row)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (users.User, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (p *Postgres) UpdateUserInfo(ctx context.Context, id types.EntityID, patch users.Patch) error {
	query := `
	UPDATE users
	SET email = COALESCE($2, email), username = COALESCE($3, username)
	WHERE id = $1
	`

	res, err := p.Db.ExecContext(ctx, query, id.String(), patch.Email, patch.Username)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (p *Postgres) UpdatePassword(ctx context.Context, id types.EntityID, hashedPassword string) error {
	res, err := p.Db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id.String(), hashedPassword)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (p *Postgres) RaiseLongestStreak(ctx context.Context, id types.EntityID, value int) (int, error) {
	query := `
	UPDATE users SET longest_streak = GREATEST(longest_streak, $2)
	WHERE id = $1
	RETURNING longest_streak
	`

	var longest int
	err := p.Db.QueryRowContext(ctx, query, id.String(), value).Scan(&longest)
	if err != nil {
		return 0, notFound(err)
	}
	return longest, nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id types.EntityID) error {
	uid := id.String()

	return p.withTx(ctx, func(tx *sql.Tx) error {
		// comments under the user's posts, then the posts
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`, uid); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE user_id = $1`, uid); err != nil {
			return err
		}

		// the user's comments on other posts
		rows, err := tx.QueryContext(ctx, `SELECT id, post_id FROM comments WHERE user_id = $1`, uid)
		if err != nil {
			return err
		}
		type ref struct{ id, postID string }
		var refs []ref
		for rows.Next() {
			var r ref
			if err := rows.Scan(&r.id, &r.postID); err != nil {
				rows.Close()
				return err
			}
			refs = append(refs, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, r := range refs {
			if _, err := tx.ExecContext(ctx, detachCommentQuery, r.id, r.postID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE user_id = $1`, uid); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET likes = array_remove(likes, $1::uuid), number_of_likes = number_of_likes - 1
			WHERE $1::uuid = ANY(likes)
		`, uid); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uid)
		if err != nil {
			return err
		}
		return expectRow(res)
	})
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
