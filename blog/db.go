// blog/db.go
package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cascades live in the schema, not in application code: deleting a user
// removes their posts, comments and follow edges; deleting a group keeps
// its posts with a NULL group; deleting a post removes its comments.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    hash BYTEA NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS groups (
    id SERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS posts (
    id BIGSERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    pub_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    author_id UUID NOT NULL,
    group_id INTEGER,
    image TEXT NOT NULL DEFAULT '',
    CONSTRAINT fk_post_author
        FOREIGN KEY(author_id)
        REFERENCES users(id)
        ON DELETE CASCADE,
    CONSTRAINT fk_post_group
        FOREIGN KEY(group_id)
        REFERENCES groups(id)
        ON DELETE SET NULL
);
CREATE TABLE IF NOT EXISTS comments (
    id BIGSERIAL PRIMARY KEY,
    text TEXT NOT NULL,
    created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    post_id BIGINT NOT NULL,
    author_id UUID NOT NULL,
    CONSTRAINT fk_comment_post
        FOREIGN KEY(post_id)
        REFERENCES posts(id)
        ON DELETE CASCADE,
    CONSTRAINT fk_comment_author
        FOREIGN KEY(author_id)
        REFERENCES users(id)
        ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS follows (
    user_id UUID NOT NULL,
    author_id UUID NOT NULL,
    PRIMARY KEY (user_id, author_id),
    CONSTRAINT fk_follow_user
        FOREIGN KEY(user_id)
        REFERENCES users(id)
        ON DELETE CASCADE,
    CONSTRAINT fk_follow_author
        FOREIGN KEY(author_id)
        REFERENCES users(id)
        ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_posts_on_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_on_group_id ON posts(group_id);
CREATE INDEX IF NOT EXISTS idx_comments_on_post_id ON comments(post_id);
`

type Database struct {
	pool *pgxpool.Pool
}

var _ Store = (*Database)(nil)

func NewDatabase(ctx context.Context, connectionString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{pool: pool}, nil
}

func (d *Database) CreateTables(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, schema)
	return err
}

func (d *Database) Close() {
	d.pool.Close()
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- User Functions ---

func (d *Database) CreateUser(ctx context.Context, u *User) error {
	query := `INSERT INTO users (id, username, email, hash) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := d.pool.QueryRow(ctx, query, u.ID, u.Username, u.Email, u.Hash).Scan(&u.Created)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (d *Database) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	query := `SELECT id, username, email, hash, created_at FROM users WHERE ` + where
	row := d.pool.QueryRow(ctx, query, arg)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Hash, &u.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *Database) GetUserByID(ctx context.Context, id string) (*User, error) {
	return d.getUser(ctx, "id = $1", id)
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return d.getUser(ctx, "username = $1", username)
}

func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.getUser(ctx, "email = $1", email)
}

// --- Group Functions ---

func (d *Database) CreateGroup(ctx context.Context, g *Group) error {
	query := `INSERT INTO groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id`
	err := d.pool.QueryRow(ctx, query, g.Title, g.Slug, g.Description).Scan(&g.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (d *Database) GetGroup(ctx context.Context, id int) (*Group, error) {
	return d.getGroup(ctx, "id = $1", id)
}

func (d *Database) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	return d.getGroup(ctx, "slug = $1", slug)
}

func (d *Database) getGroup(ctx context.Context, where string, arg any) (*Group, error) {
	var g Group
	query := `SELECT id, title, slug, description FROM groups WHERE ` + where
	row := d.pool.QueryRow(ctx, query, arg)
	err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (d *Database) ListGroups(ctx context.Context) ([]Group, error) {
	query := `SELECT id, title, slug, description FROM groups ORDER BY title ASC`
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Post Functions ---

const postColumns = `p.id, p.text, p.pub_date, p.author_id, u.username,
       p.group_id, COALESCE(g.slug, ''), COALESCE(g.title, ''), p.image`

const postJoins = `FROM posts p
       JOIN users u ON u.id = p.author_id
       LEFT JOIN groups g ON g.id = p.group_id`

func (d *Database) CreatePost(ctx context.Context, p *Post) error {
	query := `INSERT INTO posts (text, author_id, group_id, image) VALUES ($1, $2, $3, $4) RETURNING id, pub_date`
	return d.pool.QueryRow(ctx, query, p.Text, p.AuthorID, p.GroupID, p.Image).Scan(&p.ID, &p.PubDate)
}

// UpdatePost only touches the mutable columns. Identity, author and
// pub_date stay as they were at creation.
func (d *Database) UpdatePost(ctx context.Context, p *Post) error {
	query := `UPDATE posts SET text = $2, group_id = $3, image = $4 WHERE id = $1`
	tag, err := d.pool.Exec(ctx, query, p.ID, p.Text, p.GroupID, p.Image)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeletePost(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPost resolves a post by its id paired with its author's username. The
// pairing is part of the lookup key: a valid id under the wrong username
// is a miss.
func (d *Database) GetPost(ctx context.Context, username string, id int64) (*Post, error) {
	query := `SELECT ` + postColumns + ` ` + postJoins + ` WHERE p.id = $1 AND u.username = $2`
	row := d.pool.QueryRow(ctx, query, id, username)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *Database) ListPosts(ctx context.Context, f PostFilter, limit, offset int) ([]Post, error) {
	query := `SELECT ` + postColumns + ` ` + postJoins
	where, args := postFilterClause(f)
	query += where
	query += fmt.Sprintf(" ORDER BY p.pub_date DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (d *Database) CountPosts(ctx context.Context, f PostFilter) (int, error) {
	query := `SELECT COUNT(*) ` + postJoins
	where, args := postFilterClause(f)
	query += where
	var count int
	err := d.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func postFilterClause(f PostFilter) (string, []any) {
	args := []any{}
	switch {
	case f.GroupID != nil:
		args = append(args, *f.GroupID)
		return " WHERE p.group_id = $1", args
	case f.AuthorID != "":
		args = append(args, f.AuthorID)
		return " WHERE p.author_id = $1", args
	case f.FollowedBy != "":
		args = append(args, f.FollowedBy)
		return " WHERE p.author_id IN (SELECT author_id FROM follows WHERE user_id = $1)", args
	}
	return "", args
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Text, &p.PubDate, &p.AuthorID, &p.Author,
		&p.GroupID, &p.GroupSlug, &p.GroupTitle, &p.Image)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Comment Functions ---

func (d *Database) CreateComment(ctx context.Context, c *Comment) error {
	query := `INSERT INTO comments (text, post_id, author_id) VALUES ($1, $2, $3) RETURNING id, created`
	return d.pool.QueryRow(ctx, query, c.Text, c.PostID, c.AuthorID).Scan(&c.ID, &c.Created)
}

func (d *Database) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created
              FROM comments c
              JOIN users u ON u.id = c.author_id
              WHERE c.post_id = $1
              ORDER BY c.id ASC`
	rows, err := d.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Text, &c.Created); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// --- Follow Functions ---

// Follow is create-if-absent: a second follow of the same author is a no-op.
func (d *Database) Follow(ctx context.Context, userID, authorID string) error {
	query := `INSERT INTO follows (user_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := d.pool.Exec(ctx, query, userID, authorID)
	return err
}

// Unfollow is delete-if-present: unfollowing an author never followed is a
// no-op, not an error.
func (d *Database) Unfollow(ctx context.Context, userID, authorID string) error {
	query := `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`
	_, err := d.pool.Exec(ctx, query, userID, authorID)
	return err
}

func (d *Database) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	var following bool
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`
	err := d.pool.QueryRow(ctx, query, userID, authorID).Scan(&following)
	return following, err
}
