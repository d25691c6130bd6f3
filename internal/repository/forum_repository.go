package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openvol/portal-api/internal/models"
)

const forumSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	author_email TEXT NOT NULL,
	author_name TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	locked INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS replies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	author_email TEXT NOT NULL,
	author_name TEXT NOT NULL,
	body TEXT NOT NULL,
	deleted INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY(post_id) REFERENCES posts(id)
)`

// ForumRepository provides database access for threads and replies.
// Moderation never hard-deletes; rows carry a deleted tombstone flag.
type ForumRepository struct {
	db *sqlx.DB
}

// NewForumRepository creates a new instance of ForumRepository, ensuring
// the schema exists.
func NewForumRepository(db *sqlx.DB) (*ForumRepository, error) {
	if _, err := db.Exec(forumSchema); err != nil {
		return nil, fmt.Errorf("ensure forum schema: %w", err)
	}
	return &ForumRepository{db: db}, nil
}

// CreatePost inserts a new thread and returns its id.
func (r *ForumRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	const query = `INSERT INTO posts (created_at, author_email, author_name, title, body) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, post.CreatedAt, post.AuthorEmail, post.AuthorName, post.Title, post.Body)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create post id: %w", err)
	}
	post.ID = id
	return nil
}

// ListPosts returns threads newest-first. Deleted tombstones are included
// only when requested (moderation view).
func (r *ForumRepository) ListPosts(ctx context.Context, limit int, includeDeleted bool) ([]models.Post, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, created_at, author_email, author_name, title, body, locked, deleted FROM posts`
	if !includeDeleted {
		query += ` WHERE deleted = 0`
	}
	query += ` ORDER BY id DESC LIMIT ?`

	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, limit); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// FindPost returns a single thread by id, tombstones included.
func (r *ForumRepository) FindPost(ctx context.Context, id int64) (*models.Post, error) {
	const query = `SELECT id, created_at, author_email, author_name, title, body, locked, deleted FROM posts WHERE id = ? LIMIT 1`
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// CreateReply inserts a reply under a thread.
func (r *ForumRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	const query = `INSERT INTO replies (post_id, created_at, author_email, author_name, body) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, reply.PostID, reply.CreatedAt, reply.AuthorEmail, reply.AuthorName, reply.Body)
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create reply id: %w", err)
	}
	reply.ID = id
	return nil
}

// ListReplies returns a thread's replies oldest-first.
func (r *ForumRepository) ListReplies(ctx context.Context, postID int64, includeDeleted bool) ([]models.Reply, error) {
	query := `SELECT id, post_id, created_at, author_email, author_name, body, deleted FROM replies WHERE post_id = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY id ASC`

	var replies []models.Reply
	if err := r.db.SelectContext(ctx, &replies, query, postID); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// SetLock locks or unlocks a thread.
func (r *ForumRepository) SetLock(ctx context.Context, postID int64, locked bool) error {
	const query = `UPDATE posts SET locked = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, locked, postID); err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

// SoftDeletePost tombstones a thread and all of its replies.
func (r *ForumRepository) SoftDeletePost(ctx context.Context, postID int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE posts SET deleted = 1 WHERE id = ?`, postID); err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE replies SET deleted = 1 WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("soft delete post replies: %w", err)
	}
	return nil
}

// SoftDeleteReply tombstones a single reply. Returns sql.ErrNoRows when no
// such reply exists.
func (r *ForumRepository) SoftDeleteReply(ctx context.Context, replyID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE replies SET deleted = 1 WHERE id = ?`, replyID)
	if err != nil {
		return fmt.Errorf("soft delete reply: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete reply rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
