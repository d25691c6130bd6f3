package models

import "time"

// Post is a forum thread starter. Deleted posts are retained as tombstones.
type Post struct {
	ID          int64     `db:"id" json:"id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	AuthorEmail string    `db:"author_email" json:"author_email"`
	AuthorName  string    `db:"author_name" json:"author_name"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	Locked      bool      `db:"locked" json:"locked"`
	Deleted     bool      `db:"deleted" json:"deleted"`
}

// Reply is a single response within a thread.
type Reply struct {
	ID          int64     `db:"id" json:"id"`
	PostID      int64     `db:"post_id" json:"post_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	AuthorEmail string    `db:"author_email" json:"author_email"`
	AuthorName  string    `db:"author_name" json:"author_name"`
	Body        string    `db:"body" json:"body"`
	Deleted     bool      `db:"deleted" json:"deleted"`
}
