package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/openvol/portal-api/internal/models"
)

func newForumRepoMock(t *testing.T) (*ForumRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS posts")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewForumRepository(sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)
	return repo, mock, func() { db.Close() }
}

func TestForumRepositoryCreatePostAssignsID(t *testing.T) {
	repo, mock, cleanup := newForumRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnResult(sqlmock.NewResult(7, 1))

	post := &models.Post{
		AuthorEmail: "pat@example.com",
		AuthorName:  "Pat Reyes",
		Title:       "Carpool to Saturday shift",
		Body:        "Anyone driving from downtown?",
	}
	require.NoError(t, repo.CreatePost(context.Background(), post))
	require.Equal(t, int64(7), post.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositoryListPostsHidesTombstones(t *testing.T) {
	repo, mock, cleanup := newForumRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "created_at", "author_email", "author_name", "title", "body", "locked", "deleted"}).
		AddRow(2, time.Now(), "a@example.com", "A", "Second", "body", false, false).
		AddRow(1, time.Now(), "b@example.com", "B", "First", "body", true, false)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE deleted = 0 ORDER BY id DESC LIMIT")).
		WithArgs(100).
		WillReturnRows(rows)

	posts, err := repo.ListPosts(context.Background(), 0, false)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, int64(2), posts[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositorySoftDeletePostCascades(t *testing.T) {
	repo, mock, cleanup := newForumRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET deleted = 1 WHERE id")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE replies SET deleted = 1 WHERE post_id")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.SoftDeletePost(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositorySoftDeleteReplyMissing(t *testing.T) {
	repo, mock, cleanup := newForumRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE replies SET deleted = 1 WHERE id")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDeleteReply(context.Background(), 99)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
