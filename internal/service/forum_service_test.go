package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvol/portal-api/internal/models"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

type stubForumRepo struct {
	posts   map[int64]*models.Post
	replies map[int64]*models.Reply
	nextID  int64
}

func newStubForumRepo() *stubForumRepo {
	return &stubForumRepo{
		posts:   map[int64]*models.Post{},
		replies: map[int64]*models.Reply{},
	}
}

func (r *stubForumRepo) CreatePost(_ context.Context, post *models.Post) error {
	r.nextID++
	post.ID = r.nextID
	r.posts[post.ID] = post
	return nil
}

func (r *stubForumRepo) ListPosts(_ context.Context, _ int, includeDeleted bool) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.posts {
		if p.Deleted && !includeDeleted {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubForumRepo) FindPost(_ context.Context, id int64) (*models.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (r *stubForumRepo) CreateReply(_ context.Context, reply *models.Reply) error {
	r.nextID++
	reply.ID = r.nextID
	r.replies[reply.ID] = reply
	return nil
}

func (r *stubForumRepo) ListReplies(_ context.Context, postID int64, includeDeleted bool) ([]models.Reply, error) {
	var out []models.Reply
	for _, rep := range r.replies {
		if rep.PostID != postID {
			continue
		}
		if rep.Deleted && !includeDeleted {
			continue
		}
		out = append(out, *rep)
	}
	return out, nil
}

func (r *stubForumRepo) SetLock(_ context.Context, postID int64, locked bool) error {
	p, ok := r.posts[postID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Locked = locked
	return nil
}

func (r *stubForumRepo) SoftDeletePost(_ context.Context, postID int64) error {
	p, ok := r.posts[postID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Deleted = true
	for _, rep := range r.replies {
		if rep.PostID == postID {
			rep.Deleted = true
		}
	}
	return nil
}

func (r *stubForumRepo) SoftDeleteReply(_ context.Context, replyID int64) error {
	rep, ok := r.replies[replyID]
	if !ok {
		return sql.ErrNoRows
	}
	rep.Deleted = true
	return nil
}

func forumClaims() models.JWTClaims {
	return models.JWTClaims{
		UserID:    "u-1",
		Email:     "Pat@Example.com",
		FirstName: "Pat",
		LastName:  "Reyes",
	}
}

func TestCreatePostAndReply(t *testing.T) {
	repo := newStubForumRepo()
	svc := NewForumService(repo, nil, nil)

	post, err := svc.CreatePost(context.Background(), forumClaims(), CreatePostRequest{
		Title: "Carpool Saturday",
		Body:  "Anyone driving from downtown?",
	})
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", post.AuthorEmail)
	assert.Equal(t, "Pat Reyes", post.AuthorName)

	reply, err := svc.CreateReply(context.Background(), forumClaims(), post.ID, CreateReplyRequest{
		Body: "I can take three.",
	})
	require.NoError(t, err)
	assert.Equal(t, post.ID, reply.PostID)

	got, replies, err := svc.GetPost(context.Background(), post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	require.Len(t, replies, 1)
}

func TestCreatePostValidation(t *testing.T) {
	svc := NewForumService(newStubForumRepo(), nil, nil)

	_, err := svc.CreatePost(context.Background(), forumClaims(), CreatePostRequest{Title: "", Body: "no title"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLockedThreadRejectsReplies(t *testing.T) {
	repo := newStubForumRepo()
	svc := NewForumService(repo, nil, nil)

	post, err := svc.CreatePost(context.Background(), forumClaims(), CreatePostRequest{Title: "T", Body: "B"})
	require.NoError(t, err)
	require.NoError(t, svc.SetLock(context.Background(), post.ID, true))

	_, err = svc.CreateReply(context.Background(), forumClaims(), post.ID, CreateReplyRequest{Body: "late"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrThreadLocked))

	// Unlocking opens the thread back up.
	require.NoError(t, svc.SetLock(context.Background(), post.ID, false))
	_, err = svc.CreateReply(context.Background(), forumClaims(), post.ID, CreateReplyRequest{Body: "on time"})
	require.NoError(t, err)
}

func TestDeletedPostInvisibleToMembers(t *testing.T) {
	repo := newStubForumRepo()
	svc := NewForumService(repo, nil, nil)

	post, err := svc.CreatePost(context.Background(), forumClaims(), CreatePostRequest{Title: "T", Body: "B"})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePost(context.Background(), post.ID))

	_, _, err = svc.GetPost(context.Background(), post.ID, false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.CreateReply(context.Background(), forumClaims(), post.ID, CreateReplyRequest{Body: "x"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	// Admin moderation view still sees the tombstone.
	got, _, err := svc.GetPost(context.Background(), post.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestDeleteMissingReply(t *testing.T) {
	svc := NewForumService(newStubForumRepo(), nil, nil)

	err := svc.DeleteReply(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
