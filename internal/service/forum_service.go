package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

type forumRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context, limit int, includeDeleted bool) ([]models.Post, error)
	FindPost(ctx context.Context, id int64) (*models.Post, error)
	CreateReply(ctx context.Context, reply *models.Reply) error
	ListReplies(ctx context.Context, postID int64, includeDeleted bool) ([]models.Reply, error)
	SetLock(ctx context.Context, postID int64, locked bool) error
	SoftDeletePost(ctx context.Context, postID int64) error
	SoftDeleteReply(ctx context.Context, replyID int64) error
}

// CreatePostRequest is the payload for starting a thread.
type CreatePostRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

// CreateReplyRequest is the payload for answering a thread.
type CreateReplyRequest struct {
	Body string `json:"body" validate:"required"`
}

// ForumService implements the discussion board with soft-delete and
// lock moderation.
type ForumService struct {
	repo      forumRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewForumService(repo forumRepository, validate *validator.Validate, logger *zap.Logger) *ForumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForumService{repo: repo, validator: validate, logger: logger}
}

// CreatePost starts a new thread authored by the given user.
func (s *ForumService) CreatePost(ctx context.Context, user models.JWTClaims, req CreatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	post := &models.Post{
		CreatedAt:   time.Now().UTC(),
		AuthorEmail: strings.ToLower(user.Email),
		AuthorName:  user.FullName(),
		Title:       strings.TrimSpace(req.Title),
		Body:        strings.TrimSpace(req.Body),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	return post, nil
}

// ListPosts returns threads newest first. Deleted tombstones are only
// visible to admins.
func (s *ForumService) ListPosts(ctx context.Context, limit int, isAdmin bool) ([]models.Post, error) {
	posts, err := s.repo.ListPosts(ctx, limit, isAdmin)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return posts, nil
}

// GetPost returns one thread with its replies, oldest reply first.
func (s *ForumService) GetPost(ctx context.Context, id int64, isAdmin bool) (*models.Post, []models.Reply, error) {
	post, err := s.findVisiblePost(ctx, id, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.repo.ListReplies(ctx, id, isAdmin)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}
	return post, replies, nil
}

// CreateReply appends a reply to an existing, unlocked thread.
func (s *ForumService) CreateReply(ctx context.Context, user models.JWTClaims, postID int64, req CreateReplyRequest) (*models.Reply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}
	post, err := s.findVisiblePost(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if post.Locked {
		return nil, appErrors.ErrThreadLocked
	}
	reply := &models.Reply{
		PostID:      postID,
		CreatedAt:   time.Now().UTC(),
		AuthorEmail: strings.ToLower(user.Email),
		AuthorName:  user.FullName(),
		Body:        strings.TrimSpace(req.Body),
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reply")
	}
	return reply, nil
}

// SetLock locks or unlocks a thread. Locked threads reject new replies
// but stay readable.
func (s *ForumService) SetLock(ctx context.Context, postID int64, locked bool) error {
	if _, err := s.findVisiblePost(ctx, postID, true); err != nil {
		return err
	}
	if err := s.repo.SetLock(ctx, postID, locked); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lock")
	}
	s.logger.Info("thread lock updated", zap.Int64("post_id", postID), zap.Bool("locked", locked))
	return nil
}

// DeletePost soft-deletes a thread and all of its replies.
func (s *ForumService) DeletePost(ctx context.Context, postID int64) error {
	if _, err := s.findVisiblePost(ctx, postID, true); err != nil {
		return err
	}
	if err := s.repo.SoftDeletePost(ctx, postID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}
	s.logger.Info("post deleted", zap.Int64("post_id", postID))
	return nil
}

// DeleteReply soft-deletes a single reply.
func (s *ForumService) DeleteReply(ctx context.Context, replyID int64) error {
	if err := s.repo.SoftDeleteReply(ctx, replyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reply not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reply")
	}
	s.logger.Info("reply deleted", zap.Int64("reply_id", replyID))
	return nil
}

func (s *ForumService) findVisiblePost(ctx context.Context, id int64, isAdmin bool) (*models.Post, error) {
	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if post.Deleted && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	return post, nil
}
