package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openvol/portal-api/internal/service"
	appErrors "github.com/openvol/portal-api/pkg/errors"
	"github.com/openvol/portal-api/pkg/response"
)

// ForumHandler exposes the discussion board endpoints.
type ForumHandler struct {
	service *service.ForumService
}

// NewForumHandler constructs a forum handler.
func NewForumHandler(svc *service.ForumService) *ForumHandler {
	return &ForumHandler{service: svc}
}

// ListPosts godoc
// @Summary List threads
// @Tags Forum
// @Produce json
// @Param limit query int false "Max threads"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /forum/posts [get]
func (h *ForumHandler) ListPosts(c *gin.Context) {
	limit := 0
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		limit = v
	}
	claims := claimsFromContext(c)
	isAdmin := claims != nil && claims.IsAdmin
	posts, err := h.service.ListPosts(c.Request.Context(), limit, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// CreatePost godoc
// @Summary Start a thread
// @Tags Forum
// @Accept json
// @Produce json
// @Param payload body service.CreatePostRequest true "Post payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /forum/posts [post]
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	post, err := h.service.CreatePost(c.Request.Context(), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// GetPost godoc
// @Summary Thread with replies
// @Tags Forum
// @Produce json
// @Param id path int true "Post ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /forum/posts/{id} [get]
func (h *ForumHandler) GetPost(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	isAdmin := claims != nil && claims.IsAdmin
	post, replies, err := h.service.GetPost(c.Request.Context(), id, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"post": post, "replies": replies}, nil)
}

// CreateReply godoc
// @Summary Reply to a thread
// @Tags Forum
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param payload body service.CreateReplyRequest true "Reply payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /forum/posts/{id}/replies [post]
func (h *ForumHandler) CreateReply(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reply, err := h.service.CreateReply(c.Request.Context(), *claims, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}

// Lock godoc
// @Summary Lock a thread
// @Tags Forum
// @Produce json
// @Param id path int true "Post ID"
// @Security BearerAuth
// @Success 204
// @Router /forum/posts/{id}/lock [post]
func (h *ForumHandler) Lock(c *gin.Context) {
	h.setLock(c, true)
}

// Unlock godoc
// @Summary Unlock a thread
// @Tags Forum
// @Produce json
// @Param id path int true "Post ID"
// @Security BearerAuth
// @Success 204
// @Router /forum/posts/{id}/unlock [post]
func (h *ForumHandler) Unlock(c *gin.Context) {
	h.setLock(c, false)
}

func (h *ForumHandler) setLock(c *gin.Context, locked bool) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.SetLock(c.Request.Context(), id, locked); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeletePost godoc
// @Summary Delete a thread
// @Tags Forum
// @Produce json
// @Param id path int true "Post ID"
// @Security BearerAuth
// @Success 204
// @Router /forum/posts/{id}/delete [post]
func (h *ForumHandler) DeletePost(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeletePost(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteReply godoc
// @Summary Delete a reply
// @Tags Forum
// @Produce json
// @Param id path int true "Reply ID"
// @Security BearerAuth
// @Success 204
// @Router /forum/replies/{id}/delete [post]
func (h *ForumHandler) DeleteReply(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteReply(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	return id, nil
}
