package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvol/portal-api/internal/service"
	appErrors "github.com/openvol/portal-api/pkg/errors"
	"github.com/openvol/portal-api/pkg/response"
)

// AdminHandler exposes account administration endpoints.
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(auth *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// SetAdmin godoc
// @Summary Grant or revoke the admin role
// @Tags Admin
// @Accept json
// @Produce json
// @Param email path string true "Account email"
// @Param payload body setAdminRequest true "Role payload"
// @Security BearerAuth
// @Success 204
// @Router /admin/users/{email}/admin [put]
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	var req setAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.auth.SetAdmin(c.Request.Context(), c.Param("email"), req.IsAdmin); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
