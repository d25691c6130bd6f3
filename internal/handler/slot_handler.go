package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/internal/service"
	appErrors "github.com/openvol/portal-api/pkg/errors"
	"github.com/openvol/portal-api/pkg/response"
)

// SlotHandler exposes the signup sheet endpoints.
type SlotHandler struct {
	slots   *service.SlotService
	exports *service.ExportService
}

// NewSlotHandler constructs a slot handler. exports may be nil when the
// download feature is disabled.
func NewSlotHandler(slots *service.SlotService, exports *service.ExportService) *SlotHandler {
	return &SlotHandler{slots: slots, exports: exports}
}

// List godoc
// @Summary List signup slots
// @Tags Slots
// @Produce json
// @Param all query bool false "Include taken and past slots"
// @Param search query string false "Filter by event, location or contact"
// @Param mine query bool false "Only the caller's reservations"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	all := c.Query("all") == "true"
	filter := models.SlotFilter{
		UpcomingOnly: !all,
		IncludeTaken: all,
		Search:       strings.TrimSpace(c.Query("search")),
	}
	if c.Query("mine") == "true" {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		filter = models.SlotFilter{OwnerEmail: claims.Email, Search: filter.Search}
	}
	slots, err := h.slots.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Reserve godoc
// @Summary Reserve a slot
// @Tags Slots
// @Produce json
// @Param row path int true "Sheet row"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /slots/{row}/reserve [post]
func (h *SlotHandler) Reserve(c *gin.Context) {
	row, err := rowParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.slots.Reserve(c.Request.Context(), row, *claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"email_sent": result.EmailError == nil}
	if result.EmailError != nil {
		meta["email_warning"] = "reservation saved but the confirmation email failed"
	}
	response.JSON(c, http.StatusOK, result.Slot, nil, meta)
}

// Cancel godoc
// @Summary Cancel the caller's reservation
// @Tags Slots
// @Produce json
// @Param row path int true "Sheet row"
// @Security BearerAuth
// @Success 204
// @Router /slots/{row}/cancel [post]
func (h *SlotHandler) Cancel(c *gin.Context) {
	row, err := rowParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.slots.Cancel(c.Request.Context(), row, claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Add godoc
// @Summary Add a signup slot
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body service.AddSlotRequest true "Slot payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /slots [post]
func (h *SlotHandler) Add(c *gin.Context) {
	var req service.AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.slots.AddSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Export godoc
// @Summary Download the roster
// @Tags Slots
// @Produce text/csv,application/pdf
// @Param format query string true "csv or pdf"
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /slots/export [get]
func (h *SlotHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	file, err := h.exports.Roster(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func rowParam(c *gin.Context) (int, error) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "row must be a positive integer")
	}
	return row, nil
}
