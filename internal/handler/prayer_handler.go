package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "churchsite/internal/errors"
	"churchsite/internal/idp"
	"churchsite/internal/model"
	"churchsite/internal/service"
	"churchsite/internal/view"
)

const prayerRequestsPath = "/members/prayer-requests"

// PrayerHandler serves prayer request pages and API.
type PrayerHandler struct {
	prayers service.PrayerService
	guard   memberGuard
	logger  *zap.Logger
}

// NewPrayerHandler creates a new prayer request handler.
func NewPrayerHandler(prayers service.PrayerService, members service.MemberService, logger *zap.Logger) *PrayerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrayerHandler{prayers: prayers, guard: newMemberGuard(members, logger), logger: logger}
}

// PrayerRequestInput is a new prayer request. Any member id sent by the
// client is ignored.
type PrayerRequestInput struct {
	Body       string           `form:"body" json:"body" validate:"required"`
	Visibility model.Visibility `form:"visibility" json:"visibility" validate:"omitempty,oneof=all_members pastors_only"`
}

// Page renders the prayer requests visible to the member.
func (h *PrayerHandler) Page(c echo.Context) error {
	member, p, ok, err := h.guard.page(c)
	if !ok {
		return err
	}
	return h.renderPage(c, http.StatusOK, member, p, "", "")
}

// Submit handles the prayer request form.
func (h *PrayerHandler) Submit(c echo.Context) error {
	member, p, ok, err := h.guard.page(c)
	if !ok {
		return err
	}

	var in PrayerRequestInput
	if err := c.Bind(&in); err != nil {
		return h.renderPage(c, http.StatusBadRequest, member, p, "", "Please try again.")
	}

	if _, err := h.prayers.Submit(c.Request().Context(), member, in.Body, in.Visibility); err != nil {
		if msg, ok := formMessage(err); ok {
			return h.renderPage(c, http.StatusBadRequest, member, p, in.Body, msg)
		}
		h.logger.Error("submit prayer request", zap.Error(err))
		return renderError(c, p)
	}
	return c.Redirect(http.StatusSeeOther, prayerRequestsPath)
}

// Remove soft deletes one of the member's own requests.
func (h *PrayerHandler) Remove(c echo.Context) error {
	member, p, ok, err := h.guard.page(c)
	if !ok {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, prayerRequestsPath)
	}

	err = h.prayers.Delete(c.Request().Context(), member, id)
	switch {
	case err == nil, errors.Is(err, apperrors.ErrPrayerRequestNotFound):
		return c.Redirect(http.StatusSeeOther, prayerRequestsPath)
	case errors.Is(err, apperrors.ErrNotRequestOwner):
		return c.Render(http.StatusForbidden, view.PageError, view.ErrorData{
			Base:     baseFor("Prayer Requests", member),
			Message:  "Only the author can remove this request.",
			RetryURL: prayerRequestsPath,
		})
	default:
		h.logger.Error("delete prayer request", zap.Error(err))
		return renderError(c, p)
	}
}

func (h *PrayerHandler) renderPage(c echo.Context, status int, member *model.Member, p *idp.Principal, body, formError string) error {
	requests, err := h.prayers.List(c.Request().Context(), member)
	if err != nil {
		h.logger.Error("list prayer requests", zap.Error(err))
		return renderError(c, p)
	}
	return c.Render(status, view.PagePrayerRequests, view.PrayerRequestsData{
		Base:      baseFor("Prayer Requests", member),
		Requests:  requests,
		IsPastor:  member.IsPastor(),
		Body:      body,
		FormError: formError,
		MaxLength: service.MaxPrayerBodyLength,
	})
}

func formMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyPrayerBody):
		return "Please write your prayer request before submitting.", true
	case errors.Is(err, apperrors.ErrPrayerBodyTooLong):
		return "Prayer requests are limited to 2000 characters.", true
	case errors.Is(err, apperrors.ErrInvalidVisibility):
		return "Please choose who can see this request.", true
	}
	return "", false
}

// List godoc
// @Summary List prayer requests visible to the member
// @Tags prayer-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.PrayerRequestView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /members/prayer-requests [get]
func (h *PrayerHandler) List(c echo.Context) error {
	member, err := h.guard.api(c)
	if err != nil {
		return err
	}

	requests, err := h.prayers.List(c.Request().Context(), member)
	if err != nil {
		h.logger.Error("list prayer requests", zap.Error(err))
		return apiError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// Create godoc
// @Summary Submit a prayer request
// @Tags prayer-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PrayerRequestInput true "Prayer request"
// @Success 201 {object} model.PrayerRequest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /members/prayer-requests [post]
func (h *PrayerHandler) Create(c echo.Context) error {
	member, err := h.guard.api(c)
	if err != nil {
		return err
	}

	var in PrayerRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_FAILED",
		})
	}

	request, err := h.prayers.Submit(c.Request().Context(), member, in.Body, in.Visibility)
	if err != nil {
		if _, ok := formMessage(err); !ok {
			h.logger.Error("submit prayer request", zap.Error(err))
		}
		return apiError(err)
	}
	return c.JSON(http.StatusCreated, request)
}

// Delete godoc
// @Summary Remove one of the member's own prayer requests
// @Tags prayer-requests
// @Security BearerAuth
// @Param id path string true "Prayer request ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /members/prayer-requests/{id} [delete]
func (h *PrayerHandler) Delete(c echo.Context) error {
	member, err := h.guard.api(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apiError(apperrors.ErrPrayerRequestNotFound)
	}

	if err := h.prayers.Delete(c.Request().Context(), member, id); err != nil {
		if !errors.Is(err, apperrors.ErrPrayerRequestNotFound) && !errors.Is(err, apperrors.ErrNotRequestOwner) {
			h.logger.Error("delete prayer request", zap.Error(err))
		}
		return apiError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
