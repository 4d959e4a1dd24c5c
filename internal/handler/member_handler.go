package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"churchsite/internal/auth"
	"churchsite/internal/authstate"
	"churchsite/internal/model"
	"churchsite/internal/service"
	"churchsite/internal/view"
)

// MemberHandler serves the hub, the directory and the public member lookup.
type MemberHandler struct {
	members  service.MemberService
	finder   authstate.MemberFinder
	sessions *auth.SessionManager
	guard    memberGuard
	logger   *zap.Logger
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(members service.MemberService, finder authstate.MemberFinder, sessions *auth.SessionManager, logger *zap.Logger) *MemberHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberHandler{
		members:  members,
		finder:   finder,
		sessions: sessions,
		guard:    newMemberGuard(members, logger),
		logger:   logger,
	}
}

// LookupRequest is the member lookup body.
type LookupRequest struct {
	Email string `json:"email"`
}

// DirectoryEntry is a member as listed in the directory API.
type DirectoryEntry struct {
	ID       uuid.UUID  `json:"id"`
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    *string    `json:"phone"`
	Role     model.Role `json:"role"`
}

// Lookup godoc
// @Summary Look up an active member's name by email
// @Description Always answers 200; both fields are null when no active member matches.
// @Tags members
// @Accept json
// @Produce json
// @Param request body LookupRequest true "Email to look up"
// @Success 200 {object} service.LookupResult
// @Failure 429 {object} errors.ErrorResponse
// @Router /member-lookup [post]
func (h *MemberHandler) Lookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, service.LookupResult{})
	}
	return c.JSON(http.StatusOK, h.members.Lookup(c.Request().Context(), req.Email))
}

// Hub renders the member hub greeting.
func (h *MemberHandler) Hub(c echo.Context) error {
	member, _, ok, err := h.guard.page(c)
	if !ok {
		return err
	}

	store := authstate.New(h.sessions.For(c), h.finder)
	snap := store.Mount(c.Request().Context())
	defer store.Unmount()

	base := baseFor("Members Hub", member)
	if first := snap.FirstName(); first != "" {
		base.FirstName = first
	}
	return c.Render(http.StatusOK, view.PageHub, view.HubData{Base: base})
}

// DirectoryPage renders the members directory.
func (h *MemberHandler) DirectoryPage(c echo.Context) error {
	member, p, ok, err := h.guard.page(c)
	if !ok {
		return err
	}

	query := c.QueryParam("q")
	members, err := h.members.Directory(c.Request().Context(), query)
	if err != nil {
		h.logger.Error("list directory", zap.Error(err))
		return renderError(c, p)
	}

	rows := make([]view.MemberRow, 0, len(members))
	for _, m := range members {
		row := view.MemberRow{
			FullName: m.FullName,
			Email:    m.Email,
			Initials: service.Initials(m.FullName),
			Accent:   service.AccentIndex(m.FullName),
			IsPastor: m.IsPastor(),
		}
		if m.Phone != nil {
			row.Phone = *m.Phone
		}
		rows = append(rows, row)
	}

	return c.Render(http.StatusOK, view.PageDirectory, view.DirectoryData{
		Base:    baseFor("Members Directory", member),
		Query:   query,
		Members: rows,
	})
}

// Directory godoc
// @Summary List active members
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param q query string false "Case-insensitive filter over name, email and phone"
// @Success 200 {array} DirectoryEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /members/directory [get]
func (h *MemberHandler) Directory(c echo.Context) error {
	if _, err := h.guard.api(c); err != nil {
		return err
	}

	members, err := h.members.Directory(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		h.logger.Error("list directory", zap.Error(err))
		return apiError(err)
	}

	out := make([]DirectoryEntry, 0, len(members))
	for _, m := range members {
		out = append(out, DirectoryEntry{ID: m.ID, FullName: m.FullName, Email: m.Email, Phone: m.Phone, Role: m.Role})
	}
	return c.JSON(http.StatusOK, out)
}
