package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"churchsite/internal/auth"
	apperrors "churchsite/internal/errors"
	"churchsite/internal/idp"
	"churchsite/internal/model"
	"churchsite/internal/service"
	"churchsite/internal/view"
)

// memberGuard runs the guard sequence shared by every protected view:
// principal, then active member by email, then the view's own work.
type memberGuard struct {
	members service.MemberService
	logger  *zap.Logger
}

func newMemberGuard(members service.MemberService, logger *zap.Logger) memberGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return memberGuard{members: members, logger: logger}
}

// page resolves the member for an HTML view. When ok is false the response
// has already been written and err is what the handler should return.
func (g memberGuard) page(c echo.Context) (member *model.Member, p *idp.Principal, ok bool, err error) {
	p = auth.PrincipalFrom(c)
	if p == nil {
		return nil, nil, false, c.Redirect(http.StatusFound, service.LoginPath)
	}

	member, err = g.members.ResolveMember(c.Request().Context(), p)
	switch {
	case err == nil:
		return member, p, true, nil
	case errors.Is(err, apperrors.ErrNotRegisteredMember):
		return nil, p, false, c.Render(http.StatusOK, view.PageNotMember, view.NotMemberData{
			Base:  view.Base{Title: "Members", SignedIn: true},
			Email: p.Email,
		})
	default:
		g.logger.Error("resolve member", zap.String("path", c.Path()), zap.Error(err))
		return nil, p, false, renderError(c, p)
	}
}

// api resolves the member for a JSON endpoint.
func (g memberGuard) api(c echo.Context) (*model.Member, error) {
	member, err := g.members.ResolveMember(c.Request().Context(), auth.PrincipalFrom(c))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotRegisteredMember) && !errors.Is(err, apperrors.ErrUnauthenticated) {
			g.logger.Error("resolve member", zap.String("path", c.Path()), zap.Error(err))
		}
		return nil, apiError(err)
	}
	return member, nil
}

// renderError shows the retryable error screen. No partial data is shown.
func renderError(c echo.Context, p *idp.Principal) error {
	return c.Render(http.StatusInternalServerError, view.PageError, view.ErrorData{
		Base:     view.Base{Title: "Error", SignedIn: p != nil},
		RetryURL: c.Request().URL.Path,
	})
}

// apiError converts a domain error to an echo HTTP error.
func apiError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func baseFor(title string, member *model.Member) view.Base {
	b := view.Base{Title: title, SignedIn: true}
	if member != nil {
		b.FirstName = member.FirstName()
	}
	return b
}
