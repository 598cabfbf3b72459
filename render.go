package opinions

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) site() views.Site {
	return views.Site{
		Name:         a.Config.Name,
		URL:          a.Config.URL,
		Description:  a.Config.Description,
		Author:       a.Config.Author,
		ContactEmail: a.Config.ContactEmail,
	}
}

// page assembles the chrome for a view. Queued flashes are drained here, so
// it must run before the response is written.
func (a *App) page(c echo.Context, meta views.PageMeta, notices ...views.Notice) views.Page {
	_, admin := CurrentCaller(c)
	return views.Page{
		Site:    a.site(),
		Meta:    meta,
		Notices: append(takeFlashes(c), notices...),
		CSRF:    CsrfToken(c),
		Admin:   admin,
	}
}

func (a *App) renderNotFound(c echo.Context) error {
	p := a.page(c, a.PageMeta("Not Found", "", c.Request().URL.Path))
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(p))
}
