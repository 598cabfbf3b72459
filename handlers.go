package opinions

import (
	"errors"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/views"
)

func (a *App) handleHome(c echo.Context) error {
	home, err := a.Content.Home(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.page(c, a.HomeMeta()), home))
}

func (a *App) handleArticles(c echo.Context) error {
	category := c.QueryParam("category")
	list, err := a.Content.ListPosts(c.Request().Context(), category)
	if err != nil {
		return err
	}
	title := "Articles"
	if category != "" {
		title = category + " Articles"
	}
	meta := a.PageMeta(title, "", "articles")
	return Render(c, a.Views.Articles(a.page(c, meta), list))
}

func (a *App) handlePost(c echo.Context) error {
	return a.renderPost(c, content.Ref{ID: c.Param("id")})
}

func (a *App) handlePostBySlug(c echo.Context) error {
	return a.renderPost(c, content.Ref{Slug: c.Param("slug")})
}

func (a *App) renderPost(c echo.Context, ref content.Ref) error {
	res, err := a.Content.ResolveContent(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	if res.State == content.NotFound {
		return a.renderNotFound(c)
	}
	return Render(c, a.Views.Post(a.page(c, a.PostMeta(res.Post)), res))
}

func (a *App) handleBooks(c echo.Context) error {
	q := c.QueryParam("q")
	books, err := a.Content.ListBooks(c.Request().Context(), q)
	if err != nil {
		return err
	}
	meta := a.PageMeta("Recommended Books", "", "books")
	return Render(c, a.Views.Books(a.page(c, meta), books, q))
}

func (a *App) handleAbout(c echo.Context) error {
	meta := a.PageMeta("About", "Learn about "+a.Config.Name+", what we write about and how to get in touch.", "about")
	return Render(c, a.Views.About(a.page(c, meta)))
}

func (a *App) handleBook(c echo.Context) error {
	return a.renderBook(c, http.StatusOK, views.ReviewForm{})
}

func (a *App) renderBook(c echo.Context, code int, form views.ReviewForm, notices ...views.Notice) error {
	res, err := a.Content.ResolveBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if res.State == content.NotFound {
		return a.renderNotFound(c)
	}
	p := a.page(c, a.BookMeta(res.Book), notices...)
	return RenderStatus(c, code, a.Views.Book(p, res, form))
}

func (a *App) handleReview(c echo.Context) error {
	bookID := c.Param("id")
	in := bindReview(c)
	// Signed-in readers review under their profile name when they leave the
	// name blank. An expired or broken session just makes the review anonymous.
	caller, err := a.Gate.ResolveSession(c.Request().Context(), requestSession(c))
	if err != nil {
		caller = auth.Caller{}
	}
	if in.Name == "" && !caller.Anonymous() {
		in.Name = caller.Profile.DisplayName()
	}
	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form := in.form()
		form.Errors = errs
		return a.renderBook(c, http.StatusUnprocessableEntity, form)
	}

	review := in.review(bookID)
	review.UserID = caller.UserID
	if _, err := a.Store.CreateReview(c.Request().Context(), review); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return a.renderNotFound(c)
		}
		c.Logger().Errorf("create review for %s: %v", bookID, err)
		return a.renderBook(c, http.StatusInternalServerError, in.form(),
			views.Notice{Kind: views.NoticeError, Text: "Failed to submit review. Please try again."})
	}

	flash(c, views.NoticeSuccess, "Thank you for your review!")
	return c.Redirect(http.StatusSeeOther, "/"+path.Join("book", bookID)+"/")
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Store.FindPosts(c.Request().Context(), feedFilter())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleAdminRedirect(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		p := a.page(c, a.PageMeta("Something went wrong", "", c.Request().URL.Path))
		_ = RenderStatus(c, code, a.Views.ServerError(p))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
