package opinions

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/views"
)

const tooManyAttempts = "Too many login attempts. Try again later."

func (a *App) handleLoginPage(c echo.Context) error {
	if d, _ := a.Gate.Authorize(c.Request().Context(), requestSession(c)); d == auth.Authorized {
		return c.Redirect(http.StatusSeeOther, "/admin/dashboard/")
	}
	return a.renderLogin(c, http.StatusOK, views.LoginForm{})
}

func (a *App) renderLogin(c echo.Context, code int, form views.LoginForm, notices ...views.Notice) error {
	p := a.page(c, a.PageMeta("Admin Login", "", "admin/login"), notices...)
	return RenderStatus(c, code, a.Views.AdminLogin(p, form))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	in := bindLogin(c)
	form := views.LoginForm{Email: in.Email}

	if !a.loginLimiter.Check(ip) {
		return a.renderLogin(c, http.StatusTooManyRequests, form,
			views.Notice{Kind: views.NoticeError, Text: tooManyAttempts})
	}

	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderLogin(c, http.StatusUnprocessableEntity, form)
	}

	caller, err := a.Gate.Authenticate(c.Request().Context(), requestSession(c), in.Email, in.Password)
	switch {
	case err == nil:
		a.loginLimiter.Reset(ip)
		flash(c, views.NoticeSuccess, "Welcome back, "+caller.Profile.DisplayName()+".")
		return c.Redirect(http.StatusSeeOther, "/admin/dashboard/")
	case errors.Is(err, auth.ErrAccessDenied):
		flash(c, views.NoticeError, auth.Message(err))
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, auth.ErrInvalidCredentials):
		a.loginLimiter.Record(ip)
		return a.renderLogin(c, http.StatusUnauthorized, form,
			views.Notice{Kind: views.NoticeError, Text: auth.Message(err)})
	default:
		c.Logger().Errorf("login %s: %v", in.Email, err)
		return a.renderLogin(c, http.StatusInternalServerError, form,
			views.Notice{Kind: views.NoticeError, Text: auth.Message(err)})
	}
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Gate.SignOut(c.Request().Context(), requestSession(c)); err != nil {
		return err
	}
	flash(c, views.NoticeSuccess, "You have been signed out.")
	return c.Redirect(http.StatusSeeOther, "/admin/login/")
}

func (a *App) handleDashboard(c echo.Context) error {
	return a.renderDashboard(c, http.StatusOK, views.Dashboard{Tab: c.QueryParam("tab")})
}

// renderDashboard fills the lists and counters of d. Forms already set on d
// (for example a failed create with its errors) are kept.
func (a *App) renderDashboard(c echo.Context, code int, d views.Dashboard, notices ...views.Notice) error {
	ctx := c.Request().Context()
	switch d.Tab {
	case views.TabBooks, views.TabCategories:
	default:
		d.Tab = views.TabPosts
	}

	stats, err := a.Store.Stats(ctx)
	if err != nil {
		return err
	}
	posts, err := a.Store.ListAllPosts(ctx)
	if err != nil {
		return err
	}
	books, err := a.Store.ListBooks(ctx, "", 0)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories(ctx)
	if err != nil {
		return err
	}
	images, err := a.Store.ListImages(ctx)
	if err != nil {
		return err
	}

	opts := a.Content.Options()
	d.Stats = stats
	d.Categories = categories
	d.Posts = make([]content.PostView, 0, len(posts))
	for _, p := range posts {
		d.Posts = append(d.Posts, opts.NewPostView(p))
	}
	d.Books = make([]content.BookView, 0, len(books))
	for _, b := range books {
		d.Books = append(d.Books, opts.NewBookView(b))
	}
	d.NewPost.Categories = categories
	d.NewPost.Images = images
	if d.NewPost.Post.Status == "" {
		d.NewPost.Post.Status = model.StatusDraft
	}
	d.NewBook.Images = images

	p := a.page(c, a.PageMeta("Dashboard", "", "admin/dashboard"), notices...)
	return RenderStatus(c, code, a.Views.AdminDashboard(p, d))
}

func errorNotice(text string) views.Notice {
	return views.Notice{Kind: views.NoticeError, Text: text}
}

func (a *App) handleCreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	in := bindPost(c)
	form := views.PostForm{Post: in.apply(model.Post{})}

	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderDashboard(c, http.StatusUnprocessableEntity, views.Dashboard{Tab: views.TabPosts, NewPost: form})
	}

	post := form.Post
	if caller, ok := CurrentCaller(c); ok {
		post.AuthorID = caller.UserID
	}
	created, err := a.Store.CreatePost(ctx, post)
	switch {
	case errors.Is(err, model.ErrSlugExists):
		form.Errors = views.FieldErrors{"slug": "A published post already uses this slug"}
		return a.renderDashboard(c, http.StatusConflict, views.Dashboard{Tab: views.TabPosts, NewPost: form})
	case err != nil:
		c.Logger().Errorf("create post: %v", err)
		return a.renderDashboard(c, http.StatusInternalServerError,
			views.Dashboard{Tab: views.TabPosts, NewPost: form}, errorNotice("Failed to save the post. Please try again."))
	}

	c.Logger().Infof("post %s created (%s)", created.ID, created.Status)
	flash(c, views.NoticeSuccess, "Post added successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=posts")
}

func (a *App) handleEditPost(c echo.Context) error {
	post, err := a.Store.GetPost(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}
	return a.renderPostForm(c, http.StatusOK, views.PostForm{Post: post})
}

func (a *App) renderPostForm(c echo.Context, code int, form views.PostForm, notices ...views.Notice) error {
	ctx := c.Request().Context()
	categories, err := a.Store.ListCategories(ctx)
	if err != nil {
		return err
	}
	images, err := a.Store.ListImages(ctx)
	if err != nil {
		return err
	}
	form.Categories = categories
	form.Images = images
	p := a.page(c, a.PageMeta("Edit post", "", c.Request().URL.Path), notices...)
	return RenderStatus(c, code, a.Views.AdminPostForm(p, form))
}

func (a *App) handleUpdatePost(c echo.Context) error {
	ctx := c.Request().Context()
	existing, err := a.Store.GetPost(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}

	in := bindPost(c)
	form := views.PostForm{Post: in.apply(existing)}
	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderPostForm(c, http.StatusUnprocessableEntity, form)
	}

	_, err = a.Store.UpdatePost(ctx, form.Post)
	switch {
	case errors.Is(err, model.ErrSlugExists):
		form.Errors = views.FieldErrors{"slug": "A published post already uses this slug"}
		return a.renderPostForm(c, http.StatusConflict, form)
	case errors.Is(err, model.ErrNotFound):
		return a.renderNotFound(c)
	case err != nil:
		c.Logger().Errorf("update post %s: %v", existing.ID, err)
		return a.renderPostForm(c, http.StatusInternalServerError, form, errorNotice("Failed to save the post. Please try again."))
	}

	flash(c, views.NoticeSuccess, "Post updated successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=posts")
}

func (a *App) handleDeletePost(c echo.Context) error {
	id := c.Param("id")
	err := a.Store.DeletePost(c.Request().Context(), id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		flash(c, views.NoticeError, "That post no longer exists.")
	case err != nil:
		c.Logger().Errorf("delete post %s: %v", id, err)
		flash(c, views.NoticeError, "Failed to delete the post. Please try again.")
	default:
		flash(c, views.NoticeSuccess, "Post deleted successfully")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=posts")
}
