package opinions

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/views"
)

func (a *App) handleCreateBook(c echo.Context) error {
	in := bindBook(c)
	form := views.BookForm{Book: in.apply(model.Book{})}

	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderDashboard(c, http.StatusUnprocessableEntity, views.Dashboard{Tab: views.TabBooks, NewBook: form})
	}

	book := form.Book
	if caller, ok := CurrentCaller(c); ok {
		book.CreatedBy = caller.UserID
	}
	if _, err := a.Store.CreateBook(c.Request().Context(), book); err != nil {
		c.Logger().Errorf("create book: %v", err)
		return a.renderDashboard(c, http.StatusInternalServerError,
			views.Dashboard{Tab: views.TabBooks, NewBook: form}, errorNotice("Failed to save the book. Please try again."))
	}

	flash(c, views.NoticeSuccess, "Book added successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=books")
}

func (a *App) handleEditBook(c echo.Context) error {
	book, err := a.Store.GetBook(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}
	return a.renderBookForm(c, http.StatusOK, views.BookForm{Book: book})
}

func (a *App) renderBookForm(c echo.Context, code int, form views.BookForm, notices ...views.Notice) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	form.Images = images
	p := a.page(c, a.PageMeta("Edit book", "", c.Request().URL.Path), notices...)
	return RenderStatus(c, code, a.Views.AdminBookForm(p, form))
}

func (a *App) handleUpdateBook(c echo.Context) error {
	ctx := c.Request().Context()
	existing, err := a.Store.GetBook(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}

	in := bindBook(c)
	form := views.BookForm{Book: in.apply(existing)}
	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderBookForm(c, http.StatusUnprocessableEntity, form)
	}

	_, err = a.Store.UpdateBook(ctx, form.Book)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return a.renderNotFound(c)
	case err != nil:
		c.Logger().Errorf("update book %s: %v", existing.ID, err)
		return a.renderBookForm(c, http.StatusInternalServerError, form, errorNotice("Failed to save the book. Please try again."))
	}

	flash(c, views.NoticeSuccess, "Book updated successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=books")
}

func (a *App) handleDeleteBook(c echo.Context) error {
	id := c.Param("id")
	err := a.Store.DeleteBook(c.Request().Context(), id)
	switch {
	case errors.Is(err, model.ErrNotFound):
		flash(c, views.NoticeError, "That book no longer exists.")
	case err != nil:
		c.Logger().Errorf("delete book %s: %v", id, err)
		flash(c, views.NoticeError, "Failed to delete the book. Please try again.")
	default:
		flash(c, views.NoticeSuccess, "Book deleted successfully")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=books")
}

func (a *App) handleCreateCategory(c echo.Context) error {
	in := bindCategory(c)
	form := views.CategoryForm{Category: in.apply(model.Category{})}

	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderDashboard(c, http.StatusUnprocessableEntity, views.Dashboard{Tab: views.TabCategories, NewCategory: form})
	}

	_, err := a.Store.CreateCategory(c.Request().Context(), form.Category)
	switch {
	case errors.Is(err, model.ErrNameExists):
		form.Errors = views.FieldErrors{"name": "A category with this name already exists"}
		return a.renderDashboard(c, http.StatusConflict, views.Dashboard{Tab: views.TabCategories, NewCategory: form})
	case err != nil:
		c.Logger().Errorf("create category: %v", err)
		return a.renderDashboard(c, http.StatusInternalServerError,
			views.Dashboard{Tab: views.TabCategories, NewCategory: form}, errorNotice("Failed to save the category. Please try again."))
	}

	flash(c, views.NoticeSuccess, "Category added successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=categories")
}

func (a *App) handleEditCategory(c echo.Context) error {
	cat, err := a.Store.GetCategory(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}
	return a.renderCategoryForm(c, http.StatusOK, views.CategoryForm{Category: cat})
}

func (a *App) renderCategoryForm(c echo.Context, code int, form views.CategoryForm, notices ...views.Notice) error {
	p := a.page(c, a.PageMeta("Edit category", "", c.Request().URL.Path), notices...)
	return RenderStatus(c, code, a.Views.AdminCategoryForm(p, form))
}

func (a *App) handleUpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	existing, err := a.Store.GetCategory(ctx, c.Param("id"))
	if errors.Is(err, model.ErrNotFound) {
		return a.renderNotFound(c)
	} else if err != nil {
		return err
	}

	in := bindCategory(c)
	form := views.CategoryForm{Category: in.apply(existing)}
	if errs, err := fieldErrors(in.Validate()); err != nil {
		return err
	} else if errs != nil {
		form.Errors = errs
		return a.renderCategoryForm(c, http.StatusUnprocessableEntity, form)
	}

	_, err = a.Store.UpdateCategory(ctx, form.Category)
	switch {
	case errors.Is(err, model.ErrNameExists):
		form.Errors = views.FieldErrors{"name": "A category with this name already exists"}
		return a.renderCategoryForm(c, http.StatusConflict, form)
	case errors.Is(err, model.ErrNotFound):
		return a.renderNotFound(c)
	case err != nil:
		c.Logger().Errorf("update category %s: %v", existing.ID, err)
		return a.renderCategoryForm(c, http.StatusInternalServerError, form, errorNotice("Failed to save the category. Please try again."))
	}

	flash(c, views.NoticeSuccess, "Category updated successfully")
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=categories")
}

// handleDeleteCategory refuses while posts are still filed under the
// category; the row is kept and the editor is told why.
func (a *App) handleDeleteCategory(c echo.Context) error {
	id := c.Param("id")
	err := a.Store.DeleteCategory(c.Request().Context(), id)
	switch {
	case errors.Is(err, model.ErrCategoryInUse):
		flash(c, views.NoticeError, "Cannot delete a category that is still used by posts.")
	case errors.Is(err, model.ErrNotFound):
		flash(c, views.NoticeError, "That category no longer exists.")
	case err != nil:
		c.Logger().Errorf("delete category %s: %v", id, err)
		flash(c, views.NoticeError, "Failed to delete the category. Please try again.")
	default:
		flash(c, views.NoticeSuccess, "Category deleted successfully")
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard/?tab=categories")
}
