// Package opinions is a personal opinion blog and book shelf built with Go,
// Echo, and templ. It serves published articles and recommended books to
// visitors and an admin area for editors holding the admin role.
//
// Views are supplied through the ViewFuncs struct; opinions handles routing,
// sessions, authorization, persistence and content resolution.
package opinions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
	"github.com/eringen/opinions/views"
)

// ViewFuncs holds the components the handlers render. Nil fields fall back
// to the defaults from the views package.
type ViewFuncs struct {
	Home              func(p views.Page, h content.Home) templ.Component
	Articles          func(p views.Page, a content.Articles) templ.Component
	Post              func(p views.Page, r content.Result) templ.Component
	Books             func(p views.Page, books []content.BookView, query string) templ.Component
	Book              func(p views.Page, r content.BookResult, form views.ReviewForm) templ.Component
	About             func(p views.Page) templ.Component
	AdminLogin        func(p views.Page, form views.LoginForm) templ.Component
	AdminDashboard    func(p views.Page, d views.Dashboard) templ.Component
	AdminPostForm     func(p views.Page, f views.PostForm) templ.Component
	AdminBookForm     func(p views.Page, f views.BookForm) templ.Component
	AdminCategoryForm func(p views.Page, f views.CategoryForm) templ.Component
	AdminImages       func(p views.Page, images []model.Image) templ.Component
	NotFound          func(p views.Page) templ.Component
	ServerError       func(p views.Page) templ.Component
}

// DefaultViews returns the embedded views shipped with opinions.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:              views.Home,
		Articles:          views.Articles,
		Post:              views.Post,
		Books:             views.Books,
		Book:              views.Book,
		About:             views.About,
		AdminLogin:        views.AdminLogin,
		AdminDashboard:    views.AdminDashboard,
		AdminPostForm:     views.AdminPostForm,
		AdminBookForm:     views.AdminBookForm,
		AdminCategoryForm: views.AdminCategoryForm,
		AdminImages:       views.AdminImages,
		NotFound:          views.NotFound,
		ServerError:       views.ServerError,
	}
}

func (v ViewFuncs) withDefaults() ViewFuncs {
	d := DefaultViews()
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.Articles == nil {
		v.Articles = d.Articles
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.Books == nil {
		v.Books = d.Books
	}
	if v.Book == nil {
		v.Book = d.Book
	}
	if v.About == nil {
		v.About = d.About
	}
	if v.AdminLogin == nil {
		v.AdminLogin = d.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = d.AdminDashboard
	}
	if v.AdminPostForm == nil {
		v.AdminPostForm = d.AdminPostForm
	}
	if v.AdminBookForm == nil {
		v.AdminBookForm = d.AdminBookForm
	}
	if v.AdminCategoryForm == nil {
		v.AdminCategoryForm = d.AdminCategoryForm
	}
	if v.AdminImages == nil {
		v.AdminImages = d.AdminImages
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App is the central opinions application. It wires together the store,
// the authorization gate, the content resolver, handlers, middleware and
// views.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *store.Store
	Gate    *auth.Gate
	Content *content.Resolver
	Views   ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	ownsStore    bool
	ready        bool
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     v.withDefaults(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the configuration, opens the store, bootstraps the admin
// account and registers middleware and routes. Start calls it; tests call it
// directly and drive a.Echo with httptest.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	if a.Store == nil {
		s, err := store.Open(a.Config.DatabaseDriver, a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opinions: init store: %w", err)
		}
		a.Store = s
		a.ownsStore = true
	}

	a.Gate = auth.NewGate(a.Store, a.Echo.Logger, a.Config.SessionTTL)
	a.Content = content.NewResolver(a.Store, content.Options{
		RelatedLimit:    a.Config.RelatedLimit,
		ExcerptLength:   a.Config.ExcerptLength,
		WordsPerMinute:  a.Config.WordsPerMinute,
		DefaultImageURL: a.Config.DefaultImageURL,
	}, a.Echo.Logger)
	a.loginLimiter = NewLoginLimiter(a.Config.LoginAttempts, a.Config.LoginWindow)

	if err := a.bootstrapAdmin(context.Background()); err != nil {
		return fmt.Errorf("opinions: bootstrap admin: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("opinions: listening on %s", a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(StaticAssets, "static")
	assetHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets))))
	e.GET("/public/style.css", assetHandler)
	e.GET("/public/placeholder.svg", assetHandler)

	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.Config.UploadDir)

	// Public routes
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/articles/", a.handleArticles)
	e.GET("/post/:id/", a.handlePost)
	e.GET("/post/slug/:slug/", a.handlePostBySlug)
	e.GET("/books/", a.handleBooks)
	e.GET("/book/:id/", a.handleBook)
	e.POST("/book/:id/reviews/", a.handleReview)
	e.GET("/about/", a.handleAbout)

	// Sign in and out are reachable without a session.
	e.GET("/admin/login/", a.handleLoginPage)
	e.POST("/admin/login/", a.handleLogin)
	e.POST("/admin/logout/", a.handleLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/", handleAdminRedirect)
	admin.GET("/dashboard/", a.handleDashboard)

	admin.POST("/posts/", a.handleCreatePost)
	admin.GET("/posts/:id/", a.handleEditPost)
	admin.POST("/posts/:id/", a.handleUpdatePost)
	admin.DELETE("/posts/:id/", a.handleDeletePost)

	admin.POST("/books/", a.handleCreateBook)
	admin.GET("/books/:id/", a.handleEditBook)
	admin.POST("/books/:id/", a.handleUpdateBook)
	admin.DELETE("/books/:id/", a.handleDeleteBook)

	admin.POST("/categories/", a.handleCreateCategory)
	admin.GET("/categories/:id/", a.handleEditCategory)
	admin.POST("/categories/:id/", a.handleUpdateCategory)
	admin.DELETE("/categories/:id/", a.handleDeleteCategory)

	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/upload/", a.handleImageUpload)
	admin.DELETE("/images/:filename/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}

func parseLogLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn", "warning":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("opinions: required environment variable %s is not set", key)
	}
	return v
}
