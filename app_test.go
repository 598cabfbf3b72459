package opinions

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"
)

const (
	testCSRF          = "test-csrf-token"
	testAdminEmail    = "admin@example.test"
	testAdminPassword = "correct-horse-battery"
)

// testClient drives an App over a real listener with a cookie jar, so
// sessions, flashes and CSRF cookies behave as in a browser.
type testClient struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
}

func newTestApp(t *testing.T, mutate ...func(*SiteConfig)) (*App, *testClient) {
	t.Helper()
	dir := t.TempDir()
	cfg := SiteConfig{
		Name:          "Test Opinions",
		URL:           "https://opinions.test",
		Author:        "Jane Admin",
		SessionSecret: "test-session-secret-0123456789abcdef",
		DatabaseURL:   filepath.Join(dir, "opinions.db"),
		UploadDir:     filepath.Join(dir, "uploads"),
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
		LogLevel:      "off",
	}
	for _, m := range mutate {
		m(&cfg)
	}

	a := New(cfg, ViewFuncs{}, WithStaticDir(dir))
	a.Echo.Logger.SetOutput(io.Discard)
	require.NoError(t, a.Setup())

	srv := httptest.NewServer(a.Echo)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "_csrf", Value: testCSRF, Path: "/"}})

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return a, &testClient{t: t, srv: srv, http: client}
}

func (c *testClient) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.srv.URL+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

// post submits form with the CSRF token added.
func (c *testClient) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form["_csrf"]; !ok {
		form.Set("_csrf", testCSRF)
	}
	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) delete(path string) (*http.Response, string) {
	c.t.Helper()
	return c.post(path, url.Values{"_method": {"DELETE"}})
}

func (c *testClient) login(email, password string) *http.Response {
	c.t.Helper()
	resp, _ := c.post("/admin/login/", url.Values{"email": {email}, "password": {password}})
	return resp
}

func (c *testClient) loginAdmin() {
	c.t.Helper()
	resp := c.login(testAdminEmail, testAdminPassword)
	require.Equal(c.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(c.t, "/admin/dashboard/", resp.Header.Get("Location"))
}

func (c *testClient) upload(path, filename string, data []byte) (*http.Response, string) {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(c.t, w.WriteField("_csrf", testCSRF))
	part, err := w.CreateFormFile("image", filename)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	a := New(SiteConfig{}, ViewFuncs{})
	require.Error(t, a.Setup())
}

func TestSetupBootstrapsAdmin(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	u, err := a.Store.GetUserByEmail(ctx, testAdminEmail)
	require.NoError(t, err)
	grants, err := a.Store.ListRoleGrants(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, "admin", grants[0].Role)

	profile, err := a.Store.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Admin", profile.FullName)
}

func TestSetupIsIdempotent(t *testing.T) {
	a, _ := newTestApp(t)
	require.NoError(t, a.Setup())
}

func TestWithCustomRoutes(t *testing.T) {
	dir := t.TempDir()
	a := New(SiteConfig{
		SessionSecret: "secret",
		DatabaseURL:   filepath.Join(dir, "db.sqlite"),
		LogLevel:      "off",
	}, ViewFuncs{}, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/hello/", func(c echo.Context) error { return c.String(http.StatusOK, "hi") })
	}))
	a.Echo.Logger.SetOutput(io.Discard)
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hi", rec.Body.String())
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]glog.Lvl{
		"debug":    glog.DEBUG,
		"WARN":     glog.WARN,
		"warning":  glog.WARN,
		"error":    glog.ERROR,
		"off":      glog.OFF,
		"":         glog.INFO,
		"nonsense": glog.INFO,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLogLevel(in), in)
	}
}
