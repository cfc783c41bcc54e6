package testapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type client struct {
	t      *testing.T
	app    *App
	cookie *http.Cookie
}

func newClient(t *testing.T, seed bool) *client {
	t.Helper()
	app, err := New(Options{Password: "secret", Seed: seed})
	require.NoError(t, err)
	return &client{t: t, app: app}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.ServeHTTP(w, req)
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) json(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	data, err := json.Marshal(body)
	require.NoError(c.t, err)
	req := httptest.NewRequest(method, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	w := c.do(req)
	var out map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func (c *client) postLogin(password string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"password": {password}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) login() {
	w := c.postLogin("secret")
	require.Equal(c.t, http.StatusSeeOther, w.Code)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	require.NotNil(c.t, c.cookie)
}

func doc(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return d
}

func TestRequiresLogin(t *testing.T) {
	c := newClient(t, false)

	w := c.get("/blogs")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w, body := c.json(http.MethodPost, "/api/blogs", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated", body["error"])
}

func TestLoginPage(t *testing.T) {
	c := newClient(t, false)
	d := doc(t, c.get("/login"))

	assert.Equal(t, 1, d.Find("input#password[type=password]").Length())
	assert.Equal(t, "Sign In", d.Find("button[type=submit]").Text())
	assert.Equal(t, "secret", d.Find("code").Text())
	assert.Equal(t, 0, d.Find("[role=alert]").Length())
	_, hidden := d.Find("#toast").Attr("hidden")
	assert.True(t, hidden)
}

func TestLoginWrongPassword(t *testing.T) {
	c := newClient(t, false)
	d := doc(t, c.postLogin("wrong"))

	assert.Equal(t, "Invalid password", d.Find("[role=alert]").Text())
	toast := d.Find("#toast")
	_, hidden := toast.Attr("hidden")
	assert.False(t, hidden)
	assert.Equal(t, "Invalid password", toast.Text())
	assert.True(t, toast.HasClass("toast-error"))
}

func TestDashboardAfterLogin(t *testing.T) {
	c := newClient(t, true)
	c.login()
	d := doc(t, c.get("/"))

	for _, s := range navSections {
		assert.Equal(t, 1, d.Find(`aside a[href="`+s.Path+`"]`).Length(), s.Name)
	}
	assert.Equal(t, 1, d.Find("header button.theme-toggle[aria-label='Toggle theme']").Length())
	assert.Contains(t, d.Find("header button.backup-indicator").Text(), "Backups")
	assert.Equal(t, "Dashboard", d.Find("main h1").Text())
}

func TestSectionPages(t *testing.T) {
	c := newClient(t, false)
	c.login()
	for _, p := range []string{"/about", "/services", "/technologies", "/timeline", "/header"} {
		d := doc(t, c.get(p))
		assert.NotEmpty(t, d.Find("main h1").Text(), p)
		assert.Equal(t, 1, d.Find(`aside a.active[href="`+p+`"]`).Length(), p)
	}
}

func TestBlogsPage(t *testing.T) {
	c := newClient(t, true)
	c.login()
	d := doc(t, c.get("/blogs"))

	assert.Equal(t, "Blogs", d.Find("main h1").Text())
	assert.Equal(t, "Add Blog", d.Find("#add-button").Text())
	assert.Equal(t, 10, d.Find("tbody tr").Length())
	assert.Equal(t, "Sample Post 12", d.Find("tbody tr").First().Find("td").First().Text(), "newest first")
	assert.Equal(t, 1, d.Find("input[type=search]").Length())
	assert.Equal(t, 1, d.Find("[role=navigation][aria-label=pagination]").Length())
	_, disabled := d.Find("button[aria-label='Previous page']").Attr("disabled")
	assert.True(t, disabled)

	dialog := d.Find("[role=dialog]")
	_, hidden := dialog.Attr("hidden")
	assert.True(t, hidden)
	for _, f := range Blogs.Fields {
		assert.Equal(t, 1, dialog.Find("#"+f.ID).Length(), f.ID)
	}
	assert.Equal(t, "date", dialog.Find("#date").AttrOr("type", ""))
	assert.Equal(t, 1, dialog.Find("button[aria-label=Close]").Length())

	page2 := doc(t, c.get("/blogs?page=2"))
	assert.Equal(t, 2, page2.Find("tbody tr").Length())
	_, disabled = page2.Find("button[aria-label='Next page']").Attr("disabled")
	assert.True(t, disabled)
}

func TestPortfolioAndGalleryPages(t *testing.T) {
	c := newClient(t, true)
	c.login()

	p := doc(t, c.get("/portfolio"))
	assert.Equal(t, "Portfolio", p.Find("main h1").Text())
	assert.Equal(t, "checkbox", p.Find("input#featured").AttrOr("type", ""))
	assert.Equal(t, 0, p.Find("[role=navigation][aria-label=pagination]").Length())

	g := doc(t, c.get("/gallery"))
	assert.Equal(t, "Gallery", g.Find("main h1").Text())
	assert.Equal(t, 4, g.Find("tbody img").Length())
}

func TestCreateBlog(t *testing.T) {
	c := newClient(t, false)
	c.login()

	w, body := c.json(http.MethodPost, "/api/blogs", map[string]string{
		"title": "Selenium Test Blog <b>",
		"slug":  "selenium-test-blog",
		"date":  "2025-11-11",
		"tags":  "selenium, testing,,automation",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Blog created successfully", body["message"])
	assert.EqualValues(t, 1, body["backups"])
	assert.Contains(t, body["rows"], "Selenium Test Blog &lt;b&gt;")

	recs := c.app.Store().List(Blogs)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"selenium", "testing", "automation"}, recs[0].Values["tags"])

	w, body = c.json(http.MethodPost, "/api/blogs", map[string]string{"title": "Again", "slug": "selenium-test-blog"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, body["error"], "already exists")

	w, body = c.json(http.MethodPost, "/api/blogs", map[string]string{"title": "Bad", "slug": "bad", "date": "invalid-date"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Date is invalid", body["error"])
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	c := newClient(t, true)
	c.login()
	key := c.app.Store().List(Portfolio)[0].Key

	w, body := c.json(http.MethodPut, "/api/portfolio/"+key, map[string]string{
		"title":       "Updated Project",
		"description": "Changed",
		"featured":    "true",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Project updated successfully", body["message"])
	assert.Equal(t, true, c.app.Store().List(Portfolio)[0].Values["featured"])

	req := httptest.NewRequest(http.MethodDelete, "/api/portfolio/"+key, nil)
	w = c.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, c.app.Store().List(Portfolio), 2)

	w = c.do(httptest.NewRequest(http.MethodDelete, "/api/portfolio/"+key, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSiteConfig(t *testing.T) {
	c := newClient(t, false)
	c.login()

	d := doc(t, c.get("/site-config"))
	assert.Equal(t, "Site Configuration", d.Find("main h1").Text())
	switches := d.Find("button[role=switch]")
	assert.Equal(t, len(defaultSettings()), switches.Length())
	assert.Equal(t, "true", switches.First().AttrOr("aria-checked", ""))
	assert.Equal(t, "Show Blog Section", d.Find(".setting").First().Find("label").Text())

	w, body := c.json(http.MethodPost, "/api/site-config", map[string]bool{"showBlog": false, "unknown": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Configuration saved successfully", body["message"])

	d = doc(t, c.get("/site-config"))
	assert.Equal(t, "false", d.Find("#switch-showBlog").AttrOr("aria-checked", ""))
}

func TestBackupsPage(t *testing.T) {
	c := newClient(t, true)
	c.login()

	d := doc(t, c.get("/backups"))
	assert.Equal(t, "Backups", d.Find("main h1").Text())
	assert.Equal(t, []string{"Filename", "Date", "Size", "Actions"}, d.Find("thead th").Map(func(_ int, s *goquery.Selection) string { return s.Text() }))
	rows := d.Find("tbody tr")
	assert.Equal(t, 12+3+4, rows.Length())
	first := rows.First().Find("td").First().Text()
	assert.True(t, strings.HasPrefix(first, "gallery_"), first)
	assert.True(t, strings.HasSuffix(first, ".json"), first)
	assert.Equal(t, 1, d.Find("button[aria-label=Refresh]").Length())

	w := c.get("/api/backups/" + url.PathEscape(first))
	require.Equal(t, http.StatusOK, w.Code)
	var b Backup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, first, b.Filename)
	assert.Contains(t, b.Content, "sample-image-4")

	assert.Equal(t, http.StatusNotFound, c.get("/api/backups/nope.json").Code)
}

func TestStaticAndImages(t *testing.T) {
	c := newClient(t, false)

	w := c.get("/static/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "showToast")

	w = c.get("/images/gallery/whatever.jpg")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}
