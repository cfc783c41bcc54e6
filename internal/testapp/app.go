// Package testapp is a self-contained admin panel with the screens the
// scenario suite drives. It backs the browser tests of this module and
// `paneltest demo`.
package testapp

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	sessionCookie = "panel_session"
	blogsPerPage  = 10
)

// Options configures an App.
type Options struct {
	Password string
	// Seed fills the store with sample content.
	Seed bool
	// Now is the clock for records and backups; defaults to time.Now.
	Now func() time.Time
	// Log receives request logs; nil disables them.
	Log *logrus.Logger
}

// App is the admin panel. It implements http.Handler.
type App struct {
	store    *Store
	password string
	token    string
	render   *renderer
	engine   *gin.Engine
	log      *logrus.Logger
}

type navSection struct {
	Name string
	Path string
}

var navSections = []navSection{
	{"Blogs", "/blogs"},
	{"Portfolio", "/portfolio"},
	{"About", "/about"},
	{"Services", "/services"},
	{"Technologies", "/technologies"},
	{"Timeline", "/timeline"},
	{"Gallery", "/gallery"},
	{"Header", "/header"},
	{"Site Config", "/site-config"},
	{"Backups", "/backups"},
}

// New builds the panel and its routes.
func New(opts Options) (*App, error) {
	if opts.Password == "" {
		opts.Password = "admin"
	}
	store := NewStore(opts.Now)
	if opts.Seed {
		if err := Seed(store); err != nil {
			return nil, err
		}
	}
	a := &App{
		store:    store,
		password: opts.Password,
		token:    uuid.NewString(),
		render:   newRenderer(false),
		log:      opts.Log,
	}
	a.engine = a.routes()
	return a, nil
}

// Store exposes the panel's data.
func (a *App) Store() *Store {
	return a.store
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.engine.ServeHTTP(w, r)
}

func (a *App) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if a.log != nil {
		r.Use(a.requestLog())
	}

	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))
	r.GET("/images/*path", placeholderImage)

	r.GET("/login", a.loginPage)
	r.POST("/login", a.login)
	r.POST("/logout", a.logout)

	auth := r.Group("/", a.requireAuth)
	auth.GET("/", a.dashboard)
	for _, res := range Resources {
		res := res
		auth.GET("/"+res.Path, func(c *gin.Context) { a.resourcePage(c, res) })
		auth.POST("/api/"+res.Path, func(c *gin.Context) { a.createRecord(c, res) })
		auth.PUT("/api/"+res.Path+"/:key", func(c *gin.Context) { a.updateRecord(c, res) })
		auth.DELETE("/api/"+res.Path+"/:key", func(c *gin.Context) { a.deleteRecord(c, res) })
	}
	for _, s := range []string{"about", "services", "technologies", "timeline", "header"} {
		auth.GET("/"+s, a.sectionPage)
	}
	auth.GET("/site-config", a.siteConfigPage)
	auth.POST("/api/site-config", a.saveSiteConfig)
	auth.GET("/backups", a.backupsPage)
	auth.GET("/api/backups/:filename", a.getBackup)
	return r
}

func (a *App) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Microsecond),
		}).Info("request")
	}
}

func (a *App) requireAuth(c *gin.Context) {
	if v, err := c.Cookie(sessionCookie); err == nil && v == a.token {
		c.Next()
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

// page builds the layout context shared by every signed-in screen.
func (a *App) page(c *gin.Context, title string) pongo2.Context {
	return pongo2.Context{
		"page_title":   title,
		"sections":     navSections,
		"active":       c.Request.URL.Path,
		"backup_count": len(a.store.Backups()),
	}
}

func (a *App) loginPage(c *gin.Context) {
	a.render.HTML(c, http.StatusOK, "login.html", pongo2.Context{
		"page_title":    "Login",
		"demo_password": a.password,
	})
}

func (a *App) login(c *gin.Context) {
	if c.PostForm("password") != a.password {
		a.render.HTML(c, http.StatusOK, "login.html", pongo2.Context{
			"page_title":    "Login",
			"demo_password": a.password,
			"error":         "Invalid password",
			"flash":         "Invalid password",
			"flash_kind":    "error",
		})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, a.token, 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) logout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

type countCard struct {
	Name  string
	Path  string
	Count int
}

func (a *App) dashboard(c *gin.Context) {
	ctx := a.page(c, "Dashboard")
	var cards []countCard
	for _, res := range Resources {
		cards = append(cards, countCard{Name: res.Title, Path: "/" + res.Path, Count: len(a.store.List(res))})
	}
	cards = append(cards, countCard{Name: "Backups", Path: "/backups", Count: len(a.store.Backups())})
	ctx["counts"] = cards
	a.render.HTML(c, http.StatusOK, "dashboard.html", ctx)
}

func (a *App) sectionPage(c *gin.Context) {
	name := strings.TrimPrefix(c.Request.URL.Path, "/")
	a.render.HTML(c, http.StatusOK, "section.html", a.page(c, strings.ToUpper(name[:1])+name[1:]))
}

type formField struct {
	ID       string
	Label    string
	Kind     string
	Type     string
	Required bool
}

type rowView struct {
	Key      string
	Data     string
	Cells    []string
	HasImage bool
	Image    string
	Alt      string
}

func rowViews(res *Resource, recs []*Record) []rowView {
	rows := make([]rowView, 0, len(recs))
	for _, rec := range recs {
		data := make(map[string]string, len(res.Fields))
		for _, f := range res.Fields {
			switch v := rec.Values[f.ID].(type) {
			case []string:
				data[f.ID] = strings.Join(v, ",")
			case bool:
				data[f.ID] = strconv.FormatBool(v)
			case string:
				data[f.ID] = v
			}
		}
		encoded, _ := json.Marshal(data)

		row := rowView{Key: rec.Key, Data: string(encoded)}
		for _, col := range res.Columns {
			row.Cells = append(row.Cells, rec.String(col))
		}
		if res.Image != "" {
			row.HasImage = true
			row.Image = rec.String(res.Image)
			row.Alt = rec.String("alt")
		}
		rows = append(rows, row)
	}
	return rows
}

func (a *App) columns(res *Resource) []string {
	cols := make([]string, 0, len(res.Columns))
	for _, id := range res.Columns {
		f, _ := res.field(id)
		cols = append(cols, f.Label)
	}
	return cols
}

// listing returns the records shown on page of res. Only blogs paginate.
func (a *App) listing(res *Resource, page int) (recs []*Record, pages int) {
	recs = a.store.List(res)
	if res != Blogs {
		return recs, 1
	}
	pages = (len(recs) + blogsPerPage - 1) / blogsPerPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 || page > pages {
		page = 1
	}
	start := (page - 1) * blogsPerPage
	end := min(start+blogsPerPage, len(recs))
	return recs[start:end], pages
}

func (a *App) resourcePage(c *gin.Context, res *Resource) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	recs, pages := a.listing(res, page)
	if page < 1 || page > pages {
		page = 1
	}

	fields := make([]formField, 0, len(res.Fields))
	for _, f := range res.Fields {
		fields = append(fields, formField{ID: f.ID, Label: f.Label, Kind: string(f.Kind), Type: f.InputType(), Required: f.Required})
	}

	ctx := a.page(c, res.Title)
	ctx["res"] = res
	ctx["fields"] = fields
	ctx["columns"] = a.columns(res)
	ctx["rows"] = rowViews(res, recs)
	ctx["searchable"] = res == Blogs
	ctx["page"] = page
	ctx["pages"] = pages
	a.render.HTML(c, http.StatusOK, "resource.html", ctx)
}

// mutationResult answers a JSON mutation with the refreshed first page of
// rows so the client can swap the table body.
func (a *App) mutationResult(c *gin.Context, code int, res *Resource, message string) {
	recs, _ := a.listing(res, 1)
	rows, err := a.render.execute("rows.html", pongo2.Context{"rows": rowViews(res, recs)})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(code, gin.H{
		"message": message,
		"rows":    rows,
		"backups": len(a.store.Backups()),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func (a *App) createRecord(c *gin.Context, res *Resource) {
	var in map[string]string
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if _, err := a.store.Create(res, in); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	a.mutationResult(c, http.StatusCreated, res, res.Name+" created successfully")
}

func (a *App) updateRecord(c *gin.Context, res *Resource) {
	var in map[string]string
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if _, err := a.store.Update(res, c.Param("key"), in); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	a.mutationResult(c, http.StatusOK, res, res.Name+" updated successfully")
}

func (a *App) deleteRecord(c *gin.Context, res *Resource) {
	if err := a.store.Delete(res, c.Param("key")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	a.mutationResult(c, http.StatusOK, res, res.Name+" deleted successfully")
}

func (a *App) siteConfigPage(c *gin.Context) {
	ctx := a.page(c, "Site Config")
	ctx["settings"] = a.store.Settings()
	a.render.HTML(c, http.StatusOK, "siteconfig.html", ctx)
}

func (a *App) saveSiteConfig(c *gin.Context) {
	var in map[string]bool
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	a.store.SaveSettings(in)
	c.JSON(http.StatusOK, gin.H{
		"message": "Configuration saved successfully",
		"backups": len(a.store.Backups()),
	})
}

type backupView struct {
	Filename string
	Date     string
	Size     string
}

func (a *App) backupsPage(c *gin.Context) {
	ctx := a.page(c, "Backups")
	var views []backupView
	for _, b := range a.store.Backups() {
		views = append(views, backupView{Filename: b.Filename, Date: b.Date(), Size: b.Size()})
	}
	ctx["backups"] = views
	a.render.HTML(c, http.StatusOK, "backups.html", ctx)
}

func (a *App) getBackup(c *gin.Context) {
	b, ok := a.store.Backup(c.Param("filename"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backup not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

var placeholderPNG = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: 0x57, G: 0x60, B: 0x6a, A: 0xff})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}()

// placeholderImage answers every /images path so gallery thumbnails load.
func placeholderImage(c *gin.Context) {
	c.Data(http.StatusOK, "image/png", placeholderPNG)
}
