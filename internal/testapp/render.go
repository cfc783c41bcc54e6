package testapp

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// renderer executes templates from the embedded set.
type renderer struct {
	set *pongo2.TemplateSet
}

func newRenderer(debug bool) *renderer {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	set := pongo2.NewSet("testapp", pongo2.NewFSLoader(sub))
	set.Debug = debug
	return &renderer{set: set}
}

func (r *renderer) execute(name string, ctx pongo2.Context) (string, error) {
	tmpl, err := r.set.FromCache(name)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx)
}

// HTML renders name into the response, or a 500 on template errors.
func (r *renderer) HTML(c *gin.Context, code int, name string, ctx pongo2.Context) {
	out, err := r.execute(name, ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, "Template execution error: %v", err)
		return
	}
	c.Data(code, "text/html; charset=utf-8", []byte(out))
}
