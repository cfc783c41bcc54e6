package scenarios

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/paneltest/internal/formdata"
	"github.com/v0xg/paneltest/internal/suite"
)

type fields = formdata.Fields

var (
	str  = formdata.String
	list = formdata.List
	flag = formdata.Bool
)

// validBlog is overridable through TEST_DATA_DIR/blog.yaml.
var validBlog = fields{
	"title":    str("Selenium Test Blog"),
	"slug":     str("selenium-test-blog"),
	"excerpt":  str("This is a test blog created by Selenium automation"),
	"date":     str("2025-11-11"),
	"category": str("Testing"),
	"author":   str("Test Automation"),
	"readTime": str("5"),
	"tags":     list("selenium", "testing", "automation"),
	"image":    str("/images/test-blog.jpg"),
	"content":  str("# Test Blog Content\n\nThis is test content for Selenium automation testing."),
}

type edgeCase struct {
	name   string
	fields fields
}

var blogEdgeCases = []edgeCase{
	{"special_chars", fields{
		"title":   str("Blog with Special Chars !@#$%"),
		"slug":    str("blog-special-chars"),
		"excerpt": str("Testing special characters"),
		"content": str(`Content with special chars: <>&"'`),
	}},
	{"long_title", fields{
		"title":   str(strings.Repeat("A", 100)),
		"slug":    str("very-long-title-blog"),
		"excerpt": str("Testing long title"),
		"content": str("Content"),
	}},
	{"empty_fields", fields{
		"title":   str("Empty Fields Test"),
		"slug":    str("empty-fields-test"),
		"excerpt": str(""),
		"content": str(""),
	}},
	{"unicode", fields{
		"title":   str("Unicode Test Blog 中文 العربية 🔥"),
		"slug":    str("unicode-test-blog"),
		"excerpt": str("Testing unicode support"),
		"content": str("Content with unicode: 中文 العربية emoji: 🔥 🎉 ✅"),
	}},
	{"xss", fields{
		"title":   str("XSS Test <script>alert('xss')</script>"),
		"slug":    str("xss-test-blog"),
		"excerpt": str("Testing XSS prevention"),
		"content": str("<script>alert('XSS');</script>"),
	}},
}

// validProject is overridable through TEST_DATA_DIR/project.yaml.
var validProject = fields{
	"title":       str("Selenium Test Project"),
	"description": str("This is a test project created by Selenium automation for testing purposes"),
	"image":       str("/images/test-project.jpg"),
	"link":        str("https://test-project.example.com"),
	"github":      str("https://github.com/test/project"),
	"techStack":   list("React", "Node.js", "Python", "Selenium"),
	"category":    str("Web Development"),
	"featured":    flag(true),
}

func repeated(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

var projectEdgeCases = []edgeCase{
	{"special_chars", fields{
		"title":       str("Project with Special Chars !@#$%^&*()"),
		"description": str(`Testing special characters: <>&"'`),
		"techStack":   list("Test<>", "Special&Chars"),
	}},
	{"very_long", fields{
		"title":       str(strings.Repeat("P", 200)),
		"description": str(strings.Repeat("D", 1000)),
		"techStack":   list(repeated("Tech1", 20)...),
	}},
	{"unicode", fields{
		"title":       str("Unicode Project 中文 العربية 🚀"),
		"description": str("Project with unicode: 中文 العربية emoji: 🚀 💻 ✨"),
		"techStack":   list("技術", "تقنية", "🔥Stack"),
	}},
	{"invalid_urls", fields{
		"title":  str("Project with Invalid URLs"),
		"link":   str("not-a-valid-url"),
		"github": str("also-not-valid"),
	}},
}

// validGalleryItem is overridable through TEST_DATA_DIR/gallery.yaml. The
// id is unique per run since the panel rejects duplicates.
func validGalleryItem() fields {
	return fields{
		"id":       str(fmt.Sprintf("test-image-%d", time.Now().Unix())),
		"src":      str("/images/gallery/test-image.jpg"),
		"alt":      str("Test image for Selenium automation"),
		"title":    str("Selenium Test Image"),
		"category": str("Testing"),
	}
}

var galleryEdgeCases = []edgeCase{
	{"special_chars", fields{
		"id":    str("special-chars-!@#$"),
		"src":   str("/images/special<>&.jpg"),
		"alt":   str(`Alt with special chars: <>&"'`),
		"title": str("Title with special chars !@#$%"),
	}},
	{"very_long", fields{
		"id":    str("very-long-id-" + strings.Repeat("x", 100)),
		"src":   str("/images/" + strings.Repeat("long-path/", 20) + "image.jpg"),
		"alt":   str(strings.Repeat("A", 500)),
		"title": str(strings.Repeat("T", 200)),
	}},
	{"unicode", fields{
		"id":    str("unicode-中文"),
		"src":   str("/images/unicode-image.jpg"),
		"alt":   str("Unicode alt: 中文 العربية 🖼️"),
		"title": str("Unicode Title: 中文 العربية 🎨"),
	}},
}

// form is the create dialog of a resource page.
type form interface {
	OpenCreateDialog() error
	FillForm(formdata.Fields) error
	Save() error
	IsDialogOpen() bool
	CloseDialog() error
}

// submit fills and saves the create dialog without requiring confirmation,
// for input the panel may reject. A dialog left open is closed.
func submit(t *testing.T, s *suite.Session, f form, data fields) {
	t.Helper()
	require.NoError(t, f.OpenCreateDialog())
	require.NoError(t, f.FillForm(data))
	require.NoError(t, f.Save())
	s.Page.Pause(2 * time.Second)
	if f.IsDialogOpen() {
		s.Log.Warn("Dialog still open after save, input was likely rejected")
		require.NoError(t, f.CloseDialog())
	}
}
