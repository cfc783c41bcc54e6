package testapp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Validation failures are shown to the user verbatim.
var (
	ErrRequired  = errors.New("is required")
	ErrDuplicate = errors.New("already exists")
	ErrInvalid   = errors.New("is invalid")
	ErrNotFound  = errors.New("not found")
)

// FieldKind selects how a field is rendered and stored.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindDate     FieldKind = "date"
	KindNumber   FieldKind = "number"
	KindURL      FieldKind = "url"
	KindList     FieldKind = "list"
	KindCheckbox FieldKind = "checkbox"
)

// FieldSpec describes one input of a resource form.
type FieldSpec struct {
	ID       string
	Label    string
	Kind     FieldKind
	Required bool
}

// InputType is the HTML input type attribute.
func (f FieldSpec) InputType() string {
	switch f.Kind {
	case KindDate, KindNumber:
		return string(f.Kind)
	case KindCheckbox:
		return "checkbox"
	default:
		return "text"
	}
}

// Resource is a collection managed through a table and a dialog.
type Resource struct {
	Name   string // singular, for messages
	Title  string // page heading
	Path   string
	Key    string // field holding the unique key; "" generates one
	Fields []FieldSpec
	// Columns are the field ids shown in the table.
	Columns []string
	// Image names the field rendered as a thumbnail, if any.
	Image string
}

func (r *Resource) field(id string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Record is one stored item. Values hold string, []string or bool.
type Record struct {
	Key     string         `json:"key"`
	Values  map[string]any `json:"values"`
	Created time.Time      `json:"created"`
}

func (rec *Record) String(id string) string {
	switch v := rec.Values[id].(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	}
	return ""
}

// Normalize converts submitted form values to stored values and validates
// them.
func (r *Resource) Normalize(in map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		raw := strings.TrimSpace(in[f.ID])
		if f.Required && raw == "" {
			return nil, fmt.Errorf("%s %w", f.Label, ErrRequired)
		}
		switch f.Kind {
		case KindCheckbox:
			out[f.ID] = raw == "true" || raw == "on"
		case KindList:
			var items []string
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					items = append(items, s)
				}
			}
			out[f.ID] = items
		case KindDate:
			if raw != "" {
				if _, err := time.Parse("2006-01-02", raw); err != nil {
					return nil, fmt.Errorf("%s %w", f.Label, ErrInvalid)
				}
			}
			out[f.ID] = raw
		case KindNumber:
			if raw != "" {
				if _, err := strconv.Atoi(raw); err != nil {
					return nil, fmt.Errorf("%s %w", f.Label, ErrInvalid)
				}
			}
			out[f.ID] = raw
		case KindURL:
			if raw != "" {
				u, err := url.Parse(raw)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return nil, fmt.Errorf("%s %w", f.Label, ErrInvalid)
				}
			}
			out[f.ID] = raw
		default:
			out[f.ID] = raw
		}
	}
	return out, nil
}

// Blogs, Portfolio and Gallery are the collections the panel manages.
var (
	Blogs = &Resource{
		Name:  "Blog",
		Title: "Blogs",
		Path:  "blogs",
		Key:   "slug",
		Fields: []FieldSpec{
			{ID: "title", Label: "Title", Kind: KindText, Required: true},
			{ID: "slug", Label: "Slug", Kind: KindText, Required: true},
			{ID: "excerpt", Label: "Excerpt", Kind: KindTextarea},
			{ID: "date", Label: "Date", Kind: KindDate},
			{ID: "category", Label: "Category", Kind: KindText},
			{ID: "author", Label: "Author", Kind: KindText},
			{ID: "readTime", Label: "Read Time", Kind: KindNumber},
			{ID: "tags", Label: "Tags", Kind: KindList},
			{ID: "image", Label: "Image", Kind: KindText},
			{ID: "content", Label: "Content", Kind: KindTextarea},
		},
		Columns: []string{"title", "slug", "category", "date"},
	}

	Portfolio = &Resource{
		Name:  "Project",
		Title: "Portfolio",
		Path:  "portfolio",
		Fields: []FieldSpec{
			{ID: "title", Label: "Title", Kind: KindText, Required: true},
			{ID: "description", Label: "Description", Kind: KindTextarea, Required: true},
			{ID: "image", Label: "Image", Kind: KindText},
			{ID: "link", Label: "Live Link", Kind: KindURL},
			{ID: "github", Label: "GitHub", Kind: KindURL},
			{ID: "techStack", Label: "Tech Stack", Kind: KindList},
			{ID: "category", Label: "Category", Kind: KindText},
			{ID: "featured", Label: "Featured", Kind: KindCheckbox},
		},
		Columns: []string{"title", "category", "techStack", "featured"},
	}

	Gallery = &Resource{
		Name:  "Image",
		Title: "Gallery",
		Path:  "gallery",
		Key:   "id",
		Fields: []FieldSpec{
			{ID: "id", Label: "ID", Kind: KindText, Required: true},
			{ID: "src", Label: "Image URL", Kind: KindText, Required: true},
			{ID: "alt", Label: "Alt Text", Kind: KindText},
			{ID: "title", Label: "Title", Kind: KindText},
			{ID: "category", Label: "Category", Kind: KindText},
		},
		Columns: []string{"id", "title", "category"},
		Image:   "src",
	}
)

// Resources lists the managed collections in menu order.
var Resources = []*Resource{Blogs, Portfolio, Gallery}
