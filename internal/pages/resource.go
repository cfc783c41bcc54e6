package pages

import (
	"fmt"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/formdata"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

var (
	AddButton    = locator.ByXPath("//button[contains(., 'Add') or contains(., 'New')]")
	SaveButton   = locator.ByXPath("//button[contains(text(), 'Save') or contains(text(), 'Create') or contains(text(), 'Update')]")
	CancelButton = locator.ByXPath("//button[contains(text(), 'Cancel')]")

	editInRow   = ".//button[contains(@aria-label, 'Edit') or contains(., 'Edit')]"
	deleteInRow = ".//button[contains(@aria-label, 'Delete') or contains(., 'Delete')]"
)

// Field binds a form key to the input it is typed into.
// Toggle fields are clicked once when their value is truthy.
type Field struct {
	Key     string
	Locator locator.Locator
	Toggle  bool
}

func input(id string) Field {
	return Field{Key: id, Locator: locator.ByID(id)}
}

// resourcePage is a listing with a create/edit dialog. Blogs, Portfolio
// and Gallery differ only in route, heading and form fields.
type resourcePage struct {
	page
	name   string
	path   string
	title  locator.Locator
	fields []Field
}

func newResourcePage(act webpage.Actions, cfg *config.Config, log *console.Logger, name, path string, title locator.Locator, fields []Field) resourcePage {
	return resourcePage{
		page:   newPage(act, cfg, log),
		name:   name,
		path:   path,
		title:  title,
		fields: fields,
	}
}

func (p *resourcePage) Navigate() error {
	return p.open(p.path, p.name)
}

// Fields returns the form fields in fill order.
func (p *resourcePage) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

// IsLoaded reports whether the page heading is showing.
func (p *resourcePage) IsLoaded() bool {
	return p.act.IsVisible(p.title, p.cfg.ImplicitWait())
}

func (p *resourcePage) IsTableVisible() bool {
	return p.act.IsVisible(Table, 0)
}

func (p *resourcePage) Headers() []string {
	return p.act.Texts(TableHeader, 0)
}

func (p *resourcePage) OpenCreateDialog() error {
	if err := p.act.Click(AddButton); err != nil {
		return err
	}
	if err := p.act.WaitVisible(Dialog, dialogTimeout); err != nil {
		return err
	}
	p.log.Info("Clicked Add %s button", p.name)
	return nil
}

func (p *resourcePage) IsDialogOpen() bool {
	return p.isDialogOpen()
}

func (p *resourcePage) CloseDialog() error {
	return p.closeDialog()
}

// FillForm types every known field present in fields, in form order.
// Keys the form does not declare are rejected before anything is typed.
func (p *resourcePage) FillForm(fields formdata.Fields) error {
	known := make(map[string]bool, len(p.fields))
	for _, f := range p.fields {
		known[f.Key] = true
	}
	for _, k := range fields.Keys() {
		if !known[k] {
			return fmt.Errorf("%w: %q on the %s form", formdata.ErrUnknownField, k, p.name)
		}
	}

	p.log.Info("Filling %s form...", p.name)
	for _, f := range p.fields {
		v, ok := fields.Get(f.Key)
		if !ok {
			continue
		}
		if f.Toggle {
			if v.Truthy() && p.act.IsPresent(f.Locator, 0) {
				if err := p.act.Click(f.Locator); err != nil {
					return err
				}
				p.log.Info("Checked %s", f.Key)
			}
			continue
		}
		if err := p.act.TypeText(f.Locator, v.Text(), true); err != nil {
			return err
		}
		p.log.Debug("Entered %s: %s", f.Key, v.Text())
	}
	p.log.Success("%s form filled successfully", p.name)
	return nil
}

// Save clicks the dialog's save button and gives the app a moment to
// persist.
func (p *resourcePage) Save() error {
	if err := p.act.Click(SaveButton); err != nil {
		return err
	}
	p.log.Info("Clicked Save button")
	p.act.Pause(saveSettle)
	return nil
}

func (p *resourcePage) Cancel() error {
	if err := p.act.Click(CancelButton); err != nil {
		return err
	}
	p.log.Info("Clicked Cancel button")
	return nil
}

// Create opens the dialog, fills it and saves. It reports true only when a
// success toast follows; a closed dialog alone is not confirmation.
func (p *resourcePage) Create(fields formdata.Fields) (bool, error) {
	if err := p.OpenCreateDialog(); err != nil {
		return false, err
	}
	if err := p.FillForm(fields); err != nil {
		return false, err
	}
	if err := p.Save(); err != nil {
		return false, err
	}

	toast := p.act.WaitForToast(0)
	if !Confirmed(toast) {
		p.log.Warn("%s not confirmed, toast: %q", p.name, toast)
		return false, nil
	}
	p.log.Success("%s created successfully: %s", p.name, untitled(fields.Title()))
	return true, nil
}

func (p *resourcePage) RowCount() int {
	n := p.rowCount()
	p.log.Info("Table has %d rows", n)
	return n
}

// HasRowWithText reports whether a table cell contains text.
func (p *resourcePage) HasRowWithText(text string) bool {
	found := p.act.IsPresent(locator.ContainsText("td", text), dialogTimeout)
	if found {
		p.log.Success("✓ %s '%s' found in table", p.name, text)
	} else {
		p.log.Error("✗ %s '%s' not found in table", p.name, text)
	}
	return found
}

// EditFirstRow opens the edit dialog of the first row. It reports false
// when the table is empty.
func (p *resourcePage) EditFirstRow() (bool, error) {
	ok, err := p.clickInFirstRow(editInRow, "edit")
	if !ok || err != nil {
		return ok, err
	}
	if err := p.act.WaitVisible(Dialog, dialogTimeout); err != nil {
		return false, err
	}
	p.log.Info("Clicked Edit on first row")
	return true, nil
}

// DeleteFirstRow deletes the first row, accepting the confirmation prompt
// when the app raises one.
func (p *resourcePage) DeleteFirstRow() (bool, error) {
	ok, err := p.clickInFirstRow(deleteInRow, "delete")
	if !ok || err != nil {
		return ok, err
	}
	p.log.Info("Clicked Delete on first row")
	if p.act.AlertPresent(0) {
		msg, err := p.act.AcceptAlert()
		if err != nil {
			return false, err
		}
		p.log.Info("Accepted confirmation: %s", msg)
	}
	p.act.Pause(saveSettle)
	return true, nil
}

func untitled(s string) string {
	if s == "" {
		return "Untitled"
	}
	return s
}

var (
	BlogsTitle      = locator.ByXPath("//h1[contains(text(), 'Blogs') or contains(text(), 'Blog')]")
	BlogsSearch     = locator.ByCSS("input[placeholder*='Search'], input[type='search']")
	BlogsPagination = locator.ByCSS("[role='navigation'][aria-label*='pagination']")
	BlogsNextPage   = locator.ByXPath("//button[contains(@aria-label, 'Next') or contains(., 'Next')]")
	BlogsPrevPage   = locator.ByXPath("//button[contains(@aria-label, 'Previous') or contains(., 'Previous')]")
)

// Blogs is the /blogs screen.
type Blogs struct {
	resourcePage
}

func NewBlogs(act webpage.Actions, cfg *config.Config, log *console.Logger) *Blogs {
	return &Blogs{newResourcePage(act, cfg, log, "Blog", "/blogs", BlogsTitle, []Field{
		input("title"),
		input("slug"),
		input("excerpt"),
		input("date"),
		input("category"),
		input("author"),
		input("readTime"),
		input("tags"),
		input("image"),
		input("content"),
	})}
}

// Search types into the search box, when the page has one, and waits for
// the table to filter.
func (p *Blogs) Search(text string) (bool, error) {
	if !p.act.IsPresent(BlogsSearch, 0) {
		p.log.Warn("No search input on %s page", p.name)
		return false, nil
	}
	if err := p.act.TypeText(BlogsSearch, text, true); err != nil {
		return false, err
	}
	p.log.Info("Searched for: %s", text)
	p.act.Pause(saveSettle)
	return true, nil
}

func (p *Blogs) HasPagination() bool {
	return p.act.IsPresent(BlogsPagination, 0)
}

func (p *Blogs) NextPage() error {
	return p.act.Click(BlogsNextPage)
}

func (p *Blogs) PrevPage() error {
	return p.act.Click(BlogsPrevPage)
}

var (
	PortfolioTitle    = locator.ByXPath("//h1[contains(text(), 'Portfolio')]")
	PortfolioFeatured = locator.ByCSS("input[type='checkbox']#featured, button[role='switch']")
)

// Portfolio is the /portfolio screen.
type Portfolio struct {
	resourcePage
}

func NewPortfolio(act webpage.Actions, cfg *config.Config, log *console.Logger) *Portfolio {
	return &Portfolio{newResourcePage(act, cfg, log, "Portfolio project", "/portfolio", PortfolioTitle, []Field{
		input("title"),
		input("description"),
		input("image"),
		input("link"),
		input("github"),
		input("techStack"),
		input("category"),
		{Key: "featured", Locator: PortfolioFeatured, Toggle: true},
	})}
}

var (
	GalleryTitle  = locator.ByXPath("//h1[contains(text(), 'Gallery')]")
	GalleryImages = locator.ByCSS("tbody img")
)

// Gallery is the /gallery screen.
type Gallery struct {
	resourcePage
}

func NewGallery(act webpage.Actions, cfg *config.Config, log *console.Logger) *Gallery {
	return &Gallery{newResourcePage(act, cfg, log, "Gallery item", "/gallery", GalleryTitle, []Field{
		input("id"),
		input("src"),
		input("alt"),
		input("title"),
		input("category"),
	})}
}

// ImageCount is the number of thumbnails rendered in the table.
func (p *Gallery) ImageCount() int {
	return p.act.Count(GalleryImages, 0)
}
