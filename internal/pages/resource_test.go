package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/paneltest/internal/formdata"
	"github.com/v0xg/paneltest/internal/locator"
)

func blogForm(fake *fakeActions) {
	for _, f := range NewBlogs(fake, testConfig(), nil).Fields() {
		fake.show(f.Locator)
	}
}

func TestBlogsCreateConfirmed(t *testing.T) {
	fake := newFake().show(AddButton, Dialog, SaveButton)
	blogForm(fake)
	fake.toast = "Blog created Successfully"

	p := NewBlogs(fake, testConfig(), nil)
	ok, err := p.Create(formdata.Fields{
		"title":   formdata.String("Selenium Test Blog"),
		"slug":    formdata.String("selenium-test-blog"),
		"tags":    formdata.List("selenium", "testing"),
		"content": formdata.String("This is a test blog created by Selenium."),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "Selenium Test Blog", fake.typed[locator.ByID("title")])
	assert.Equal(t, "selenium,testing", fake.typed[locator.ByID("tags")])
	assert.NotContains(t, fake.typed, locator.ByID("excerpt"))
	assert.Equal(t, []locator.Locator{AddButton, SaveButton}, fake.clicks)
	assert.Contains(t, fake.pauses, saveSettle)
}

func TestCreateNeedsSuccessToast(t *testing.T) {
	for _, toast := range []string{"", "Validation failed", "Error saving blog"} {
		fake := newFake().show(AddButton, Dialog, SaveButton)
		blogForm(fake)
		fake.toast = toast

		ok, err := NewBlogs(fake, testConfig(), nil).Create(formdata.Fields{"title": formdata.String("x")})
		require.NoError(t, err)
		assert.False(t, ok, "toast %q", toast)
	}
}

func TestFillFormRejectsUnknownKeys(t *testing.T) {
	fake := newFake()
	blogForm(fake)
	p := NewBlogs(fake, testConfig(), nil)

	err := p.FillForm(formdata.Fields{"title": formdata.String("x"), "featured": formdata.Bool(true)})
	require.ErrorIs(t, err, formdata.ErrUnknownField)
	assert.Contains(t, err.Error(), `"featured"`)
	assert.Empty(t, fake.typed)
}

func TestPortfolioFeaturedToggle(t *testing.T) {
	fake := newFake()
	p := NewPortfolio(fake, testConfig(), nil)
	for _, f := range p.Fields() {
		fake.show(f.Locator)
	}

	require.NoError(t, p.FillForm(formdata.Fields{
		"title":     formdata.String("Project"),
		"techStack": formdata.List("Go", "React"),
		"featured":  formdata.Bool(false),
	}))
	assert.Empty(t, fake.clicks)
	assert.Equal(t, "Go,React", fake.typed[locator.ByID("techStack")])

	require.NoError(t, p.FillForm(formdata.Fields{"featured": formdata.Bool(true)}))
	assert.Equal(t, []locator.Locator{PortfolioFeatured}, fake.clicks)
	assert.NotContains(t, fake.typed, PortfolioFeatured)
}

func TestGalleryFields(t *testing.T) {
	p := NewGallery(newFake(), testConfig(), nil)
	var keys []string
	for _, f := range p.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"id", "src", "alt", "title", "category"}, keys)
}

func TestEditFirstRow(t *testing.T) {
	fake := newFake()
	p := NewBlogs(fake, testConfig(), nil)

	ok, err := p.EditFirstRow()
	require.NoError(t, err)
	assert.False(t, ok, "empty table")

	edit := rowsX.Nth(0).Within(editInRow)
	fake.counts[TableRows] = 3
	fake.show(edit, Dialog)
	ok, err = p.EditFirstRow()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "(//tbody/tr)[1]//button[contains(@aria-label, 'Edit') or contains(., 'Edit')]", fake.clicks[0].Value)
}

func TestDeleteFirstRowAcceptsConfirm(t *testing.T) {
	fake := newFake()
	fake.counts[TableRows] = 1
	fake.show(rowsX.Nth(0).Within(deleteInRow))
	fake.alert = "Delete this blog?"

	ok, err := NewBlogs(fake, testConfig(), nil).DeleteFirstRow()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fake.accept)
}

func TestCloseDialog(t *testing.T) {
	fake := newFake()
	p := NewGallery(fake, testConfig(), nil)
	require.NoError(t, p.CloseDialog())
	assert.Empty(t, fake.clicks, "no dialog, nothing to close")

	fake.show(Dialog, DialogClose)
	fake.clickFn = func(l locator.Locator) {
		if l == DialogClose {
			fake.hidden[Dialog] = true
		}
	}
	assert.True(t, p.IsDialogOpen())
	require.NoError(t, p.CloseDialog())
	assert.False(t, p.IsDialogOpen())
}

func TestBlogsSearch(t *testing.T) {
	fake := newFake()
	p := NewBlogs(fake, testConfig(), nil)
	ok, err := p.Search("selenium")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.show(BlogsSearch)
	ok, err = p.Search("selenium")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "selenium", fake.typed[BlogsSearch])
}

func TestHasRowWithText(t *testing.T) {
	fake := newFake().show(locator.ContainsText("td", "It's here"))
	p := NewPortfolio(fake, testConfig(), nil)
	assert.True(t, p.HasRowWithText("It's here"))
	assert.False(t, p.HasRowWithText("missing"))
}

func TestConfirmed(t *testing.T) {
	assert.True(t, Confirmed("Saved successfully"))
	assert.True(t, Confirmed("SUCCESS"))
	assert.False(t, Confirmed(""))
	assert.False(t, Confirmed("Saved"))
}
