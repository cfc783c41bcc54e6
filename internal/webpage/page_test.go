package webpage_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/paneltest/internal/browser"
	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

var fixtures = map[string]string{
	"/covered": `
<button id="target" onclick="document.body.dataset.clicked = 'yes'">Go</button>
<div id="overlay" style="position:fixed; inset:0; background:rgba(0,0,0,0.3)"></div>`,

	"/waits": `
<div id="leaving">bye</div>
<div id="staying">here</div>
<div id="flat" style="width:0; height:0; overflow:hidden"></div>
<ul><li>one</li><li>two</li><li>three</li></ul>
<script>
setTimeout(() => document.getElementById('leaving').remove(), 300);
setTimeout(() => {
	const d = document.createElement('div');
	d.className = 'toast';
	d.textContent = 'Saved successfully';
	document.body.appendChild(d);
}, 400);
</script>`,

	"/dialog": `
<button id="ask" onclick="document.body.dataset.answer = confirm('Delete it?') ? 'yes' : 'no'">Delete</button>`,
}

// open serves the fixture pages, launches a headless browser and loads
// path. It skips in -short mode and on machines without Chromium.
func open(t *testing.T, path string) *webpage.Base {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!doctype html><html><body>%s</body></html>", body)
	}))
	t.Cleanup(srv.Close)

	env := map[string]string{
		"ADMIN_URL":     srv.URL,
		"HEADLESS_MODE": "true",
		"EXPLICIT_WAIT": "5",
		"IMPLICIT_WAIT": "1",
		"WINDOW_WIDTH":  "1024",
		"WINDOW_HEIGHT": "768",
	}
	cfg, err := config.LoadWith("", func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)
	cfg.ScreenshotDir = t.TempDir()

	if _, err := browser.FindBinary(cfg); err != nil {
		t.Skipf("browser test: %v", err)
	}
	bs, err := browser.Launch(cfg)
	require.NoError(t, err)
	t.Cleanup(bs.Close)

	page := webpage.New(bs, cfg, console.Discard())
	require.NoError(t, page.Navigate(cfg.URL(path)))
	return page
}

func TestClickThroughOverlay(t *testing.T) {
	page := open(t, "/covered")

	require.NoError(t, page.Click(locator.ByID("target")))

	clicked, err := page.Attribute(locator.ByCSS("body"), "data-clicked")
	require.NoError(t, err)
	assert.Equal(t, "yes", clicked)
}

func TestWaitInvisible(t *testing.T) {
	page := open(t, "/waits")

	t.Run("element that never existed", func(t *testing.T) {
		start := time.Now()
		assert.True(t, page.WaitInvisible(locator.ByID("never"), 5*time.Second))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("element removed after load", func(t *testing.T) {
		assert.True(t, page.WaitInvisible(locator.ByID("leaving"), 3*time.Second))
		assert.False(t, page.IsPresent(locator.ByID("leaving"), 100*time.Millisecond))
	})

	t.Run("element that stays", func(t *testing.T) {
		start := time.Now()
		assert.False(t, page.WaitInvisible(locator.ByID("staying"), 300*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
	})
}

func TestLookupsOnMissingElement(t *testing.T) {
	page := open(t, "/waits")
	missing := locator.ByCSS(".missing")

	start := time.Now()
	assert.False(t, page.IsPresent(missing, 300*time.Millisecond))
	assert.False(t, page.IsVisible(missing, 300*time.Millisecond))
	assert.Equal(t, 0, page.Count(missing, 300*time.Millisecond))
	assert.Empty(t, page.Texts(missing, 300*time.Millisecond))
	assert.Less(t, time.Since(start), 3*time.Second)

	_, err := page.Text(missing)
	assert.ErrorIs(t, err, webpage.ErrNotFound)
}

func TestZeroSizeElementIsPresentButNotVisible(t *testing.T) {
	page := open(t, "/waits")
	flat := locator.ByID("flat")

	assert.True(t, page.IsPresent(flat, 0))
	assert.False(t, page.IsVisible(flat, 300*time.Millisecond))
	err := page.WaitVisible(flat, 300*time.Millisecond)
	assert.ErrorIs(t, err, webpage.ErrNotFound)
	assert.True(t, page.WaitInvisible(flat, 300*time.Millisecond))
}

func TestPluralLookupsKeepDocumentOrder(t *testing.T) {
	page := open(t, "/waits")

	assert.Equal(t, 3, page.Count(locator.ByCSS("ul li"), 0))
	assert.Equal(t, []string{"one", "two", "three"}, page.Texts(locator.ByCSS("ul li"), 0))
	assert.Equal(t, []string{"one", "two", "three"}, page.Texts(locator.ByXPath("//ul/li"), 0))
}

func TestWaitForToast(t *testing.T) {
	page := open(t, "/waits")
	assert.Equal(t, "Saved successfully", page.WaitForToast(3*time.Second))
}

func TestConfirmDialog(t *testing.T) {
	page := open(t, "/dialog")

	done := make(chan error, 1)
	go func() { done <- page.Click(locator.ByID("ask")) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("click blocked on the open dialog")
	}

	require.True(t, page.AlertPresent(2*time.Second))
	msg, err := page.AcceptAlert()
	require.NoError(t, err)
	assert.Equal(t, "Delete it?", msg)
	assert.False(t, page.AlertPresent(200*time.Millisecond))

	assert.Eventually(t, func() bool {
		answer, err := page.Attribute(locator.ByCSS("body"), "data-answer")
		return err == nil && answer == "yes"
	}, 3*time.Second, 50*time.Millisecond)
}
