package pages

import (
	"fmt"
	"time"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

// fakeActions is a scripted page: counts, texts and attributes are set per
// locator and every interaction is recorded.
type fakeActions struct {
	url     string
	counts  map[locator.Locator]int
	hidden  map[locator.Locator]bool
	texts   map[locator.Locator]string
	attrs   map[locator.Locator]map[string]string
	toast   string
	alert   string
	clickFn func(locator.Locator)
	// redirect replaces url once redirectAt has passed.
	redirect   string
	redirectAt time.Time

	clicks  []locator.Locator
	nth     map[locator.Locator][]int
	typed   map[locator.Locator]string
	pauses  []time.Duration
	refresh int
	accept  int
	visits  []string
}

var _ webpage.Actions = (*fakeActions)(nil)

func newFake() *fakeActions {
	return &fakeActions{
		counts: map[locator.Locator]int{},
		hidden: map[locator.Locator]bool{},
		texts:  map[locator.Locator]string{},
		attrs:  map[locator.Locator]map[string]string{},
		nth:    map[locator.Locator][]int{},
		typed:  map[locator.Locator]string{},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AdminURL:            "http://panel.test",
		ImplicitWaitSeconds: 1,
		ExplicitWaitSeconds: 1,
	}
}

func (f *fakeActions) show(locs ...locator.Locator) *fakeActions {
	for _, l := range locs {
		f.counts[l] = 1
	}
	return f
}

func (f *fakeActions) present(l locator.Locator) bool { return f.counts[l] > 0 }

func (f *fakeActions) need(l locator.Locator) error {
	if !f.present(l) {
		return &webpage.NotFoundError{Locator: l, Timeout: time.Second}
	}
	return nil
}

func (f *fakeActions) Navigate(url string) error {
	f.url = url
	f.visits = append(f.visits, url)
	return nil
}
func (f *fakeActions) Refresh() error { f.refresh++; return nil }
func (f *fakeActions) CurrentURL() string {
	if f.redirect != "" && !time.Now().Before(f.redirectAt) {
		f.url, f.redirect = f.redirect, ""
	}
	return f.url
}
func (f *fakeActions) WaitForPageLoad() error { return nil }
func (f *fakeActions) Pause(d time.Duration) { f.pauses = append(f.pauses, d) }
func (f *fakeActions) LastPointer() (webpage.Point, bool) {
	return webpage.Point{}, false
}

func (f *fakeActions) Click(l locator.Locator) error {
	if err := f.need(l); err != nil {
		return err
	}
	f.clicks = append(f.clicks, l)
	if f.clickFn != nil {
		f.clickFn(l)
	}
	return nil
}

func (f *fakeActions) ClickNth(l locator.Locator, i int) error {
	if i >= f.counts[l] {
		return &webpage.NotFoundError{Locator: l, Condition: webpage.Clickable}
	}
	f.nth[l] = append(f.nth[l], i)
	return nil
}

func (f *fakeActions) TypeText(l locator.Locator, text string, clearFirst bool) error {
	if err := f.need(l); err != nil {
		return err
	}
	if !clearFirst {
		text = f.typed[l] + text
	}
	f.typed[l] = text
	return nil
}

func (f *fakeActions) TypeSlowly(l locator.Locator, text string, _ time.Duration) error {
	return f.TypeText(l, text, true)
}

func (f *fakeActions) SelectDropdown(l locator.Locator, value string) error {
	return f.TypeText(l, value, true)
}

func (f *fakeActions) Hover(l locator.Locator) error { return f.need(l) }
func (f *fakeActions) PressEnter(l locator.Locator) error { return f.need(l) }

func (f *fakeActions) IsPresent(l locator.Locator, _ time.Duration) bool { return f.present(l) }
func (f *fakeActions) IsVisible(l locator.Locator, _ time.Duration) bool {
	return f.present(l) && !f.hidden[l]
}
func (f *fakeActions) WaitVisible(l locator.Locator, t time.Duration) error {
	if !f.IsVisible(l, t) {
		return &webpage.NotFoundError{Locator: l, Condition: webpage.Visible, Timeout: t}
	}
	return nil
}
func (f *fakeActions) WaitInvisible(l locator.Locator, t time.Duration) bool { return !f.IsVisible(l, t) }
func (f *fakeActions) WaitClickable(l locator.Locator, t time.Duration) error {
	return f.WaitVisible(l, t)
}
func (f *fakeActions) Count(l locator.Locator, _ time.Duration) int { return f.counts[l] }

func (f *fakeActions) Texts(l locator.Locator, _ time.Duration) []string {
	var out []string
	for i := 0; i < f.counts[l]; i++ {
		out = append(out, f.texts[locator.ByXPath(fmt.Sprintf("%s#%d", l.Value, i))])
	}
	return out
}

func (f *fakeActions) Text(l locator.Locator) (string, error) {
	if err := f.need(l); err != nil {
		return "", err
	}
	return f.texts[l], nil
}

func (f *fakeActions) Attribute(l locator.Locator, name string) (string, error) {
	if err := f.need(l); err != nil {
		return "", err
	}
	return f.attrs[l][name], nil
}

func (f *fakeActions) ScrollTo(l locator.Locator) error { return f.need(l) }
func (f *fakeActions) ScrollToTop() error { return nil }
func (f *fakeActions) ScrollToBottom() error { return nil }
func (f *fakeActions) WaitForToast(time.Duration) string {
	return f.toast
}
func (f *fakeActions) Screenshot(name string) (string, error) { return name + ".png", nil }

func (f *fakeActions) AlertPresent(time.Duration) bool { return f.alert != "" }
func (f *fakeActions) AcceptAlert() (string, error) {
	if f.alert == "" {
		return "", webpage.ErrNoDialog
	}
	msg := f.alert
	f.alert = ""
	f.accept++
	return msg, nil
}
func (f *fakeActions) DismissAlert() (string, error) {
	msg := f.alert
	f.alert = ""
	return msg, nil
}
func (f *fakeActions) SwitchToTab(int) error { return nil }
func (f *fakeActions) CloseTab() error { return nil }

// setTexts scripts the per-index texts returned by Texts(l).
func (f *fakeActions) setTexts(l locator.Locator, texts ...string) {
	f.counts[l] = len(texts)
	for i, s := range texts {
		f.texts[locator.ByXPath(fmt.Sprintf("%s#%d", l.Value, i))] = s
	}
}
