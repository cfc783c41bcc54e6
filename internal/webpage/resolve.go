package webpage

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/v0xg/paneltest/internal/locator"
)

// PollInterval is how often a pending lookup re-queries the page.
const PollInterval = 250 * time.Millisecond

// queryTimeout bounds a single non-waiting query so a blocked page
// (an open native dialog, a hung renderer) cannot stall the poll loop.
const queryTimeout = 5 * time.Second

// ErrNotFound matches every NotFoundError via errors.Is.
var ErrNotFound = errors.New("element not found")

// Condition is the state a located element must be in.
type Condition int

const (
	Present Condition = iota
	Visible
	Clickable
)

func (c Condition) String() string {
	switch c {
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	default:
		return "present"
	}
}

// NotFoundError reports a lookup that timed out.
type NotFoundError struct {
	Locator   locator.Locator
	Condition Condition
	Timeout   time.Duration
	// Last is the most recent query error, if the page ever returned one.
	Last error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("element %s not %s after %s", e.Locator, e.Condition, e.Timeout)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Last
}

// waitUntil calls check every interval until it reports done or timeout
// elapses. check always runs at least once. It returns the last error check
// returned when it times out, or nil when the condition was never errored.
func waitUntil(timeout, interval time.Duration, check func() (bool, error)) (bool, error) {
	deadline := time.Now().Add(timeout)
	var last error
	for {
		done, err := check()
		if err != nil {
			last = err
		} else if done {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, last
		}
		time.Sleep(min(interval, remaining))
	}
}

// query runs a single non-waiting lookup. The returned elements are bound
// to the page's own context, not to the per-query deadline.
func query(page *rod.Page, loc locator.Locator) (rod.Elements, error) {
	tp := page.Timeout(queryTimeout)
	defer tp.CancelTimeout()

	var els rod.Elements
	var err error
	switch loc.By {
	case locator.XPath:
		els, err = tp.ElementsX(loc.Value)
	case locator.CSS:
		els, err = tp.Elements(loc.Value)
	default:
		return nil, fmt.Errorf("unknown locator strategy %q", loc.By)
	}
	if err != nil {
		return nil, err
	}

	ctx := page.GetContext()
	for i := range els {
		els[i] = els[i].Context(ctx)
	}
	return els, nil
}

func satisfies(el *rod.Element, cond Condition) (bool, error) {
	if cond == Present {
		return true, nil
	}

	visible, err := isRendered(el)
	if err != nil || !visible {
		return false, err
	}
	if cond == Visible {
		return true, nil
	}

	disabled, err := el.Disabled()
	if err != nil || disabled {
		return false, err
	}
	res, err := el.Eval(`() => getComputedStyle(this).pointerEvents`)
	if err != nil {
		return false, err
	}
	return res.Value.Str() != "none", nil
}

// isRendered is true for an attached element with a non-zero box.
func isRendered(el *rod.Element) (bool, error) {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false, err
	}
	shape, err := el.Shape()
	if err != nil {
		return false, err
	}
	box := shape.Box()
	return box != nil && box.Width > 0 && box.Height > 0, nil
}

// resolveAll waits until at least one element matching loc satisfies cond
// and returns every match in that state, in document order.
func resolveAll(page func() *rod.Page, loc locator.Locator, cond Condition, timeout time.Duration) (rod.Elements, error) {
	var found rod.Elements
	ok, last := waitUntil(timeout, PollInterval, func() (bool, error) {
		els, err := query(page(), loc)
		if err != nil {
			return false, err
		}
		found = found[:0]
		for _, el := range els {
			// stale handles count as not yet satisfied
			if match, err := satisfies(el, cond); err == nil && match {
				found = append(found, el)
			}
		}
		return len(found) > 0, nil
	})
	if !ok {
		return nil, &NotFoundError{Locator: loc, Condition: cond, Timeout: timeout, Last: last}
	}
	return found, nil
}

// resolve is resolveAll narrowed to the first match.
func resolve(page func() *rod.Page, loc locator.Locator, cond Condition, timeout time.Duration) (*rod.Element, error) {
	els, err := resolveAll(page, loc, cond, timeout)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}
