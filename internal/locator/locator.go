// Package locator describes how to find elements on a page: a strategy and a
// selector string. Locators are plain values, safe to declare as package vars.
package locator

import (
	"fmt"
	"strings"
)

// By is the addressing strategy of a Locator.
type By string

const (
	CSS   By = "css"
	XPath By = "xpath"
)

// Locator identifies zero or more elements on the current page.
type Locator struct {
	By    By
	Value string
}

// ByCSS returns an attribute/structural selector locator.
func ByCSS(selector string) Locator {
	return Locator{By: CSS, Value: selector}
}

// ByXPath returns a path-expression locator.
func ByXPath(expr string) Locator {
	return Locator{By: XPath, Value: expr}
}

// ByID is a CSS id selector.
func ByID(id string) Locator {
	return ByCSS("#" + cssIdent(id))
}

func (l Locator) String() string {
	return fmt.Sprintf("(%s, %q)", l.By, l.Value)
}

// Nth narrows an XPath locator to its i-th match (zero based).
// CSS locators cannot express this portably; use an indexed action instead.
func (l Locator) Nth(i int) Locator {
	if l.By != XPath {
		panic("locator: Nth requires an XPath locator, got " + l.String())
	}
	return ByXPath(fmt.Sprintf("(%s)[%d]", l.Value, i+1))
}

// Within scopes a relative XPath (starting with "./" or ".//") below l.
func (l Locator) Within(rel string) Locator {
	if l.By != XPath {
		panic("locator: Within requires an XPath locator, got " + l.String())
	}
	rel = strings.TrimPrefix(rel, ".")
	return ByXPath(l.Value + rel)
}

// ContainsText matches tag elements whose own text contains text.
func ContainsText(tag, text string) Locator {
	return ByXPath(fmt.Sprintf("//%s[contains(text(), %s)]", tag, Literal(text)))
}

// ContainsString matches tag elements whose string value (descendant text
// included) contains text.
func ContainsString(tag, text string) Locator {
	return ByXPath(fmt.Sprintf("//%s[contains(., %s)]", tag, Literal(text)))
}

// ContainsAttr matches tag elements whose attr contains value.
func ContainsAttr(tag, attr, value string) Locator {
	return ByXPath(fmt.Sprintf("//%s[contains(@%s, %s)]", tag, attr, Literal(value)))
}

// OptionValue matches the <option> with the given value attribute.
func OptionValue(value string) Locator {
	return ByXPath(fmt.Sprintf("//option[@value=%s]", Literal(value)))
}

// Literal quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if p != "" {
			args = append(args, "'"+p+"'")
		}
		if i < len(parts)-1 {
			args = append(args, `"'"`)
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

func cssIdent(id string) string {
	var b strings.Builder
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '-', r > 0x7f:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\3%c `, r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
