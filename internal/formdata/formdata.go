// Package formdata holds the field values page objects type into forms.
package formdata

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownField is returned when a form is given a key it does not declare.
var ErrUnknownField = errors.New("unknown form field")

// Kind tags the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Value is a string, a list of strings, or a bool.
type Value struct {
	kind Kind
	str  string
	list []string
	b    bool
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func List(items ...string) Value { return Value{kind: KindList, list: append([]string(nil), items...)} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) Items() []string { return append([]string(nil), v.list...) }

// Truthy is the bool itself, or whether a string/list is non-empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindList:
		return len(v.list) > 0
	default:
		return v.str != ""
	}
}

// Text renders the value the way it is typed into an input: lists are
// comma separated.
func (v Value) Text() string {
	switch v.kind {
	case KindList:
		return strings.Join(v.list, ",")
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

func (v Value) String() string {
	return v.Text()
}

// UnmarshalYAML decodes scalars to strings or bools and sequences to lists.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!bool" {
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
			return nil
		}
		*v = String(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("line %d: list items must be scalars: %w", node.Line, err)
		}
		*v = List(items...)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported field value", node.Line)
	}
}

// Fields maps form keys to values.
type Fields map[string]Value

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Get returns the value for key and whether it is set.
func (f Fields) Get(key string) (Value, bool) {
	v, ok := f[key]
	return v, ok
}

// Title is the text used to find the created row again: title when set,
// otherwise id.
func (f Fields) Title() string {
	if v, ok := f["title"]; ok && v.Text() != "" {
		return v.Text()
	}
	if v, ok := f["id"]; ok {
		return v.Text()
	}
	return ""
}

// Keys returns the keys in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of f with every key of over applied on top.
func (f Fields) Merge(over Fields) Fields {
	out := make(Fields, len(f)+len(over))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Load reads a YAML mapping of field values.
func Load(path string) (Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := Fields{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fields, nil
}
