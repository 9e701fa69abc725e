// Package artifact renders and writes the two files a launch needs: the
// Python config.py consumed by the chat application and the Dockerfile that
// builds it. Rendering is pure; writing goes through an afero filesystem.
package artifact

// Kind tells the renderer how a field value is laid out
type Kind int

const (
	// KindScalar is a single value rendered as `KEY = value`
	KindScalar Kind = iota
	// KindMapping is an ordered set of sub-entries rendered as a block
	KindMapping
	// KindList is a sequence rendered as a block keyed by index
	KindList
)

// Entry is one key/value pair inside a mapping
type Entry struct {
	Key   string
	Value interface{}
}

// Value is a field value. Exactly one of Scalar, Entries or Items is
// meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Scalar  string
	Entries []Entry
	Items   []interface{}
}

// Field is one top-level assignment in the generated config file
type Field struct {
	Key   string
	Value Value
}

// Document is the ordered set of fields serialized into config.py.
// Order is preserved exactly as given.
type Document []Field

// Scalar builds a scalar value
func Scalar(s string) Value {
	return Value{Kind: KindScalar, Scalar: s}
}

// Mapping builds a mapping value from ordered entries
func Mapping(entries ...Entry) Value {
	return Value{Kind: KindMapping, Entries: entries}
}

// List builds a list value
func List(items ...interface{}) Value {
	return Value{Kind: KindList, Items: items}
}

// Without returns a copy of the document with the named keys dropped
func (d Document) Without(keys ...string) Document {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	out := make(Document, 0, len(d))
	for _, f := range d {
		if !skip[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the field with the given key
func (d Document) Lookup(key string) (Field, bool) {
	for _, f := range d {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
