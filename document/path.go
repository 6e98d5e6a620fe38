package document

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Value follows a dot path through nested objects only. Arrays stop the walk.
func Value(d Doc, path string) (any, bool) {
	var cur any = d
	for _, seg := range strings.Split(path, ".") {
		obj, ok := asDoc(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = obj.Get(seg); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Lookup follows a dot path and fans out over arrays met on the way, so
// "actividades.funcion1" yields the funcion1 of every activity. A terminal
// array is returned as-is.
func Lookup(d Doc, path string) []any {
	values := []any{d}
	for _, seg := range strings.Split(path, ".") {
		var next []any
		for _, v := range values {
			next = appendChild(next, v, seg)
		}
		if len(next) == 0 {
			return nil
		}
		values = next
	}
	return values
}

func appendChild(dst []any, v any, key string) []any {
	switch t := v.(type) {
	case Doc:
		if child, ok := t.Get(key); ok {
			dst = append(dst, child)
		}
	case *Doc:
		if t != nil {
			return appendChild(dst, *t, key)
		}
	case []any:
		for _, e := range t {
			if obj, ok := asDoc(e); ok {
				if child, ok := obj.Get(key); ok {
					dst = append(dst, child)
				}
			}
		}
	}
	return dst
}

func asDoc(v any) (Doc, bool) {
	switch t := v.(type) {
	case Doc:
		return t, true
	case *Doc:
		if t != nil {
			return *t, true
		}
	}
	return Doc{}, false
}

// AsDoc reports whether v is an object value.
func AsDoc(v any) (Doc, bool) { return asDoc(v) }

// Text renders a scalar the way it reads in the source JSON. Objects and
// arrays are rendered as compact JSON and null as the empty string.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := Encode(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Int converts a numeric value or numeric string to int64.
func Int(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Project keeps only the given dot paths, preserving the document's own key
// order. Paths into arrays of objects project every element.
func Project(d Doc, paths []string) Doc {
	tree := map[string][]string{}
	for _, p := range paths {
		head, rest, nested := strings.Cut(p, ".")
		if !nested {
			tree[head] = nil
			continue
		}
		if sub, seen := tree[head]; seen && sub == nil {
			continue
		}
		tree[head] = append(tree[head], rest)
	}
	return project(d, tree)
}

func project(d Doc, tree map[string][]string) Doc {
	out := Doc{fields: []Field{}}
	for _, f := range d.fields {
		sub, ok := tree[f.Key]
		if !ok {
			continue
		}
		if sub == nil {
			out.fields = append(out.fields, f)
			continue
		}
		switch t := f.Value.(type) {
		case Doc:
			out.fields = append(out.fields, Field{Key: f.Key, Value: Project(t, sub)})
		case []any:
			items := []any{}
			for _, e := range t {
				if obj, ok := asDoc(e); ok {
					items = append(items, Project(obj, sub))
				}
			}
			out.fields = append(out.fields, Field{Key: f.Key, Value: items})
		}
	}
	return out
}
