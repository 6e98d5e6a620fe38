package filter

import (
	"strings"

	"github.com/fundaciones-espana/catalog-backend/document"
)

// Match evaluates e against d.
func Match(e Expr, d document.Doc) bool {
	switch e.Kind {
	case KindAnd:
		for _, c := range e.Children {
			if !Match(c, d) {
				return false
			}
		}
		return true
	case KindOr:
		for _, c := range e.Children {
			if Match(c, d) {
				return true
			}
		}
		return false
	case KindEquals:
		return anyValue(d, e.Field, func(v any) bool {
			s, ok := scalarText(v)
			if !ok {
				return false
			}
			if e.FoldCase {
				return strings.EqualFold(s, e.Value)
			}
			return s == e.Value
		})
	case KindContains:
		needle := strings.ToLower(e.Value)
		return anyValue(d, e.Field, func(v any) bool {
			s, ok := scalarText(v)
			return ok && strings.Contains(strings.ToLower(s), needle)
		})
	case KindExists:
		return anyValue(d, e.Field, func(v any) bool {
			s, ok := scalarText(v)
			return v != nil && (!ok || s != "")
		})
	}
	return false
}

// anyValue applies pred to every value reached by path, looking inside a
// terminal array of scalars as well.
func anyValue(d document.Doc, path string, pred func(any) bool) bool {
	for _, v := range document.Lookup(d, path) {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if pred(item) {
					return true
				}
			}
			continue
		}
		if pred(v) {
			return true
		}
	}
	return false
}

// scalarText is false for objects and arrays, which never equal a text value.
func scalarText(v any) (string, bool) {
	if _, ok := document.AsDoc(v); ok {
		return "", false
	}
	if _, ok := v.([]any); ok {
		return "", false
	}
	return document.Text(v), true
}
