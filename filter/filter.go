// Package filter turns catalog query parameters into a store-neutral predicate.
//
// The same Expr drives listing, counting and export, so every surface sees the
// same result set. Stores compile it to their own query language; Match
// evaluates it in process.
package filter

import (
	"fmt"
	"strings"

	"github.com/fundaciones-espana/catalog-backend/model"
)

// Kind tags an Expr.
type Kind int

// Predicate kinds.
const (
	KindAnd Kind = iota
	KindOr
	KindEquals
	KindContains
	KindExists
)

func (k Kind) String() string {
	switch k {
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindEquals:
		return "eq"
	case KindContains:
		return "contains"
	case KindExists:
		return "exists"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Expr is a predicate over a document. Field is a dot path; a path that
// crosses an array of objects matches when any element matches.
type Expr struct {
	Kind     Kind
	Field    string
	Value    string
	FoldCase bool
	Children []Expr
}

// Equals matches an exact value.
func Equals(field, value string) Expr {
	return Expr{Kind: KindEquals, Field: field, Value: value}
}

// EqualsFold matches a value ignoring case.
func EqualsFold(field, value string) Expr {
	return Expr{Kind: KindEquals, Field: field, Value: value, FoldCase: true}
}

// Contains matches a case-insensitive substring.
func Contains(field, value string) Expr {
	return Expr{Kind: KindContains, Field: field, Value: value}
}

// Exists matches a value that is neither null nor the empty string.
func Exists(field string) Expr {
	return Expr{Kind: KindExists, Field: field}
}

// And matches when every child matches. With no children it matches everything.
func And(children ...Expr) Expr {
	return Expr{Kind: KindAnd, Children: children}
}

// Or matches when any child matches. With no children it matches nothing.
func Or(children ...Expr) Expr {
	return Expr{Kind: KindOr, Children: children}
}

// MatchAll is the empty conjunction.
func MatchAll() Expr { return And() }

// IsMatchAll reports whether e is the empty conjunction.
func (e Expr) IsMatchAll() bool {
	return e.Kind == KindAnd && len(e.Children) == 0
}

// String renders e for logs.
func (e Expr) String() string {
	switch e.Kind {
	case KindAnd, KindOr:
		parts := make([]string, len(e.Children))
		for i, c := range e.Children {
			parts[i] = c.String()
		}
		return e.Kind.String() + "(" + strings.Join(parts, ", ") + ")"
	case KindExists:
		return "exists(" + e.Field + ")"
	default:
		op := e.Kind.String()
		if e.FoldCase {
			op += "~"
		}
		return fmt.Sprintf("%s(%s, %q)", op, e.Field, e.Value)
	}
}

// Params are the user facing filter parameters shared by listing and export.
type Params struct {
	Search    string `json:"search" query:"search"`
	Provincia string `json:"provincia" query:"provincia"`
	Estado    string `json:"estado" query:"estado"`
	Actividad string `json:"actividad" query:"actividad"`
	Funcion   string `json:"funcion" query:"funcion"`
}

// Build converts params to a predicate. Blank parameters are ignored.
func Build(p Params) Expr {
	var terms []Expr

	if s := strings.TrimSpace(p.Search); s != "" {
		terms = append(terms, Or(
			Contains(model.FieldNombre, s),
			Contains(model.FieldNIF, s),
			Contains(model.FieldFines, s),
		))
	}
	if s := strings.TrimSpace(p.Provincia); s != "" {
		terms = append(terms, Equals(model.FieldProvincia, s))
	}
	if s := strings.TrimSpace(p.Estado); s != "" {
		terms = append(terms, EqualsFold(model.FieldEstado, s))
	}
	if s := strings.TrimSpace(p.Actividad); s != "" {
		terms = append(terms, Contains(model.FieldClasificacion1, s))
	}
	if s := strings.TrimSpace(p.Funcion); s != "" {
		terms = append(terms, Contains(model.FieldFuncion1, s))
	}

	return And(terms...)
}
