package database

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fundaciones-espana/catalog-backend/filter"
	"github.com/fundaciones-espana/catalog-backend/model"
)

var attrName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// aqlBuilder renders predicates and keys over the row variable d, collecting
// bind variables as it goes.
type aqlBuilder struct {
	vars   map[string]any
	n      int
	unwind string // array field rows are unwound over, if any
}

func newAQLBuilder(vars map[string]any) *aqlBuilder {
	return &aqlBuilder{vars: vars}
}

func (b *aqlBuilder) bind(v any) string {
	name := fmt.Sprintf("f%d", b.n)
	b.n++
	b.vars[name] = v
	return "@" + name
}

func splitPath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if !attrName.MatchString(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, path)
		}
	}
	return segs, nil
}

func accessor(root string, segs []string) string {
	if len(segs) == 0 {
		return root
	}
	return root + "." + strings.Join(segs, ".")
}

func arrayOf(x string) string {
	return fmt.Sprintf("(IS_ARRAY(%s) ? %s : [])", x, x)
}

// plain resolves a path to a single attribute access. Paths under the unwound
// field address the current element; other paths may not cross an array.
func (b *aqlBuilder) plain(path string) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	if b.unwind != "" && segs[0] == b.unwind {
		return accessor("u", segs[1:]), nil
	}
	if model.ArrayFields[segs[0]] && len(segs) > 1 {
		return "", fmt.Errorf("%w: %q crosses an array", ErrInvalidField, path)
	}
	return accessor("d", segs), nil
}

// attr applies pred to the value at path. A path through an array field is
// true when pred holds for any element.
func (b *aqlBuilder) attr(path string, pred func(x string) string) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	if b.unwind != "" && segs[0] == b.unwind {
		return pred(accessor("u", segs[1:])), nil
	}
	if model.ArrayFields[segs[0]] && len(segs) > 1 {
		return fmt.Sprintf("LENGTH(%s[* FILTER %s]) > 0",
			arrayOf(accessor("d", segs[:1])), pred(accessor("CURRENT", segs[1:]))), nil
	}
	return pred(accessor("d", segs)), nil
}

func (b *aqlBuilder) expr(e filter.Expr) (string, error) {
	switch e.Kind {
	case filter.KindAnd, filter.KindOr:
		if len(e.Children) == 0 {
			if e.Kind == filter.KindAnd {
				return "true", nil
			}
			return "false", nil
		}
		op := " AND "
		if e.Kind == filter.KindOr {
			op = " OR "
		}
		parts := make([]string, 0, len(e.Children))
		for _, c := range e.Children {
			p, err := b.expr(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "(" + strings.Join(parts, op) + ")", nil

	case filter.KindEquals:
		p := b.bind(e.Value)
		if e.FoldCase {
			return b.attr(e.Field, func(x string) string {
				return fmt.Sprintf("LOWER(%s) == LOWER(%s)", x, p)
			})
		}
		return b.attr(e.Field, func(x string) string {
			return fmt.Sprintf("%s == %s", x, p)
		})

	case filter.KindContains:
		p := b.bind(e.Value)
		return b.attr(e.Field, func(x string) string {
			return fmt.Sprintf("CONTAINS(LOWER(%s), LOWER(%s))", x, p)
		})

	case filter.KindExists:
		return b.attr(e.Field, func(x string) string {
			return fmt.Sprintf(`(%s != null AND %s != "")`, x, x)
		})
	}
	return "", fmt.Errorf("unsupported predicate kind %v", e.Kind)
}

// CompileAQL renders expr as a boolean AQL expression over the document
// variable d and adds its bind variables to vars.
func CompileAQL(expr filter.Expr, vars map[string]any) (string, error) {
	return newAQLBuilder(vars).expr(expr)
}

// sortKey renders the SORT clause for spec, ending with the _key tie-break.
func (b *aqlBuilder) sortKey(spec SortSpec) (string, error) {
	var x string
	if spec.Field == model.FieldID {
		x = "TO_NUMBER(d._key)"
	} else {
		var err error
		if x, err = b.plain(spec.Field); err != nil {
			return "", err
		}
	}
	if spec.Chronological {
		pat := b.bind(DateYearPattern)
		x = fmt.Sprintf("((IS_STRING(%[1]s) AND REGEX_TEST(%[1]s, %[2]s)) ? CONCAT(SUBSTRING(%[1]s, 6, 4), SUBSTRING(%[1]s, 3, 2), SUBSTRING(%[1]s, 0, 2)) : %[1]s)", x, pat)
	}
	dir := "ASC"
	if spec.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("SORT %s %s, TO_NUMBER(d._key) ASC", x, dir), nil
}

// findQuery builds the listing/export query.
func findQuery(expr filter.Expr, opts FindOptions, vars map[string]any) (string, error) {
	b := newAQLBuilder(vars)
	lines := []string{"FOR d IN @@collection"}

	if !expr.IsMatchAll() {
		cond, err := b.expr(expr)
		if err != nil {
			return "", err
		}
		lines = append(lines, "FILTER "+cond)
	}
	if opts.Sort != nil {
		clause, err := b.sortKey(*opts.Sort)
		if err != nil {
			return "", err
		}
		lines = append(lines, clause)
	}
	if opts.Skip > 0 || opts.Limit > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = maxLimit
		}
		vars["skip"] = max(opts.Skip, 0)
		vars["limit"] = limit
		lines = append(lines, "LIMIT @skip, @limit")
	}
	if len(opts.Fields) > 0 {
		vars["keep"] = keepRoots(opts.Fields)
		lines = append(lines, "RETURN KEEP(d, @keep)")
	} else {
		lines = append(lines, "RETURN d")
	}
	return strings.Join(lines, "\n  "), nil
}

const maxLimit = int64(1) << 31

// keepRoots lists the top level attributes a projection needs, plus _key.
func keepRoots(fields []string) []string {
	roots := []string{"_key"}
	seen := map[string]bool{"_key": true}
	for _, f := range fields {
		root, _, _ := strings.Cut(f, ".")
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}

// countQuery counts documents matching expr.
func countQuery(expr filter.Expr, vars map[string]any) (string, error) {
	lines := []string{"FOR d IN @@collection"}
	if !expr.IsMatchAll() {
		cond, err := CompileAQL(expr, vars)
		if err != nil {
			return "", err
		}
		lines = append(lines, "FILTER "+cond)
	}
	lines = append(lines, "COLLECT WITH COUNT INTO n", "RETURN n")
	return strings.Join(lines, "\n  "), nil
}

// groupQuery builds a COLLECT ... WITH COUNT aggregation.
func groupQuery(spec GroupSpec, vars map[string]any) (string, error) {
	b := newAQLBuilder(vars)
	lines := []string{"FOR d IN @@collection"}

	if spec.Unwind != "" {
		segs, err := splitPath(spec.Unwind)
		if err != nil {
			return "", err
		}
		if len(segs) != 1 {
			return "", fmt.Errorf("%w: unwind %q must be a top level field", ErrInvalidField, spec.Unwind)
		}
		lines = append(lines, fmt.Sprintf("FOR u IN %s", arrayOf(accessor("d", segs))))
		b.unwind = spec.Unwind
	}

	x, err := b.plain(spec.Field)
	if err != nil {
		return "", err
	}

	var key string
	switch spec.Key {
	case KeyField:
		key = x
	case KeyArrayLength:
		key = fmt.Sprintf("LENGTH(%s)", arrayOf(x))
	case KeyDateYear:
		pat := b.bind(DateYearPattern)
		lines = append(lines, fmt.Sprintf("FILTER IS_STRING(%[1]s) AND REGEX_TEST(%[1]s, %[2]s)", x, pat))
		key = fmt.Sprintf("TO_NUMBER(SUBSTRING(%s, 6, 4))", x)
	default:
		return "", fmt.Errorf("unsupported group key %d", spec.Key)
	}

	if !spec.Match.IsMatchAll() {
		cond, err := b.expr(spec.Match)
		if err != nil {
			return "", err
		}
		lines = append(lines, "FILTER "+cond)
	}

	lines = append(lines, fmt.Sprintf("COLLECT k = %s WITH COUNT INTO n", key))
	if spec.OrderBy == ByKeyAsc {
		lines = append(lines, "SORT k ASC")
	} else {
		lines = append(lines, "SORT n DESC, k ASC")
	}
	if spec.Limit > 0 {
		vars["limit"] = spec.Limit
		lines = append(lines, "LIMIT @limit")
	}
	lines = append(lines, "RETURN {_id: k, count: n}")
	return strings.Join(lines, "\n  "), nil
}

// sizeStatsQuery summarises non-empty array sizes at field.
func sizeStatsQuery(field string, vars map[string]any) (string, error) {
	x, err := newAQLBuilder(vars).plain(field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`LET sizes = (
    FOR d IN @@collection
      LET n = LENGTH(%s)
      FILTER n > 0
      RETURN n
  )
  RETURN {documents: LENGTH(sizes), total: SUM(sizes), max: MAX(sizes), min: MIN(sizes)}`, arrayOf(x)), nil
}
