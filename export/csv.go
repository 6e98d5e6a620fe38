package export

import (
	"strings"

	"github.com/fundaciones-espana/catalog-backend/document"
)

// arraySeparator joins array elements into one cell.
const arraySeparator = "; "

// Flatten turns nested objects into parent_child keys and arrays into a single
// joined string. Every value of the result is a string; null becomes "".
func Flatten(d document.Doc) document.Doc {
	var out document.Doc
	flatten("", d, &out)
	return out
}

func flatten(prefix string, d document.Doc, out *document.Doc) {
	for _, f := range d.Fields() {
		key := prefix + f.Key
		if obj, ok := document.AsDoc(f.Value); ok {
			flatten(key+"_", obj, out)
			continue
		}
		out.Set(key, cellText(f.Value))
	}
}

func cellText(v any) string {
	if items, ok := v.([]any); ok {
		return joinItems(items)
	}
	return document.Text(v)
}

// joinItems encodes object, array and null elements as JSON and leaves other
// scalars as their text.
func joinItems(items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		switch item.(type) {
		case nil:
			parts[i] = "null"
		case document.Doc, []any:
			b, err := document.Encode(item)
			if err == nil {
				parts[i] = string(b)
			}
		default:
			parts[i] = document.Text(item)
		}
	}
	return strings.Join(parts, arraySeparator)
}

// quote wraps s in double quotes and doubles any quote inside it. Every cell
// is quoted, which encoding/csv cannot be told to do.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// renderCSV writes a header and one row per record. With explicit fields the
// header is the field list; otherwise it is the keys of the first record.
func renderCSV(records []document.Doc, fields []string) []byte {
	if len(records) == 0 {
		return []byte{}
	}

	flats := make([]document.Doc, len(records))
	for i, r := range records {
		flats[i] = Flatten(r)
	}

	explicit := len(fields) > 0
	header := fields
	if !explicit {
		header = flats[0].Keys()
	}

	var b strings.Builder
	writeRow(&b, header, func(h string) string { return h })
	for i := range records {
		b.WriteByte('\n')
		writeRow(&b, header, func(h string) string {
			return cell(records[i], flats[i], h, explicit)
		})
	}
	return []byte(b.String())
}

func writeRow(b *strings.Builder, header []string, value func(string) string) {
	for j, h := range header {
		if j > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(value(h)))
	}
}

// cell finds the value of column h. An explicit dot path is looked up under
// its flattened key first; a path naming a whole object yields its JSON and a
// path through an array joins the element values.
func cell(record, flat document.Doc, h string, explicit bool) string {
	key := h
	if explicit {
		key = strings.ReplaceAll(h, ".", "_")
	}
	if v, ok := flat.Get(key); ok {
		return document.Text(v)
	}
	if !explicit {
		return ""
	}

	values := document.Lookup(record, h)
	switch len(values) {
	case 0:
		return ""
	case 1:
		return cellText(values[0])
	default:
		return joinItems(values)
	}
}
