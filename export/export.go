// Package export renders catalog records as downloadable CSV or JSON.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundaciones-espana/catalog-backend/document"
)

// ErrUnsupportedFormat is returned for any format other than csv or json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export file format.
type Format string

// Supported formats.
const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// ParseFormat accepts csv and json. An empty value means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType is the response media type for f.
func (f Format) ContentType() string {
	if f == JSON {
		return "application/json"
	}
	return "text/csv"
}

// Filename is the attachment name for an export produced at now.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("fundaciones_export_%s.%s", now.UTC().Format("2006-01-02"), f)
}

// Render produces the file body for records.
func Render(f Format, records []document.Doc, fields []string) ([]byte, error) {
	switch f {
	case JSON:
		return renderJSON(records)
	case CSV:
		return renderCSV(records, fields), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

func renderJSON(records []document.Doc) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := document.Encode(r)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
