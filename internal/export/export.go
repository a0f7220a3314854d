// Package export renders tabular records as CSV text or XLSX workbooks.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Column maps a header title to the cell value of a record.
type Column[T any] struct {
	Title string
	Value func(T) any
}

// CSV renders a header row plus one row per record. Every cell is quoted and
// embedded quotes are doubled; nil renders as an empty quoted cell. Rows are
// joined with "\n". No records yields "".
func CSV[T any](records []T, cols []Column[T]) string {
	if len(records) == 0 {
		return ""
	}

	lines := make([]string, 0, len(records)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = quote(c.Title)
	}
	lines = append(lines, strings.Join(header, ","))

	for _, rec := range records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = quote(Format(c.Value(rec)))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Format turns a cell value into its text form.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Filename builds "<prefix>_YYYY-MM-DD.<ext>".
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("2006-01-02"), ext)
}
