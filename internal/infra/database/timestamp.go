package database

import (
	"fmt"
	"time"
)

// sqliteTimeFormats lists the text layouts SQLite hands back when a column
// has no declared type, e.g. in RETURNING clauses.
//
//nolint:gochecknoglobals
var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// Timestamp scans a nullable timestamp that may arrive as time.Time or as text.
// Scanned values are normalized to UTC.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}

		return nil
	case time.Time:
		*ts = Timestamp{Time: v.UTC(), Valid: true}

		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (ts *Timestamp) parse(s string) error {
	for _, layout := range sqliteTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = Timestamp{Time: t.UTC(), Valid: true}

			return nil
		}
	}

	return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}

// Ptr returns the time or nil when the value is NULL.
func (ts Timestamp) Ptr() *time.Time {
	if !ts.Valid {
		return nil
	}

	t := ts.Time

	return &t
}
