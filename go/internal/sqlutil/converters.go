package sqlutil

import (
	"database/sql"
	"strings"
)

// NullString maps a blank string to SQL NULL.
func NullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
