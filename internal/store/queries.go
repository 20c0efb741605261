package store

import (
	"database/sql"
	"errors"
	"strings"
)

// Stats contains export statistics.
type Stats struct {
	FileCount       int `json:"files"`
	SectionCount    int `json:"sections"`
	RefCount        int `json:"references"`
	UndefinedRefs   int `json:"undefined_references"`
	InheritEdges    int `json:"inheritance_edges"`
	RegistryMembers int `json:"registry_members"`
	Diagnostics     int `json:"diagnostics"`

	// Fingerprint is the hex BLAKE3 digest of the exported documents.
	Fingerprint string `json:"fingerprint"`
}

// Stats returns row counts for the exported tables.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM files", &st.FileCount},
		{"SELECT COUNT(*) FROM sections", &st.SectionCount},
		{"SELECT COUNT(*) FROM refs", &st.RefCount},
		{"SELECT COUNT(*) FROM refs WHERE defined = 0", &st.UndefinedRefs},
		{"SELECT COUNT(*) FROM inheritance", &st.InheritEdges},
		{"SELECT COUNT(DISTINCT registry || char(0) || id) FROM registry_members", &st.RegistryMembers},
		{"SELECT COUNT(*) FROM diagnostics", &st.Diagnostics},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return nil, err
	}
	st.Fingerprint = fp
	return &st, nil
}

// Fingerprint returns the document fingerprint recorded by the last
// WriteSnapshot, or "" if nothing has been written.
func (s *Store) Fingerprint() (string, error) {
	var fp string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return fp, err
}

// CodeCount is the number of diagnostics reported for one code.
type CodeCount struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// DiagnosticsByCode returns diagnostic counts grouped by code, most frequent
// first.
func (s *Store) DiagnosticsByCode() ([]CodeCount, error) {
	rows, err := s.db.Query(`
		SELECT code, severity, COUNT(*) AS n
		FROM diagnostics
		GROUP BY code, severity
		ORDER BY n DESC, code`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows, func(rows *sql.Rows) (CodeCount, error) {
		var c CodeCount
		err := rows.Scan(&c.Code, &c.Severity, &c.Count)
		return c, err
	})
}

// SectionRow is one exported section definition.
type SectionRow struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Parent   string `json:"parent,omitempty"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	KeyCount int    `json:"key_count"`
}

// SectionsOfType returns the section definitions resolved to any of types,
// ordered by file and line.
func (s *Store) SectionsOfType(types ...string) ([]SectionRow, error) {
	placeholders, args := inClauseArgs(types)
	rows, err := s.db.Query(`
		SELECT name, type, COALESCE(parent, ''), file_path, line, key_count
		FROM sections
		WHERE type IN (`+placeholders+`)
		ORDER BY file_path, line`, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows, scanSection)
}

// UndefinedReferences returns the distinct value tokens under key that name
// no defined section. An empty key matches every key.
func (s *Store) UndefinedReferences(key string) ([]string, error) {
	query := `SELECT DISTINCT value FROM refs WHERE defined = 0`
	var args []any
	if key != "" {
		query += ` AND key = ? COLLATE NOCASE`
		args = append(args, key)
	}
	query += ` ORDER BY value`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows, func(rows *sql.Rows) (string, error) {
		var v string
		err := rows.Scan(&v)
		return v, err
	})
}

func scanSection(rows *sql.Rows) (SectionRow, error) {
	var r SectionRow
	err := rows.Scan(&r.Name, &r.Type, &r.Parent, &r.FilePath, &r.Line, &r.KeyCount)
	return r, err
}

// inClauseArgs returns "?, ?, ..." and matching args. No items yields
// "NULL" so that `IN (NULL)` matches nothing.
func inClauseArgs(items []string) (string, []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	ph := make([]string, len(items))
	args := make([]any, len(items))
	for i, item := range items {
		ph[i] = "?"
		args[i] = item
	}
	return strings.Join(ph, ", "), args
}

func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
