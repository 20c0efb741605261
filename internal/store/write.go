package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/engine"
)

var exportTables = []string{"files", "sections", "refs", "inheritance", "registry_members", "diagnostics"}

// WriteSnapshot replaces the database contents with snap and diags in one
// transaction. diags maps document paths to their diagnostics.
func (s *Store) WriteSnapshot(ctx context.Context, snap engine.Snapshot, diags map[string][]check.Diagnostic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range exportTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	steps := []func(context.Context, *sql.Tx, engine.Snapshot) error{
		writeFiles,
		writeSections,
		writeRefs,
		writeInheritance,
		writeRegistries,
	}
	for _, step := range steps {
		if err := step(ctx, tx, snap); err != nil {
			return err
		}
	}
	if err := writeDiagnostics(ctx, tx, diags); err != nil {
		return err
	}

	fp := snap.Index.Fingerprint()
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('fingerprint', ?)`,
		hex.EncodeToString(fp[:])); err != nil {
		return fmt.Errorf("record fingerprint: %w", err)
	}

	return tx.Commit()
}

func writeFiles(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files (path, category, hash, line_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, doc := range snap.Index.Documents() {
		if _, err := stmt.ExecContext(ctx, doc.Path, doc.Category, hex.EncodeToString(doc.Hash[:]), len(doc.Lines)); err != nil {
			return fmt.Errorf("insert file %s: %w", doc.Path, err)
		}
	}
	return nil
}

func writeSections(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sections (name, type, parent, file_path, line, end_line, name_start, name_end, key_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range snap.Index.SectionNames() {
		typ := snap.Resolver.TypeForSection(name)
		for _, def := range snap.Index.Definitions(name) {
			var parent interface{}
			if def.Section.HasParent() {
				parent = def.Section.Parent
			}
			_, err := stmt.ExecContext(ctx,
				name, typ, parent, def.Path, def.Line, def.Section.EndLine,
				def.Start, def.End, len(def.Section.Properties()))
			if err != nil {
				return fmt.Errorf("insert section %s: %w", name, err)
			}
		}
	}
	return nil
}

func writeRefs(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO refs (value, section, key, defined, file_path, line, position_start, position_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, value := range snap.Index.ReferencedValues() {
		defined := snap.Index.IsDefined(value)
		for _, ref := range snap.Index.References(value) {
			_, err := stmt.ExecContext(ctx,
				value, ref.Section, ref.Key, defined, ref.Path, ref.Line, ref.Start, ref.End)
			if err != nil {
				return fmt.Errorf("insert reference %s: %w", value, err)
			}
		}
	}
	return nil
}

func writeInheritance(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO inheritance (category, child, parent) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, category := range snap.Index.Categories() {
		edges := snap.Index.InheritanceMap(category)
		children := make([]string, 0, len(edges))
		for child := range edges {
			children = append(children, child)
		}
		sort.Strings(children)
		for _, child := range children {
			if _, err := stmt.ExecContext(ctx, category, child, edges[child]); err != nil {
				return fmt.Errorf("insert inheritance %s: %w", child, err)
			}
		}
	}
	return nil
}

func writeRegistries(ctx context.Context, tx *sql.Tx, snap engine.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO registry_members (registry, type, id, position, file_path, line)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, reg := range snap.Index.Registries() {
		for pos, id := range reg.Members {
			for _, loc := range reg.Occurrences[id] {
				if _, err := stmt.ExecContext(ctx, reg.Name, reg.Type, id, pos, loc.Path, loc.Line); err != nil {
					return fmt.Errorf("insert registry member %s: %w", id, err)
				}
			}
		}
	}
	return nil
}

func writeDiagnostics(ctx context.Context, tx *sql.Tx, diags map[string][]check.Diagnostic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics (file_path, line, character, end_line, end_character, severity, code, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	paths := make([]string, 0, len(diags))
	for p := range diags {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		for _, d := range diags[path] {
			_, err := stmt.ExecContext(ctx, path,
				d.Range.Start.Line, d.Range.Start.Character,
				d.Range.End.Line, d.Range.End.Character,
				d.Severity.String(), string(d.Code), d.Message)
			if err != nil {
				return fmt.Errorf("insert diagnostic for %s: %w", path, err)
			}
		}
	}
	return nil
}
