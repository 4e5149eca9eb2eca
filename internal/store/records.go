package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"structmeta/internal/compound"
)

// Append inserts records in one transaction. Nothing is written when any
// insert fails.
func (s *Store) Append(ctx context.Context, records []compound.ResolvedRecord) error {
	ctx = ensureContext(ctx)
	if len(records) == 0 {
		return nil
	}
	if !s.columns.complete() {
		return errors.New("append: store was not opened for writing")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin append tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, s.columns.insertSQL())
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if rec.Identifier == "" {
				return errors.New("append: record without identifier")
			}
			taxonomy := rec.Taxonomy.Complete()
			resolvedAt := ""
			if !rec.ResolvedAt.IsZero() {
				resolvedAt = rec.ResolvedAt.UTC().Format(time.RFC3339Nano)
			}
			if _, err := stmt.ExecContext(ctx,
				rec.Identifier.String(),
				rec.ExternalID,
				rec.InChIKey,
				rec.CanonicalStructure,
				rec.SourceStructure,
				taxonomy.Pathway,
				taxonomy.Superclass,
				taxonomy.Class,
				string(rec.Source),
				rec.RunID,
				resolvedAt,
			); err != nil {
				return fmt.Errorf("insert %s: %w", rec.Identifier, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit append: %w", err)
		}
		return nil
	})
}

// List returns stored rows in insertion order. A non-positive limit
// returns every row from offset.
func (s *Store) List(ctx context.Context, limit, offset int) ([]compound.ResolvedRecord, error) {
	ctx = ensureContext(ctx)
	present, err := s.hasTable(ctx)
	if err != nil || !present {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+s.columns.selectList()+" FROM "+tableName+" ORDER BY rowid LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Lookup returns every stored row for id, oldest first. Duplicate rows are
// possible because the table has no uniqueness constraint.
func (s *Store) Lookup(ctx context.Context, id compound.Identifier) ([]compound.ResolvedRecord, error) {
	ctx = ensureContext(ctx)
	present, err := s.hasTable(ctx)
	if err != nil || !present || s.columns[colIdentifier] == "" {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+s.columns.selectList()+" FROM "+tableName+
			" WHERE "+quoteIdent(s.columns[colIdentifier])+" = ? ORDER BY rowid", id.String())
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	present, err := s.hasTable(ctx)
	if err != nil || !present {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+tableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Summary aggregates store contents for reporting.
type Summary struct {
	Rows             int            `json:"rows"`
	Identifiers      int            `json:"identifiers"`
	WithoutReference int            `json:"without_reference"`
	UnknownPathway   int            `json:"unknown_pathway"`
	FullyUnknown     int            `json:"fully_unknown"`
	Runs             int            `json:"runs"`
	BySource         map[string]int `json:"by_source"`
	LastResolvedAt   time.Time      `json:"last_resolved_at,omitzero"`
	DuplicateRows    int            `json:"duplicate_rows"`
}

// Summary returns aggregate counts over the table.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	summary := Summary{BySource: map[string]int{}}
	present, err := s.hasTable(ctx)
	if err != nil || !present {
		return summary, err
	}

	var last sql.NullString
	l := s.columns
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(1),
        COUNT(DISTINCT `+l.expr(colIdentifier)+`),
        COALESCE(SUM(CASE WHEN `+l.expr(colExternalID)+` = ? THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN `+l.expr(colPathway)+` = ? THEN 1 ELSE 0 END), 0),
        COALESCE(SUM(CASE WHEN `+l.expr(colPathway)+` = ?
            AND `+l.expr(colSuperclass)+` = ?
            AND `+l.expr(colClass)+` = ? THEN 1 ELSE 0 END), 0),
        COUNT(DISTINCT NULLIF(`+l.expr(colRunID)+`, '')),
        MAX(NULLIF(`+l.expr(colResolvedAt)+`, ''))
    FROM `+tableName,
		compound.NoExternalReference, compound.Unknown,
		compound.Unknown, compound.Unknown, compound.Unknown,
	)
	if err := row.Scan(
		&summary.Rows,
		&summary.Identifiers,
		&summary.WithoutReference,
		&summary.UnknownPathway,
		&summary.FullyUnknown,
		&summary.Runs,
		&last,
	); err != nil {
		return summary, fmt.Errorf("summarize records: %w", err)
	}
	summary.DuplicateRows = summary.Rows - summary.Identifiers
	if last.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			summary.LastResolvedAt = ts
		}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT COALESCE(NULLIF("+l.expr(colSource)+", ''), 'legacy'), COUNT(1) FROM "+tableName+" GROUP BY 1 ORDER BY 1")
	if err != nil {
		return summary, fmt.Errorf("summarize sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return summary, fmt.Errorf("scan source summary: %w", err)
		}
		summary.BySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("iterate source summary: %w", err)
	}
	return summary, nil
}

func scanRecords(rows *sql.Rows) ([]compound.ResolvedRecord, error) {
	var out []compound.ResolvedRecord
	for rows.Next() {
		var (
			rec        compound.ResolvedRecord
			id         string
			source     string
			resolvedAt string
		)
		if err := rows.Scan(
			&id,
			&rec.ExternalID,
			&rec.InChIKey,
			&rec.CanonicalStructure,
			&rec.SourceStructure,
			&rec.Taxonomy.Pathway,
			&rec.Taxonomy.Superclass,
			&rec.Taxonomy.Class,
			&source,
			&rec.RunID,
			&resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Identifier = compound.Identifier(strings.ToUpper(strings.TrimSpace(id)))
		rec.Source = compound.Source(source)
		if resolvedAt != "" {
			if ts, err := time.Parse(time.RFC3339Nano, resolvedAt); err == nil {
				rec.ResolvedAt = ts
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
