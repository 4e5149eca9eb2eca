package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

const (
	tableName   = "structures_metadata"
	indexSQL    = "CREATE INDEX IF NOT EXISTS idx_structures_metadata_short_inchikey ON " + tableName + "(short_inchikey)"
	columnCount = 11
)

// Logical columns in record order.
const (
	colIdentifier = iota
	colExternalID
	colInChIKey
	colCanonicalStructure
	colSourceStructure
	colPathway
	colSuperclass
	colClass
	colSource
	colRunID
	colResolvedAt
)

// storeColumn names a logical column. Existing tables may carry one of the
// aliases instead of the canonical name; stores written by the pandas
// exporter use the npc_* taxonomy names, early structmeta builds used the
// annotation table names.
type storeColumn struct {
	name    string
	aliases []string
}

var storeColumns = [columnCount]storeColumn{
	colIdentifier:         {name: "short_inchikey"},
	colExternalID:         {name: "wikidata_id"},
	colInChIKey:           {name: "inchikey"},
	colCanonicalStructure: {name: "isomeric_smiles"},
	colSourceStructure:    {name: "smiles"},
	colPathway:            {name: "npc_pathway", aliases: []string{"structure_taxonomy_npclassifier_01pathway"}},
	colSuperclass:         {name: "npc_superclass", aliases: []string{"structure_taxonomy_npclassifier_02superclass"}},
	colClass:              {name: "npc_class", aliases: []string{"structure_taxonomy_npclassifier_03class"}},
	colSource:             {name: "source"},
	colRunID:              {name: "run_id"},
	colResolvedAt:         {name: "resolved_at"},
}

// layout maps logical columns to the names present in the table. An empty
// entry means the column is absent and reads as an empty string.
type layout [columnCount]string

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableColumns(ctx context.Context, q queryer) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info('"+tableName+"')")
	if err != nil {
		return nil, fmt.Errorf("inspect table columns: %w", err)
	}
	defer rows.Close()
	existing := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		existing[strings.ToLower(name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column names: %w", err)
	}
	return existing, nil
}

func resolveLayout(existing map[string]struct{}) layout {
	var l layout
	for i, column := range storeColumns {
		for _, name := range append([]string{column.name}, column.aliases...) {
			if _, ok := existing[name]; ok {
				l[i] = name
				break
			}
		}
	}
	return l
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// expr returns a NULL-tolerant select expression for a logical column.
func (l layout) expr(col int) string {
	if l[col] == "" {
		return "''"
	}
	return "COALESCE(" + quoteIdent(l[col]) + ", '')"
}

func (l layout) selectList() string {
	exprs := make([]string, columnCount)
	for i := range l {
		exprs[i] = l.expr(i)
	}
	return strings.Join(exprs, ", ")
}

func (l layout) insertSQL() string {
	names := make([]string, columnCount)
	for i, name := range l {
		names[i] = quoteIdent(name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ")
	return "INSERT INTO " + tableName + " (" + strings.Join(names, ", ") + ") VALUES (" + placeholders + ")"
}

func (l layout) complete() bool {
	for _, name := range l {
		if name == "" {
			return false
		}
	}
	return true
}

// initSchema creates the table when absent and adds any missing column to
// an existing one, so rows written by other tools stay in place.
func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	existing, err := tableColumns(ctx, tx)
	if err != nil {
		return err
	}
	l := resolveLayout(existing)
	for i, column := range storeColumns {
		if l[i] != "" {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''", tableName, quoteIdent(column.name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", column.name, err)
		}
		l[i] = column.name
	}
	if _, err := tx.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	s.columns = l
	return nil
}

// loadLayout resolves the column layout of an existing table without
// changing it.
func (s *Store) loadLayout(ctx context.Context) error {
	existing, err := tableColumns(ctx, s.db)
	if err != nil {
		return err
	}
	s.columns = resolveLayout(existing)
	return nil
}
