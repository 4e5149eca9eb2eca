package store_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"structmeta/internal/compound"
	"structmeta/internal/store"
)

func sampleRecord(id compound.Identifier, runID string) compound.ResolvedRecord {
	return compound.ResolvedRecord{
		Identifier:         id,
		ExternalID:         compound.NoExternalReference,
		InChIKey:           compound.NoExternalReference,
		CanonicalStructure: "CCO",
		SourceStructure:    "CCO",
		Taxonomy:           compound.Taxonomy{Pathway: compound.Unknown, Superclass: "Alcohols", Class: "Ethanol"},
		Source:             compound.SourceSirius,
		RunID:              runID,
		ResolvedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func mustOpen(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestReadIdentifiersMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structures_metadata.db")
	ids, err := store.ReadIdentifiers(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadIdentifiers returned error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no identifiers, got %v", ids)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadIdentifiers must not create the store, stat err=%v", err)
	}
}

func TestAppendAndReadBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "structures_metadata.db")
	st := mustOpen(t, path)

	records := []compound.ResolvedRecord{
		sampleRecord("LFQSCWFLJHTTHZ", "run-1"),
		sampleRecord("RYYVLZVUVIJVGH", "run-1"),
	}
	records[1].ExternalID = "http://www.wikidata.org/entity/Q60235"
	records[1].InChIKey = "RYYVLZVUVIJVGH-UHFFFAOYSA-N"
	records[1].Source = compound.SourceISDB
	if err := st.Append(ctx, records); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	// Append never updates; a second row for the same identifier is kept.
	if err := st.Append(ctx, []compound.ResolvedRecord{sampleRecord("LFQSCWFLJHTTHZ", "run-2")}); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	count, err := st.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v; want 3", count, err)
	}

	ids, err := store.ReadIdentifiers(ctx, path)
	if err != nil {
		t.Fatalf("ReadIdentifiers failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct identifiers, got %v", ids)
	}

	rows, err := st.Lookup(ctx, "LFQSCWFLJHTTHZ")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(rows) != 2 || rows[0].RunID != "run-1" || rows[1].RunID != "run-2" {
		t.Fatalf("unexpected lookup rows %+v", rows)
	}
	if rows[0].Taxonomy.Superclass != "Alcohols" || !rows[0].ResolvedAt.Equal(records[0].ResolvedAt) {
		t.Fatalf("record did not round-trip: %+v", rows[0])
	}

	listed, err := st.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Identifier != "RYYVLZVUVIJVGH" || !listed[0].HasExternalReference() {
		t.Fatalf("unexpected list page %+v", listed)
	}

	summary, err := st.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Rows != 3 || summary.Identifiers != 2 || summary.WithoutReference != 2 || summary.UnknownPathway != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Runs != 2 || summary.DuplicateRows != 1 || summary.BySource["sirius"] != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestAppendIsAtomic(t *testing.T) {
	ctx := context.Background()
	st := mustOpen(t, filepath.Join(t.TempDir(), "structures_metadata.db"))

	records := []compound.ResolvedRecord{sampleRecord("LFQSCWFLJHTTHZ", "run-1"), {}}
	if err := st.Append(ctx, records); err == nil {
		t.Fatal("expected error for record without identifier")
	}
	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed append left %d rows behind", count)
	}
}

// pandasSchema is the table DataFrame.to_sql creates for the merged
// metadata frame, including its index column.
const pandasSchema = `CREATE TABLE "structures_metadata" (
"index" INTEGER,
  "wikidata_id" TEXT,
  "inchikey" TEXT,
  "isomeric_smiles" TEXT,
  "short_inchikey" TEXT,
  "smiles" TEXT,
  "npc_pathway" TEXT,
  "npc_superclass" TEXT,
  "npc_class" TEXT
);
CREATE INDEX "ix_structures_metadata_index"ON "structures_metadata" ("index");`

func seedTable(t *testing.T, path, schema string, inserts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create seed table: %v", err)
	}
	for _, stmt := range inserts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed row: %v", err)
		}
	}
}

func tableColumnNames(t *testing.T, path string) map[string]bool {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	rows, err := db.Query("SELECT name FROM pragma_table_info('structures_metadata')")
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer rows.Close()
	names := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names[name] = true
	}
	return names
}

func TestPandasWrittenStoreIsReadAndExtended(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "structures_metadata.db")
	seedTable(t, path, pandasSchema,
		`INSERT INTO structures_metadata VALUES
        (0, 'http://www.wikidata.org/entity/Q153', 'LFQSCWFLJHTTHZ-UHFFFAOYSA-N', 'CCO',
         'LFQSCWFLJHTTHZ', 'CCO', 'Fatty acids', 'Fatty alcohols', 'unknown')`)

	ro, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		t.Fatalf("OpenReadOnly failed: %v", err)
	}
	listed, err := ro.List(ctx, 0, 0)
	_ = ro.Close()
	if err != nil || len(listed) != 1 {
		t.Fatalf("List on pandas store = %v, %v", listed, err)
	}
	if listed[0].Taxonomy.Superclass != "Fatty alcohols" || listed[0].Source != "" {
		t.Fatalf("legacy row read incorrectly: %+v", listed[0])
	}

	st := mustOpen(t, path)
	if err := st.Append(ctx, []compound.ResolvedRecord{sampleRecord("RYYVLZVUVIJVGH", "run-1")}); err != nil {
		t.Fatalf("Append on pandas store failed: %v", err)
	}

	ids, err := store.ReadIdentifiers(ctx, path)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ReadIdentifiers = %v, %v; want 2 identifiers", ids, err)
	}
	rows, err := st.Lookup(ctx, "RYYVLZVUVIJVGH")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Lookup = %v, %v", rows, err)
	}
	if rows[0].Taxonomy.Superclass != "Alcohols" || rows[0].RunID != "run-1" {
		t.Fatalf("appended row did not round-trip: %+v", rows[0])
	}
	legacy, err := st.Lookup(ctx, "LFQSCWFLJHTTHZ")
	if err != nil || len(legacy) != 1 || legacy[0].Taxonomy.Pathway != "Fatty acids" {
		t.Fatalf("legacy Lookup = %+v, %v", legacy, err)
	}

	summary, err := st.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Rows != 2 || summary.BySource["legacy"] != 1 || summary.BySource["sirius"] != 1 || summary.UnknownPathway != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	columns := tableColumnNames(t, path)
	for _, name := range []string{"index", "npc_pathway", "source", "run_id", "resolved_at"} {
		if !columns[name] {
			t.Fatalf("expected column %s, got %v", name, columns)
		}
	}
	if columns["structure_taxonomy_npclassifier_01pathway"] {
		t.Fatalf("taxonomy columns must not be duplicated: %v", columns)
	}
}

func TestStoreWithAnnotationTaxonomyColumns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "structures_metadata.db")
	seedTable(t, path, `CREATE TABLE structures_metadata (
        short_inchikey TEXT, wikidata_id TEXT, inchikey TEXT, isomeric_smiles TEXT, smiles TEXT,
        structure_taxonomy_npclassifier_01pathway TEXT,
        structure_taxonomy_npclassifier_02superclass TEXT,
        structure_taxonomy_npclassifier_03class TEXT)`)

	st := mustOpen(t, path)
	if err := st.Append(ctx, []compound.ResolvedRecord{sampleRecord("RYYVLZVUVIJVGH", "run-1")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	rows, err := st.Lookup(ctx, "RYYVLZVUVIJVGH")
	if err != nil || len(rows) != 1 || rows[0].Taxonomy.Class != "Ethanol" {
		t.Fatalf("Lookup = %+v, %v", rows, err)
	}
	if tableColumnNames(t, path)["npc_pathway"] {
		t.Fatal("existing taxonomy columns must be reused")
	}
}

func TestRunLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structures_metadata.db")
	first, err := store.AcquireRunLock(path)
	if err != nil {
		t.Fatalf("AcquireRunLock failed: %v", err)
	}
	if _, err := store.AcquireRunLock(path); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	second, err := store.AcquireRunLock(path)
	if err != nil {
		t.Fatalf("AcquireRunLock after release failed: %v", err)
	}
	_ = second.Release()
}
