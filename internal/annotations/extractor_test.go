package annotations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"structmeta/internal/canon"
	"structmeta/internal/compound"
	"structmeta/internal/config"
	"structmeta/internal/knowncache"
)

const (
	ethanol       = "LFQSCWFLJHTTHZ"
	caffeine      = "RYYVLZVUVIJVGH"
	water         = "XLYOFNOQVPJJNP"
	aspirin       = "BSYNRYMUTXBXSQ"
	acetaminophen = "RZVAJINKPMORJF"
	tryptophan    = "QIVBCDIJIAJPQS"
)

func writeTable(t *testing.T, path string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
}

func siriusTable(t *testing.T, root, sample string, ids ...string) {
	t.Helper()
	lines := []string{"rank\tInChIkey2D\tsmiles\tname"}
	for i, id := range ids {
		lines = append(lines, "1\t"+id+"\tC"+strings.Repeat("C", i)+"O\tcompound")
	}
	writeTable(t, filepath.Join(root, sample, sample+"_WORKSPACE_SIRIUS", "compound_identifications.tsv"), lines...)
}

func newExtractor(t *testing.T, root string, c canon.Canonicalizer) *Extractor {
	t.Helper()
	cfg := config.Default()
	e, err := New(root, cfg.Sources, c, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return e
}

func TestExtractTwoSamplesWithOverlap(t *testing.T) {
	root := t.TempDir()
	siriusTable(t, root, "sample_a", ethanol, caffeine, water)
	siriusTable(t, root, "sample_b", water, aspirin, acetaminophen)
	writeTable(t, filepath.Join(root, "structures_metadata.db"), "not a sample")

	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, root, nil).Extract(context.Background(), acc, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if acc.Len() != 5 {
		t.Fatalf("expected 5 pending identifiers, got %d (%v)", acc.Len(), acc.Identifiers())
	}
	if stats.Samples != 2 || stats.FilesRead != 2 || stats.AlreadyPending != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	rec, _ := acc.Get(water)
	if rec.Sample != "sample_a" || rec.Source != compound.SourceSirius || rec.HasTaxonomy {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestExtractSkipsKnownIdentifiers(t *testing.T) {
	root := t.TempDir()
	siriusTable(t, root, "sample_a", ethanol, caffeine)

	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, root, nil).Extract(context.Background(), acc, knowncache.New(caffeine))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if acc.Has(caffeine) {
		t.Fatal("known identifier must not be pending")
	}
	if acc.Len() != 1 || stats.KnownSkipped != 1 {
		t.Fatalf("unexpected result len=%d stats=%+v", acc.Len(), stats)
	}
}

func TestExtractISDBTaxonomyAndPrecedence(t *testing.T) {
	root := t.TempDir()
	header := strings.Join([]string{
		ColumnISDBIdentifier, ColumnISDBStructure, ColumnISDBPathway, ColumnISDBSuperclass, ColumnISDBClass,
	}, "\t")
	writeTable(t, filepath.Join(root, "s1", "s1_isdb_matched_pos_repond_flat.tsv"),
		header,
		ethanol+"\tCCO\tFatty acids\t\tEthanol",
		caffeine+"\tCN1C=NC2=C1C(=O)N(C)C(=O)N2C\t\tnan\t",
		"short\tCCC\tx\ty\tz",
	)
	writeTable(t, filepath.Join(root, "s1", "s1_isdb_matched_neg_repond_flat.tsv"),
		header,
		ethanol+"\tOCC\tAlkaloids\tAlkaloids\tAlkaloids",
	)
	siriusTable(t, root, "s1", ethanol)

	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, root, nil).Extract(context.Background(), acc, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if stats.Duplicates != 1 || stats.InvalidRows != 1 || stats.AlreadyPending != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec, _ := acc.Get(ethanol)
	want := compound.Taxonomy{Pathway: "Fatty acids", Superclass: compound.Unknown, Class: "Ethanol"}
	if !rec.HasTaxonomy || rec.Taxonomy != want || rec.Structure != "CCO" || rec.Source != compound.SourceISDB {
		t.Fatalf("unexpected ethanol record %+v", rec)
	}
	rec, _ = acc.Get(caffeine)
	if rec.HasTaxonomy {
		t.Fatalf("row with empty taxonomy should go to the classifier: %+v", rec)
	}
}

type fakeCanonicalizer map[string]string

func (f fakeCanonicalizer) Canonicalize(_ context.Context, raw string) (string, error) {
	if out, ok := f[raw]; ok {
		return out, nil
	}
	return "", canon.ErrUnparseable
}

func TestExtractGNPSCanonicalizes(t *testing.T) {
	root := t.TempDir()
	writeTable(t, filepath.Join(root, "s1", "s1_gnps_library_hits_pos.tsv"),
		"Compound_Name\tInChIKey\tSmiles",
		"ethanol\t"+ethanol+"-UHFFFAOYSA-N\tC(O)C",
		"broken\t"+caffeine+"-UHFFFAOYSA-N\tnot-a-structure",
		"caffeine again\t"+caffeine+"-UHFFFAOYSA-N\tCn1cnc2",
		"missing\t"+water+"-UHFFFAOYSA-N\tN/A",
	)
	writeTable(t, filepath.Join(root, "s1", "s1_gnps_library_hits_neg.tsv"),
		"InChIKey-Planar\tInChIKey\tSmiles",
		tryptophan+"\t\tNC(CC1=CNC2=CC=CC=C12)C(O)=O",
	)

	c := fakeCanonicalizer{
		"C(O)C":                        "OCC",
		"Cn1cnc2":                      "CN1C=NC2",
		"NC(CC1=CNC2=CC=CC=C12)C(O)=O": "NC(Cc1c[nH]c2ccccc12)C(=O)O",
	}
	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, root, c).Extract(context.Background(), acc, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if stats.Dropped != 2 {
		t.Fatalf("expected 2 dropped rows, got %+v", stats)
	}
	if got := acc.Identifiers(); len(got) != 3 || got[0] != ethanol || got[1] != caffeine || got[2] != tryptophan {
		t.Fatalf("unexpected identifiers %v", got)
	}
	rec, _ := acc.Get(ethanol)
	if rec.Structure != "OCC" || rec.Source != compound.SourceGNPS {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestExtractMissingColumnIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeTable(t, filepath.Join(root, "s1", "s1_WORKSPACE_SIRIUS", "compound_identifications.tsv"),
		"inchikey\tsmiles",
		ethanol+"\tCCO",
	)
	siriusTable(t, root, "s2", caffeine)

	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, root, nil).Extract(context.Background(), acc, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if stats.InvalidTables != 1 || acc.Len() != 1 || !acc.Has(caffeine) {
		t.Fatalf("unexpected result stats=%+v ids=%v", stats, acc.Identifiers())
	}
}

func TestExtractEmptyTree(t *testing.T) {
	acc := compound.NewAccumulator()
	stats, err := newExtractor(t, t.TempDir(), nil).Extract(context.Background(), acc, nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if acc.Len() != 0 || stats.AddedTotal() != 0 {
		t.Fatalf("expected nothing, got %+v", stats)
	}
}

func TestExtractMissingSampleDir(t *testing.T) {
	e := newExtractor(t, filepath.Join(t.TempDir(), "absent"), nil)
	if _, err := e.Extract(context.Background(), compound.NewAccumulator(), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
