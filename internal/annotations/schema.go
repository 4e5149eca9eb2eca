package annotations

import (
	"strings"

	"structmeta/internal/compound"
)

// Column names of the three annotation tables.
const (
	ColumnISDBIdentifier   = "short_inchikey"
	ColumnISDBStructure    = "structure_smiles_2D"
	ColumnISDBPathway      = "structure_taxonomy_npclassifier_01pathway"
	ColumnISDBSuperclass   = "structure_taxonomy_npclassifier_02superclass"
	ColumnISDBClass        = "structure_taxonomy_npclassifier_03class"
	ColumnSiriusIdentifier = "InChIkey2D"
	ColumnSiriusStructure  = "smiles"
	ColumnGNPSPlanarKey    = "InChIKey-Planar"
	ColumnGNPSInChIKey     = "InChIKey"
	ColumnGNPSStructure    = "Smiles"
)

// schema describes how one pipeline's table maps onto a pending record.
type schema struct {
	source compound.Source
	// identifierColumns are tried in order; the first present column wins.
	identifierColumns []string
	structureColumn   string
	taxonomyColumns   []string
	canonicalize      bool
}

var (
	isdbSchema = schema{
		source:            compound.SourceISDB,
		identifierColumns: []string{ColumnISDBIdentifier},
		structureColumn:   ColumnISDBStructure,
		taxonomyColumns:   []string{ColumnISDBPathway, ColumnISDBSuperclass, ColumnISDBClass},
	}
	siriusSchema = schema{
		source:            compound.SourceSirius,
		identifierColumns: []string{ColumnSiriusIdentifier},
		structureColumn:   ColumnSiriusStructure,
	}
	gnpsSchema = schema{
		source:            compound.SourceGNPS,
		identifierColumns: []string{ColumnGNPSPlanarKey, ColumnGNPSInChIKey},
		structureColumn:   ColumnGNPSStructure,
		canonicalize:      true,
	}
)

// row is one validated line of an annotation table.
type row struct {
	identifier  compound.Identifier
	structure   string
	taxonomy    compound.Taxonomy
	hasTaxonomy bool
}

// blankCell reports whether a cell holds no value. Tables exported from
// data frames spell missing values several ways.
func blankCell(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "n/a", "na", "none", "null":
		return true
	}
	return false
}

func cellValue(value string) string {
	if blankCell(value) {
		return ""
	}
	return strings.TrimSpace(value)
}
