package riborez

import (
	"reflect"
	"testing"
)

func Test_resolve(t *testing.T) {
	table, err := loadSynonymTable("")
	if err != nil {
		t.Fatalf("loadSynonymTable() err = %v", err)
	}

	tests := []struct {
		name      string
		label     string
		wantKind  queryKind
		wantLabel string
		wantErr   bool
	}{
		{"category", "rRNA", categoryQuery, "rRNA", false},
		{"category case-insensitive", "rrna", categoryQuery, "rRNA", false},
		{"synonym set", "16S", synonymQuery, "16S", false},
		{"synonym set case-insensitive", "16s", synonymQuery, "16S", false},
		{"plain gene with synonyms", "gyrA", synonymQuery, "gyrA", false},
		{"unknown gene degrades to exact", "dnaK", exactQuery, "dnaK", false},
		{"empty label", "", exactQuery, "", true},
		{"blank label", "   ", exactQuery, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := table.resolve(tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolve(%q) err = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if q.Kind != tt.wantKind || q.Label != tt.wantLabel {
				t.Errorf("resolve(%q) = (%v, %q), want (%v, %q)", tt.label, q.Kind, q.Label, tt.wantKind, tt.wantLabel)
			}
		})
	}
}

func Test_canonicalGeneName(t *testing.T) {
	tests := []struct {
		name string
		rec  AnnotationRecord
		want string
	}{
		{"16S from product", AnnotationRecord{Type: "rRNA", Product: "16S ribosomal RNA"}, "16S"},
		{"16S from locus tag", AnnotationRecord{Type: "rRNA", LocusTag: "rrn16S_1"}, "16S"},
		{"23S from gene", AnnotationRecord{Type: "rRNA", Name: "rrl23S"}, "23S"},
		{"5S from id", AnnotationRecord{Type: "rRNA", ID: "rna-5S-3"}, "5S"},
		{"gene attribute", AnnotationRecord{Type: "CDS", Name: "gyrA", Product: "DNA gyrase subunit A"}, "gyrA"},
		{"locus tag fallback", AnnotationRecord{Type: "CDS", LocusTag: "b0001"}, "b0001"},
		{"id fallback", AnnotationRecord{Type: "CDS", ID: "cds-77"}, "cds-77"},
		{"coordinate fallback", AnnotationRecord{Type: "CDS", Region: "chr1", Start: 5, End: 9}, "CDS_chr1_5_9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonicalGeneName(tt.rec); got != tt.want {
				t.Errorf("canonicalGeneName() = %q, want %q", got, tt.want)
			}
		})
	}
}

// operonRecords is a genome's worth of annotation with duplicated rRNA
// operons and a couple of CDS features.
var operonRecords = []AnnotationRecord{
	{Type: "rRNA", Region: "chr1", Start: 10, End: 40, Strand: '+', Product: "16S ribosomal RNA"},
	{Type: "rRNA", Region: "chr1", Start: 60, End: 100, Strand: '+', Product: "23S ribosomal RNA"},
	{Type: "rRNA", Region: "chr1", Start: 110, End: 120, Strand: '+', Product: "5S ribosomal RNA"},
	{Type: "rRNA", Region: "chr1", Start: 200, End: 230, Strand: '-', Product: "16S ribosomal RNA"},
	{Type: "CDS", Region: "chr1", Start: 300, End: 330, Strand: '+', Name: "gyrA", Product: "DNA gyrase subunit A"},
	{Type: "gene", Region: "chr1", Start: 300, End: 330, Strand: '+', Name: "gyrA"},
}

func Test_matchGene(t *testing.T) {
	table, err := loadSynonymTable("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		label     string
		wantGenes []string
	}{
		// a category match is the union of every member found, without
		// duplication, operon copies retained
		{"rRNA category union", "rRNA", []string{"16S", "23S", "5S", "16S"}},
		{"16S keeps both operon copies", "16S", []string{"16S", "16S"}},
		{"synonym via product", "gyrA", []string{"gyrA"}},
		{"no match is empty, not an error", "recA", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := table.resolve(tt.label)
			if err != nil {
				t.Fatal(err)
			}

			loci := matchGene(q, operonRecords)

			var genes []string
			for _, locus := range loci {
				genes = append(genes, locus.Gene)
			}
			if !reflect.DeepEqual(genes, tt.wantGenes) {
				t.Errorf("matchGene(%q) genes = %v, want %v", tt.label, genes, tt.wantGenes)
			}
		})
	}
}

func Test_matchGene_skipsNonExtractable(t *testing.T) {
	table, _ := loadSynonymTable("")
	q, _ := table.resolve("gyrA")

	// the bare "gene" feature duplicates the CDS at the same coordinates and
	// must not produce a second locus
	loci := matchGene(q, operonRecords)
	if len(loci) != 1 || loci[0].Record.Type != "CDS" {
		t.Errorf("matchGene() = %+v, want the single CDS record", loci)
	}
}
