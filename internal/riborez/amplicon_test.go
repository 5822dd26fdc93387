package riborez

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeAmpliconCSV(t *testing.T, dir, gene, pair, content string) {
	t.Helper()

	geneDir := filepath.Join(dir, gene)
	if err := os.MkdirAll(geneDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(geneDir, pair+".csv"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func Test_readAmpliconCSV(t *testing.T) {
	dir := t.TempDir()
	writeAmpliconCSV(t, dir, "16S", "amplicon_1",
		"PrimerF,PrimerR,Header,AmpliconSequence\n"+
			"AAA,TTT,GCF_001|chr1|10-1550|Escherichia coli | 16S,ACGTACGT\n"+
			"AAA,TTT,GCF_002|chr1|12-1548|Shigella sp. | 16S,ACGTTCGT\n"+
			"AAA,TTT,,ACGT\n"+ // no header, dropped
			"AAA,TTT,GCF_003|chr1|1-4|x | 16S,\n") // no sequence, dropped

	amplicons, err := readAmpliconCSV("16S", filepath.Join(dir, "16S", "amplicon_1.csv"))
	if err != nil {
		t.Fatal(err)
	}

	want := []Amplicon{
		{
			Gene:      "16S",
			PairID:    "amplicon_1",
			Accession: "GCF_001",
			Header:    "GCF_001|chr1|10-1550|Escherichia coli | 16S",
			Seq:       "ACGTACGT",
		},
		{
			Gene:      "16S",
			PairID:    "amplicon_1",
			Accession: "GCF_002",
			Header:    "GCF_002|chr1|12-1548|Shigella sp. | 16S",
			Seq:       "ACGTTCGT",
		},
	}
	if !reflect.DeepEqual(amplicons, want) {
		t.Errorf("readAmpliconCSV() = %+v, want %+v", amplicons, want)
	}
}

func Test_readAmpliconCSV_missingColumns(t *testing.T) {
	dir := t.TempDir()
	writeAmpliconCSV(t, dir, "16S", "amplicon_1", "PrimerF,PrimerR,Sequence\nAAA,TTT,ACGT\n")

	if _, err := readAmpliconCSV("16S", filepath.Join(dir, "16S", "amplicon_1.csv")); err == nil {
		t.Error("expected an error for a CSV without Header and AmpliconSequence columns")
	}
}

func Test_loadAmpliconSets(t *testing.T) {
	dir := t.TempDir()
	writeAmpliconCSV(t, dir, "16S", "amplicon_1",
		"Header,AmpliconSequence\nGCF_001|chr1|10-99|x | 16S,ACGT\n")
	writeAmpliconCSV(t, dir, "16S", "amplicon_2",
		"Header,AmpliconSequence\nGCF_001|chr1|10-99|x | 16S,TTTT\n")
	writeAmpliconCSV(t, dir, "rpoB", "amplicon_1",
		"Header,AmpliconSequence\nGCF_002|chr1|5-80|y | rpoB,GGGG\n")

	// collaborator bookkeeping, never amplicon data
	writeAmpliconCSV(t, dir, "reference_mappings", "16S_mapping",
		"Header,AmpliconSequence\nGCF_009|chr1|1-9|z | 16S,CCCC\n")

	sets, genes, err := loadAmpliconSets(dir)
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"16S", "rpoB"}; !reflect.DeepEqual(genes, want) {
		t.Errorf("genes = %v, want %v", genes, want)
	}
	if len(sets["16S"]) != 2 {
		t.Errorf("16S primer pairs = %d, want 2", len(sets["16S"]))
	}
	if got := sets["rpoB"]["amplicon_1"][0].Seq; got != "GGGG" {
		t.Errorf("rpoB amplicon_1 seq = %q, want GGGG", got)
	}
	if _, ok := sets["reference_mappings"]; ok {
		t.Error("reference_mappings directory must not be loaded as a gene")
	}
}

func Test_loadAmpliconSets_missingDir(t *testing.T) {
	if _, _, err := loadAmpliconSets(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing input directory")
	}
}

func Test_loadAmpliconSets_empty(t *testing.T) {
	if _, _, err := loadAmpliconSets(t.TempDir()); err == nil {
		t.Error("expected an error when no per-gene directories exist")
	}
}
