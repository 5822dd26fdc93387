package riborez

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeTestGenome lays one genome directory out the way the download step
// does: <root>/<accession>/ holding a .fna and a .gff file.
func writeTestGenome(t *testing.T, root, accession, fasta, gff string) {
	t.Helper()

	dir := filepath.Join(root, accession)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "genomic.fna"), []byte(fasta), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "genomic.gff"), []byte(gff), 0644); err != nil {
		t.Fatal(err)
	}
}

func rrnaLine(start, end int, strand string) string {
	return fmt.Sprintf("chr1\tRefSeq\trRNA\t%d\t%d\t.\t%s\t.\tID=rna-%d;product=16S ribosomal RNA\n", start, end, strand, start)
}

const testChromosome = ">chr1 Test species strain T-1\n"

// testSeq is a 400 bp chromosome
var testSeq = strings.Repeat("ACGT", 100)

func sixteenSQuery(t *testing.T) GeneQuery {
	t.Helper()

	table, err := loadSynonymTable("")
	if err != nil {
		t.Fatal(err)
	}
	q, err := table.resolve("16S")
	if err != nil {
		t.Fatal(err)
	}
	return q
}

// five genomes, two of which carry duplicated rRNA operons: the collection
// must hold 2+2+1+1+1 = 7 separately identifiable entries
func Test_runExtraction_operonCopies(t *testing.T) {
	root := t.TempDir()
	dual := testChromosome + testSeq + "\n"
	gffDual := "##gff-version 3\n" + rrnaLine(1, 60, "+") + rrnaLine(101, 160, "+")
	gffSingle := "##gff-version 3\n" + rrnaLine(1, 60, "+")

	writeTestGenome(t, root, "GCA_A", dual, gffDual)
	writeTestGenome(t, root, "GCA_B", dual, gffDual)
	writeTestGenome(t, root, "GCA_C", dual, gffSingle)
	writeTestGenome(t, root, "GCA_D", dual, gffSingle)
	writeTestGenome(t, root, "GCA_E", dual, gffSingle)

	genomes, err := findGenomes(root)
	if err != nil {
		t.Fatal(err)
	}

	report := runExtraction(genomes, []GeneQuery{sixteenSQuery(t)}, 3)

	collection := report.Collections["16S"]
	if len(collection) != 7 {
		t.Fatalf("collection size = %d, want 7", len(collection))
	}

	// one provenance record per entry, all ids distinct
	ids := make(map[string]bool)
	for _, es := range collection {
		prov := es.provenance()
		if prov.SeqID == "" || prov.Accession != es.Accession {
			t.Errorf("bad provenance record %+v", prov)
		}
		ids[prov.SeqID] = true
	}
	if len(ids) != 7 {
		t.Errorf("distinct provenance ids = %d, want 7", len(ids))
	}

	// merged in accession order regardless of worker completion order
	var accessions []string
	for _, es := range collection {
		accessions = append(accessions, es.Accession)
	}
	want := []string{"GCA_A", "GCA_A", "GCA_B", "GCA_B", "GCA_C", "GCA_D", "GCA_E"}
	if !reflect.DeepEqual(accessions, want) {
		t.Errorf("collection order = %v, want %v", accessions, want)
	}

	tally := report.Tallies["16S"]
	if tally.Attempted != 5 || tally.Matched != 5 || tally.Loci != 7 {
		t.Errorf("tally = %+v, want attempted=5 matched=5 loci=7", tally)
	}
}

// a genome with no matching loci is excluded from the collection but shows
// up in the tally as gene absent
func Test_runExtraction_geneAbsent(t *testing.T) {
	root := t.TempDir()
	fasta := testChromosome + testSeq + "\n"

	writeTestGenome(t, root, "GCA_A", fasta, "##gff-version 3\n"+rrnaLine(1, 60, "+"))
	writeTestGenome(t, root, "GCA_B", fasta,
		"##gff-version 3\nchr1\tRefSeq\tCDS\t1\t60\t.\t+\t.\tID=cds-1;gene=gyrA\n")

	genomes, err := findGenomes(root)
	if err != nil {
		t.Fatal(err)
	}

	report := runExtraction(genomes, []GeneQuery{sixteenSQuery(t)}, 1)

	for _, es := range report.Collections["16S"] {
		if es.Accession == "GCA_B" {
			t.Error("absent genome leaked into the collection")
		}
	}

	tally := report.Tallies["16S"]
	if !reflect.DeepEqual(tally.Absent, []string{"GCA_B"}) {
		t.Errorf("tally.Absent = %v, want [GCA_B]", tally.Absent)
	}
	if tally.Matched != 1 {
		t.Errorf("tally.Matched = %d, want 1", tally.Matched)
	}
}

// annotation referencing a region the sequence file lacks skips the genome
// with a recorded reason, without failing the run or the other genomes
func Test_runExtraction_skipsBadGenomes(t *testing.T) {
	root := t.TempDir()
	fasta := testChromosome + testSeq + "\n"

	writeTestGenome(t, root, "GCA_A", fasta, "##gff-version 3\n"+rrnaLine(1, 60, "+"))
	writeTestGenome(t, root, "GCA_B", fasta,
		"##gff-version 3\nchr9\tRefSeq\trRNA\t1\t60\t.\t+\t.\tID=rna-1;product=16S ribosomal RNA\n")
	writeTestGenome(t, root, "GCA_C", fasta,
		"##gff-version 3\n"+rrnaLine(1, 9999, "+")) // past the region end

	genomes, err := findGenomes(root)
	if err != nil {
		t.Fatal(err)
	}

	report := runExtraction(genomes, []GeneQuery{sixteenSQuery(t)}, 2)

	if got := len(report.Collections["16S"]); got != 1 {
		t.Fatalf("collection size = %d, want only the healthy genome", got)
	}

	tally := report.Tallies["16S"]
	if len(tally.Skipped) != 2 {
		t.Fatalf("tally.Skipped = %v, want 2 entries", tally.Skipped)
	}
	if reason := tally.Skipped["GCA_B"]; !strings.Contains(reason, "chr9") {
		t.Errorf("GCA_B skip reason = %q, want a missing-region reason", reason)
	}
	if reason := tally.Skipped["GCA_C"]; !strings.Contains(reason, "out of range") {
		t.Errorf("GCA_C skip reason = %q, want an out-of-range reason", reason)
	}
}

// a plus-strand locus and the same coordinates on the minus strand are
// reverse complements of one another, equal length
func Test_extractLocus_strandRoundTrip(t *testing.T) {
	regions := regionIndex([]*seqRegion{{id: "chr1", seq: []byte(testSeq)}})

	rec := AnnotationRecord{Type: "rRNA", Region: "chr1", Start: 11, End: 70, Strand: '+'}
	forward, err := extractLocus("GCA_A", MatchedLocus{Gene: "16S", Record: rec}, regions)
	if err != nil {
		t.Fatal(err)
	}

	rec.Strand = '-'
	reverse, err := extractLocus("GCA_A", MatchedLocus{Gene: "16S", Record: rec}, regions)
	if err != nil {
		t.Fatal(err)
	}

	if len(forward.Seq) != 60 || len(reverse.Seq) != 60 {
		t.Fatalf("lengths = %d, %d, want end-start+1 = 60", len(forward.Seq), len(reverse.Seq))
	}
	if !bytes.Equal(reverseComplement(forward.Seq), reverse.Seq) {
		t.Error("minus-strand extraction is not the reverse complement of the plus strand")
	}
	if forward.ID == reverse.ID {
		t.Error("opposite strands produced the same sequence id")
	}
}

func Test_applyLengthFilter(t *testing.T) {
	seqs := func(lengths ...int) []ExtractedSequence {
		out := make([]ExtractedSequence, len(lengths))
		for i, n := range lengths {
			out[i] = ExtractedSequence{Gene: "gyrA", Seq: bytes.Repeat([]byte{'A'}, n)}
		}
		return out
	}

	report := &ExtractReport{
		Collections: map[string][]ExtractedSequence{
			"gyrA": seqs(100, 100, 100, 20), // 20 < median(100)/2
			"16S":  seqs(1500, 1500, 1000),  // 1000 under the 16S floor
		},
		GeneOrder: []string{"16S", "gyrA"},
		Tallies:   map[string]*GeneTally{"gyrA": {}, "16S": {}},
	}

	applyLengthFilter(report, 1400)

	if got := len(report.Collections["gyrA"]); got != 3 {
		t.Errorf("gyrA survivors = %d, want 3", got)
	}
	if report.Tallies["gyrA"].Filtered != 1 {
		t.Errorf("gyrA filtered = %d, want 1", report.Tallies["gyrA"].Filtered)
	}
	if got := len(report.Collections["16S"]); got != 2 {
		t.Errorf("16S survivors = %d, want 2", got)
	}
}

// running the engine twice over an unchanged dataset produces byte-identical
// sequence files, provenance mappings and logs
func Test_Extract_idempotent(t *testing.T) {
	root := t.TempDir()
	fasta := testChromosome + testSeq + "\n"
	gff := "##gff-version 3\n" + rrnaLine(1, 60, "+") + rrnaLine(101, 160, "-")

	for _, accession := range []string{"GCA_A", "GCA_B", "GCA_C"} {
		writeTestGenome(t, root, accession, fasta, gff)
	}

	runOnce := func(out string) {
		t.Helper()
		_, err := Extract(ExtractOptions{
			DataRoot:     root,
			OutputDir:    out,
			Genes:        []string{"16S"},
			SampleSize:   2,
			Seed:         42,
			Threads:      4,
			MinGroupSize: 1,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	out1 := filepath.Join(t.TempDir(), "run1")
	out2 := filepath.Join(t.TempDir(), "run2")
	runOnce(out1)
	runOnce(out2)

	for _, name := range []string{"16S.fasta", "16S_provenance.tsv", "extraction_log.txt"} {
		first, err := os.ReadFile(filepath.Join(out1, name))
		if err != nil {
			t.Fatalf("first run missing %s: %v", name, err)
		}
		second, err := os.ReadFile(filepath.Join(out2, name))
		if err != nil {
			t.Fatalf("second run missing %s: %v", name, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s differs between identical runs", name)
		}
	}
}

// a gene requested but matched nowhere still gets a tally and a warning,
// not an error
func Test_Extract_geneMatchedNowhere(t *testing.T) {
	root := t.TempDir()
	fasta := testChromosome + testSeq + "\n"
	gff := "##gff-version 3\n" + rrnaLine(1, 60, "+")

	writeTestGenome(t, root, "GCA_A", fasta, gff)

	report, err := Extract(ExtractOptions{
		DataRoot:     root,
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		Genes:        []string{"recA"},
		Threads:      1,
		MinGroupSize: 1,
	})
	if err != nil {
		t.Fatalf("Extract() err = %v, zero matches must not be fatal", err)
	}

	tally := report.Tallies["recA"]
	if tally == nil || tally.Matched != 0 || len(tally.Absent) != 1 {
		t.Errorf("tally = %+v, want matched=0 with one absent genome", tally)
	}
}

func Test_Extract_setupFailures(t *testing.T) {
	if _, err := Extract(ExtractOptions{DataRoot: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("Extract() with a missing data root expected an error")
	}

	root := t.TempDir()
	writeTestGenome(t, root, "GCA_A", testChromosome+testSeq+"\n", "##gff-version 3\n"+rrnaLine(1, 60, "+"))
	if _, err := Extract(ExtractOptions{DataRoot: root, Genes: []string{""}}); err == nil {
		t.Error("Extract() with an empty gene label expected an error")
	}
}
