package riborez

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bbshockey/RiboRez-V1/config"
	"github.com/bbshockey/RiboRez-V1/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExtractCmd is the cobra handler for `riborez extract`.
func ExtractCmd(cmd *cobra.Command, args []string) {
	dataRoot, _ := cmd.Flags().GetString("data-root")
	if dataRoot == "" {
		cmd.Help()
		logger.Fatal("no data root passed, use --data-root")
	}

	out, _ := cmd.Flags().GetString("out")
	genes, _ := cmd.Flags().GetStringSlice("genes")
	synonyms, _ := cmd.Flags().GetString("synonyms")

	conf := config.New()
	opts := ExtractOptions{
		DataRoot:     dataRoot,
		OutputDir:    out,
		Genes:        genes,
		SampleSize:   conf.Extract.SampleSize,
		Seed:         conf.Extract.Seed,
		Threads:      conf.Extract.Threads,
		SynonymPath:  synonyms,
		MinGroupSize: conf.Extract.MinGroupSize,
		Min16SLength: conf.Extract.Min16SLength,
	}

	if _, err := Extract(opts); err != nil {
		logger.Fatal("extraction failed", zap.Error(err))
	}
}

// Extract runs the gene extraction engine end to end: discover genomes,
// sample, extract with a worker pool, filter, and write the per-gene
// artifacts. Only dataset- and configuration-level failures come back as
// errors; per-genome failures are recorded in the report and the log.
func Extract(opts ExtractOptions) (*ExtractReport, error) {
	table, err := loadSynonymTable(opts.SynonymPath)
	if err != nil {
		return nil, err
	}

	var queries []GeneQuery
	for _, label := range opts.Genes {
		q, err := table.resolve(label)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}

	genomes, err := findGenomes(opts.DataRoot)
	if err != nil {
		return nil, err
	}

	sampled := sampleGenomes(genomes, opts.SampleSize, opts.Seed)
	logger.Info("extracting genes",
		zap.Int("available", len(genomes)),
		zap.Int("sampled", len(sampled)),
		zap.Strings("genes", opts.Genes))

	report := runExtraction(sampled, queries, opts.Threads)
	applyLengthFilter(report, opts.Min16SLength)

	if err := writeExtractOutput(report, opts); err != nil {
		return nil, err
	}

	for _, gene := range report.GeneOrder {
		tally := report.Tallies[gene]
		if tally.Matched == 0 {
			logger.Warn("no genomes matched gene", zap.String("gene", gene))
		}
	}

	logger.Info("extraction complete",
		zap.Int("genomes", report.Genomes),
		zap.Int("genes", len(report.GeneOrder)),
		zap.String("out", opts.OutputDir))

	return report, nil
}

// geneFileName maps a gene label to a filesystem-safe base name.
func geneFileName(gene string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '\t':
			return '_'
		}
		return r
	}, gene)
}

// sequenceHeader is the FASTA header format shared with the downstream
// alignment and primer tools: accession|region|start-end|strain | gene.
func sequenceHeader(es ExtractedSequence) string {
	return fmt.Sprintf("%s|%s|%d-%d|%s | %s", es.Accession, es.Region, es.Start, es.End, es.Strain, es.Gene)
}

// writeExtractOutput writes one FASTA and one provenance TSV per gene with
// enough surviving sequences, plus the extraction log. All iteration is in
// sorted order so repeat runs are byte-identical.
func writeExtractOutput(report *ExtractReport, opts ExtractOptions) error {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, gene := range report.GeneOrder {
		collection := report.Collections[gene]
		tally := report.Tallies[gene]

		if len(collection) < opts.MinGroupSize || len(collection) == 0 {
			logger.Debug("gene group too small to write",
				zap.String("gene", gene),
				zap.Int("sequences", len(collection)),
				zap.Int("min", opts.MinGroupSize))
			continue
		}
		tally.Written = true

		base := geneFileName(gene)
		if err := writeGeneFasta(filepath.Join(opts.OutputDir, base+".fasta"), collection); err != nil {
			return err
		}
		if err := writeGeneProvenance(filepath.Join(opts.OutputDir, base+"_provenance.tsv"), collection); err != nil {
			return err
		}
	}

	return writeExtractionLog(filepath.Join(opts.OutputDir, "extraction_log.txt"), report)
}

func writeGeneFasta(path string, collection []ExtractedSequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, es := range collection {
		if err := writeFastaEntry(w, sequenceHeader(es), es.Seq); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeGeneProvenance(path string, collection []ExtractedSequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records := make([]ProvenanceRecord, len(collection))
	for i, es := range collection {
		records[i] = es.provenance()
	}
	return writeProvenance(f, records)
}

// writeExtractionLog summarizes per-gene counts, skip reasons and absences.
// Timestamp-free so an unchanged dataset reproduces the file exactly.
func writeExtractionLog(path string, report *ExtractReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Gene extraction summary: %d genomes attempted, %d genes\n", report.Genomes, len(report.GeneOrder))

	for _, gene := range report.GeneOrder {
		tally := report.Tallies[gene]

		fmt.Fprintf(w, "\n[%s]\n", gene)
		fmt.Fprintf(w, "  attempted: %d\n", tally.Attempted)
		fmt.Fprintf(w, "  matched:   %d\n", tally.Matched)
		fmt.Fprintf(w, "  loci:      %d\n", tally.Loci)
		if tally.Filtered > 0 {
			fmt.Fprintf(w, "  filtered:  %d (length filter)\n", tally.Filtered)
		}
		if !tally.Written {
			fmt.Fprintf(w, "  not written: %d sequences after filtering\n", len(report.Collections[gene]))
		}

		for _, accession := range tally.Absent {
			fmt.Fprintf(w, "  %s: gene absent\n", accession)
		}

		skipped := make([]string, 0, len(tally.Skipped))
		for accession := range tally.Skipped {
			skipped = append(skipped, accession)
		}
		sort.Strings(skipped)
		for _, accession := range skipped {
			fmt.Fprintf(w, "  %s: skipped: %s\n", accession, tally.Skipped[accession])
		}
	}

	return w.Flush()
}
