package riborez

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/bbshockey/RiboRez-V1/config"
	"github.com/bbshockey/RiboRez-V1/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AnalyzeOptions are the inputs to one amplicon analysis run.
type AnalyzeOptions struct {
	// primer-design output directory, one subdirectory per gene
	InputDir string

	// directory the summary and log are written to
	OutputDir string

	// worker pool width for per-gene scoring
	Threads int

	Weights ScoreWeights
}

// AnalyzeCmd is the cobra handler for `riborez analyze`.
func AnalyzeCmd(cmd *cobra.Command, args []string) {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		cmd.Help()
		logger.Fatal("no input directory passed, use --input")
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Clean(input) + "_AmpliconAnalysis"
	}

	conf := config.New()
	opts := AnalyzeOptions{
		InputDir:  input,
		OutputDir: out,
		Threads:   conf.Analysis.Threads,
		Weights: ScoreWeights{
			Unique:            conf.Analysis.UniqueWeight,
			Richness:          conf.Analysis.RichnessWeight,
			MinCoverage:       conf.Analysis.MinCoverage,
			MaxAmpliconLength: conf.Analysis.MaxAmpliconLength,
		},
	}

	if _, err := Analyze(opts); err != nil {
		logger.Fatal("amplicon analysis failed", zap.Error(err))
	}
}

// Analyze scores every amplicon definition and writes the ranked summary,
// the system's primary deliverable. Per-gene scoring runs on a worker pool;
// the global ranking is a sequential merge once every gene is back.
func Analyze(opts AnalyzeOptions) ([]DifferentiationScore, error) {
	sets, genes, err := loadAmpliconSets(opts.InputDir)
	if err != nil {
		return nil, err
	}

	logger.Info("scoring amplicons",
		zap.Int("genes", len(genes)),
		zap.Int("threads", opts.Threads))

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan int)
	perGene := make([][]DifferentiationScore, len(genes))

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				perGene[i] = scoreGene(genes[i], sets[genes[i]], opts.Weights)
			}
		}()
	}
	for i := range genes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// ranking barrier: every per-gene slice is in before the global sort
	var scores []DifferentiationScore
	for _, geneScores := range perGene {
		scores = append(scores, geneScores...)
	}
	rankScores(scores)

	if err := writeAnalysisOutput(scores, opts); err != nil {
		return nil, err
	}
	printTopRanked(scores, opts.Weights)

	return scores, nil
}

// scoreGene scores every primer pair of one gene, in pair-id order.
func scoreGene(gene string, pairs map[string][]Amplicon, weights ScoreWeights) []DifferentiationScore {
	pairIDs := make([]string, 0, len(pairs))
	for pairID := range pairs {
		pairIDs = append(pairIDs, pairID)
	}
	sort.Strings(pairIDs)

	scores := make([]DifferentiationScore, 0, len(pairIDs))
	for _, pairID := range pairIDs {
		scores = append(scores, scoreAmpliconGroup(gene, pairID, pairs[pairID], weights))
	}
	return scores
}

// printTopRanked writes the high-confidence ranking to stdout.
func printTopRanked(scores []DifferentiationScore, weights ScoreWeights) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 3, ' ', 0)
	fmt.Fprintf(w, "gene\tprimer pair\tgenomes\tvariants\tscore\tconfidence\t\n")
	for _, s := range scores {
		if !s.topRanked(weights) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%s\t\n", s.Gene, s.PairID, s.Genomes, s.Variants, s.Score, s.Confidence)
	}
	w.Flush()
}

// writeAnalysisOutput writes the full ranked summary TSV and the analysis
// log, low-confidence rows included so nothing is silently dropped.
func writeAnalysisOutput(scores []DifferentiationScore, opts AnalyzeOptions) error {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(opts.OutputDir, "amplicon_summary.tsv"))
	if err != nil {
		return err
	}
	defer f.Close()

	tsv := csv.NewWriter(f)
	tsv.Comma = '\t'
	if err := tsv.Write([]string{
		"Gene", "PrimerPair", "GenomesCovered", "DistinctVariants",
		"UniqueFraction", "Richness", "MedianHamming", "AmpliconLength",
		"ResolvingPower", "Confidence",
	}); err != nil {
		return err
	}
	for _, s := range scores {
		row := []string{
			s.Gene,
			s.PairID,
			strconv.Itoa(s.Genomes),
			strconv.Itoa(s.Variants),
			strconv.FormatFloat(s.UniqueFraction, 'f', 4, 64),
			strconv.FormatFloat(s.Richness, 'f', 4, 64),
			strconv.FormatFloat(s.MedianHamming, 'f', 1, 64),
			strconv.Itoa(s.AmpliconLength),
			strconv.FormatFloat(s.Score, 'f', 4, 64),
			s.Confidence,
		}
		if err := tsv.Write(row); err != nil {
			return err
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return err
	}

	return writeAnalysisLog(filepath.Join(opts.OutputDir, "analysis_log.txt"), scores, opts.Weights)
}

func writeAnalysisLog(path string, scores []DifferentiationScore, weights ScoreWeights) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	topRanked, lowConfidence, overLong := 0, 0, 0
	for _, s := range scores {
		switch {
		case s.topRanked(weights):
			topRanked++
		case s.Confidence == ConfidenceLow:
			lowConfidence++
		default:
			overLong++
		}
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Amplicon analysis summary: %d amplicon definitions scored\n", len(scores))
	fmt.Fprintf(w, "  top-ranked:           %d\n", topRanked)
	fmt.Fprintf(w, "  low-confidence:       %d (coverage < %d genomes)\n", lowConfidence, weights.MinCoverage)
	fmt.Fprintf(w, "  over length cap:      %d (> %d bp)\n", overLong, weights.MaxAmpliconLength)
	fmt.Fprintf(w, "  score weights:        unique=%.2f richness=%.2f\n", weights.Unique, weights.Richness)

	for _, s := range scores {
		if s.topRanked(weights) {
			continue
		}
		reason := "over length cap"
		if s.Confidence == ConfidenceLow {
			reason = "low confidence"
		}
		fmt.Fprintf(w, "  excluded %s/%s: %s (genomes=%d, length=%d)\n", s.Gene, s.PairID, reason, s.Genomes, s.AmpliconLength)
	}

	return w.Flush()
}
