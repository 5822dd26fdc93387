package riborez

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bbshockey/RiboRez-V1/logger"
	"go.uber.org/zap"
)

// SequenceRegionNotFoundError signals a corrupt or mismatched
// genome/annotation pair: the annotation references a sequence region the
// genome FASTA does not contain. The genome is skipped, not the run.
type SequenceRegionNotFoundError struct {
	Region string
}

func (e *SequenceRegionNotFoundError) Error() string {
	return fmt.Sprintf("sequence region %q not found in genome sequence file", e.Region)
}

// CoordinateOutOfRangeError signals an annotated locus that runs past the
// end of its sequence region. Same skip policy as a missing region.
type CoordinateOutOfRangeError struct {
	Region string
	Start  int
	End    int
	Length int
}

func (e *CoordinateOutOfRangeError) Error() string {
	return fmt.Sprintf("locus %d-%d out of range for region %q of length %d", e.Start, e.End, e.Region, e.Length)
}

// ExtractedSequence is the strand-corrected nucleotide sequence sliced from
// one genome at one matched locus.
type ExtractedSequence struct {
	// stable generated identifier, see sequenceID
	ID string

	// canonical gene label the sequence was extracted for
	Gene string

	Accession string
	Region    string
	Start     int
	End       int
	Strand    byte

	// strain description from the source region's FASTA header
	Strain string

	Seq []byte
}

// provenance is the ProvenanceRecord for this sequence.
func (es ExtractedSequence) provenance() ProvenanceRecord {
	return ProvenanceRecord{
		SeqID:     es.ID,
		Accession: es.Accession,
		Strain:    es.Strain,
		Region:    es.Region,
		Start:     es.Start,
		End:       es.End,
		Strand:    es.Strand,
		Gene:      es.Gene,
	}
}

// extractLocus slices the genome sequence at [start, end] and
// reverse-complements the slice when the locus sits on the minus strand.
func extractLocus(accession string, locus MatchedLocus, regions map[string]*seqRegion) (ExtractedSequence, error) {
	rec := locus.Record

	region, ok := regions[rec.Region]
	if !ok {
		return ExtractedSequence{}, &SequenceRegionNotFoundError{Region: rec.Region}
	}
	if rec.End > len(region.seq) {
		return ExtractedSequence{}, &CoordinateOutOfRangeError{
			Region: rec.Region,
			Start:  rec.Start,
			End:    rec.End,
			Length: len(region.seq),
		}
	}

	seq := make([]byte, rec.End-rec.Start+1)
	copy(seq, region.seq[rec.Start-1:rec.End])
	if rec.Strand == '-' {
		seq = reverseComplement(seq)
	}

	return ExtractedSequence{
		ID:        sequenceID(accession, rec.Region, rec.Start, rec.End, rec.Strand, locus.Gene),
		Gene:      locus.Gene,
		Accession: accession,
		Region:    rec.Region,
		Start:     rec.Start,
		End:       rec.End,
		Strand:    rec.Strand,
		Strain:    region.desc,
		Seq:       seq,
	}, nil
}

// ExtractOptions are the inputs to one extraction run.
type ExtractOptions struct {
	// per-accession genome data directory
	DataRoot string

	// directory the gene FASTAs, provenance and log are written to
	OutputDir string

	// requested gene labels; empty extracts every CDS and rRNA gene found
	Genes []string

	// number of genomes to sample, 0 uses all
	SampleSize int

	// sampler seed
	Seed int64

	// worker pool width
	Threads int

	// optional synonym table override
	SynonymPath string

	// gene groups smaller than this are logged but not written
	MinGroupSize int

	// 16S sequences shorter than this never survive the length filter
	Min16SLength int
}

// GeneTally is the per-gene accounting the engine reports: who was
// attempted, who matched, who was skipped and why.
type GeneTally struct {
	// genomes attempted after sampling
	Attempted int

	// genomes with at least one matching locus
	Matched int

	// total loci extracted across genomes (operon copies count separately)
	Loci int

	// accessions processed cleanly but without a match for this gene
	Absent []string

	// accession -> reason for genomes skipped by a per-genome failure
	Skipped map[string]string

	// sequences dropped by the length filter
	Filtered int

	// whether the gene's FASTA was written (enough surviving sequences)
	Written bool
}

// ExtractReport is the aggregate result of one extraction run. Per-genome
// failures live here, never as returned errors.
type ExtractReport struct {
	// genomes attempted after sampling
	Genomes int

	// gene label -> extracted sequences ordered by accession then coordinate
	Collections map[string][]ExtractedSequence

	// sorted gene labels, the canonical iteration order
	GeneOrder []string

	// gene label -> tally
	Tallies map[string]*GeneTally
}

// genomeResult is the atomic outcome for one genome: either loci for every
// gene or a skip reason, never both.
type genomeResult struct {
	genome     Genome
	loci       map[string][]ExtractedSequence
	skipReason string
}

// processGenome runs parse -> match -> extract for one genome. Any failure
// converts the whole genome into a skip so completed genomes stay intact.
func processGenome(g Genome, queries []GeneQuery) genomeResult {
	result := genomeResult{genome: g}

	records, err := readGFF(g.GFFPath)
	if err != nil {
		result.skipReason = err.Error()
		return result
	}

	regionList, err := readFasta(g.FastaPath)
	if err != nil {
		result.skipReason = fmt.Sprintf("unreadable sequence file: %v", err)
		return result
	}
	regions := regionIndex(regionList)

	var loci []MatchedLocus
	if len(queries) == 0 {
		// all-genes mode: every extractable record under its canonical name
		for _, rec := range records {
			if !extractableFeature(rec.Type) {
				continue
			}
			loci = append(loci, MatchedLocus{Gene: canonicalGeneName(rec), Record: rec})
		}
	} else {
		for _, q := range queries {
			loci = append(loci, matchGene(q, records)...)
		}
	}

	type locusKey struct {
		gene   string
		region string
		start  int
		end    int
	}

	seen := make(map[locusKey]bool)
	collected := make(map[string][]ExtractedSequence)
	for _, locus := range loci {
		key := locusKey{locus.Gene, locus.Record.Region, locus.Record.Start, locus.Record.End}
		if seen[key] {
			// at most one entry per (genome, locus) pair
			continue
		}
		seen[key] = true

		seq, err := extractLocus(g.Accession, locus, regions)
		if err != nil {
			result.skipReason = err.Error()
			return result
		}
		collected[locus.Gene] = append(collected[locus.Gene], seq)
	}

	result.loci = collected
	return result
}

// runExtraction fans per-genome work out over a bounded worker pool and
// merges the results into accession order. Workers write to disjoint slots
// indexed by genome position, so no ordering guarantee is needed between
// them and the merge is deterministic regardless of completion order.
func runExtraction(genomes []Genome, queries []GeneQuery, threads int) *ExtractReport {
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan int)
	results := make([]genomeResult, len(genomes))

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = processGenome(genomes[i], queries)
			}
		}()
	}
	for i := range genomes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// merge in accession order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].genome.Accession < results[j].genome.Accession
	})

	report := &ExtractReport{
		Genomes:     len(genomes),
		Collections: make(map[string][]ExtractedSequence),
		Tallies:     make(map[string]*GeneTally),
	}

	// the gene universe: seeded from the requested labels so a gene that
	// matched nowhere still gets an (empty) collection and a tally, plus
	// whatever all-genes mode turned up
	geneSet := make(map[string]bool)
	for _, q := range queries {
		for _, label := range queryLabels(q) {
			geneSet[label] = true
		}
	}
	for _, r := range results {
		for gene := range r.loci {
			geneSet[gene] = true
		}
	}
	for gene := range geneSet {
		report.GeneOrder = append(report.GeneOrder, gene)
	}
	sort.Strings(report.GeneOrder)

	for _, gene := range report.GeneOrder {
		tally := &GeneTally{
			Attempted: len(genomes),
			Skipped:   make(map[string]string),
		}
		report.Tallies[gene] = tally

		for _, r := range results {
			if r.skipReason != "" {
				tally.Skipped[r.genome.Accession] = r.skipReason
				continue
			}

			seqs := r.loci[gene]
			if len(seqs) == 0 {
				tally.Absent = append(tally.Absent, r.genome.Accession)
				continue
			}

			tally.Matched++
			tally.Loci += len(seqs)
			report.Collections[gene] = append(report.Collections[gene], seqs...)
		}

		logger.Debug("gene merged",
			zap.String("gene", gene),
			zap.Int("matched", tally.Matched),
			zap.Int("loci", tally.Loci),
			zap.Int("skipped", len(tally.Skipped)))
	}

	return report
}

// queryLabels lists the gene labels a query can report hits under.
func queryLabels(q GeneQuery) []string {
	if q.Kind != categoryQuery {
		return []string{q.Label}
	}
	var labels []string
	for _, member := range q.members {
		labels = append(labels, queryLabels(member)...)
	}
	return labels
}

// applyLengthFilter drops sequences shorter than half the per-gene median
// length, with an absolute floor for 16S, so truncated annotations do not
// poison the downstream alignment.
func applyLengthFilter(report *ExtractReport, min16SLength int) {
	for _, gene := range report.GeneOrder {
		collection := report.Collections[gene]
		if len(collection) == 0 {
			continue
		}

		lengths := make([]int, len(collection))
		for i, es := range collection {
			lengths[i] = len(es.Seq)
		}
		threshold := medianInt(lengths) / 2

		kept := collection[:0:0]
		for _, es := range collection {
			if len(es.Seq) < threshold || (gene == "16S" && len(es.Seq) < min16SLength) {
				report.Tallies[gene].Filtered++
				continue
			}
			kept = append(kept, es)
		}
		report.Collections[gene] = kept
	}
}

// medianInt is the median of values, rounding down between two middles.
func medianInt(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
