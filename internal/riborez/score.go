package riborez

import (
	"sort"
	"strings"
)

// Confidence flags for a DifferentiationScore.
const (
	// enough genomes covered for the score to be trusted
	ConfidenceHigh = "high"

	// coverage below the minimum threshold: kept in the summary, excluded
	// from the top ranks no matter the raw score
	ConfidenceLow = "low"
)

// ScoreWeights are the knobs of the resolving-power formula. The weighting
// of uniqueness against richness is deliberately configurable.
type ScoreWeights struct {
	// weight of the fraction of genomes with a private sequence variant
	Unique float64

	// weight of the distinct-variants-to-genomes ratio
	Richness float64

	// minimum genomes covered for a high-confidence score
	MinCoverage int

	// amplicons longer than this never reach the top ranks; 0 disables
	MaxAmpliconLength int
}

// DifferentiationScore is the resolving-power profile of one amplicon
// definition (a gene and primer pair). Computed once, then only ranked.
type DifferentiationScore struct {
	Gene   string
	PairID string

	// distinct genomes with at least one amplicon in the group
	Genomes int

	// distinct sequence variants after normalization
	Variants int

	// fraction of genomes holding a variant seen in no other genome
	UniqueFraction float64

	// Variants / Genomes
	Richness float64

	// median pairwise Hamming distance across equal-length variants,
	// a supporting statistic, not part of the score
	MedianHamming float64

	// median normalized variant length
	AmpliconLength int

	// weighted combination of UniqueFraction and Richness, see ScoreWeights
	Score float64

	Confidence string
}

// normalizeAmplicon uppercases and trims ambiguous terminal bases so variant
// identity is plain string identity.
func normalizeAmplicon(seq string) string {
	s := strings.ToUpper(strings.TrimSpace(seq))

	unambiguous := func(b byte) bool {
		return b == 'A' || b == 'C' || b == 'G' || b == 'T'
	}

	start, end := 0, len(s)
	for start < end && !unambiguous(s[start]) {
		start++
	}
	for end > start && !unambiguous(s[end-1]) {
		end--
	}
	return s[start:end]
}

// scoreAmpliconGroup computes the differentiation profile of one amplicon
// definition. A genome counts as uniquely identified when it holds at least
// one variant observed in no other genome: detecting that variant pins the
// genome down even if the genome's other operon copies are shared.
func scoreAmpliconGroup(gene, pairID string, amplicons []Amplicon, weights ScoreWeights) DifferentiationScore {
	score := DifferentiationScore{Gene: gene, PairID: pairID, Confidence: ConfidenceLow}

	variantGenomes := make(map[string]map[string]bool) // variant -> accessions
	genomeVariants := make(map[string]map[string]bool) // accession -> variants
	for _, a := range amplicons {
		variant := normalizeAmplicon(a.Seq)
		if variant == "" || a.Accession == "" {
			continue
		}

		if variantGenomes[variant] == nil {
			variantGenomes[variant] = make(map[string]bool)
		}
		variantGenomes[variant][a.Accession] = true

		if genomeVariants[a.Accession] == nil {
			genomeVariants[a.Accession] = make(map[string]bool)
		}
		genomeVariants[a.Accession][variant] = true
	}

	score.Genomes = len(genomeVariants)
	score.Variants = len(variantGenomes)
	if score.Genomes == 0 {
		return score
	}

	unique := 0
	for _, variants := range genomeVariants {
		for variant := range variants {
			if len(variantGenomes[variant]) == 1 {
				unique++
				break
			}
		}
	}

	variants := make([]string, 0, len(variantGenomes))
	for variant := range variantGenomes {
		variants = append(variants, variant)
	}
	sort.Strings(variants)

	score.UniqueFraction = float64(unique) / float64(score.Genomes)
	score.Richness = float64(score.Variants) / float64(score.Genomes)
	score.MedianHamming = medianHamming(variants)
	score.AmpliconLength = medianVariantLength(variants)
	score.Score = weights.Unique*score.UniqueFraction + weights.Richness*score.Richness
	if score.Genomes >= weights.MinCoverage {
		score.Confidence = ConfidenceHigh
	}

	return score
}

// topRanked reports whether a score belongs in the top-rank section of the
// report: high confidence and, when a cap is set, not over-long.
func (s DifferentiationScore) topRanked(weights ScoreWeights) bool {
	if s.Confidence != ConfidenceHigh {
		return false
	}
	return weights.MaxAmpliconLength <= 0 || s.AmpliconLength <= weights.MaxAmpliconLength
}

// rankScores orders amplicon definitions by resolving power, descending,
// with deterministic tie-breaking: higher coverage, then gene label, then
// primer pair id.
func rankScores(scores []DifferentiationScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Genomes != b.Genomes {
			return a.Genomes > b.Genomes
		}
		if a.Gene != b.Gene {
			return a.Gene < b.Gene
		}
		return a.PairID < b.PairID
	})
}

// medianHamming is the median pairwise Hamming distance across variants.
// Pairs of unequal length are skipped; no comparable pair yields 0.
func medianHamming(variants []string) float64 {
	var distances []int
	for i := 0; i < len(variants); i++ {
		for j := i + 1; j < len(variants); j++ {
			if len(variants[i]) != len(variants[j]) {
				continue
			}
			distances = append(distances, hammingDistance(variants[i], variants[j]))
		}
	}
	if len(distances) == 0 {
		return 0
	}

	sort.Ints(distances)
	n := len(distances)
	if n%2 == 1 {
		return float64(distances[n/2])
	}
	return float64(distances[n/2-1]+distances[n/2]) / 2
}

func hammingDistance(a, b string) int {
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

func medianVariantLength(variants []string) int {
	lengths := make([]int, len(variants))
	for i, v := range variants {
		lengths[i] = len(v)
	}
	return medianInt(lengths)
}
