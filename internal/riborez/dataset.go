// Package riborez finds taxon-resolving PCR amplicons: it extracts
// homologous gene regions from many genome assemblies and scores candidate
// amplicons by how well they separate genomes from one another.
package riborez

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bbshockey/RiboRez-V1/logger"
	"go.uber.org/zap"
)

// Genome is one assembly discovered in the dataset layout: a directory named
// after the accession, holding one sequence file and one annotation file.
// Immutable for the duration of a run.
type Genome struct {
	// accession id, unique within the dataset. Also the directory name
	Accession string

	// path to the genome's FASTA sequence file
	FastaPath string

	// path to the genome's GFF annotation file
	GFFPath string
}

// findGenomes scans a taxon's data directory for per-accession genome
// directories. An absent or empty data root is a setup failure that aborts
// the run; a directory missing either of its two files is logged and passed
// over.
func findGenomes(dataRoot string) ([]Genome, error) {
	info, err := os.Stat(dataRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("data directory not found: %s", dataRoot)
	}

	entries, err := os.ReadDir(dataRoot)
	if err != nil {
		return nil, fmt.Errorf("reading data directory %s: %w", dataRoot, err)
	}

	var genomes []Genome
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(dataRoot, entry.Name())
		fasta := firstGlob(dir, "*.fna")
		gff := firstGlob(dir, "*.gff")
		if fasta == "" || gff == "" {
			logger.Warn("missing FASTA or GFF file", zap.String("genome", entry.Name()))
			continue
		}

		genomes = append(genomes, Genome{
			Accession: entry.Name(),
			FastaPath: fasta,
			GFFPath:   gff,
		})
	}

	if len(genomes) == 0 {
		return nil, fmt.Errorf("no genome directories found in %s", dataRoot)
	}

	// accession order is the canonical processing and output order
	sort.Slice(genomes, func(i, j int) bool {
		return genomes[i].Accession < genomes[j].Accession
	})

	return genomes, nil
}

// firstGlob returns the lexicographically first match of pattern in dir,
// or "" if there is none.
func firstGlob(dir, pattern string) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[0]
}
