package riborez

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bbshockey/RiboRez-V1/logger"
	"go.uber.org/zap"
)

// Amplicon is one externally amplified sub-region of an extracted gene,
// tied back to the genome it came from. Produced by the alignment and
// primer-design collaborators; this core only reads their CSV contract.
type Amplicon struct {
	// gene label, from the directory the CSV was found in
	Gene string

	// primer pair identifier, from the CSV base name
	PairID string

	// source genome accession, the first |-field of the sequence header
	Accession string

	// full sequence header as written by the extraction step
	Header string

	// the amplified sequence between the primer binding sites
	Seq string
}

// ampliconSets groups amplicons by gene, then by primer pair.
type ampliconSets map[string]map[string][]Amplicon

// loadAmpliconSets walks the primer-design output layout: one directory per
// gene, each holding one CSV per primer pair with at least Header and
// AmpliconSequence columns. A missing input directory is a setup failure;
// an unreadable CSV is logged and skipped.
func loadAmpliconSets(inputDir string) (ampliconSets, []string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("input directory not found: %s", inputDir)
	}

	sets := make(ampliconSets)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "reference_mappings" {
			continue
		}
		gene := entry.Name()

		csvPaths, _ := filepath.Glob(filepath.Join(inputDir, gene, "*.csv"))
		sort.Strings(csvPaths)
		for _, path := range csvPaths {
			amplicons, err := readAmpliconCSV(gene, path)
			if err != nil {
				logger.Warn("skipping unreadable amplicon file",
					zap.String("file", path),
					zap.Error(err))
				continue
			}
			if len(amplicons) == 0 {
				continue
			}

			if sets[gene] == nil {
				sets[gene] = make(map[string][]Amplicon)
			}
			pairID := strings.TrimSuffix(filepath.Base(path), ".csv")
			sets[gene][pairID] = amplicons
		}
	}

	if len(sets) == 0 {
		return nil, nil, fmt.Errorf("no per-gene amplicon directories found in %s", inputDir)
	}

	genes := make([]string, 0, len(sets))
	for gene := range sets {
		genes = append(genes, gene)
	}
	sort.Strings(genes)

	return sets, genes, nil
}

// readAmpliconCSV parses one primer pair's amplicon CSV. Column order is the
// collaborator's business; only the Header and AmpliconSequence columns are
// contractual.
func readAmpliconCSV(gene, path string) ([]Amplicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headerCol, seqCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "header":
			headerCol = i
		case "ampliconsequence":
			seqCol = i
		}
	}
	if headerCol < 0 || seqCol < 0 {
		return nil, fmt.Errorf("missing Header or AmpliconSequence column in %s", path)
	}

	pairID := strings.TrimSuffix(filepath.Base(path), ".csv")
	var amplicons []Amplicon
	for _, row := range rows[1:] {
		if len(row) <= headerCol || len(row) <= seqCol {
			continue
		}

		header := strings.TrimSpace(row[headerCol])
		seq := strings.TrimSpace(row[seqCol])
		if header == "" || seq == "" {
			continue
		}

		accession, _, _ := strings.Cut(header, "|")
		amplicons = append(amplicons, Amplicon{
			Gene:      gene,
			PairID:    pairID,
			Accession: strings.TrimSpace(accession),
			Header:    header,
			Seq:       seq,
		})
	}

	return amplicons, nil
}
