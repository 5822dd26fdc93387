package riborez

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

//go:embed synonyms.yaml
var defaultSynonyms []byte

// queryKind says how a GeneQuery matches annotation records.
type queryKind int

const (
	// exact case-insensitive match against the record's canonical name
	exactQuery queryKind = iota

	// match against a closed set of synonyms for one canonical gene
	synonymQuery

	// match any member gene of a category such as rRNA
	categoryQuery
)

// synonymTable is the closed, versioned set of gene names and categories the
// matcher understands. Loaded once per run and never mutated, so every match
// is reproducible and auditable against the table file.
type synonymTable struct {
	Version    int                 `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`
	Genes      map[string][]string `yaml:"genes"`
}

// loadSynonymTable loads the embedded table, or the one at path when given.
func loadSynonymTable(path string) (*synonymTable, error) {
	raw := defaultSynonyms
	if path != "" {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading synonym table: %w", err)
		}
	}

	var table synonymTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parsing synonym table: %w", err)
	}
	return &table, nil
}

// GeneQuery is a user-requested gene label plus its resolved matching
// policy. Stateless value.
type GeneQuery struct {
	// the canonical label matches are reported under
	Label string

	Kind queryKind

	// lowercased names this query accepts (exact and synonym kinds)
	names map[string]bool

	// resolved member queries (category kind)
	members []GeneQuery
}

// resolve turns a requested gene label into a GeneQuery. Labels that name a
// category expand to their members; labels with a synonym entry carry the
// synonym set; anything else degrades to an exact-name query. Only an empty
// label or a category with no members is a configuration error.
func (t *synonymTable) resolve(label string) (GeneQuery, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return GeneQuery{}, fmt.Errorf("empty gene label")
	}

	if canon, members, ok := lookupFold(t.Categories, label); ok {
		if len(members) == 0 {
			return GeneQuery{}, fmt.Errorf("gene category %q has no members in the synonym table", label)
		}
		q := GeneQuery{Label: canon, Kind: categoryQuery}
		for _, member := range members {
			mq, err := t.resolve(member)
			if err != nil {
				return GeneQuery{}, err
			}
			q.members = append(q.members, mq)
		}
		return q, nil
	}

	if canon, synonyms, ok := lookupFold(t.Genes, label); ok {
		names := map[string]bool{strings.ToLower(canon): true}
		for _, s := range synonyms {
			names[strings.ToLower(s)] = true
		}
		return GeneQuery{Label: canon, Kind: synonymQuery, names: names}, nil
	}

	return GeneQuery{
		Label: label,
		Kind:  exactQuery,
		names: map[string]bool{strings.ToLower(label): true},
	}, nil
}

// lookupFold finds a map entry by case-insensitive key, returning the
// canonical key spelling from the table.
func lookupFold(m map[string][]string, key string) (string, []string, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return k, v, true
		}
	}
	return "", nil, false
}

// canonicalGeneName assigns a unified name to a record, folding the
// inconsistently annotated rRNA variants into 16S/23S/5S the same way
// regardless of which attribute carries the hint.
func canonicalGeneName(rec AnnotationRecord) string {
	blob := strings.ToLower(rec.Product + " " + rec.Name + " " + rec.LocusTag + " " + rec.ID)
	switch {
	case strings.Contains(blob, "16s"):
		return "16S"
	case strings.Contains(blob, "23s"):
		return "23S"
	case strings.Contains(blob, "5s"):
		return "5S"
	}

	if rec.Name != "" {
		return rec.Name
	}
	if rec.LocusTag != "" {
		return rec.LocusTag
	}
	if rec.ID != "" {
		return rec.ID
	}
	return fmt.Sprintf("%s_%s_%d_%d", rec.Type, rec.Region, rec.Start, rec.End)
}

// extractableFeature limits extraction to the feature types that carry a
// gene sequence worth comparing across genomes.
func extractableFeature(featureType string) bool {
	return featureType == "CDS" || featureType == "rRNA"
}

// MatchedLocus ties one query hit to the annotation record it came from.
type MatchedLocus struct {
	// canonical gene label the hit is reported under; for category queries
	// this is the member that matched, e.g. 16S for an rRNA query
	Gene string

	Record AnnotationRecord
}

// matchGene resolves a query against one genome's annotation records,
// keeping every hit: duplicated rRNA operons are separate loci, never
// collapsed. Zero hits is an empty slice, not an error.
func matchGene(q GeneQuery, records []AnnotationRecord) []MatchedLocus {
	var loci []MatchedLocus
	for _, rec := range records {
		if !extractableFeature(rec.Type) {
			continue
		}
		if gene, ok := q.matches(rec); ok {
			loci = append(loci, MatchedLocus{Gene: gene, Record: rec})
		}
	}
	return loci
}

// matches reports whether rec satisfies this query, and under which
// canonical gene label the hit should be recorded.
func (q GeneQuery) matches(rec AnnotationRecord) (string, bool) {
	switch q.Kind {
	case exactQuery:
		canon := canonicalGeneName(rec)
		if strings.EqualFold(q.Label, canon) {
			return canon, true
		}

	case synonymQuery:
		if q.names[strings.ToLower(canonicalGeneName(rec))] ||
			q.names[strings.ToLower(rec.Name)] ||
			q.names[strings.ToLower(rec.Product)] {
			return q.Label, true
		}

	case categoryQuery:
		for _, member := range q.members {
			if gene, ok := member.matches(rec); ok {
				return gene, true
			}
		}
	}

	return "", false
}
