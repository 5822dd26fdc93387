package riborez

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AnnotationRecord is one feature entry parsed from a genome's annotation.
// Coordinates are 1-based and inclusive on the forward strand; missing
// optional attributes are empty strings, never an error.
type AnnotationRecord struct {
	// feature type from the GFF type column: gene, rRNA, CDS, ...
	Type string

	// the sequence region (chromosome or contig) the feature sits on
	Region string

	Start int
	End   int

	// '+' or '-'
	Strand byte

	// the "gene" attribute, e.g. "gyrA"
	Name string

	// the "product" attribute, e.g. "16S ribosomal RNA"
	Product string

	// the "locus_tag" attribute
	LocusTag string

	// the "ID" attribute
	ID string
}

// MalformedAnnotationError means an annotation file could not be parsed as
// feature data at all. Individual records with missing optional fields are
// tolerated and never trigger it.
type MalformedAnnotationError struct {
	Path   string
	Reason string
}

func (e *MalformedAnnotationError) Error() string {
	return fmt.Sprintf("malformed annotation file %s: %s", e.Path, e.Reason)
}

// parseAttributes splits a GFF attribute column of "key=value;" pairs into a
// map. Entries without an "=" are dropped.
func parseAttributes(field string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range strings.Split(field, ";") {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return attrs
}

// readGFF parses one genome's annotation file into an ordered record list.
// Comment lines, truncated lines, invalid strands and inverted coordinates
// are skipped; only a file that yields nothing at all is an error.
func readGFF(path string) ([]AnnotationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedAnnotationError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	var records []AnnotationRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 9 {
			continue
		}

		start, serr := strconv.Atoi(cols[3])
		end, eerr := strconv.Atoi(cols[4])
		if serr != nil || eerr != nil || start < 1 || start > end {
			continue
		}

		if cols[6] != "+" && cols[6] != "-" {
			continue
		}

		attrs := parseAttributes(cols[8])
		records = append(records, AnnotationRecord{
			Type:     cols[2],
			Region:   cols[0],
			Start:    start,
			End:      end,
			Strand:   cols[6][0],
			Name:     attrs["gene"],
			Product:  attrs["product"],
			LocusTag: attrs["locus_tag"],
			ID:       attrs["ID"],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, &MalformedAnnotationError{Path: path, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &MalformedAnnotationError{Path: path, Reason: "no feature records"}
	}

	return records, nil
}
