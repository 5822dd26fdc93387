package riborez

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// seqRegion is one sequence entry in a genome FASTA file.
type seqRegion struct {
	// the first whitespace-delimited field of the header
	id string

	// the remainder of the header, typically the strain description
	desc string

	seq []byte
}

// readFasta reads a genome sequence file into an ordered region list.
func readFasta(path string) ([]*seqRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var regions []*seqRegion
	var current *seqRegion

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			header := strings.TrimSpace(line[1:])
			if header == "" {
				current = nil
				continue
			}

			id, desc, _ := strings.Cut(header, " ")
			current = &seqRegion{id: id, desc: strings.TrimSpace(desc)}
			regions = append(regions, current)
			continue
		}

		if current != nil {
			current.seq = append(current.seq, []byte(line)...)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("no sequences in %s", path)
	}

	return regions, nil
}

// regionIndex keys regions by their sequence id for locus lookups. Later
// duplicates of an id do not shadow earlier ones.
func regionIndex(regions []*seqRegion) map[string]*seqRegion {
	index := make(map[string]*seqRegion, len(regions))
	for _, r := range regions {
		if _, seen := index[r.id]; !seen {
			index[r.id] = r
		}
	}
	return index
}

// complements maps each nucleotide to its complement, IUPAC ambiguity codes
// included, upper and lower case.
var complements [256]byte

func init() {
	from := "ACGTRYSWKMBDHVNacgtryswkmbdhvn"
	to := "TGCAYRSWMKVHDBNtgcayrswmkvhdbn"
	for i := 0; i < len(from); i++ {
		complements[from[i]] = to[i]
	}
}

// reverseComplement returns the reverse complement of seq. Bases outside the
// IUPAC alphabet come back as 'N'.
func reverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := complements[seq[i]]
		if c == 0 {
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return out
}

// writeFastaEntry writes one ">header\nsequence" record. Sequences stay on a
// single line, which the downstream alignment tool expects.
func writeFastaEntry(w io.Writer, header string, seq []byte) error {
	_, err := fmt.Fprintf(w, ">%s\n%s\n", header, seq)
	return err
}
