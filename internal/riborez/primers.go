package riborez

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bbshockey/RiboRez-V1/config"
	"github.com/bbshockey/RiboRez-V1/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PrimerOptions are the inputs to one primer-design run.
type PrimerOptions struct {
	// extraction output directory holding <gene>.fasta files
	InputDir string

	// output directory, one working subdirectory per gene
	OutputDir string

	// the external primer-design executable and its leading arguments
	Command string
	Args    []string

	// how many genes run concurrently
	Threads int
}

// PrimersCmd is the cobra handler for `riborez primers`.
func PrimersCmd(cmd *cobra.Command, args []string) {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		cmd.Help()
		logger.Fatal("no input directory passed, use --input")
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Clean(input) + "_PrimerDesign"
	}

	conf := config.New()
	opts := PrimerOptions{
		InputDir:  input,
		OutputDir: out,
		Command:   conf.Primers.Command,
		Args:      conf.Primers.Args,
		Threads:   conf.Primers.Threads,
	}

	if err := Primers(opts); err != nil {
		logger.Fatal("primer design failed", zap.Error(err))
	}
}

// Primers hands every extracted gene FASTA to the external primer-design
// tool, one working directory per gene, and records a reference mapping
// from each non-redundant representative to the genomes sharing its
// sequence. Per-gene tool failures are logged and skipped; only an empty
// input directory is fatal.
func Primers(opts PrimerOptions) error {
	fastas, _ := filepath.Glob(filepath.Join(opts.InputDir, "*.fasta"))
	sort.Strings(fastas)
	if len(fastas) == 0 {
		return fmt.Errorf("no gene FASTA files found in %s", opts.InputDir)
	}

	mappingDir := filepath.Join(opts.OutputDir, "reference_mappings")
	if err := os.MkdirAll(mappingDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan string)
	failures := make([]string, len(fastas))
	index := make(map[string]int, len(fastas))
	for i, fasta := range fastas {
		index[fasta] = i
	}

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for fasta := range jobs {
				if err := designForGene(fasta, mappingDir, opts); err != nil {
					failures[index[fasta]] = fmt.Sprintf("%s: %v", geneOfFasta(fasta), err)
				}
			}
		}()
	}
	for _, fasta := range fastas {
		jobs <- fasta
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, failure := range failures {
		if failure == "" {
			continue
		}
		failed++
		logger.Warn("gene skipped", zap.String("reason", failure))
	}
	logger.Info("primer design complete",
		zap.Int("genes", len(fastas)),
		zap.Int("failed", failed),
		zap.String("out", opts.OutputDir))

	return nil
}

func geneOfFasta(fasta string) string {
	return strings.TrimSuffix(filepath.Base(fasta), ".fasta")
}

// designForGene prepares one gene's working directory and runs the external
// tool in it.
func designForGene(fasta, mappingDir string, opts PrimerOptions) error {
	gene := geneOfFasta(fasta)
	geneDir := filepath.Join(opts.OutputDir, gene)
	if err := os.MkdirAll(geneDir, 0755); err != nil {
		return err
	}

	if err := writeReferenceMapping(fasta, geneDir, mappingDir, gene); err != nil {
		return err
	}

	p := &primerExec{
		fasta:   fasta,
		dir:     geneDir,
		command: opts.Command,
		args:    opts.Args,
	}
	return p.run()
}

// primerExec wraps one external primer-design invocation. The tool's output
// format is its own business; analyze only relies on the amplicon CSVs it
// leaves behind.
type primerExec struct {
	// the gene FASTA handed to the tool
	fasta string

	// working directory the tool runs in
	dir string

	command string
	args    []string
}

func (p *primerExec) run() error {
	if _, err := exec.LookPath(p.command); err != nil {
		return fmt.Errorf("primer-design tool %q not found in PATH", p.command)
	}

	fasta, err := filepath.Abs(p.fasta)
	if err != nil {
		return err
	}

	argv := append(append([]string{}, p.args...), fasta)
	command := exec.Command(p.command, argv...)
	command.Dir = p.dir
	out, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %v: %s", p.command, err, bytes.TrimSpace(out))
	}
	return nil
}

// writeReferenceMapping deduplicates a gene FASTA and writes a TSV mapping
// each representative header to every header sharing its exact sequence, so
// analysis can fold the tool's per-representative results back out to all
// genomes.
func writeReferenceMapping(fasta, geneDir, mappingDir, gene string) error {
	regions, err := readFasta(fasta)
	if err != nil {
		return err
	}

	type mapping struct {
		representative string
		headers        []string
	}

	bySeq := make(map[string]*mapping)
	var order []*mapping
	for _, r := range regions {
		header := r.id
		if r.desc != "" {
			header = r.id + " " + r.desc
		}

		seq := strings.ToUpper(string(r.seq))
		m, seen := bySeq[seq]
		if !seen {
			m = &mapping{representative: header}
			bySeq[seq] = m
			order = append(order, m)
		}
		m.headers = append(m.headers, header)
	}

	path := filepath.Join(geneDir, gene+"_reference_mapping.tsv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Representative\tTotal_Mapped\tRedundant_Count\tMapped_Headers\n")
	for _, m := range order {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", m.representative, len(m.headers), len(m.headers)-1, strings.Join(m.headers, ";"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	copied, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(mappingDir, filepath.Base(path)), copied, 0644)
}
