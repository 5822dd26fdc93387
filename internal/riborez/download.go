package riborez

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bbshockey/RiboRez-V1/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// datasetsExec wraps the NCBI "datasets" CLI for one taxon download. The
// core never talks to the network itself; the collaborator owns retries and
// resumption.
type datasetsExec struct {
	taxonName string
	taxonID   int
	outputDir string
	rehydrate bool
	force     bool
	dryRun    bool
}

// DownloadCmd is the cobra handler for `riborez download`.
func DownloadCmd(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("taxon-name")
	id, _ := cmd.Flags().GetInt("taxon-id")
	if name == "" || id == 0 {
		cmd.Help()
		logger.Fatal("both --taxon-name and --taxon-id are required")
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	noRehydrate, _ := cmd.Flags().GetBool("no-rehydrate")
	force, _ := cmd.Flags().GetBool("force")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	d := &datasetsExec{
		taxonName: name,
		taxonID:   id,
		outputDir: outputDir,
		rehydrate: !noRehydrate,
		force:     force,
		dryRun:    dryRun,
	}
	if err := d.run(); err != nil {
		logger.Fatal("download failed", zap.Error(err))
	}
}

// run downloads a dehydrated genome archive for the taxon, unzips it, and
// optionally rehydrates it into the per-accession layout extract consumes.
func (d *datasetsExec) run() error {
	if !d.dryRun {
		if _, err := exec.LookPath("datasets"); err != nil {
			return fmt.Errorf("NCBI datasets CLI not found in PATH, see https://www.ncbi.nlm.nih.gov/datasets/docs/v2/download-and-install/")
		}
	}

	out := d.outputDir
	if out == "" {
		out = d.taxonName + "_NCBI"
	}
	zipPath := filepath.Join(out, "genomes.zip")
	unzipDir := filepath.Join(out, "genomes")

	if _, err := os.Stat(out); err == nil {
		if !d.force {
			return fmt.Errorf("output directory %s exists, use --force to overwrite", out)
		}
		logger.Info("removing existing directory", zap.String("dir", out))
		if !d.dryRun {
			if err := os.RemoveAll(out); err != nil {
				return err
			}
		}
	}
	if !d.dryRun {
		if err := os.MkdirAll(out, 0755); err != nil {
			return err
		}
	}

	commands := [][]string{
		{
			"datasets", "download", "genome", "taxon", strconv.Itoa(d.taxonID),
			"--dehydrated",
			"--include", "genome,gff3",
			"--filename", zipPath,
		},
		{"unzip", "-o", zipPath, "-d", unzipDir},
	}
	if d.rehydrate {
		commands = append(commands, []string{"datasets", "rehydrate", "--directory", unzipDir})
	}

	for _, argv := range commands {
		if err := d.exec(argv); err != nil {
			return err
		}
	}

	logger.Info("genomes ready",
		zap.String("data-root", filepath.Join(unzipDir, "ncbi_dataset", "data")))
	return nil
}

func (d *datasetsExec) exec(argv []string) error {
	logger.Info("running", zap.String("cmd", strings.Join(argv, " ")))
	if d.dryRun {
		return nil
	}

	command := exec.Command(argv[0], argv[1:]...)
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	if err := command.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return nil
}
