package cmd

import (
	"github.com/bbshockey/RiboRez-V1/internal/riborez"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// extractCmd is for slicing gene sequences out of downloaded genomes.
var extractCmd = &cobra.Command{
	Use:                        "extract",
	Run:                        riborez.ExtractCmd,
	Short:                      "Extract homologous gene sequences across a taxon's genomes",
	SuggestionsMinimumDistance: 3,
	Long: `Walk every genome directory under the data root, parse its annotation,
match the requested gene labels against it, and write one FASTA per gene with
a provenance mapping from each extracted sequence back to its source genome
and locus. Genomes that fail to parse are skipped and logged, not fatal.`,
}

// set flags
func init() {
	extractCmd.Flags().StringP("data-root", "d", "", "path to the per-accession genome data directory")
	extractCmd.Flags().StringP("out", "o", "extracted_genes", "output directory for gene FASTAs and provenance")
	extractCmd.Flags().StringSliceP("genes", "g", nil, "gene labels to extract, e.g. 16S,rRNA,gyrA (default: every CDS and rRNA gene)")
	extractCmd.Flags().IntP("sample-size", "n", 0, "number of genomes to sample, 0 uses all")
	extractCmd.Flags().Int64P("seed", "s", 42, "random seed for genome sampling")
	extractCmd.Flags().IntP("threads", "t", 4, "number of genomes to process concurrently")
	extractCmd.Flags().String("synonyms", "", "path to a gene synonym table overriding the built-in one")

	viper.BindPFlag("extract.sample-size", extractCmd.Flags().Lookup("sample-size"))
	viper.BindPFlag("extract.seed", extractCmd.Flags().Lookup("seed"))
	viper.BindPFlag("extract.threads", extractCmd.Flags().Lookup("threads"))

	RootCmd.AddCommand(extractCmd)
}
