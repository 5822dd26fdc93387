package cmd

import (
	"github.com/bbshockey/RiboRez-V1/internal/riborez"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// primersCmd is for running the external primer-design tool per gene.
var primersCmd = &cobra.Command{
	Use:                        "primers",
	Run:                        riborez.PrimersCmd,
	Short:                      "Design candidate primers for every extracted gene FASTA",
	SuggestionsMinimumDistance: 3,
	Long: `Hand each gene FASTA from "riborez extract" to the configured external
primer-design tool, one working directory per gene, and record a reference
mapping from each non-redundant representative sequence back to the genomes
that share it. Per-gene tool failures are logged and skipped.`,
}

// set flags
func init() {
	primersCmd.Flags().StringP("input", "i", "", "extraction output directory holding <gene>.fasta files")
	primersCmd.Flags().StringP("out", "o", "", "output directory (default <input>_PrimerDesign)")
	primersCmd.Flags().StringP("command", "c", "pmprimer", "external primer-design executable")
	primersCmd.Flags().IntP("threads", "t", 4, "number of genes to process concurrently")

	viper.BindPFlag("primers.command", primersCmd.Flags().Lookup("command"))
	viper.BindPFlag("primers.threads", primersCmd.Flags().Lookup("threads"))

	RootCmd.AddCommand(primersCmd)
}
