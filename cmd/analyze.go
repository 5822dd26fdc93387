package cmd

import (
	"github.com/bbshockey/RiboRez-V1/internal/riborez"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd is for scoring amplicon sets by taxonomic resolving power.
var analyzeCmd = &cobra.Command{
	Use:                        "analyze",
	Run:                        riborez.AnalyzeCmd,
	Short:                      "Rank candidate amplicons by how well they separate genomes",
	SuggestionsMinimumDistance: 3,
	Long: `Read the per-gene amplicon sets produced by the external primer and
alignment tools, compute a resolving-power score per primer pair, and write a
ranked summary. Amplicon groups that cover too few genomes are flagged
low-confidence and kept out of the top ranks no matter their raw score.`,
}

// set flags
func init() {
	analyzeCmd.Flags().StringP("input", "i", "", "primer-design output directory with one subdirectory per gene")
	analyzeCmd.Flags().StringP("out", "o", "", "output directory (default <input>_AmpliconAnalysis)")
	analyzeCmd.Flags().IntP("threads", "t", 4, "number of genes to score concurrently")
	analyzeCmd.Flags().Int("min-coverage", 5, "minimum genomes covered for a high-confidence amplicon")

	viper.BindPFlag("analysis.threads", analyzeCmd.Flags().Lookup("threads"))
	viper.BindPFlag("analysis.min-coverage", analyzeCmd.Flags().Lookup("min-coverage"))

	RootCmd.AddCommand(analyzeCmd)
}
