package cmd

import (
	"github.com/bbshockey/RiboRez-V1/internal/riborez"
	"github.com/spf13/cobra"
)

// downloadCmd is for fetching and unpacking a taxon's genomes from NCBI.
var downloadCmd = &cobra.Command{
	Use:                        "download",
	Run:                        riborez.DownloadCmd,
	Short:                      "Download and unpack NCBI genome assemblies for a taxon",
	SuggestionsMinimumDistance: 3,
	Long: `Shell out to the NCBI "datasets" CLI to fetch a dehydrated genome
archive for a taxon, unzip it, and (by default) rehydrate it into the
per-accession layout that "riborez extract" consumes.`,
}

// set flags
func init() {
	downloadCmd.Flags().StringP("taxon-name", "n", "", "taxon name, used for the output folder name")
	downloadCmd.Flags().IntP("taxon-id", "i", 0, "NCBI taxon id to download genomes for")
	downloadCmd.Flags().StringP("output-dir", "o", "", "custom output directory (default <taxon-name>_NCBI)")
	downloadCmd.Flags().Bool("no-rehydrate", false, "skip the rehydration step")
	downloadCmd.Flags().BoolP("force", "f", false, "overwrite the output directory if it exists")
	downloadCmd.Flags().Bool("dry-run", false, "print the external commands without executing them")

	RootCmd.AddCommand(downloadCmd)
}
