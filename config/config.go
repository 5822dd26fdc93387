// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"

	"github.com/spf13/viper"
)

// ExtractConfig is settings for the gene extraction engine.
type ExtractConfig struct {
	// the number of genomes to sample, 0 means use every genome
	SampleSize int `mapstructure:"sample-size"`

	// seed for the genome sampler, fixed so runs are reproducible
	Seed int64 `mapstructure:"seed"`

	// worker pool width for per-genome extraction
	Threads int `mapstructure:"threads"`

	// gene groups with fewer sequences than this are not written out
	MinGroupSize int `mapstructure:"min-group-size"`

	// minimum length for a 16S sequence to survive the length filter
	Min16SLength int `mapstructure:"min-16s-length"`
}

// AnalysisConfig is settings for amplicon differentiation scoring.
type AnalysisConfig struct {
	// amplicon groups covering fewer genomes than this are low-confidence
	MinCoverage int `mapstructure:"min-coverage"`

	// weight of the unique-genome fraction in the resolving-power score
	UniqueWeight float64 `mapstructure:"unique-weight"`

	// weight of variant richness in the resolving-power score
	RichnessWeight float64 `mapstructure:"richness-weight"`

	// amplicon definitions longer than this are excluded from top ranks
	MaxAmpliconLength int `mapstructure:"max-amplicon-length"`

	// worker pool width for per-gene scoring
	Threads int `mapstructure:"threads"`
}

// PrimersConfig is settings for the external primer-design collaborator.
type PrimersConfig struct {
	// the executable to invoke once per gene FASTA
	Command string `mapstructure:"command"`

	// extra arguments passed before the FASTA path
	Args []string `mapstructure:"args"`

	// how many gene FASTAs to hand to the tool concurrently
	Threads int `mapstructure:"threads"`
}

// Config is the root-level settings struct and is a mix of settings
// available in riborez.yaml and those available from the command line.
type Config struct {
	// log additional debug information
	Verbose bool `mapstructure:"verbose"`

	// gene extraction settings
	Extract ExtractConfig `mapstructure:"extract"`

	// amplicon analysis settings
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// primer design settings
	Primers PrimersConfig `mapstructure:"primers"`
}

// SetDefaults registers the default value of every setting with viper.
// Called once before any command unmarshals the config tree.
func SetDefaults() {
	viper.SetDefault("extract.sample-size", 0)
	viper.SetDefault("extract.seed", 42)
	viper.SetDefault("extract.threads", 4)
	viper.SetDefault("extract.min-group-size", 5)
	viper.SetDefault("extract.min-16s-length", 1400)

	viper.SetDefault("analysis.min-coverage", 5)
	viper.SetDefault("analysis.unique-weight", 0.7)
	viper.SetDefault("analysis.richness-weight", 0.3)
	viper.SetDefault("analysis.max-amplicon-length", 500)
	viper.SetDefault("analysis.threads", 4)

	viper.SetDefault("primers.command", "pmprimer")
	viper.SetDefault("primers.args", []string{})
	viper.SetDefault("primers.threads", 4)
}

// New returns a new Config struct populated by Viper settings (either from
// the local riborez.yaml) and/or command line arguments.
func New() *Config {
	var c Config

	if err := viper.Unmarshal(&c); err != nil {
		log.Fatalf("unable to decode settings into struct: %v", err)
	}

	return &c
}
