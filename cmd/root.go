// Package cmd is for command line interactions with the riborez application
package cmd

import (
	"log"

	"github.com/bbshockey/RiboRez-V1/config"
	"github.com/bbshockey/RiboRez-V1/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "riborez",
	Short: `Find taxon-resolving PCR amplicons in bacterial genome collections.
Extract homologous genes across genomes, design primers against them, and
rank candidate amplicons by their power to tell strains apart`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.InfoLevel
		if viper.GetBool("verbose") {
			level = zapcore.DebugLevel
		}
		return logger.Init(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	defer logger.Sync()

	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

// set flags
func init() {
	cobra.OnInitialize(initSettings)

	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "log additional debug information")
	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))
}

// initSettings registers defaults and reads in an optional riborez.yaml
// settings file from the working directory.
func initSettings() {
	config.SetDefaults()

	viper.SetConfigName("riborez")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("RIBOREZ")
	viper.AutomaticEnv()

	// a missing settings file is fine, defaults and flags cover everything
	viper.ReadInConfig()
}
