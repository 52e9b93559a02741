package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "nutrigraph",
		Short: "NutriGraph: nutrition knowledge search and relationship graph",
		Long: `NutriGraph serves a catalogue of foods, compounds and health outcomes
together with the relationships between them.

It loads seed data from JSON/YAML files or Neo4j, keeps it in memory, and
answers filtered searches, connection and shortest-path queries, statistics
and autocomplete over HTTP or from the command line.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nutrigraph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSlice("entities", nil, "entity seed files (JSON or YAML)")
	rootCmd.PersistentFlags().StringSlice("relationships", nil, "relationship seed files (JSON or YAML)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("loader.entity_files", rootCmd.PersistentFlags().Lookup("entities"))
	viper.BindPFlag("loader.relationship_files", rootCmd.PersistentFlags().Lookup("relationships"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".nutrigraph")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
