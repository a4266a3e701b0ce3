package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "matterflow",
	Short: "Legal intake matter formation server",
	Long: `Matterflow runs client intake for new legal matters as a staged state
machine: it collects parties, runs conflicts checks, tracks document
checklists, handles fee approval and engagement, and builds a
continuously updated case brief with risk scoring and attorney handoff
recommendations.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".matterflow.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
