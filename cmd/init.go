package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lawdesk/matterflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a matterflow configuration",
	Long:  `Runs an interactive wizard that writes .matterflow.yml in the current directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
