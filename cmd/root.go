package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worklink",
	Short: "work item link management tool",
	Example: `worklink serve
worklink context set -t <token> -s http://localhost:4021
worklink link create -w <workspace-id> -s <source-id> -d <target-id> -l BLOCKS
worklink link list -i <work-item-id> --direction outgoing --types BLOCKS,RELATES_TO
worklink link project -p <project-id>
worklink link blocked -i <work-item-id>
worklink link delete -l <link-id>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(linkCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
