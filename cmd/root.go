// Package cmd defines the healthnav command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "healthnav",
	Short: "healthnav - a conversational health navigation assistant",
	Long: `healthnav is a conversational assistant over your own health records.
It stores patient intake submissions, indexes them for similarity search,
and answers questions from stored history when the match is confident,
falling back to general sources when it is not.

Running healthnav without arguments starts the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
