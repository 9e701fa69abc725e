package cli

import (
	"chatdock/internal/logger"

	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatdock",
		Short: "Run chatgpt_academic locally in a container",
		Long: `chatdock builds and runs the chatgpt_academic web application in a local
container. It writes the application's config.py and a Dockerfile, drives the
docker CLI to build and run the image, waits until the container is up and
prints the local URL to open.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logger.SetLevel("debug")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	return rootCmd
}
