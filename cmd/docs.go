package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsDir string

var docsCmd = &cobra.Command{
	Use:    "gen-docs",
	Short:  "Generate Markdown reference documentation for nvpn",
	Hidden: true, // Keep it out of regular 'help' to avoid clutter
	Args:   positional(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsDir, 0755); err != nil {
			return fmt.Errorf("failed to create docs directory: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "📄 Generating docs in: %s\n", docsDir)

		rootCmd.DisableAutoGenTag = true
		if err := doc.GenMarkdownTree(rootCmd, docsDir); err != nil {
			return fmt.Errorf("failed to generate markdown: %w", err)
		}
		fmt.Fprintln(out, "✅ Documentation successfully generated!")
		return nil
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsDir, "dir", "d", "./docs/reference", "Directory to save the generated docs")
	rootCmd.AddCommand(docsCmd)
}
