// Package cli is the narrator command line: the web server, one-shot runs
// and the watch-folder mode.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "narrator",
	Short: "Turn PDF storybooks into translated audio narration",
	Long: `narrator extracts the text of a PDF storybook, pulls out the story with a
language model, translates it and renders the translation as speech.

Run it as a web server (serve), on a single file (run) or on a folder that
PDFs are dropped into (watch).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd, runCmd, watchCmd)
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		failure(os.Stderr, "%v", err)
		return err
	}
	return nil
}
