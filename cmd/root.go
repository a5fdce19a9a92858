package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "appdriver",
	Short: "Drive desktop applications for automated tests",
	Long: `Launch, attach to, and drive desktop applications through OS-level
input injection, synchronizing on what is actually visible on screen
(template matching and OCR) rather than application internals.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging to stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if platform.RequestPermissionsFunc != nil {
			platform.RequestPermissionsFunc()
		}

		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}
