package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var focusCmd = &cobra.Command{
	Use:   "focus <image-name>",
	Short: "Bring an application's window to the foreground",
	Long: `Focus a window of the named application. Console hosts that reject
the focus request are treated as focused after a settle delay; the result
reports ok: false only when focus genuinely failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
	focusCmd.Flags().Int("index", 0, "Window index when the app has several (0 = primary)")
}

func runFocus(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, err := d.attach(args[0])
	if err != nil {
		return err
	}

	index, _ := cmd.Flags().GetInt("index")
	ok := d.ctrl.FocusIndex(ctx, index)
	result := output.OKResult{OK: ok}
	if !ok {
		result.Detail = "focus not acquired"
	}
	return output.Print(result)
}
