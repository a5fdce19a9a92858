package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var boundsCmd = &cobra.Command{
	Use:   "bounds <image-name>",
	Short: "Print a window's on-screen rectangle",
	Args:  cobra.ExactArgs(1),
	RunE:  runBounds,
}

func init() {
	rootCmd.AddCommand(boundsCmd)
	boundsCmd.Flags().Int("index", 0, "Window index (0 = primary)")
}

func runBounds(cmd *cobra.Command, args []string) error {
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
	b, ok := d.ctrl.BoundsIndex(ctx, index)
	if !ok {
		return fmt.Errorf("no window at index %d for %q", index, args[0])
	}

	win, _ := ctx.WindowAt(index)
	return output.Print(output.WindowResult{
		ID:     win,
		PID:    ctx.PID,
		App:    ctx.LogicalName,
		Bounds: [4]int{b.X, b.Y, b.Width, b.Height},
	})
}
