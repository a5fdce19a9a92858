package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var dragCmd = &cobra.Command{
	Use:   "drag",
	Short: "Drag from one screen position to another",
	RunE:  runDrag,
}

func init() {
	rootCmd.AddCommand(dragCmd)
	dragCmd.Flags().Int("from-x", 0, "Start X coordinate")
	dragCmd.Flags().Int("from-y", 0, "Start Y coordinate")
	dragCmd.Flags().Int("to-x", 0, "End X coordinate")
	dragCmd.Flags().Int("to-y", 0, "End Y coordinate")
	dragCmd.MarkFlagRequired("from-x")
	dragCmd.MarkFlagRequired("from-y")
	dragCmd.MarkFlagRequired("to-x")
	dragCmd.MarkFlagRequired("to-y")
}

func runDrag(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	fromX, _ := cmd.Flags().GetInt("from-x")
	fromY, _ := cmd.Flags().GetInt("from-y")
	toX, _ := cmd.Flags().GetInt("to-x")
	toY, _ := cmd.Flags().GetInt("to-y")

	if err := d.ctrl.DragAndDrop(fromX, fromY, toX, toY); err != nil {
		return err
	}
	return output.Print(output.OKResult{OK: true})
}
