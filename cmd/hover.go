package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var hoverCmd = &cobra.Command{
	Use:   "hover",
	Short: "Move the pointer to a position and let it rest",
	Long:  "Move the pointer and pause one settle delay so hover-triggered UI can appear.",
	RunE:  runHover,
}

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move the pointer without clicking",
	RunE:  runMove,
}

func init() {
	rootCmd.AddCommand(hoverCmd)
	hoverCmd.Flags().Int("x", 0, "X coordinate")
	hoverCmd.Flags().Int("y", 0, "Y coordinate")
	hoverCmd.MarkFlagRequired("x")
	hoverCmd.MarkFlagRequired("y")

	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().Int("x", 0, "X coordinate")
	moveCmd.Flags().Int("y", 0, "Y coordinate")
	moveCmd.MarkFlagRequired("x")
	moveCmd.MarkFlagRequired("y")
}

func runHover(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	if err := d.ctrl.HoverAt(x, y); err != nil {
		return err
	}
	return output.Print(output.OKResult{OK: true})
}

func runMove(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	if err := d.ctrl.MoveMouse(x, y); err != nil {
		return err
	}
	return output.Print(output.OKResult{OK: true})
}
