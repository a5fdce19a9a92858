package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
	"github.com/dgannon/appdriver/internal/platform"
)

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click at screen coordinates or on a matched image",
	Long: `Click at absolute screen coordinates, or locate a template image on
screen first and click its center.

Examples:
  appdriver click --x 400 --y 300
  appdriver click --image assets/save-button.png --timeout 10`,
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	clickCmd.Flags().Int("x", -1, "Absolute X coordinate")
	clickCmd.Flags().Int("y", -1, "Absolute Y coordinate")
	clickCmd.Flags().String("image", "", "Template image to locate and click")
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Bool("double", false, "Double-click")
	clickCmd.Flags().Int("timeout", 10, "Seconds to wait for --image to appear")
}

func runClick(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	imagePath, _ := cmd.Flags().GetString("image")
	buttonName, _ := cmd.Flags().GetString("button")
	double, _ := cmd.Flags().GetBool("double")

	button, err := platform.ParseMouseButton(buttonName)
	if err != nil {
		return err
	}

	if imagePath != "" {
		imagePath = d.resolveImage(imagePath)
		b, found := d.engine.ForImage(commandContext(cmd), imagePath, timeoutFlag(cmd))
		if !found {
			return output.Print(output.OKResult{OK: false, Detail: fmt.Sprintf("image %s not found", imagePath)})
		}
		x, y = b.Center()
	} else if x < 0 || y < 0 {
		return fmt.Errorf("specify --x/--y or --image")
	}

	count := 1
	if double {
		count = 2
	}
	if err := d.provider.Inputter.Click(x, y, button, count); err != nil {
		return err
	}
	return output.Print(output.OKResult{OK: true, Detail: fmt.Sprintf("clicked %d,%d", x, y)})
}
