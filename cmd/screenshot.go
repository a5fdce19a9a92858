package cmd

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <out.png>",
	Short: "Capture the screen or a region to a PNG file",
	Args:  cobra.ExactArgs(1),
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().String("region", "", "Capture only this region, as x,y,w,h")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	regionSpec, _ := cmd.Flags().GetString("region")
	region, err := d.resolveRegion(regionSpec)
	if err != nil {
		return err
	}

	img, err := captureMaybeRegion(d, region)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return output.Print(output.OKResult{OK: true, Detail: args[0]})
}
