package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a visual condition on screen",
	Long: `Poll the screen until a condition holds or the timeout passes. The
command always exits zero; inspect "satisfied" in the output. Conditions:

  --for-image path   a template image appears on screen
  --for-text s       OCR over the region contains s (case-insensitive)
  --gone             invert --for-text: wait until the text disappears
  --stable           no visual change for --stable-for seconds

Examples:
  appdriver wait --for-image assets/dialog.png --timeout 15
  appdriver wait --for-text "Download complete" --region 0,0,800,200
  appdriver wait --stable --stable-for 2 --timeout 30`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("for-image", "", "Template image path")
	waitCmd.Flags().String("for-text", "", "Text to wait for via OCR")
	waitCmd.Flags().Bool("gone", false, "Wait for the text to disappear instead")
	waitCmd.Flags().Bool("stable", false, "Wait for the screen to stop changing")
	waitCmd.Flags().Int("stable-for", 2, "Seconds of quiet required by --stable")
	waitCmd.Flags().String("region", "", "Restrict sensing to this region, as x,y,w,h")
	waitCmd.Flags().Int("timeout", 30, "Max seconds to wait")
}

func runWait(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	forImage, _ := cmd.Flags().GetString("for-image")
	forText, _ := cmd.Flags().GetString("for-text")
	gone, _ := cmd.Flags().GetBool("gone")
	stable, _ := cmd.Flags().GetBool("stable")
	stableSecs, _ := cmd.Flags().GetInt("stable-for")
	regionSpec, _ := cmd.Flags().GetString("region")

	region, err := d.resolveRegion(regionSpec)
	if err != nil {
		return err
	}
	forImage = d.resolveImage(forImage)
	timeout := timeoutFlag(cmd)
	ctx := commandContext(cmd)
	start := time.Now()

	var result output.WaitResult
	switch {
	case forImage != "":
		b, ok := d.engine.ForImage(ctx, forImage, timeout)
		result = output.WaitResult{
			Satisfied: ok,
			Condition: fmt.Sprintf("image %s", forImage),
			X:         b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		}
	case forText != "" && gone:
		ok := d.engine.ForTextGone(ctx, forText, region, timeout)
		result = output.WaitResult{Satisfied: ok, Condition: fmt.Sprintf("text gone %q", forText)}
	case forText != "":
		ok := d.engine.ForText(ctx, forText, region, timeout)
		result = output.WaitResult{Satisfied: ok, Condition: fmt.Sprintf("text %q", forText)}
	case stable:
		ok := d.engine.ForScreenStability(ctx, region, timeoutSeconds(stableSecs), timeout)
		result = output.WaitResult{Satisfied: ok, Condition: "screen stable"}
	default:
		return fmt.Errorf("specify a condition: --for-image, --for-text, or --stable")
	}

	result.ElapsedMS = time.Since(start).Milliseconds()
	return output.Print(result)
}
