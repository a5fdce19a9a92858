package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/output"
	"github.com/dgannon/appdriver/internal/vision"
)

var readTextCmd = &cobra.Command{
	Use:   "read-text",
	Short: "OCR text from the screen or a region",
	Long: `Capture the screen (or a region) and extract its text. With --app,
the application's window is maximized for the capture and restored after,
which markedly improves recognition of small text.`,
	RunE: runReadText,
}

func init() {
	rootCmd.AddCommand(readTextCmd)
	readTextCmd.Flags().String("region", "", "Read only this region, as x,y,w,h")
	readTextCmd.Flags().String("app", "", "Maximize this app's window for the capture, restore after")
}

func runReadText(cmd *cobra.Command, args []string) error {
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

	if appName, _ := cmd.Flags().GetString("app"); appName != "" {
		ctx, err := d.attach(appName)
		if err != nil {
			return err
		}
		token, err := d.ctrl.MaximizeForOCR(ctx)
		if err != nil {
			d.log.Warn("maximize for capture failed", zap.Error(err))
		} else {
			defer func() {
				if err := d.ctrl.RestoreAfterOCR(ctx, token); err != nil {
					d.log.Warn("window restore failed", zap.Error(err))
				}
			}()
		}
	}

	img, err := captureMaybeRegion(d, region)
	if err != nil {
		return err
	}

	ocr := &vision.TesseractOCR{}
	text, confidence, err := ocr.ExtractTextWithConfidence(img)
	if err != nil {
		return err
	}
	return output.Print(output.TextResult{Text: text, Confidence: confidence})
}
