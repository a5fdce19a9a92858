package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Type text or press a key combination",
	Long: `Inject keystrokes through the OS input queue. Keystrokes land in
whichever window currently has focus; run focus first.

Examples:
  appdriver type --text "hello world"
  appdriver type --key enter
  appdriver type --key cmd+shift+s`,
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().String("text", "", "Text to type")
	typeCmd.Flags().String("key", "", "Key or combo to press (e.g. enter, cmd+c)")
	typeCmd.Flags().String("app", "", "Focus this application first")
}

func runType(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	text, _ := cmd.Flags().GetString("text")
	key, _ := cmd.Flags().GetString("key")
	if text == "" && key == "" {
		return fmt.Errorf("specify --text or --key")
	}

	if appName, _ := cmd.Flags().GetString("app"); appName != "" {
		ctx, err := d.attach(appName)
		if err != nil {
			return err
		}
		if !d.ctrl.Focus(ctx) {
			return fmt.Errorf("could not focus %q before typing", appName)
		}
	}

	if text != "" {
		if err := d.ctrl.TypeText(text); err != nil {
			return err
		}
	}
	if key != "" {
		if err := d.ctrl.KeyCombo(parseKeySpec(key)); err != nil {
			return err
		}
	}
	return output.Print(output.OKResult{OK: true})
}
