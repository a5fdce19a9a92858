package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var launchCmd = &cobra.Command{
	Use:   "launch <executable> [args...]",
	Short: "Launch an application and track it",
	Long: `Start a new process and register it under a logical name. The name
defaults to the executable's base name and is how later commands refer to
the instance.

Example:
  appdriver launch /Applications/TextEdit.app/Contents/MacOS/TextEdit --name editor`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().String("name", "", "Logical name for the instance (default: executable base name)")
	launchCmd.Flags().Int("wait-window", 0, "Seconds to wait for the first window to appear")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = baseName(args[0])
	}

	ctx, err := d.registry.Launch(name, args[0], args[1:]...)
	if err != nil {
		return err
	}

	if waitSecs, _ := cmd.Flags().GetInt("wait-window"); waitSecs > 0 {
		d.engine.ForCondition(commandContext(cmd), func() (bool, error) {
			if err := ctx.RefreshWindows(d.provider.Windows); err != nil {
				return false, err
			}
			_, ok := ctx.PrimaryWindow()
			return ok, nil
		}, timeoutSeconds(waitSecs), fmt.Sprintf("window of %s", name))
	}

	return output.Print(output.AppResult{
		Name:    ctx.LogicalName,
		PID:     ctx.PID,
		Path:    ctx.ExecutablePath,
		Windows: ctx.Windows(),
		Running: ctx.Active(d.provider.Processes),
	})
}
