package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var attachCmd = &cobra.Command{
	Use:   "attach <image-name>",
	Short: "Attach to the newest running process by image name",
	Long: `Find the newest running process whose executable matches image-name
(largest PID) and register it under a logical name. A process with no
windows yet is fine; console hosts are attached the same way.

Example:
  appdriver attach Terminal --name shell`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().String("name", "", "Logical name for the instance (default: image name)")
}

func runAttach(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = args[0]
	}

	ctx, err := d.registry.AttachNewest(name, args[0])
	if err != nil {
		return err
	}

	return output.Print(output.AppResult{
		Name:    ctx.LogicalName,
		PID:     ctx.PID,
		Path:    ctx.ExecutablePath,
		Windows: ctx.Windows(),
		Running: ctx.Active(d.provider.Processes),
	})
}
