package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List on-screen windows",
	Long:  "List on-screen windows, optionally scoped to one process.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int("pid", 0, "Only windows owned by this process")
	listCmd.Flags().String("app", "", "Only windows whose owning image matches this name")
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	pid, _ := cmd.Flags().GetInt("pid")
	appName, _ := cmd.Flags().GetString("app")

	if appName != "" && pid == 0 {
		procs, err := d.provider.Processes.FindByName(appName)
		if err != nil {
			return err
		}
		var results []output.WindowResult
		for _, p := range procs {
			windows, err := d.provider.Windows.ListWindows(p.PID)
			if err != nil {
				continue
			}
			for _, w := range windows {
				results = append(results, windowResult(w))
			}
		}
		return output.Print(results)
	}

	windows, err := d.provider.Windows.ListWindows(pid)
	if err != nil {
		return err
	}
	results := make([]output.WindowResult, 0, len(windows))
	for _, w := range windows {
		results = append(results, windowResult(w))
	}
	return output.Print(results)
}
