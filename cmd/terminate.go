package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgannon/appdriver/internal/output"
)

var terminateCmd = &cobra.Command{
	Use:   "terminate [image-name]",
	Short: "Shut down tracked applications",
	Long: `Gracefully terminate the named application: close its window, or for
console hosts type an exit command, then wait for the process to die.
--force sends SIGKILL instead. --all sweeps every process matching the
name; with no name it requires --force and is a no-op otherwise.`,
	RunE: runTerminate,
}

func init() {
	rootCmd.AddCommand(terminateCmd)
	terminateCmd.Flags().Bool("all", false, "Terminate every matching process")
	terminateCmd.Flags().Bool("force", false, "SIGKILL instead of graceful shutdown")
}

func runTerminate(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	all, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")

	if len(args) == 0 {
		return fmt.Errorf("name an application to terminate")
	}
	name := args[0]

	procs, err := d.provider.Processes.FindByName(name)
	if err != nil {
		return err
	}
	if len(procs) == 0 {
		return output.Print(output.OKResult{OK: true, Detail: "no matching process"})
	}

	if all || force {
		failed := 0
		for _, p := range procs {
			var err error
			if force {
				err = d.provider.Processes.Kill(p.PID)
			} else {
				err = d.provider.Processes.Terminate(p.PID)
			}
			if err != nil {
				failed++
			}
			if !all {
				break
			}
		}
		if failed > 0 {
			return output.Print(output.OKResult{OK: false, Detail: fmt.Sprintf("%d processes survived", failed)})
		}
		return output.Print(output.OKResult{OK: true})
	}

	if _, err := d.attach(name); err != nil {
		return err
	}
	ok := d.registry.TerminateOne(name)
	result := output.OKResult{OK: ok}
	if !ok {
		result.Detail = "process still running; retry with --force"
	}
	return output.Print(result)
}
