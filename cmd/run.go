package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgannon/appdriver/internal/output"
)

// RunResult is the output of a run command.
type RunResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the outcome of a single scenario step.
type StepResult struct {
	Step    int    `yaml:"step"              json:"step"`
	OK      bool   `yaml:"ok"                json:"ok"`
	Action  string `yaml:"action"            json:"action"`
	Error   string `yaml:"error,omitempty"   json:"error,omitempty"`
	Detail  string `yaml:"detail,omitempty"  json:"detail,omitempty"`
	Elapsed string `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario of steps from YAML on stdin",
	Long: `Execute a sequence of steps from a YAML list on stdin. Steps share one
application registry, so a launch in step 1 is visible to a terminate in
step 9. Execution stops on the first failed step unless --keep-going.

Supported steps: launch, attach, focus, click, type, key, hover, drag,
wait-image, wait-text, wait-stable, sleep, terminate, terminate-all.

Example:
  appdriver run <<'EOF'
  - launch: { path: /usr/local/bin/myapp, name: app }
  - wait-image: { image: assets/ready.png, timeout: 20 }
  - focus: { app: app }
  - type: { text: "hello" }
  - key: { combo: cmd+s }
  - wait-text: { text: "Saved", timeout: 10 }
  - terminate: { app: app }
  EOF`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("keep-going", false, "Continue past failed steps")
}

type step map[string]map[string]interface{}

func parseSteps(data []byte) ([]step, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no steps provided on stdin, pipe a YAML list of actions")
	}
	var steps []step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("expected a YAML list of actions")
	}
	return steps, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	d, err := newDriver(cmd)
	if err != nil {
		return err
	}
	defer d.close()

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	steps, err := parseSteps(data)
	if err != nil {
		return err
	}

	keepGoing, _ := cmd.Flags().GetBool("keep-going")
	ctx := commandContext(cmd)

	result := RunResult{OK: true, Steps: len(steps)}
	for i, s := range steps {
		sr := executeStep(ctx, d, i+1, s)
		result.Results = append(result.Results, sr)
		if sr.OK {
			result.Completed++
			continue
		}
		result.OK = false
		result.Error = sr.Error
		if !keepGoing {
			break
		}
	}

	// Scenario teardown: a failed run must not leak processes into the
	// next one.
	if !result.OK {
		d.registry.ForceCleanupAll()
	}
	return output.Print(result)
}

func executeStep(ctx context.Context, d *driver, num int, s step) StepResult {
	if len(s) != 1 {
		return StepResult{
			Step:  num,
			Error: fmt.Sprintf("expected exactly one action key, got %d", len(s)),
		}
	}

	var action string
	var params map[string]interface{}
	for a, p := range s {
		action, params = a, p
	}

	start := time.Now()
	sr := StepResult{Step: num, Action: action}
	var err error

	switch action {
	case "launch":
		path := stringParam(params, "path", "")
		if path == "" {
			err = fmt.Errorf("launch requires path")
			break
		}
		name := stringParam(params, "name", baseName(path))
		_, err = d.registry.Launch(name, path, stringSliceParam(params, "args")...)
	case "attach":
		image := stringParam(params, "image", stringParam(params, "app", ""))
		if image == "" {
			err = fmt.Errorf("attach requires image")
			break
		}
		name := stringParam(params, "name", image)
		_, err = d.registry.AttachNewest(name, image)
	case "focus":
		appName := stringParam(params, "app", "")
		appCtx, aerr := d.attach(appName)
		if aerr != nil {
			err = aerr
			break
		}
		if !d.ctrl.FocusIndex(appCtx, intParam(params, "index", 0)) {
			err = fmt.Errorf("focus not acquired for %q", appName)
		}
	case "click":
		x, y := intParam(params, "x", -1), intParam(params, "y", -1)
		if image := stringParam(params, "image", ""); image != "" {
			image = d.resolveImage(image)
			b, found := d.engine.ForImage(ctx, image, stepTimeout(params))
			if !found {
				err = fmt.Errorf("image %s not found", image)
				break
			}
			x, y = b.Center()
		}
		if x < 0 || y < 0 {
			err = fmt.Errorf("click requires x/y or image")
			break
		}
		if boolParam(params, "double", false) {
			err = d.ctrl.DoubleClickAt(x, y)
		} else if boolParam(params, "right", false) {
			err = d.ctrl.RightClickAt(x, y)
		} else {
			err = d.ctrl.ClickAt(x, y)
		}
	case "type":
		err = d.ctrl.TypeText(stringParam(params, "text", ""))
	case "key":
		combo := stringParam(params, "combo", stringParam(params, "key", ""))
		if combo == "" {
			err = fmt.Errorf("key requires combo")
			break
		}
		err = d.ctrl.KeyCombo(parseKeySpec(combo))
	case "hover":
		err = d.ctrl.HoverAt(intParam(params, "x", 0), intParam(params, "y", 0))
	case "drag":
		err = d.ctrl.DragAndDrop(
			intParam(params, "from-x", 0), intParam(params, "from-y", 0),
			intParam(params, "to-x", 0), intParam(params, "to-y", 0))
	case "wait-image":
		image := d.resolveImage(stringParam(params, "image", ""))
		if _, found := d.engine.ForImage(ctx, image, stepTimeout(params)); !found {
			err = fmt.Errorf("image %s did not appear", image)
		}
	case "wait-text":
		text := stringParam(params, "text", "")
		region, rerr := d.resolveRegion(stringParam(params, "region", ""))
		if rerr != nil {
			err = rerr
			break
		}
		var satisfied bool
		if boolParam(params, "gone", false) {
			satisfied = d.engine.ForTextGone(ctx, text, region, stepTimeout(params))
		} else {
			satisfied = d.engine.ForText(ctx, text, region, stepTimeout(params))
		}
		if !satisfied {
			err = fmt.Errorf("text %q condition not met", text)
		}
	case "wait-stable":
		stableFor := timeoutSeconds(intParam(params, "stable-for", 2))
		if !d.engine.ForScreenStability(ctx, nil, stableFor, stepTimeout(params)) {
			err = fmt.Errorf("screen did not settle")
		}
	case "sleep":
		d.engine.Sleep(ctx, timeoutSeconds(intParam(params, "seconds", 1)))
	case "terminate":
		appName := stringParam(params, "app", "")
		if _, aerr := d.attach(appName); aerr != nil {
			err = aerr
			break
		}
		if !d.registry.TerminateOne(appName) {
			err = fmt.Errorf("%q still running", appName)
		}
	case "terminate-all":
		d.registry.TerminateAll()
	default:
		err = fmt.Errorf("unknown action %q", action)
	}

	sr.Elapsed = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		sr.Error = err.Error()
		return sr
	}
	sr.OK = true
	return sr
}

func stepTimeout(params map[string]interface{}) time.Duration {
	return timeoutSeconds(intParam(params, "timeout", 30))
}

// Param helpers tolerate YAML's loose typing: ints arrive as int, floats, or
// strings depending on how the step was written.

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}
