package cmd

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgannon/appdriver/internal/app"
	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/journal"
	"github.com/dgannon/appdriver/internal/logging"
	"github.com/dgannon/appdriver/internal/output"
	"github.com/dgannon/appdriver/internal/platform"
	"github.com/dgannon/appdriver/internal/vision"
	"github.com/dgannon/appdriver/internal/wait"
	"github.com/dgannon/appdriver/internal/window"
)

// driver bundles the collaborators every command needs: the platform
// provider, tuned settings, the registry, the window controller, and the
// wait engine. One driver per command invocation.
type driver struct {
	provider *platform.Provider
	cfg      config.Settings
	log      *zap.Logger
	registry *app.Registry
	ctrl     *window.Controller
	engine   *wait.Engine
	journal  *journal.Journal
	regions  *config.Regions
}

func newDriver(cmd *cobra.Command) (*driver, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	log := logging.New(verbose)

	d := &driver{
		provider: provider,
		cfg:      cfg,
		log:      log,
		registry: app.NewRegistry(provider, cfg, log),
		ctrl:     window.NewController(provider, cfg, log),
	}

	capturer := &vision.ScreenCapturer{Screenshotter: provider.Screenshotter}
	d.engine = wait.NewEngine(capturer, &vision.TemplateMatcher{}, &vision.TesseractOCR{}, cfg, log)

	if cfg.RegionsPath != "" {
		regions, err := config.LoadRegions(cfg.RegionsPath)
		if err != nil {
			return nil, err
		}
		d.regions = regions
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cmd.Context(), cfg.JournalPath)
		if err != nil {
			log.Warn("journal unavailable", zap.Error(err))
		} else {
			d.journal = j
			d.registry.SetRecorder(j)
		}
	}
	return d, nil
}

func (d *driver) close() {
	if d.journal != nil {
		d.journal.Close()
	}
	_ = d.log.Sync()
}

// attach resolves name to a tracked context. Names already in the registry
// (a launch or attach earlier in the same run) resolve directly; otherwise
// the newest OS process matching name as an image is attached. Registry
// lookup must come first: a logical name need not match any image name.
func (d *driver) attach(name string) (*app.Context, error) {
	if ctx := d.registry.Primary(name); ctx != nil {
		return ctx, nil
	}
	ctx, err := d.registry.AttachNewest(name, name)
	if err != nil {
		return nil, fmt.Errorf("no running process matches %q: %w", name, err)
	}
	return ctx, nil
}

// parseKeySpec splits a combo spec like "cmd+shift+s" into its key names.
func parseKeySpec(spec string) []string {
	parts := strings.Split(spec, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// resolveRegion resolves an optional --region value: empty means full screen,
// a literal "x,y,w,h", or a name from the configured regions file.
func (d *driver) resolveRegion(spec string) (*platform.Bounds, error) {
	if spec == "" {
		return nil, nil
	}
	if d.regions != nil && !strings.Contains(spec, ",") {
		b, ok := d.regions.Region(spec)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", spec)
		}
		return &b, nil
	}
	return platform.ParseBounds(spec)
}

// resolveImage maps a template-image name from the regions file to its path;
// unrecognized values pass through as literal paths.
func (d *driver) resolveImage(spec string) string {
	if d.regions != nil {
		if p, ok := d.regions.ImagePath(spec); ok {
			return p
		}
	}
	return spec
}

// timeoutFlag converts a --timeout seconds value into a duration.
func timeoutFlag(cmd *cobra.Command) time.Duration {
	secs, _ := cmd.Flags().GetInt("timeout")
	return timeoutSeconds(secs)
}

func timeoutSeconds(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

func baseName(path string) string {
	return filepath.Base(path)
}

func captureMaybeRegion(d *driver, region *platform.Bounds) (image.Image, error) {
	if region != nil && !region.Empty() {
		return d.provider.Screenshotter.CaptureRegion(*region)
	}
	return d.provider.Screenshotter.CaptureScreen()
}

func windowResult(w platform.WindowInfo) output.WindowResult {
	return output.WindowResult{
		ID:      w.ID,
		PID:     w.PID,
		App:     w.App,
		Title:   w.Title,
		Bounds:  [4]int{w.Bounds.X, w.Bounds.Y, w.Bounds.Width, w.Bounds.Height},
		Focused: w.Focused,
	}
}

// commandContext is the cancellation context commands poll under.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
