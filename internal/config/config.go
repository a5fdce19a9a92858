// Package config holds runtime tuning read from the environment and the
// named-region lookup loaded from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings are the runtime knobs for polling and fallback behavior. All of
// them have working defaults; override via APPDRIVER_* environment variables.
type Settings struct {
	// PollInterval is the delay between condition-polling iterations.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"500ms"`

	// SettleDelay is the fixed pause after a best-effort action, e.g. an
	// assumed focus on a console host.
	SettleDelay time.Duration `envconfig:"SETTLE_DELAY" default:"1s"`

	// StabilityThreshold is the minimum similarity between consecutive
	// captures for the screen to count as unchanged.
	StabilityThreshold float64 `envconfig:"STABILITY_THRESHOLD" default:"0.98"`

	// ConsoleHosts are executable names treated as console hosts: processes
	// that may run without a focusable window yet still accept input.
	ConsoleHosts []string `envconfig:"CONSOLE_HOSTS" default:"Terminal,iTerm2,bash,zsh,sh"`

	// TypeDelay is the per-character delay when injecting text.
	TypeDelay time.Duration `envconfig:"TYPE_DELAY" default:"10ms"`

	// JournalPath is the sqlite journal location; empty disables journaling.
	JournalPath string `envconfig:"JOURNAL" default:""`

	// RegionsPath is a YAML file of named regions and template images;
	// empty disables name lookup.
	RegionsPath string `envconfig:"REGIONS" default:""`
}

// Load reads Settings from the environment with the APPDRIVER prefix.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process("appdriver", &s); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Default returns Settings with every field at its default, ignoring the
// environment. Used by tests and as a fallback.
func Default() Settings {
	return Settings{
		PollInterval:       500 * time.Millisecond,
		SettleDelay:        time.Second,
		StabilityThreshold: 0.98,
		ConsoleHosts:       []string{"Terminal", "iTerm2", "bash", "zsh", "sh"},
		TypeDelay:          10 * time.Millisecond,
	}
}
