// Package output serializes command results to stdout in YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// AppResult describes one tracked application instance.
type AppResult struct {
	Name    string `yaml:"name"              json:"name"`
	PID     int    `yaml:"pid"               json:"pid"`
	Path    string `yaml:"path,omitempty"    json:"path,omitempty"`
	Windows []int  `yaml:"windows,omitempty" json:"windows,omitempty"`
	Running bool   `yaml:"running"           json:"running"`
}

// WindowResult describes one on-screen window.
type WindowResult struct {
	ID      int    `yaml:"id"                json:"id"`
	PID     int    `yaml:"pid"               json:"pid"`
	App     string `yaml:"app,omitempty"     json:"app,omitempty"`
	Title   string `yaml:"title,omitempty"   json:"title,omitempty"`
	Bounds  [4]int `yaml:"bounds"            json:"bounds"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}

// WaitResult is the outcome of a wait command: satisfied is false on expiry,
// never an error.
type WaitResult struct {
	Satisfied bool   `yaml:"satisfied"          json:"satisfied"`
	Condition string `yaml:"condition"          json:"condition"`
	ElapsedMS int64  `yaml:"elapsed_ms"         json:"elapsed_ms"`
	X         int    `yaml:"x,omitempty"        json:"x,omitempty"`
	Y         int    `yaml:"y,omitempty"        json:"y,omitempty"`
	Width     int    `yaml:"width,omitempty"    json:"width,omitempty"`
	Height    int    `yaml:"height,omitempty"   json:"height,omitempty"`
}

// TextResult is the outcome of an OCR read.
type TextResult struct {
	Text       string  `yaml:"text"                 json:"text"`
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// OKResult is the generic success/failure envelope for action commands.
type OKResult struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
