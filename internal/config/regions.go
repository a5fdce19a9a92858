package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dgannon/appdriver/internal/platform"
)

// Regions maps test-facing names to screen rectangles and template-image
// paths, loaded from a YAML file:
//
//	regions:
//	  login-form: "100,200,400,300"
//	  status-bar: "0,0,1440,24"
//	images:
//	  ok-button: "templates/ok.png"
//	properties:
//	  retry-count: 3
type Regions struct {
	regions    map[string]platform.Bounds
	images     map[string]string
	properties map[string]int
}

type regionsFile struct {
	Regions    map[string]string `yaml:"regions"`
	Images     map[string]string `yaml:"images"`
	Properties map[string]int    `yaml:"properties"`
}

// LoadRegions parses a region-lookup YAML file.
func LoadRegions(path string) (*Regions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return ParseRegions(data)
}

// ParseRegions parses region-lookup YAML content.
func ParseRegions(data []byte) (*Regions, error) {
	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regions file: %w", err)
	}

	r := &Regions{
		regions:    make(map[string]platform.Bounds, len(f.Regions)),
		images:     f.Images,
		properties: f.Properties,
	}
	if r.images == nil {
		r.images = map[string]string{}
	}
	if r.properties == nil {
		r.properties = map[string]int{}
	}
	for name, spec := range f.Regions {
		b, err := platform.ParseBounds(spec)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", name, err)
		}
		r.regions[name] = *b
	}
	return r, nil
}

// Region returns the named rectangle.
func (r *Regions) Region(name string) (platform.Bounds, bool) {
	b, ok := r.regions[name]
	return b, ok
}

// ImagePath returns the template-image path registered under name.
func (r *Regions) ImagePath(name string) (string, bool) {
	p, ok := r.images[name]
	return p, ok
}

// IntProperty returns the named integer property, or def when absent.
func (r *Regions) IntProperty(name string, def int) int {
	if v, ok := r.properties[name]; ok {
		return v
	}
	return def
}
