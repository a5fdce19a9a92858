package cmd

import (
	"reflect"
	"testing"

	"github.com/dgannon/appdriver/internal/config"
	"github.com/dgannon/appdriver/internal/platform"
)

func TestParseKeySpec(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"enter", []string{"enter"}},
		{"cmd+c", []string{"cmd", "c"}},
		{"cmd+shift+s", []string{"cmd", "shift", "s"}},
		{"cmd + s", []string{"cmd", "s"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseKeySpec(tt.spec)
		if len(got) == 0 {
			got = nil
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseKeySpec(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}

func TestResolveRegionLiteral(t *testing.T) {
	var d driver

	got, err := d.resolveRegion("10,20,300,400")
	if err != nil {
		t.Fatalf("resolveRegion: %v", err)
	}
	want := platform.Bounds{X: 10, Y: 20, Width: 300, Height: 400}
	if *got != want {
		t.Errorf("region = %+v, want %+v", *got, want)
	}

	if r, err := d.resolveRegion(""); err != nil || r != nil {
		t.Errorf("empty spec should yield nil region, got %v, %v", r, err)
	}

	if _, err := d.resolveRegion("10,20"); err == nil {
		t.Error("short spec must error")
	}
}

func TestResolveRegionAndImage(t *testing.T) {
	d, _, _ := testDriver()
	regions, err := config.ParseRegions([]byte(`
regions:
  status-bar: "0,0,800,24"
images:
  ok-button: "templates/ok.png"
`))
	if err != nil {
		t.Fatalf("ParseRegions: %v", err)
	}
	d.regions = regions

	b, err := d.resolveRegion("status-bar")
	if err != nil {
		t.Fatalf("resolveRegion: %v", err)
	}
	if b.Width != 800 {
		t.Errorf("region = %+v", b)
	}

	// Literal specs still work with a regions file loaded.
	b, err = d.resolveRegion("1,2,3,4")
	if err != nil || b.X != 1 {
		t.Errorf("literal region = %+v, %v", b, err)
	}

	if _, err := d.resolveRegion("no-such-region"); err == nil {
		t.Error("unknown region name must error")
	}

	if got := d.resolveImage("ok-button"); got != "templates/ok.png" {
		t.Errorf("resolveImage = %q", got)
	}
	if got := d.resolveImage("raw/path.png"); got != "raw/path.png" {
		t.Errorf("passthrough image = %q", got)
	}
}

func TestBaseName(t *testing.T) {
	if got := baseName("/Applications/App.app/Contents/MacOS/App"); got != "App" {
		t.Errorf("baseName = %q", got)
	}
	if got := baseName("bash"); got != "bash" {
		t.Errorf("baseName = %q", got)
	}
}
