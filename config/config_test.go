package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.Inputs) != 3 || cfg.Output != "card:Y12" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.ThruEnabled() {
		t.Fatal("default setup plays the output synth, thru should be off")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	thru := true
	cfg := &Config{
		Inputs: []InputConfig{
			{Endpoint: "port:Launchpad", Roles: []string{"controls"}},
			{Endpoint: "serial:/dev/ttyUSB0@31250", Roles: []string{"transport", "notes"}},
		},
		Output:   "port:Synth",
		Feedback: "port:Launchpad",
		Thru:     &thru,
		UI:       UIConfig{Palette: "/tmp/p.gpl", Headless: true},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(got.Inputs) != 2 || got.Inputs[1].Roles[1] != "notes" {
		t.Fatalf("inputs = %+v", got.Inputs)
	}
	if got.Output != "port:Synth" || got.Feedback != "port:Launchpad" {
		t.Fatalf("output %q feedback %q", got.Output, got.Feedback)
	}
	if got.Thru == nil || !*got.Thru || !got.UI.Headless || got.UI.Palette != "/tmp/p.gpl" {
		t.Fatalf("loaded %+v", got)
	}
}

func TestLoadFromBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{inputs"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("bad JSON accepted")
	}
}

func TestThruEnabled(t *testing.T) {
	off, on := false, true
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{
			name: "separate keyboard",
			cfg: Config{
				Inputs: []InputConfig{{Endpoint: "card:Keystation", Roles: []string{"notes"}}},
				Output: "card:Y12",
			},
			want: true,
		},
		{
			name: "output is the played instrument",
			cfg: Config{
				Inputs: []InputConfig{{Endpoint: "card:Y12", Roles: []string{"notes"}}},
				Output: "card:Y12",
			},
			want: false,
		},
		{
			name: "output only sends clock",
			cfg: Config{
				Inputs: []InputConfig{{Endpoint: "card:Y12", Roles: []string{"transport"}}},
				Output: "card:Y12",
			},
			want: true,
		},
		{
			name: "explicit off",
			cfg:  Config{Thru: &off},
			want: false,
		},
		{
			name: "explicit on",
			cfg: Config{
				Inputs: []InputConfig{{Endpoint: "card:Y12", Roles: []string{"notes"}}},
				Output: "card:Y12",
				Thru:   &on,
			},
			want: true,
		},
	}
	for _, tc := range cases {
		if got := tc.cfg.ThruEnabled(); got != tc.want {
			t.Errorf("%s: ThruEnabled() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestAddAndFindInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AddInput(InputConfig{Endpoint: "card:mio", Roles: []string{"transport", "controls"}})
	if len(cfg.Inputs) != 3 {
		t.Fatalf("AddInput duplicated an endpoint: %+v", cfg.Inputs)
	}
	if in := cfg.FindInput("card:mio"); in == nil || len(in.Roles) != 2 {
		t.Fatalf("FindInput = %+v", in)
	}

	cfg.AddInput(InputConfig{Endpoint: "port:Keystation", Roles: []string{"notes"}})
	if len(cfg.Inputs) != 4 || cfg.FindInput("port:Keystation") == nil {
		t.Fatal("new input not added")
	}
	if cfg.FindInput("port:Missing") != nil {
		t.Fatal("found a missing input")
	}
}
