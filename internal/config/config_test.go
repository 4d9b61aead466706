package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Addr() != "127.0.0.1:12345" {
		t.Errorf("expected 127.0.0.1:12345, got %s", cfg.Addr())
	}
	if cfg.Workers != 10 || cfg.Iterations != 10000 {
		t.Errorf("unexpected defaults: workers %d, iterations %d", cfg.Workers, cfg.Iterations)
	}
	if cfg.Backoff != time.Second {
		t.Errorf("expected backoff 1s, got %v", cfg.Backoff)
	}
	if cfg.FragmentDelay != 100*time.Millisecond {
		t.Errorf("expected fragment delay 100ms, got %v", cfg.FragmentDelay)
	}
	if len(cfg.Probes) != 4 {
		t.Errorf("expected 4 default probes, got %d", len(cfg.Probes))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
target:
  host: 10.0.0.5
  port: 7000
load:
  workers: 3
  iterations: 20
  keys: [a, b, ""]
  log_dir: /tmp/kvlogs
  backoff: 250ms
  rate: 50
  seed: 9
fragment:
  delay: 20ms
  probes:
    - ["get ", "a\n"]
monitor:
  addr: ":9090"
log:
  level: debug
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := Default()
	if err := fc.Apply(&cfg); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}

	if cfg.Addr() != "10.0.0.5:7000" {
		t.Errorf("expected 10.0.0.5:7000, got %s", cfg.Addr())
	}
	if cfg.Workers != 3 || cfg.Iterations != 20 {
		t.Errorf("unexpected workers/iterations: %d/%d", cfg.Workers, cfg.Iterations)
	}
	if len(cfg.Keys) != 3 || cfg.Keys[2] != "" {
		t.Errorf("unexpected keys %q", cfg.Keys)
	}
	if cfg.Backoff != 250*time.Millisecond {
		t.Errorf("expected backoff 250ms, got %v", cfg.Backoff)
	}
	if cfg.Rate != 50 || cfg.Seed != 9 {
		t.Errorf("unexpected rate/seed: %v/%d", cfg.Rate, cfg.Seed)
	}
	if cfg.FragmentDelay != 20*time.Millisecond {
		t.Errorf("expected fragment delay 20ms, got %v", cfg.FragmentDelay)
	}
	if len(cfg.Probes) != 1 || cfg.Probes[0].Name() != "get a" {
		t.Errorf("unexpected probes %v", cfg.Probes)
	}
	if cfg.MonitorAddr != ":9090" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected monitor/log: %s/%s", cfg.MonitorAddr, cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "target": {"port": 4000},
  "load": {"workers": 2}
}`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg := Default()
	if err := fc.Apply(&cfg); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:4000" {
		t.Errorf("expected host default kept, got %s", cfg.Addr())
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.Iterations != 10000 {
		t.Errorf("expected iterations default kept, got %d", cfg.Iterations)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	if _, err := LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "config.txt", "test")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "load: [unclosed")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApplyInvalidDuration(t *testing.T) {
	fc := &FileConfig{Load: LoadConfig{Backoff: "soon"}}
	cfg := Default()

	err := fc.Apply(&cfg)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cerr.Field != "load.backoff" {
		t.Errorf("expected field load.backoff, got %s", cerr.Field)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		modify func(*Config)
	}{
		{"empty host", "target.host", func(c *Config) { c.Host = " " }},
		{"port zero", "target.port", func(c *Config) { c.Port = 0 }},
		{"port too large", "target.port", func(c *Config) { c.Port = 70000 }},
		{"no workers", "load.workers", func(c *Config) { c.Workers = 0 }},
		{"no iterations", "load.iterations", func(c *Config) { c.Iterations = -1 }},
		{"empty keys", "load.keys", func(c *Config) { c.Keys = nil }},
		{"empty log dir", "load.log_dir", func(c *Config) { c.LogDir = "" }},
		{"negative backoff", "load.backoff", func(c *Config) { c.Backoff = -time.Second }},
		{"negative rate", "load.rate", func(c *Config) { c.Rate = -1 }},
		{"negative fragment delay", "fragment.delay", func(c *Config) { c.FragmentDelay = -1 }},
		{"bad log level", "log.level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cerr.Field)
			}
		})
	}
}

func TestValidateBadProbe(t *testing.T) {
	fc := &FileConfig{Fragment: FragmentConfig{Probes: [][]string{{"get ", "key1"}}}}
	cfg := Default()
	if err := fc.Apply(&cfg); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}

	var cerr *Error
	if err := cfg.Validate(); !errors.As(err, &cerr) || cerr.Field != "fragment.probes" {
		t.Errorf("expected fragment.probes error, got %v", err)
	}
}

func TestValidateAllowsEdgeKeys(t *testing.T) {
	cfg := EdgePreset()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected edge keys to be accepted, got %v", err)
	}
}

func TestHarnessAndFragmentConfig(t *testing.T) {
	cfg := Default()
	cfg.Port = 5555
	cfg.Seed = 3

	hc := cfg.HarnessConfig()
	if hc.Addr != "127.0.0.1:5555" || hc.Workers != 10 || hc.Seed != 3 {
		t.Errorf("unexpected harness config %+v", hc)
	}

	fc := cfg.FragmentConfig()
	if fc.Addr != "127.0.0.1:5555" || fc.Delay != 100*time.Millisecond {
		t.Errorf("unexpected fragment config %+v", fc)
	}
}

func TestResolve(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Resolve("", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Iterations != 10000 {
			t.Errorf("expected 10000 iterations, got %d", cfg.Iterations)
		}
	})

	t.Run("preset", func(t *testing.T) {
		cfg, err := Resolve("light", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Iterations != 10 {
			t.Errorf("expected 10 iterations, got %d", cfg.Iterations)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		var cerr *Error
		if _, err := Resolve("nope", ""); !errors.As(err, &cerr) {
			t.Errorf("expected *Error, got %v", err)
		}
	})

	t.Run("file overrides preset", func(t *testing.T) {
		path := writeFile(t, "c.yaml", "preset: light\nload:\n  workers: 2\n")
		cfg, err := Resolve("", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Iterations != 10 {
			t.Errorf("expected preset from file to apply, got %d iterations", cfg.Iterations)
		}
		if cfg.Workers != 2 {
			t.Errorf("expected file workers 2, got %d", cfg.Workers)
		}
	})

	t.Run("argument preset wins over file preset", func(t *testing.T) {
		path := writeFile(t, "c.yaml", "preset: light\n")
		cfg, err := Resolve("single", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Workers != 1 || cfg.Iterations != 10000 {
			t.Errorf("expected single preset, got workers %d iterations %d", cfg.Workers, cfg.Iterations)
		}
	})
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	expected := []string{"edge", "light", "single", "standard"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected %s at %d, got %s", expected[i], i, names[i])
		}
	}

	for _, name := range names {
		cfg, ok := GetPreset(name)
		if !ok {
			t.Errorf("preset %s not found", name)
			continue
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	if len(Presets()) != len(names) {
		t.Error("expected a description for every preset")
	}
}
