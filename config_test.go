package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewConfig()
	cfg.Headless = true
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad key", func(c *Config) { c.Key = "not-hex" }},
		{"short key", func(c *Config) { c.Key = "ab"; c.KeyWidth = 128 }},
		{"zero delay", func(c *Config) { c.EdgeDelayNs = 0 }},
		{"zero cycles", func(c *Config) { c.TotalCycles = 0 }},
		{"negative watchdog", func(c *Config) { c.WatchdogSeconds = -1 }},
		{"bad rate", func(c *Config) { c.Stimulus.Rate = 1.5 }},
		{"inject beyond run", func(c *Config) { c.Stimulus.InjectCycle = c.TotalCycles }},
		{"empty script", func(c *Config) { c.Stimulus.Mode = "scripted" }},
		{"unknown mode", func(c *Config) { c.Stimulus.Mode = "chaos" }},
		{"web mode without addr", func(c *Config) { c.Headless = false; c.Addr = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Headless = true
			tc.mutate(cfg)
			if err := ValidateConfig(cfg); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
key: "deadbeefdeadbeef"
keywidth: 64
edgedelay: 5
cycles: 300
sentinel: 0xDEADBE
sentinelbits: 24
databits: 8
stimulus:
  mode: random
  rate: 0.25
  seed: 7
  injectcycle: 100
log:
  flag: debug
  file: stderr
`
	path := filepath.Join(t.TempDir(), "trojansim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg := NewConfig()
	cfg.Flag.ConfigFile = path
	cfg.Flag.Cycles = 500 // command line wins
	if err := cfg.LoadConfig(); err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.KeyWidth != 64 || cfg.Key != "deadbeefdeadbeef" {
		t.Fatalf("key not loaded: %q width %d", cfg.Key, cfg.KeyWidth)
	}
	if cfg.EdgeDelay != 5*time.Nanosecond {
		t.Fatalf("edge delay not derived: %v", cfg.EdgeDelay)
	}
	if cfg.TotalCycles != 500 {
		t.Fatalf("flag override lost: %d", cfg.TotalCycles)
	}
	if cfg.Stimulus.Rate != 0.25 || cfg.Stimulus.InjectCycle != 100 {
		t.Fatalf("stimulus not loaded: %+v", cfg.Stimulus)
	}
	cfg.Headless = true
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("loaded config must validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if err := cfg.LoadConfig(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigUnknownLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Flag.LogLevel = "verbose"
	if err := cfg.LoadConfig(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestPredefinedConfigs(t *testing.T) {
	configs := GetPredefinedConfigs()
	if len(configs) == 0 {
		t.Fatal("no predefined configs")
	}
	for _, cfg := range configs {
		cfg.Headless = true
		if err := ValidateConfig(cfg); err != nil {
			t.Fatalf("preset %q invalid: %v", cfg.Name, err)
		}
	}
	if GetConfigByName("dos_trigger") == nil {
		t.Fatal("dos_trigger preset missing")
	}
	if GetConfigByName("nope") != nil {
		t.Fatal("unexpected preset for unknown name")
	}
}
