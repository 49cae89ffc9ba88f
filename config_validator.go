package main

import (
	"fmt"

	"github.com/example/trojan_sim/trojan"
)

// ValidateConfig checks harness-level constraints before components are
// built. Component-level width and sentinel validation happens in the
// trojan constructors; this pass catches everything else early with a clear
// message.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := trojan.ParseSecretKey(cfg.Key, cfg.KeyWidth); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.EdgeDelayNs <= 0 {
		return fmt.Errorf("config: edge delay must be positive, got %dns", cfg.EdgeDelayNs)
	}
	if cfg.TotalCycles <= 0 {
		return fmt.Errorf("config: total cycles must be positive, got %d", cfg.TotalCycles)
	}
	if cfg.WatchdogSeconds < 0 {
		return fmt.Errorf("config: watchdog must not be negative, got %d", cfg.WatchdogSeconds)
	}

	switch cfg.Stimulus.Mode {
	case "random":
		if cfg.Stimulus.Rate < 0 || cfg.Stimulus.Rate > 1 {
			return fmt.Errorf("config: stimulus rate %.3f outside [0,1]", cfg.Stimulus.Rate)
		}
		if cfg.Stimulus.InjectCycle >= cfg.TotalCycles {
			return fmt.Errorf("config: inject cycle %d beyond total cycles %d",
				cfg.Stimulus.InjectCycle, cfg.TotalCycles)
		}
	case "scripted":
		if len(cfg.Stimulus.Script) == 0 {
			return fmt.Errorf("config: scripted stimulus needs a non-empty script")
		}
	default:
		return fmt.Errorf("config: unknown stimulus mode %q", cfg.Stimulus.Mode)
	}

	if !cfg.Headless && cfg.Addr == "" {
		return fmt.Errorf("config: web mode needs a listen address")
	}
	return nil
}

// GetPredefinedConfigs returns the named demonstration setups.
func GetPredefinedConfigs() []*Config {
	leak := NewConfig()
	leak.Name = "covert_leak"
	leak.TotalCycles = 512
	leak.Stimulus.InjectCycle = -1

	dos := NewConfig()
	dos.Name = "dos_trigger"
	dos.TotalCycles = 2000
	dos.Stimulus.InjectCycle = 40

	regression := NewConfig()
	regression.Name = "absorbing_regression"
	regression.TotalCycles = 1500
	regression.Stimulus.InjectCycle = 10
	regression.Stimulus.Rate = 1.0

	return []*Config{leak, dos, regression}
}

// GetConfigByName returns the preset with the given name, or nil.
func GetConfigByName(name string) *Config {
	for _, cfg := range GetPredefinedConfigs() {
		if cfg.Name == name {
			return cfg
		}
	}
	return nil
}
