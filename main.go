package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const (
	// MODULE is the application name.
	MODULE = "trojansim"
	// VERSION is the application version.
	VERSION = "0.3.0"
)

func main() {
	exitCode := 0
	defer func() {
		os.Exit(exitCode)
	}()

	cfg := NewConfig()

	app := &cli.App{
		Name:    MODULE,
		Version: VERSION,
		Usage:   "cycle-accurate model of a clock-phase key leak and a pattern-triggered transmitter trojan",
		UsageText: MODULE + " [--conf <file>] [--preset <name>] [--headless] [--log error|debug|trace]" +
			"\n\nEXAMPLE:" +
			"\n\trun the denial-of-service demonstration headless and dump a waveform" +
			"\n\t\t" + MODULE + " --preset dos_trigger --headless --vcd run.vcd",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c", "conf"}, Destination: &cfg.Flag.ConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "standard", Usage: "`LEVEL` defines the log level (standard|debug|trace)"},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Destination: &cfg.Flag.Preset, Usage: "start from the predefined configuration `NAME`"},
			&cli.BoolFlag{Name: "headless", Destination: &cfg.Flag.Headless, Usage: "run without the web monitor and exit after the last cycle"},
			&cli.IntFlag{Name: "cycles", Destination: &cfg.Flag.Cycles, Usage: "override the simulated cycle count"},
			&cli.StringFlag{Name: "vcd", Destination: &cfg.Flag.VCDFile, Usage: "dump a VCD waveform to `FILE`"},
			&cli.StringFlag{Name: "addr", Destination: &cfg.Flag.Addr, Usage: "web monitor listen `ADDRESS`"},
		},
		Action: func(ctx *cli.Context) error {
			return run(cfg)
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))

	if err := app.Run(os.Args); err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
	}
}

func run(cfg *Config) error {
	if cfg.Flag.Preset != "" {
		preset := GetConfigByName(cfg.Flag.Preset)
		if preset == nil {
			return fmt.Errorf("unknown preset %q", cfg.Flag.Preset)
		}
		preset.Flag = cfg.Flag
		cfg = preset
	}
	if err := cfg.LoadConfig(); err != nil {
		return err
	}

	debug.SetDebug(cfg.Log.File, cfg.Log.Flag)
	defer func() {
		if cfg.Log.File != os.Stderr && cfg.Log.File != os.Stdout {
			_ = cfg.Log.File.Close()
		}
	}()

	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	sim, err := NewSimulator(cfg)
	if err != nil {
		return err
	}

	if cfg.VCDFile != "" {
		file, err := os.Create(cfg.VCDFile)
		if err != nil {
			return fmt.Errorf("creating VCD file: %w", err)
		}
		defer func() { _ = file.Close() }()
		if err := sim.AttachTrace(file); err != nil {
			return err
		}
	}

	telemetry, err := NewTelemetry(cfg.MQTT.Connection, cfg.MQTT.Topic)
	if err != nil {
		return err
	}
	defer func() { _ = telemetry.Close() }()
	sim.SetTelemetry(telemetry)

	if cfg.Headless {
		if err := sim.Run(); err != nil {
			return err
		}
		stats := sim.CollectStats()
		PrintStats(stats)
		telemetry.PublishSummary(stats)
		return nil
	}

	web := NewWebServer(cfg.Addr)
	sim.SetVisualizer(web)
	if err := web.Start(); err != nil {
		return err
	}
	defer func() { _ = web.Close() }()
	debug.InfoLog.Printf("web monitor listening on %s", cfg.Addr)

	go func() {
		if err := sim.Run(); err != nil {
			debug.ErrorLog.Printf("simulation stopped: %v", err)
			return
		}
		stats := sim.CollectStats()
		PrintStats(stats)
		telemetry.PublishSummary(stats)
	}()

	// Keep serving the monitor until an exit signal arrives.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	sig := <-quit
	debug.InfoLog.Printf("got %s signal, shutting down", sig)
	return nil
}
