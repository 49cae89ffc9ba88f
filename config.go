package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"

	"github.com/example/trojan_sim/trojan"
)

// Config holds the simulation configuration. Fields tagged `yaml` can be set
// from a configuration file; the Flag struct carries command line overrides.
type Config struct {
	Name string `yaml:"-"` // preset name, not serialized

	// Timing channel parameters.
	Key         string        `yaml:"key"`      // hex-encoded secret key
	KeyWidth    int           `yaml:"keywidth"` // bits
	EdgeDelayNs int           `yaml:"edgedelay"`
	EdgeDelay   time.Duration `yaml:"-"`

	// Transmitter parameters.
	DataBits          int    `yaml:"databits"`
	SentinelBits      int    `yaml:"sentinelbits"`
	Sentinel          uint32 `yaml:"sentinel"`
	HardResetRecovers bool   `yaml:"hardresetrecovers"`

	// Harness parameters.
	TotalCycles     int            `yaml:"cycles"`
	WatchdogSeconds int            `yaml:"watchdog"`
	Watchdog        time.Duration  `yaml:"-"`
	Stimulus        StimulusConfig `yaml:"stimulus"`

	Headless bool   `yaml:"-"`
	Addr     string `yaml:"addr"`
	VCDFile  string `yaml:"vcd"`

	MQTT MQTTConfig `yaml:"mqtt"`
	Log  LogConfig  `yaml:"log"`
	Flag FlagConfig `yaml:"-"`
}

// StimulusConfig selects and parameterizes the stimulus generator.
type StimulusConfig struct {
	Mode        string        `yaml:"mode"` // "random" or "scripted"
	Rate        float64       `yaml:"rate"` // valid-assertion probability per cycle
	Seed        int64         `yaml:"seed"`
	InjectCycle int           `yaml:"injectcycle"` // cycle to drive the sentinel; -1 disables
	Script      []ScriptEntry `yaml:"script"`
}

// ScriptEntry is one cycle of a scripted stimulus.
type ScriptEntry struct {
	Probe uint32 `yaml:"probe"`
	Data  uint32 `yaml:"data"`
	Valid bool   `yaml:"valid"`
	Reset bool   `yaml:"reset"`
}

// MQTTConfig configures optional telemetry publishing.
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// LogConfig defines the log sink and level.
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

// FlagConfig carries the parsed command line flags.
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
	Preset     string
	Headless   bool
	Cycles     int
	VCDFile    string
	Addr       string
}

// NewConfig returns a configuration with the reference-design defaults.
func NewConfig() *Config {
	return &Config{
		Key:          "00112233445566778899aabbccddeeff",
		KeyWidth:     trojan.DefaultKeyWidth,
		EdgeDelayNs:  int(trojan.DefaultEdgeDelay.Nanoseconds()),
		DataBits:     trojan.DefaultDataBits,
		SentinelBits: trojan.DefaultSentinelBits,
		Sentinel:     trojan.DefaultSentinel,
		TotalCycles:  DefaultTotalCycles,
		Stimulus: StimulusConfig{
			Mode:        "random",
			Rate:        0.5,
			Seed:        1,
			InjectCycle: -1,
		},
		Addr: DefaultListenAddr,
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
	}
}

// LoadConfig reads the configuration file named by the flags (when set),
// applies command line overrides, and derives the duration fields.
func (c *Config) LoadConfig() error {
	if c.Flag.ConfigFile != "" {
		if err := c.readConfigFile(); err != nil {
			return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
		}
	}
	c.applyFlags()
	if err := c.setLogConfig(); err != nil {
		return fmt.Errorf("unable to open log file %q: %w", c.Log.FileString, err)
	}
	c.EdgeDelay = time.Duration(c.EdgeDelayNs) * time.Nanosecond
	c.Watchdog = time.Duration(c.WatchdogSeconds) * time.Second
	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) applyFlags() {
	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if c.Flag.Headless {
		c.Headless = true
	}
	if c.Flag.Cycles > 0 {
		c.TotalCycles = c.Flag.Cycles
	}
	if c.Flag.VCDFile != "" {
		c.VCDFile = c.Flag.VCDFile
	}
	if c.Flag.Addr != "" {
		c.Addr = c.Flag.Addr
	}
}

func (c *Config) setLogConfig() (err error) {
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard", "":
		c.Log.Flag = debug.Standard
	default:
		return fmt.Errorf("unknown log level %q", c.Log.FlagString)
	}

	switch c.Log.FileString {
	case "stderr", "":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		if c.Log.File, err = os.OpenFile(c.Log.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}
	return
}
