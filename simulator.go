package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/womat/debug"

	"github.com/example/trojan_sim/core"
	"github.com/example/trojan_sim/hooks"
	"github.com/example/trojan_sim/trace"
	"github.com/example/trojan_sim/trojan"
)

// txCycleResult carries one transmitter cycle from its clock domain to the
// merge loop.
type txCycleResult struct {
	cycle int
	in    Stimulus
	out   trojan.TxOutput
	from  trojan.TxState
}

// Simulator owns one timing-channel encoder and one triggered transmitter
// and drives them on independent tick domains kept in lock-step. Each
// domain is internally single-threaded: a tick is processed to completion
// before the next one is accepted.
type Simulator struct {
	cfg *Config

	enc  *trojan.TimingChannelEncoder
	tx   *trojan.TriggeredStateMachine
	stim StimulusGenerator

	broker   *hooks.SignalBroker
	registry *hooks.Registry
	checker  *ConformanceChecker
	vcd      *trace.VCDWriter

	coord     *CycleCoordinator
	progress  *CycleSignal
	encCh     chan core.EdgeEvent
	txCh      chan txCycleResult
	quit      chan struct{}
	abortCh   chan struct{}
	abortOnce *sync.Once
	wg        sync.WaitGroup

	visualizer *WebServer

	mu        sync.Mutex
	current   int
	paused    bool
	stats     SimulationStats
	lastFrame *WaveFrame
}

// NewSimulator builds the components from the validated configuration.
func NewSimulator(cfg *Config) (*Simulator, error) {
	key, err := trojan.ParseSecretKey(cfg.Key, cfg.KeyWidth)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	enc, err := trojan.NewTimingChannelEncoder(trojan.EncoderConfig{
		Key:   key,
		Delay: cfg.EdgeDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	tx, err := trojan.NewTriggeredStateMachine(trojan.TransmitterConfig{
		DataBits:          cfg.DataBits,
		SentinelBits:      cfg.SentinelBits,
		Sentinel:          cfg.Sentinel,
		HardResetRecovers: cfg.HardResetRecovers,
	})
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	stim, err := buildStimulus(cfg)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	broker := hooks.NewSignalBroker()
	s := &Simulator{
		cfg:      cfg,
		enc:      enc,
		tx:       tx,
		stim:     stim,
		broker:   broker,
		registry: hooks.NewRegistry(broker),
		checker:  &ConformanceChecker{},
		stats:    SimulationStats{TriggerCycle: -1},
	}
	if err := s.registerBuiltinPlugins(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	return s, nil
}

// registerBuiltinPlugins installs the instrumentation shipped with the
// harness. The trigger alarm runs as a broker hook so built-ins and external
// plugins share one dispatch path.
func (s *Simulator) registerBuiltinPlugins() error {
	err := s.registry.Register("trigger-alarm", hooks.PluginDescriptor{
		Category:    hooks.PluginCategoryInstrumentation,
		Description: "logs and counts trojan trigger events",
	}, func(b *hooks.SignalBroker) error {
		b.RegisterTrigger(func(ev *core.TriggerEvent) error {
			debug.WarningLog.Printf("sentinel %#x observed at cycle %d, transmitter disabled", ev.Probe, ev.Cycle)
			metrics.RecordTrigger()
			return nil
		})
		return nil
	})
	if err != nil {
		return err
	}
	return s.registry.Activate("trigger-alarm")
}

// Broker exposes the signal broker for plugin registration.
func (s *Simulator) Broker() *hooks.SignalBroker {
	return s.broker
}

// Registry exposes the plugin registry for configuration-driven activation.
func (s *Simulator) Registry() *hooks.Registry {
	return s.registry
}

// SetVisualizer attaches the web monitor. Must be called before Run.
func (s *Simulator) SetVisualizer(ws *WebServer) {
	s.visualizer = ws
	if ws == nil {
		return
	}
	s.broker.RegisterPluginMetadata(hooks.PluginDescriptor{
		Name:        "web-monitor",
		Category:    hooks.PluginCategoryVisualization,
		Description: "live waveform monitor over websocket",
	})
}

// SetTelemetry installs the MQTT telemetry sink as a trigger plugin. Must be
// called before Run; a nil sink leaves telemetry disabled.
func (s *Simulator) SetTelemetry(tm *Telemetry) {
	if tm == nil {
		return
	}
	err := s.registry.Register("mqtt-telemetry", hooks.PluginDescriptor{
		Category:    hooks.PluginCategoryInstrumentation,
		Description: "publishes trigger alerts to the configured MQTT topic",
	}, func(b *hooks.SignalBroker) error {
		b.RegisterTrigger(func(ev *core.TriggerEvent) error {
			tm.PublishTrigger(ev.Cycle, ev.Probe)
			return nil
		})
		return nil
	})
	if err == nil {
		err = s.registry.Activate("mqtt-telemetry")
	}
	if err != nil {
		debug.ErrorLog.Printf("telemetry plugin: %v", err)
	}
}

// AttachTrace declares the waveform signals and starts a VCD dump on w.
// Must be called before Run.
func (s *Simulator) AttachTrace(w io.Writer) error {
	v := trace.NewVCDWriter(w)
	signals := []struct {
		name  string
		width int
	}{
		{"ref_clk", 1},
		{"derived_clk", 1},
		{"phase_delayed", 1},
		{"tx_line", 1},
		{"ready", 1},
		{"valid", 1},
		{"state", 4},
		{"probe", s.cfg.SentinelBits},
		{"data", s.cfg.DataBits},
	}
	for _, sig := range signals {
		if err := v.AddSignal(sig.name, sig.width); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	if err := v.WriteHeader("trojan_sim", time.Nanosecond); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	s.vcd = v
	s.broker.RegisterPluginMetadata(hooks.PluginDescriptor{
		Name:        "waveform-trace",
		Category:    hooks.PluginCategoryVisualization,
		Description: "VCD waveform dump for offline timing analysis",
	})
	return nil
}

// Run executes the simulation until the configured cycle count, a watchdog
// abort, or process teardown. A monitor reset command rebuilds the
// components and starts over.
func (s *Simulator) Run() error {
	for {
		resetRequested, err := s.runCycles()
		if err != nil {
			return err
		}
		if !resetRequested {
			if s.vcd != nil {
				if err := s.vcd.Flush(); err != nil {
					return fmt.Errorf("trace: %w", err)
				}
			}
			return nil
		}
		s.rebuild()
	}
}

func (s *Simulator) runCycles() (resetRequested bool, err error) {
	s.coord = NewCycleCoordinator([]string{DomainEncoder, DomainTransmitter})
	s.coord.SetMaxTarget(-1)
	s.progress = NewCycleSignal(-1)
	s.encCh = make(chan core.EdgeEvent, 1)
	s.txCh = make(chan txCycleResult, 1)
	s.quit = make(chan struct{})
	s.abortCh = make(chan struct{})
	s.abortOnce = new(sync.Once)

	s.wg.Add(2)
	go s.encoderLoop()
	go s.transmitterLoop()

	if s.cfg.Watchdog > 0 {
		stopWatchdog := s.startWatchdog()
		defer stopWatchdog()
	}
	defer func() {
		close(s.quit)
		s.coord.Stop()
		s.wg.Wait()
	}()

	for s.currentCycle() < s.cfg.TotalCycles {
		cmd := s.nextCommand()
		switch cmd.Type {
		case CommandPause:
			s.setPaused(true)
		case CommandResume:
			s.setPaused(false)
		case CommandReset:
			return true, nil
		}
		if s.isPaused() && cmd.Type != CommandStep {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		cycle := s.currentCycle()
		s.coord.SetMaxTarget(cycle)

		var ev core.EdgeEvent
		select {
		case ev = <-s.encCh:
		case <-s.abortCh:
			return false, s.watchdogError()
		}
		var res txCycleResult
		select {
		case res = <-s.txCh:
		case <-s.abortCh:
			return false, s.watchdogError()
		}

		s.processCycle(cycle, ev, res)

		s.mu.Lock()
		s.current++
		s.mu.Unlock()
		s.progress.Update(cycle)

		if s.visualizer != nil {
			time.Sleep(DefaultVisualizationDelay)
		}
	}
	return false, nil
}

func (s *Simulator) encoderLoop() {
	defer s.wg.Done()
	for {
		cycle := s.coord.WaitForCycle(DomainEncoder)
		if cycle < 0 {
			return
		}
		ev := s.enc.Advance(core.ClockTick{Index: cycle})
		select {
		case s.encCh <- ev:
		case <-s.quit:
			return
		}
		s.coord.MarkDone(DomainEncoder, cycle)
	}
}

func (s *Simulator) transmitterLoop() {
	defer s.wg.Done()
	for {
		cycle := s.coord.WaitForCycle(DomainTransmitter)
		if cycle < 0 {
			return
		}
		in := s.stim.Next(cycle)
		from := s.tx.State()
		out := s.tx.Advance(trojan.TxInput{
			Probe: in.Probe,
			Data:  in.Data,
			Valid: in.Valid,
			Reset: in.Reset,
		})
		select {
		case s.txCh <- txCycleResult{cycle: cycle, in: in, out: out, from: from}:
		case <-s.quit:
			return
		}
		s.coord.MarkDone(DomainTransmitter, cycle)
	}
}

// processCycle merges both domains' results for one cycle: statistics,
// hooks, conformance, trace, and the monitor frame. Runs on the merge
// goroutine only.
func (s *Simulator) processCycle(cycle int, ev core.EdgeEvent, res txCycleResult) {
	s.mu.Lock()
	if ev.Phase == core.PhaseDelayed {
		s.stats.DelayedEdges++
	} else {
		s.stats.AlignedEdges++
	}
	if ev.KeyIndex == s.enc.KeyWidth()-1 {
		s.stats.KeyPeriods++
	}
	if res.out.Accepted {
		s.stats.WordsAccepted++
	}
	if res.out.State == trojan.StateStop && res.from == trojan.StateData {
		s.stats.WordsSent++
	}
	triggerFired := res.out.State == trojan.StateDeadbeefDetect && s.stats.TriggerCycle < 0
	if triggerFired {
		s.stats.TriggerCycle = cycle
	}
	if res.out.State == trojan.StateSpecialIdle {
		s.stats.SpecialIdleCycles++
	}
	s.mu.Unlock()

	s.checker.Check(cycle, res.out)

	if err := s.broker.EmitEdge(&ev); err != nil {
		debug.ErrorLog.Printf("edge hook failed at cycle %d: %v", cycle, err)
	}
	if res.from != res.out.State {
		change := core.StateChangeEvent{Cycle: cycle, From: res.from.String(), To: res.out.State.String()}
		if err := s.broker.EmitStateChange(&change); err != nil {
			debug.ErrorLog.Printf("state hook failed at cycle %d: %v", cycle, err)
		}
	}
	if res.out.Accepted {
		hs := core.HandshakeEvent{Cycle: cycle, Word: res.in.Data}
		if err := s.broker.EmitHandshake(&hs); err != nil {
			debug.ErrorLog.Printf("handshake hook failed at cycle %d: %v", cycle, err)
		}
	}
	if triggerFired {
		trig := core.TriggerEvent{Cycle: cycle, Probe: res.in.Probe}
		if err := s.broker.EmitTrigger(&trig); err != nil {
			debug.ErrorLog.Printf("trigger hook failed at cycle %d: %v", cycle, err)
		}
	}
	metrics.RecordCycles(1)

	if s.vcd != nil {
		s.dumpCycle(cycle, ev, res)
	}

	frame := s.buildFrame(cycle, ev, res)
	s.mu.Lock()
	s.lastFrame = frame
	s.mu.Unlock()
	if s.visualizer != nil {
		s.visualizer.PublishFrame(frame)
	}
}

// dumpCycle writes one cycle to the VCD trace. Each cycle spans two time
// units: the rising edge and the falling half.
func (s *Simulator) dumpCycle(cycle int, ev core.EdgeEvent, res txCycleResult) {
	t := int64(cycle) * 2
	emit := func(err error) {
		if err != nil {
			debug.ErrorLog.Printf("trace write failed at cycle %d: %v", cycle, err)
		}
	}
	emit(s.vcd.EmitBit(t, "ref_clk", true))
	emit(s.vcd.EmitBit(t, "derived_clk", ev.Level))
	emit(s.vcd.EmitBit(t, "phase_delayed", ev.Phase == core.PhaseDelayed))
	emit(s.vcd.EmitBit(t, "tx_line", res.out.Line))
	emit(s.vcd.EmitBit(t, "ready", res.out.Ready))
	emit(s.vcd.EmitBit(t, "valid", res.in.Valid))
	emit(s.vcd.EmitVector(t, "state", uint32(res.out.State)))
	emit(s.vcd.EmitVector(t, "probe", res.in.Probe))
	emit(s.vcd.EmitVector(t, "data", res.in.Data))
	emit(s.vcd.EmitBit(t+1, "ref_clk", false))
}

func (s *Simulator) buildFrame(cycle int, ev core.EdgeEvent, res txCycleResult) *WaveFrame {
	stats := s.CollectStats()
	return &WaveFrame{
		Cycle:        cycle,
		KeyIndex:     ev.KeyIndex,
		EdgePhase:    ev.Phase.String(),
		EdgeDelayNs:  ev.Delay.Nanoseconds(),
		DerivedClock: ev.Level,
		State:        res.out.State.String(),
		Line:         res.out.Line,
		Ready:        res.out.Ready,
		Valid:        res.in.Valid,
		Probe:        res.in.Probe,
		Accepted:     res.out.Accepted,
		Triggered:    stats.TriggerCycle >= 0,
		TriggerCycle: stats.TriggerCycle,
		Stats:        stats,
	}
}

// CollectStats returns a consistent copy of the run statistics.
func (s *Simulator) CollectStats() *SimulationStats {
	s.mu.Lock()
	stats := s.stats
	stats.TotalCycles = s.current
	s.mu.Unlock()
	stats.ConformanceSamples = s.checker.Samples()
	stats.ConformanceViolations = s.checker.Violations()
	return &stats
}

// LatestFrame returns the most recently published frame, or nil.
func (s *Simulator) LatestFrame() *WaveFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame
}

func (s *Simulator) currentCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Simulator) nextCommand() ControlCommand {
	if s.visualizer == nil {
		return ControlCommand{Type: CommandNone}
	}
	cmd, ok := s.visualizer.NextCommand()
	if !ok {
		return ControlCommand{Type: CommandNone}
	}
	return cmd
}

func (s *Simulator) setPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

func (s *Simulator) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// startWatchdog aborts the run when no cycle completes within the
// configured interval. A liveness fallback for the harness, not part of the
// components' contract.
func (s *Simulator) startWatchdog() func() {
	stop := make(chan struct{})
	progress := s.progress
	go func() {
		ticker := time.NewTicker(s.cfg.Watchdog)
		defer ticker.Stop()
		last := progress.Value()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cur := progress.Value()
				if cur == last && !s.isPaused() {
					debug.ErrorLog.Printf("watchdog: no progress past cycle %d within %v", cur, s.cfg.Watchdog)
					s.abort()
					return
				}
				last = cur
			}
		}
	}()
	return func() { close(stop) }
}

func (s *Simulator) abort() {
	s.abortOnce.Do(func() {
		s.coord.Stop()
		close(s.abortCh)
	})
}

func (s *Simulator) watchdogError() error {
	return fmt.Errorf("simulation aborted: watchdog detected a stall after cycle %d", s.progress.Value())
}

// rebuild reconstructs the components for a monitor-requested reset. The
// configuration was already validated, so constructor errors cannot occur
// here; they are logged defensively anyway.
func (s *Simulator) rebuild() {
	fresh, err := NewSimulator(s.cfg)
	if err != nil {
		debug.ErrorLog.Printf("reset failed to rebuild components: %v", err)
		return
	}
	s.enc = fresh.enc
	s.tx = fresh.tx
	s.stim.Reset()
	s.checker.Reset()

	s.mu.Lock()
	s.current = 0
	s.paused = false
	s.stats = SimulationStats{TriggerCycle: -1}
	s.lastFrame = nil
	s.mu.Unlock()

	if s.vcd != nil {
		// VCD time cannot rewind; the trace covers the first run only.
		debug.InfoLog.Print("reset: waveform trace detached, it covers the aborted run")
		if err := s.vcd.Flush(); err != nil {
			debug.ErrorLog.Printf("trace flush failed: %v", err)
		}
		s.vcd = nil
	}
	debug.InfoLog.Print("simulation reset")
}
