package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/womat/debug"
)

// WebServer provides HTTP endpoints for the live waveform monitor and run
// control. Frames are pushed over the websocket hub; the REST endpoints
// serve the latest snapshot for polling clients.
type WebServer struct {
	mu          sync.RWMutex
	latestFrame *WaveFrame
	latestStats *SimulationStats
	commands    chan ControlCommand
	server      *http.Server
	hub         *wsHub
}

// NewWebServer creates a web server listening on addr once started.
func NewWebServer(addr string) *WebServer {
	ws := &WebServer{
		commands: make(chan ControlCommand, 10),
		hub:      newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", ws.handleFrame)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/control", ws.handleControl)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.hub.handle(ws, w, r)
	})
	mux.Handle("/", http.FileServer(http.Dir("web/static")))

	ws.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return ws
}

// Start starts the HTTP server in a goroutine.
func (ws *WebServer) Start() error {
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			debug.ErrorLog.Printf("web server stopped: %v", err)
		}
	}()
	return nil
}

// Close shuts the HTTP listener down.
func (ws *WebServer) Close() error {
	return ws.server.Close()
}

// PublishFrame stores the latest frame and broadcasts it to websocket
// clients.
func (ws *WebServer) PublishFrame(frame *WaveFrame) {
	if frame == nil {
		return
	}
	ws.mu.Lock()
	ws.latestFrame = frame
	if frame.Stats != nil {
		ws.latestStats = frame.Stats
	}
	ws.mu.Unlock()
	ws.hub.broadcastFrame(frame)
}

// NextCommand returns the next control command if available, non-blocking.
func (ws *WebServer) NextCommand() (ControlCommand, bool) {
	select {
	case cmd := <-ws.commands:
		return cmd, true
	default:
		return ControlCommand{Type: CommandNone}, false
	}
}

func (ws *WebServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	frame := ws.latestFrame
	ws.mu.RUnlock()

	if frame == nil {
		http.Error(w, "No frame available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
	}
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	stats := ws.latestStats
	ws.mu.RUnlock()

	if stats == nil {
		http.Error(w, "No stats available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, "Failed to encode stats", http.StatusInternalServerError)
	}
}

func (ws *WebServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd, err := ws.processControlRequest(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ws.queueCommand(*cmd) {
		http.Error(w, "Command queue full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte("Command accepted"))
}

func (ws *WebServer) processControlRequest(req *controlRequest) (*ControlCommand, error) {
	switch ControlCommandType(req.Type) {
	case CommandPause, CommandResume, CommandStep, CommandReset:
		return &ControlCommand{Type: ControlCommandType(req.Type)}, nil
	default:
		return nil, fmt.Errorf("unknown control command %q", req.Type)
	}
}

func (ws *WebServer) queueCommand(cmd ControlCommand) bool {
	select {
	case ws.commands <- cmd:
		return true
	default:
		return false
	}
}
