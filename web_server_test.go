package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProcessControlRequest(t *testing.T) {
	ws := NewWebServer(":0")
	for _, typ := range []string{"pause", "resume", "step", "reset"} {
		cmd, err := ws.processControlRequest(&controlRequest{Type: typ})
		if err != nil {
			t.Fatalf("command %q rejected: %v", typ, err)
		}
		if string(cmd.Type) != typ {
			t.Fatalf("command %q mapped to %q", typ, cmd.Type)
		}
	}
	if _, err := ws.processControlRequest(&controlRequest{Type: "explode"}); err == nil {
		t.Fatal("unknown command accepted")
	}
}

func TestControlEndpointQueuesCommand(t *testing.T) {
	ws := NewWebServer(":0")

	req := httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader(`{"type":"pause"}`))
	rec := httptest.NewRecorder()
	ws.handleControl(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d, want %d", rec.Code, http.StatusAccepted)
	}

	cmd, ok := ws.NextCommand()
	if !ok || cmd.Type != CommandPause {
		t.Fatalf("queued command %+v, ok=%v", cmd, ok)
	}
	if _, ok := ws.NextCommand(); ok {
		t.Fatal("spurious second command")
	}
}

func TestControlEndpointRejectsBadRequests(t *testing.T) {
	ws := NewWebServer(":0")

	req := httptest.NewRequest(http.MethodGet, "/api/control", nil)
	rec := httptest.NewRecorder()
	ws.handleControl(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader(`{"type":`))
	rec = httptest.NewRecorder()
	ws.handleControl(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader(`{"type":"warp"}`))
	rec = httptest.NewRecorder()
	ws.handleControl(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown command status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestFrameAndStatsEndpoints(t *testing.T) {
	ws := NewWebServer(":0")

	rec := httptest.NewRecorder()
	ws.handleFrame(rec, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty frame status %d, want %d", rec.Code, http.StatusNotFound)
	}

	frame := &WaveFrame{
		Cycle:        42,
		State:        "SPECIAL_IDLE",
		Line:         true,
		Triggered:    true,
		TriggerCycle: 20,
		Stats:        &SimulationStats{TotalCycles: 42, TriggerCycle: 20},
	}
	ws.PublishFrame(frame)

	rec = httptest.NewRecorder()
	ws.handleFrame(rec, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("frame status %d, want %d", rec.Code, http.StatusOK)
	}
	var got WaveFrame
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if got.Cycle != 42 || got.State != "SPECIAL_IDLE" || !got.Triggered {
		t.Fatalf("frame round trip lost data: %+v", got)
	}

	rec = httptest.NewRecorder()
	ws.handleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status %d, want %d", rec.Code, http.StatusOK)
	}
	var stats SimulationStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalCycles != 42 || stats.TriggerCycle != 20 {
		t.Fatalf("stats round trip lost data: %+v", stats)
	}
}

func TestQueueCommandBackpressure(t *testing.T) {
	ws := NewWebServer(":0")
	for i := 0; i < cap(ws.commands); i++ {
		if !ws.queueCommand(ControlCommand{Type: CommandStep}) {
			t.Fatalf("queue rejected command %d below capacity", i)
		}
	}
	if ws.queueCommand(ControlCommand{Type: CommandStep}) {
		t.Fatal("queue accepted command beyond capacity")
	}
}
