package tui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haskel/powermon/internal/host"
	"github.com/haskel/powermon/internal/lifecycle"
	"github.com/haskel/powermon/internal/monitor"
	"github.com/haskel/powermon/internal/progress"
	"github.com/haskel/powermon/internal/server"
)

func sampleStatus(ts, power float64) *server.StatusResponse {
	return &server.StatusResponse{
		Run: lifecycle.Status{
			State:          "running",
			ElapsedSeconds: 75,
			Output:         "results.json",
			Measurements:   3,
			Progress:       progress.Snapshot{ExamplesEvaluated: 1234, TokensGenerated: 56789, CurrentTask: "sort_list"},
			Latest:         &monitor.Record{Timestamp: ts, PowerDraw: power, MemoryUsed: 4096, GPUUtilization: 75},
		},
		Host: &host.State{Hostname: "gpu-node-1", CPUUsagePercent: 12, MemoryPercent: 40},
	}
}

func TestModel_StatusUpdate(t *testing.T) {
	m := NewModel(Config{ServerURL: "http://127.0.0.1:9464"})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated, _ = updated.(Model).Update(statusMsg{data: sampleStatus(1, 150)})
	model := updated.(Model)

	if model.loading {
		t.Error("loading should be cleared after a status message")
	}
	if model.status == nil || model.status.Run.Measurements != 3 {
		t.Fatalf("expected status to be stored, got %+v", model.status)
	}

	view := model.View()
	for _, want := range []string{"POWERMON", "running", "sort_list", "1,234", "56,789", "150.0 W", "4096 MiB", "gpu-node-1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ErrorKeepsLastStatus(t *testing.T) {
	m := NewModel(Config{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	updated, _ = updated.(Model).Update(statusMsg{data: sampleStatus(1, 100)})
	updated, _ = updated.(Model).Update(statusMsg{err: errors.New("connection refused")})
	model := updated.(Model)

	if model.status == nil {
		t.Error("previous status should be kept on error")
	}
	if !strings.Contains(model.View(), "connection refused") {
		t.Error("view should show the error")
	}
}

func TestModel_PowerHistory(t *testing.T) {
	m := NewModel(Config{})

	// The same record seen twice counts once.
	m.observe(sampleStatus(1, 100))
	m.observe(sampleStatus(1, 100))
	m.observe(sampleStatus(2, 200))

	if len(m.power) != 2 || m.power[0] != 100 || m.power[1] != 200 {
		t.Errorf("unexpected history %v", m.power)
	}

	for i := 0; i < historySize+10; i++ {
		m.observe(sampleStatus(float64(10+i), float64(i)))
	}
	if len(m.power) != historySize {
		t.Errorf("history should be capped at %d, got %d", historySize, len(m.power))
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := NewModel(Config{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_DefaultRefresh(t *testing.T) {
	if m := NewModel(Config{}); m.config.RefreshInterval != time.Second {
		t.Errorf("expected 1s default refresh, got %s", m.config.RefreshInterval)
	}
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(sampleStatus(3, 250))
	}))
	defer srv.Close()

	msg := fetchStatus(Config{ServerURL: srv.URL + "/", User: "admin", Password: "secret"})().(statusMsg)
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if msg.data.Run.Latest.PowerDraw != 250 {
		t.Errorf("expected power 250, got %f", msg.data.Run.Latest.PowerDraw)
	}

	msg = fetchStatus(Config{ServerURL: srv.URL})().(statusMsg)
	if msg.err == nil || !strings.Contains(msg.err.Error(), "401") {
		t.Errorf("expected 401 error without credentials, got %v", msg.err)
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		values []float64
		want   string
	}{
		{[]float64{0, 100}, "▁█"},
		{[]float64{5, 5, 5}, "▁▁▁"},
		{[]float64{0, 50, 100}, "▁▄█"},
	}
	for _, tt := range tests {
		if got := sparkline(tt.values); got != tt.want {
			t.Errorf("sparkline(%v) = %q, want %q", tt.values, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
