package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty input should yield defaults, got %+v", cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
name: studio-mixer
http_addr: 127.0.0.1:8080
osc_addr: 127.0.0.1:9000
mdns: false
log_level: debug
protocol_log: /tmp/mixer.qlog
queue_len: 128
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "studio-mixer" || cfg.HTTPAddr != "127.0.0.1:8080" || cfg.OSCAddr != "127.0.0.1:9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MDNS {
		t.Error("mdns should be off")
	}
	if cfg.ProtocolLog != "/tmp/mixer.qlog" || cfg.QueueLen != 128 {
		t.Errorf("cfg = %+v", cfg)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", level, err)
	}
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("name: partial\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "partial" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr || cfg.OSCAddr != DefaultOSCAddr || !cfg.MDNS {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bad yaml", "name: [", "failed to parse"},
		{"empty name", `name: ""`, "name"},
		{"bad http addr", "http_addr: nope", "http_addr"},
		{"bad osc addr", "osc_addr: nope", "osc_addr"},
		{"bad level", "log_level: loud", "log_level"},
		{"negative queue", "queue_len: -1", "queue_len"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.in))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("name: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-file" {
		t.Errorf("Name = %q", cfg.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDisabledOSC(t *testing.T) {
	cfg, err := Parse([]byte(`osc_addr: ""`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.OSCAddr != "" {
		t.Errorf("OSCAddr = %q, want empty (transport disabled)", cfg.OSCAddr)
	}
}
