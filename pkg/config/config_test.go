package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("map-api", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error: %v", args, err)
	}
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(newFlags(t, "--api-key", "k"), "")
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Addr)
	}
	if !cfg.WebMode {
		t.Error("Expected web mode by default")
	}
	if cfg.DebounceQuiet != 200*time.Millisecond {
		t.Errorf("Expected debounce_quiet 200ms, got %v", cfg.DebounceQuiet)
	}
	if cfg.MaxBodyBytes != 8<<20 {
		t.Errorf("Expected max_body_bytes %d, got %d", 8<<20, cfg.MaxBodyBytes)
	}
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map-api.toml")
	content := `
addr = ":7000"
api_key = "from-file"
log_format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAP_API_API_KEY", "from-env")

	cfg, err := LoadFile(newFlags(t, "--addr", ":9000", "-vv"), path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Errorf("Flag should win: got addr %s", cfg.Addr)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("Env should beat file: got api_key %s", cfg.APIKey)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("File should beat defaults: got log_format %s", cfg.LogFormat)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "server needs api key", args: nil, wantErr: true},
		{name: "watch needs graph file", args: []string{"--api-key", "k", "--watch"}, wantErr: true},
		{name: "one-shot needs nodes", args: []string{"--web=false", "--graph-file", "g.json"}, wantErr: true},
		{name: "one-shot needs graph file", args: []string{"--web=false", "--from", "A", "--to", "B"}, wantErr: true},
		{name: "one-shot without api key", args: []string{"--web=false", "--graph-file", "g.json", "--from", "A", "--to", "B"}},
		{name: "bad log format", args: []string{"--api-key", "k", "--log-format", "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(newFlags(t, tt.args...), "")
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
