package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.Timeout != DefaultTimeout || cfg.Prompt != DefaultPrompt || !cfg.Pretty() {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Fatalf("expected error for required missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	body := "baseURL: http://board:9000\ntimeout: 3s\nprettyJSON: false\nhistoryFile: /tmp/h\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://board:9000" || cfg.Timeout != 3*time.Second || cfg.Pretty() || cfg.HistoryFile != "/tmp/h" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.TokenStatePath != DefaultTokenStatePath {
		t.Fatalf("expected default state path, got %s", cfg.TokenStatePath)
	}
}
