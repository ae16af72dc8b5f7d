package settings

import (
	"path/filepath"
	"testing"
)

func TestLoadFromMissing(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.DefaultInventory != "" || s.Concurrency != 0 {
		t.Errorf("missing file should load as zero settings, got %+v", s)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{
		DefaultInventory:   "fleet.csv",
		DefaultModel:       "Cisco Catalyst 9300",
		Concurrency:        4,
		TaskTimeoutSeconds: 120,
		RedisAddr:          "localhost:6379",
	}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if *loaded != *s {
		t.Errorf("loaded = %+v, want %+v", loaded, s)
	}
}

func TestFallbackDefaults(t *testing.T) {
	s := &Settings{}
	if got := s.GetConcurrency(); got != 10 {
		t.Errorf("GetConcurrency() = %d, want 10", got)
	}
	if got := s.GetTaskTimeoutSeconds(); got != 60 {
		t.Errorf("GetTaskTimeoutSeconds() = %d, want 60", got)
	}

	s = &Settings{Concurrency: 3, TaskTimeoutSeconds: 30}
	if got := s.GetConcurrency(); got != 3 {
		t.Errorf("GetConcurrency() = %d, want 3", got)
	}
	if got := s.GetTaskTimeoutSeconds(); got != 30 {
		t.Errorf("GetTaskTimeoutSeconds() = %d, want 30", got)
	}
}
