package main

import (
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "console", false},
		{"debug", "json", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			if _, err := newLogger(tt.level, tt.format); (err != nil) != tt.wantErr {
				t.Errorf("newLogger(%q, %q) err = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CTF_TEST_GRACE", "5s")
	t.Setenv("CTF_TEST_WORKERS", "nope")
	t.Setenv("CTF_TEST_DB", "")

	if got := getEnvDurationOrDefault("CTF_TEST_GRACE", time.Second); got != 5*time.Second {
		t.Errorf("duration = %v, want 5s", got)
	}
	if got := getEnvIntOrDefault("CTF_TEST_WORKERS", 3); got != 3 {
		t.Errorf("int = %d, want fallback 3", got)
	}
	if got := getEnvOrDefault("CTF_TEST_DB", "x.db"); got != "" {
		t.Errorf("empty CTF_TEST_DB = %q, want empty to disable the archive", got)
	}
	if got := getEnvOrDefault("CTF_TEST_UNSET", "x.db"); got != "x.db" {
		t.Errorf("unset = %q, want default", got)
	}
}
