package config

import (
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("GAZE_TEST_SET", " value ")
	t.Setenv("GAZE_TEST_EMPTY", "")

	if got := Env("GAZE_TEST_SET", "def"); got != "value" {
		t.Errorf("Expected value, got %q", got)
	}
	if got := Env("GAZE_TEST_EMPTY", "def"); got != "def" {
		t.Errorf("Expected def for empty var, got %q", got)
	}
	if got := Env("GAZE_TEST_UNSET", "def"); got != "def" {
		t.Errorf("Expected def for unset var, got %q", got)
	}
}

func TestEnvTyped(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{"int", "42", func(t *testing.T) {
			if got := EnvInt("GAZE_TEST", 7); got != 42 {
				t.Errorf("Expected 42, got %d", got)
			}
		}},
		{"bad int", "forty", func(t *testing.T) {
			if got := EnvInt("GAZE_TEST", 7); got != 7 {
				t.Errorf("Expected default 7, got %d", got)
			}
		}},
		{"float", "0.25", func(t *testing.T) {
			if got := EnvFloat("GAZE_TEST", 1); got != 0.25 {
				t.Errorf("Expected 0.25, got %v", got)
			}
		}},
		{"bool yes", "yes", func(t *testing.T) {
			if !EnvBool("GAZE_TEST", false) {
				t.Error("Expected true")
			}
		}},
		{"bool off", "OFF", func(t *testing.T) {
			if EnvBool("GAZE_TEST", true) {
				t.Error("Expected false")
			}
		}},
		{"bool junk", "maybe", func(t *testing.T) {
			if !EnvBool("GAZE_TEST", true) {
				t.Error("Expected default true")
			}
		}},
		{"duration", "250ms", func(t *testing.T) {
			if got := EnvDuration("GAZE_TEST", time.Second); got != 250*time.Millisecond {
				t.Errorf("Expected 250ms, got %v", got)
			}
		}},
		{"bad duration", "soon", func(t *testing.T) {
			if got := EnvDuration("GAZE_TEST", time.Second); got != time.Second {
				t.Errorf("Expected default 1s, got %v", got)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GAZE_TEST", tt.value)
			tt.check(t)
		})
	}
}
