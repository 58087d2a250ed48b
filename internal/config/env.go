// Package config provides configuration helpers for go-gazereader commands.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for focusd.
const (
	DefaultAddr    = ":8090"
	DefaultDB      = "gazereader.db"
	DefaultProfile = "default"
)

// Env returns the value of key, or def if unset or empty.
func Env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt returns key parsed as an int, or def if unset or invalid.
func EnvInt(key string, def int) int {
	if v, err := strconv.Atoi(Env(key, "")); err == nil {
		return v
	}
	return def
}

// EnvFloat returns key parsed as a float64, or def if unset or invalid.
func EnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(Env(key, ""), 64); err == nil {
		return v
	}
	return def
}

// EnvBool returns key parsed as a bool, or def if unset or invalid.
// Accepts 1/0, true/false, yes/no, on/off.
func EnvBool(key string, def bool) bool {
	switch strings.ToLower(Env(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// EnvDuration returns key parsed with time.ParseDuration, or def if unset
// or invalid.
func EnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(Env(key, "")); err == nil {
		return v
	}
	return def
}
