package config

// loader.go - configuration loading from the YAML file and environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables
//   3. YAML file  (--config)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML document at path onto cfg.  Keys absent
// from the file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the PICOCTL_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.
func LoadFromEnv(cfg *Config) {
	if envBool("PICOCTL_LISTEN") {
		cfg.Listen = true
	}
	if v := os.Getenv("PICOCTL_BIND"); v != "" {
		cfg.Network.BindAddress = v
	}
	if v := envInt("PICOCTL_PORT"); v > 0 {
		cfg.Network.ListenPort = v
	}
	if v := os.Getenv("PICOCTL_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}
	if v := os.Getenv("PICOCTL_IP"); v != "" {
		cfg.Network.StaticIP = v
	}
	if v := envInt("PICOCTL_BRINGUP_TIMEOUT"); v > 0 {
		cfg.Network.BringupTimeout = secondsDuration(v)
	}

	// Hardware
	if v := envInt("PICOCTL_LED_PIN"); v > 0 {
		cfg.Pins.LED = v
	}
	if v := envInt("PICOCTL_BUZZER_PIN"); v > 0 {
		cfg.Pins.Buzzer = v
	}

	// Session / display
	if v := os.Getenv("PICOCTL_SECOND_CONNECT"); v != "" {
		cfg.Session.SecondConnect = strings.ToLower(v)
	}
	if v := os.Getenv("PICOCTL_DISPLAY"); v != "" {
		cfg.Display.Kind = strings.ToLower(v)
	}

	// Output
	if v := os.Getenv("PICOCTL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := envInt("PICOCTL_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
