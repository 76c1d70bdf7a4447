package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all sealbox server configuration.
// Priority: env vars > settings.json > defaults. Loaded once at startup;
// never re-read at runtime.
type Config struct {
	ListenAddr          string `json:"listen_addr"`
	DBPath              string `json:"db_path"`
	RedisAddr           string `json:"redis_addr"` // empty = in-process mirror cache
	CacheTTLSeconds     int    `json:"cache_ttl_seconds"`
	MasterKeyHex        string `json:"master_key_hex"`
	KeyPassphrase       string `json:"key_passphrase"`
	KeySaltHex          string `json:"key_salt_hex"`
	BcryptCost          int    `json:"bcrypt_cost"`
	LogLevel            string `json:"log_level"`
	ShredSchedule       string `json:"shred_schedule"`
	ShredRetentionHours int    `json:"shred_retention_hours"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:          ":8080",
		DBPath:              filepath.Join(sealboxDir(), "sealbox.db"),
		CacheTTLSeconds:     300,
		LogLevel:            "info",
		ShredSchedule:       "0 * * * *",
		ShredRetentionHours: 24,
	}
}

func sealboxDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sealbox"
	}
	return filepath.Join(home, ".sealbox")
}

func settingsPath() string {
	return filepath.Join(sealboxDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("SEALBOX_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SEALBOX_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SEALBOX_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SEALBOX_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("SEALBOX_MASTER_KEY"); v != "" {
		cfg.MasterKeyHex = v
	}
	if v := os.Getenv("SEALBOX_KEY_PASSPHRASE"); v != "" {
		cfg.KeyPassphrase = v
	}
	if v := os.Getenv("SEALBOX_KEY_SALT"); v != "" {
		cfg.KeySaltHex = v
	}
	if v := os.Getenv("SEALBOX_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BcryptCost = n
		}
	}
	if v := os.Getenv("SEALBOX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SEALBOX_SHRED_SCHEDULE"); v != "" {
		cfg.ShredSchedule = v
	}
	if v := os.Getenv("SEALBOX_SHRED_RETENTION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ShredRetentionHours = n
		}
	}

	return cfg
}
