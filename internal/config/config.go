// Package config loads server and client settings from the environment, an
// optional .env file and an optional TOML file. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultConfigPath    = "~/.config/craftisland/config.toml"
	defaultAddr          = ":8080"
	defaultOwnerPasscode = "@craftisland"

	// PlaceholderURL and PlaceholderAPIKey keep the client constructible when
	// no service is configured. Every remote call against them fails.
	PlaceholderURL    = "https://placeholder.invalid"
	PlaceholderAPIKey = "placeholder"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	APIKey            string
	OwnerEmails       []string
	OwnerPasscode     string
	MigrateImages     bool
	AllowFactoryReset bool
}

type ClientConfig struct {
	ServiceURL  string
	APIKey      string
	KVBackend   string
	KVPath      string
	DynamoTable string
	AWSRegion   string
	// Placeholder is set when ServiceURL or APIKey fell back to a placeholder.
	Placeholder bool
}

type fileConfig struct {
	Server struct {
		Addr              string   `toml:"addr"`
		DatabaseURL       string   `toml:"database_url"`
		JWTSecret         string   `toml:"jwt_secret"`
		APIKey            string   `toml:"api_key"`
		OwnerEmails       []string `toml:"owner_emails"`
		OwnerPasscode     string   `toml:"owner_passcode"`
		MigrateImages     *bool    `toml:"migrate_images"`
		AllowFactoryReset *bool    `toml:"allow_factory_reset"`
	} `toml:"server"`
	Client struct {
		ServiceURL  string `toml:"service_url"`
		APIKey      string `toml:"api_key"`
		KVBackend   string `toml:"kv_backend"`
		KVPath      string `toml:"kv_path"`
		DynamoTable string `toml:"dynamodb_table"`
		AWSRegion   string `toml:"aws_region"`
	} `toml:"client"`
}

// Load builds the server configuration.
func Load() (Config, error) {
	_ = godotenv.Load()

	file, err := readFile(os.Getenv("STOREFRONT_CONFIG"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:              first(os.Getenv("STOREFRONT_ADDR"), file.Server.Addr, defaultAddr),
		DatabaseURL:       first(os.Getenv("DATABASE_URL"), file.Server.DatabaseURL),
		JWTSecret:         first(os.Getenv("JWT_SECRET"), file.Server.JWTSecret),
		APIKey:            first(os.Getenv("STOREFRONT_API_KEY"), file.Server.APIKey),
		OwnerEmails:       file.Server.OwnerEmails,
		OwnerPasscode:     first(os.Getenv("OWNER_PASSCODE"), file.Server.OwnerPasscode, defaultOwnerPasscode),
		MigrateImages:     boolOr(file.Server.MigrateImages, true),
		AllowFactoryReset: boolOr(file.Server.AllowFactoryReset, true),
	}
	if v := os.Getenv("OWNER_EMAILS"); v != "" {
		cfg.OwnerEmails = splitList(v)
	}
	if cfg.MigrateImages, err = envBool("MIGRATE_IMAGES", cfg.MigrateImages); err != nil {
		return Config{}, err
	}
	if cfg.AllowFactoryReset, err = envBool("ALLOW_FACTORY_RESET", cfg.AllowFactoryReset); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not set")
	}
	return cfg, nil
}

// LoadClient builds the client configuration. A missing service URL or API
// key is not an error: placeholders are used and a warning is logged.
func LoadClient() (ClientConfig, error) {
	_ = godotenv.Load()

	file, err := readFile(os.Getenv("STOREFRONT_CONFIG"))
	if err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		ServiceURL:  first(os.Getenv("STOREFRONT_URL"), file.Client.ServiceURL),
		APIKey:      first(os.Getenv("STOREFRONT_API_KEY"), file.Client.APIKey),
		KVBackend:   first(os.Getenv("STOREFRONT_KV"), file.Client.KVBackend, "memory"),
		KVPath:      first(os.Getenv("STOREFRONT_KV_PATH"), file.Client.KVPath),
		DynamoTable: first(os.Getenv("DYNAMODB_TABLE_NAME"), file.Client.DynamoTable),
		AWSRegion:   first(os.Getenv("AWS_REGION"), file.Client.AWSRegion),
	}
	if cfg.ServiceURL == "" || cfg.APIKey == "" {
		log.Printf("[config] storefront service is not configured; using placeholders, remote calls will fail")
		cfg.ServiceURL = first(cfg.ServiceURL, PlaceholderURL)
		cfg.APIKey = first(cfg.APIKey, PlaceholderAPIKey)
		cfg.Placeholder = true
	}
	switch cfg.KVBackend {
	case "memory", "file", "dynamodb":
	default:
		return ClientConfig{}, fmt.Errorf("unknown STOREFRONT_KV backend %q", cfg.KVBackend)
	}
	if cfg.KVBackend == "file" && cfg.KVPath == "" {
		cfg.KVPath = mustExpand("~/.local/share/craftisland/store.json")
	}
	if cfg.KVBackend == "dynamodb" && cfg.DynamoTable == "" {
		return ClientConfig{}, errors.New("DYNAMODB_TABLE_NAME is required for the dynamodb backend")
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var cfg fileConfig
	resolved, err := expandPath(first(path, defaultConfigPath))
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
