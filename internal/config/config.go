package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
)

const (
	homeDirName   = ".adfgvx"
	homeFileName  = "config.toml"
	localFileName = "adfgvx.yml"
	envPrefix     = "ADFGVX_"
)

// Config captures the toolkit configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	Files      FilesConfig  `yaml:"files" toml:"files"`
	Capacity   int          `yaml:"capacity" toml:"capacity"`
	Workers    int          `yaml:"workers" toml:"workers"`
	RecipesDir string       `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLog   string       `yaml:"audit_log" toml:"audit_log"`
	Server     ServerConfig `yaml:"server" toml:"server"`
	Update     UpdateConfig `yaml:"update" toml:"update"`
}

// FilesConfig names the files used by the file-based decipher and self-test
// flows.
type FilesConfig struct {
	Key       string `yaml:"key" toml:"key"`
	Message   string `yaml:"message" toml:"message"`
	Encrypted string `yaml:"encrypted" toml:"encrypted"`
	Decrypted string `yaml:"decrypted" toml:"decrypted"`
}

// ServerConfig controls the gRPC cipher service.
type ServerConfig struct {
	Addr      string `yaml:"addr" toml:"addr"`
	MaxConns  int    `yaml:"max_conns" toml:"max_conns"`
	AuthToken string `yaml:"auth_token" toml:"auth_token"`
}

// UpdateConfig points the self-updater at a release feed.
type UpdateConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Channel string `yaml:"channel" toml:"channel"`
	// PublicKey is the base64 ed25519 key that signs release manifests.
	PublicKey string `yaml:"public_key" toml:"public_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	recipes := filepath.Join(homeDirName, "recipes")
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		recipes = filepath.Join(home, homeDirName, "recipes")
	}
	return Config{
		Files: FilesConfig{
			Key:       "key.txt",
			Message:   "message.txt",
			Encrypted: "encrypted.txt",
			Decrypted: "decrypted.txt",
		},
		Capacity:   adfgvx.DefaultPlaintextCapacity,
		Workers:    4,
		RecipesDir: recipes,
		Server: ServerConfig{
			Addr:     "127.0.0.1:50061",
			MaxConns: 64,
		},
		Update: UpdateConfig{
			Channel: "stable",
		},
	}
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. Later sources win:
//  1. ~/.adfgvx/config.toml (TOML)
//  2. ./adfgvx.yml (YAML)
//  3. ADFGVX_* environment variables
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("server max_conns cannot be negative, got %d", c.Server.MaxConns)
	}
	return nil
}

// Masked returns a copy that is safe to print.
func (c Config) Masked() Config {
	if c.Server.AuthToken != "" {
		c.Server.AuthToken = "********"
	}
	return c
}

// Render renders the configuration in the home config file format.
func (c Config) Render() ([]byte, error) {
	return toml.Marshal(c)
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("determine home directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(home, homeDirName, homeFileName), "toml")
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(wd, localFileName), "yaml")
}

func loadFile(cfg *Config, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data, format); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// fileConfig mirrors Config with pointers so absent keys leave earlier
// values untouched.
type fileConfig struct {
	Files      *fileFilesConfig  `yaml:"files" toml:"files"`
	Capacity   *int              `yaml:"capacity" toml:"capacity"`
	Workers    *int              `yaml:"workers" toml:"workers"`
	RecipesDir *string           `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLog   *string           `yaml:"audit_log" toml:"audit_log"`
	Server     *fileServerConfig `yaml:"server" toml:"server"`
	Update     *fileUpdateConfig `yaml:"update" toml:"update"`
}

type fileFilesConfig struct {
	Key       *string `yaml:"key" toml:"key"`
	Message   *string `yaml:"message" toml:"message"`
	Encrypted *string `yaml:"encrypted" toml:"encrypted"`
	Decrypted *string `yaml:"decrypted" toml:"decrypted"`
}

type fileServerConfig struct {
	Addr      *string `yaml:"addr" toml:"addr"`
	MaxConns  *int    `yaml:"max_conns" toml:"max_conns"`
	AuthToken *string `yaml:"auth_token" toml:"auth_token"`
}

type fileUpdateConfig struct {
	BaseURL   *string `yaml:"base_url" toml:"base_url"`
	Channel   *string `yaml:"channel" toml:"channel"`
	PublicKey *string `yaml:"public_key" toml:"public_key"`
}

func applyFileConfig(cfg *Config, data []byte, format string) error {
	var fc fileConfig
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &fc)
	case "toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	if f := fc.Files; f != nil {
		setString(&cfg.Files.Key, f.Key)
		setString(&cfg.Files.Message, f.Message)
		setString(&cfg.Files.Encrypted, f.Encrypted)
		setString(&cfg.Files.Decrypted, f.Decrypted)
	}
	setInt(&cfg.Capacity, fc.Capacity)
	setInt(&cfg.Workers, fc.Workers)
	setString(&cfg.RecipesDir, fc.RecipesDir)
	setString(&cfg.AuditLog, fc.AuditLog)
	if s := fc.Server; s != nil {
		setString(&cfg.Server.Addr, s.Addr)
		setInt(&cfg.Server.MaxConns, s.MaxConns)
		setString(&cfg.Server.AuthToken, s.AuthToken)
	}
	if u := fc.Update; u != nil {
		setString(&cfg.Update.BaseURL, u.BaseURL)
		setString(&cfg.Update.Channel, u.Channel)
		setString(&cfg.Update.PublicKey, u.PublicKey)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyEnvOverrides(cfg *Config) {
	strs := map[string]*string{
		"KEY_FILE":           &cfg.Files.Key,
		"MESSAGE_FILE":       &cfg.Files.Message,
		"ENCRYPTED_FILE":     &cfg.Files.Encrypted,
		"DECRYPTED_FILE":     &cfg.Files.Decrypted,
		"RECIPES_DIR":        &cfg.RecipesDir,
		"AUDIT_LOG":          &cfg.AuditLog,
		"SERVER":             &cfg.Server.Addr,
		"AUTH_TOKEN":         &cfg.Server.AuthToken,
		"UPDATE_URL":         &cfg.Update.BaseURL,
		"UPDATE_CHANNEL":     &cfg.Update.Channel,
		"UPDATER_PUBLIC_KEY": &cfg.Update.PublicKey,
	}
	for name, dst := range strs {
		if val := strings.TrimSpace(os.Getenv(envPrefix + name)); val != "" {
			*dst = val
		}
	}

	ints := map[string]*int{
		"CAPACITY":  &cfg.Capacity,
		"WORKERS":   &cfg.Workers,
		"MAX_CONNS": &cfg.Server.MaxConns,
	}
	for name, dst := range ints {
		if val := strings.TrimSpace(os.Getenv(envPrefix + name)); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil {
				*dst = parsed
			}
		}
	}
}
