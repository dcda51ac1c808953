// Package config loads pgstudio settings. Sources are layered, lowest first:
// built-in defaults, a YAML file, a .env file, PGSTUDIO_* environment
// variables and explicitly set command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/credentials"
)

const (
	EnvPrefix       = "PGSTUDIO_"
	DefaultFileName = "pgstudio.yaml"
	DefaultPort     = 7411
)

type Config struct {
	DataDir    string        `koanf:"data_dir"`
	StateDB    string        `koanf:"state_db"`
	LogLevel   string        `koanf:"log_level"`
	Standalone bool          `koanf:"standalone"`
	Listen     ListenConfig  `koanf:"listen"`
	RPC        ListenConfig  `koanf:"rpc"`
	Keyring    KeyringConfig `koanf:"keyring"`
	Tools      ToolsConfig   `koanf:"tools"`
	AI         AIConfig      `koanf:"ai"`
	Query      QueryConfig   `koanf:"query"`
}

// ListenConfig picks a transport. A socket path wins over the port; port 0
// disables the listener unless a socket is set.
type ListenConfig struct {
	Port   int    `koanf:"port"`
	Socket string `koanf:"socket"`
}

func (l ListenConfig) Enabled() bool { return l.Socket != "" || l.Port > 0 }

type KeyringConfig struct {
	Backend string `koanf:"backend"`
	FileDir string `koanf:"file_dir"`
}

type ToolsConfig struct {
	ExtraDirs []string `koanf:"extra_dirs"`
}

type AIConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

type QueryConfig struct {
	MaxRows         int   `koanf:"max_rows"`
	DefaultPageSize int64 `koanf:"default_page_size"`
}

// Options tells Load where to look. Empty paths fall back to the defaults
// in the working directory and are skipped when absent.
type Options struct {
	File    string
	EnvFile string
	Flags   *pflag.FlagSet
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"data-dir":   "data_dir",
	"state-db":   "state_db",
	"log-level":  "log_level",
	"standalone": "standalone",
	"port":       "listen.port",
	"socket":     "listen.socket",
	"rpc-port":   "rpc.port",
	"rpc-socket": "rpc.socket",
	"keyring":    "keyring.backend",
	"tools-dir":  "tools.extra_dirs",
	"max-rows":   "query.max_rows",
}

func defaults() map[string]any {
	return map[string]any{
		"data_dir":                defaultDataDir(),
		"state_db":                "",
		"log_level":               "info",
		"standalone":              false,
		"listen.port":             DefaultPort,
		"listen.socket":           "",
		"rpc.port":                0,
		"rpc.socket":              "",
		"keyring.backend":         string(credentials.BackendAuto),
		"keyring.file_dir":        "",
		"tools.extra_dirs":        []string{},
		"ai.timeout":              "60s",
		"query.max_rows":          10000,
		"query.default_page_size": 100,
	}
}

// Load builds the configuration from every layer and validates it.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path, err := pick(opts.File, DefaultFileName); err != nil {
		return nil, err
	} else if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if path, err := pick(opts.EnvFile, ".env"); err != nil {
		return nil, err
	} else if path != "" {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("error reading env file %s: %w", path, err)
		}
		values := make(map[string]any, len(vars))
		for name, v := range vars {
			if key := envKey(name); key != "" {
				values[key] = v
			}
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// pick returns the explicit path, or fallback when it exists. An explicit
// path that does not exist is an error.
func pick(explicit, fallback string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config source %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(fallback); err == nil {
		return fallback, nil
	}
	return "", nil
}

// envKey maps PGSTUDIO_LISTEN_PORT to listen.port. Unknown names map to "",
// which drops them.
func envKey(name string) string {
	if !strings.HasPrefix(name, EnvPrefix) {
		return ""
	}
	rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	for key := range defaults() {
		if strings.ReplaceAll(key, ".", "_") == rest {
			return key
		}
	}
	return ""
}

func (c *Config) resolvePaths() {
	if c.StateDB == "" {
		c.StateDB = filepath.Join(c.DataDir, "pgstudio.db")
	}
	if c.Keyring.FileDir == "" {
		c.Keyring.FileDir = filepath.Join(c.DataDir, "keyring")
	}
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "err":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q", c.LogLevel))
	}
	for name, port := range map[string]int{"listen.port": c.Listen.Port, "rpc.port": c.RPC.Port} {
		if port < 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, port))
		}
	}
	if _, err := credentials.ParseBackend(c.Keyring.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Query.MaxRows <= 0 {
		errs = append(errs, fmt.Errorf("query.max_rows must be positive, got %d", c.Query.MaxRows))
	}
	if c.Query.DefaultPageSize <= 0 {
		errs = append(errs, fmt.Errorf("query.default_page_size must be positive, got %d", c.Query.DefaultPageSize))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ai.timeout must be positive, got %s", c.AI.Timeout))
	}
	return errors.Join(errs...)
}

func defaultDataDir() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "pgstudio")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return filepath.Join(os.TempDir(), "pgstudio")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "pgstudio")
	}
	return filepath.Join(home, ".local", "share", "pgstudio")
}
