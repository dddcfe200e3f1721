// Package config loads toyshare settings from defaults, an optional
// toyshare.yaml in the project root, a .env file and the process
// environment, in increasing order of precedence.
//
// The environment variables the Node scripts historically read keep their
// names: NODE_ENV, PORT, HOST, VITE_CONFIG_PATH and DATABASE_URL. Every
// other key can be overridden with a TOYSHARE_ prefix, e.g.
// TOYSHARE_TOOLS_INTERPRETER="bunx tsx".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/toyshare/toyshare/internal/model"
)

// Environment variable names shared with the Node application.
const (
	EnvMode          = "NODE_ENV"
	EnvPort          = "PORT"
	EnvHost          = "HOST"
	EnvBundlerConfig = "VITE_CONFIG_PATH"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvRoot          = "TOYSHARE_ROOT"
)

// configName is the base name of the optional config file (toyshare.yaml).
const configName = "toyshare"

// Tools holds the external commands, each as argv. They are invoked with
// the project root as working directory.
type Tools struct {
	Interpreter        []string `json:"interpreter" yaml:"interpreter"`
	Node               []string `json:"node" yaml:"node"`
	AssetBundler       []string `json:"assetBundler" yaml:"asset_bundler"`
	ServerBundler      []string `json:"serverBundler" yaml:"server_bundler"`
	MigrationGenerator []string `json:"migrationGenerator" yaml:"migration_generator"`
	Install            []string `json:"install" yaml:"install"`
}

// Config is the resolved configuration. Relative paths are relative to
// the project root.
type Config struct {
	// Mode is the mode NODE_ENV names, or empty when NODE_ENV holds a
	// value toyshare does not recognize (e.g. "test"). Use ResolveMode.
	Mode model.Mode

	// ModeValue is NODE_ENV (or the mode key) as configured.
	ModeValue string

	Port              int
	Host              string
	BundlerConfigPath string
	DatabaseURL       string
	ServerEntry       string
	Schema            string
	MigrationsDir     string
	Dialect           string
	Tools             Tools

	// File is the config file that was read, empty when none was found.
	File string
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Root is the project root; toyshare.yaml and .env are looked up here.
	Root string

	// ConfigFile is an explicit config file; it must exist when set.
	ConfigFile string
}

// Load builds the Config. A missing .env or toyshare.yaml is not an error;
// an explicit ConfigFile that cannot be read is.
func Load(opts LoadOptions) (*Config, error) {
	// .env never overrides variables already present in the environment,
	// and child processes inherit what it sets.
	if err := godotenv.Load(filepath.Join(opts.Root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to load .env", err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.Root)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, model.WrapCLIError(model.ExitConfigError, "failed to read config file", err)
		}
	}

	v.SetEnvPrefix("TOYSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("mode", EnvMode)
	_ = v.BindEnv("port", EnvPort)
	_ = v.BindEnv("host", EnvHost)
	_ = v.BindEnv("bundler_config_path", EnvBundlerConfig)
	_ = v.BindEnv("database_url", EnvDatabaseURL)

	// Test runners and CI often export NODE_ENV=test; that must not stop
	// commands that pick their own mode.
	modeValue := strings.TrimSpace(v.GetString("mode"))
	mode, err := model.ParseMode(modeValue)
	if err != nil {
		mode = ""
	}

	port := v.GetInt("port")
	if port < 1 || port > 65535 {
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid %s: %q (must be 1-65535)", EnvPort, v.GetString("port")))
	}

	return &Config{
		Mode:              mode,
		ModeValue:         modeValue,
		Port:              port,
		Host:              v.GetString("host"),
		BundlerConfigPath: v.GetString("bundler_config_path"),
		DatabaseURL:       strings.TrimSpace(v.GetString("database_url")),
		ServerEntry:       v.GetString("server_entry"),
		Schema:            v.GetString("schema"),
		MigrationsDir:     v.GetString("migrations_dir"),
		Dialect:           v.GetString("dialect"),
		Tools: Tools{
			Interpreter:        v.GetStringSlice("tools.interpreter"),
			Node:               v.GetStringSlice("tools.node"),
			AssetBundler:       v.GetStringSlice("tools.asset_bundler"),
			ServerBundler:      v.GetStringSlice("tools.server_bundler"),
			MigrationGenerator: v.GetStringSlice("tools.migration_generator"),
			Install:            v.GetStringSlice("tools.install"),
		},
		File: v.ConfigFileUsed(),
	}, nil
}

// setDefaults registers the values the Node scripts hard-coded.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(model.ModeDevelopment))
	v.SetDefault("port", 5000)
	v.SetDefault("host", "")
	v.SetDefault("bundler_config_path", "vite.config.ts")
	v.SetDefault("database_url", "")
	v.SetDefault("server_entry", "server/index.ts")
	v.SetDefault("schema", "shared/schema.ts")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("dialect", "postgresql")
	v.SetDefault("tools.interpreter", []string{"npx", "tsx"})
	v.SetDefault("tools.node", []string{"node"})
	v.SetDefault("tools.asset_bundler", []string{"npx", "vite", "build"})
	v.SetDefault("tools.server_bundler", []string{"npx", "esbuild"})
	v.SetDefault("tools.migration_generator", []string{"npx", "drizzle-kit", "generate"})
	v.SetDefault("tools.install", []string{"npm", "install"})
}

// MissingEnvError reports a required environment variable that is unset
// or empty. It matches model.ErrMissingConfig under errors.Is.
type MissingEnvError struct {
	Var string
}

// Error implements the error interface for MissingEnvError.
func (e *MissingEnvError) Error() string {
	return e.Var + " environment variable not set"
}

// Is makes errors.Is(err, model.ErrMissingConfig) true.
func (e *MissingEnvError) Is(target error) bool {
	return target == model.ErrMissingConfig
}

// ResolveMode returns explicit when set, otherwise the configured mode.
// An unrecognized NODE_ENV falls back to development with a warning.
func (c *Config) ResolveMode(explicit model.Mode, logger *zap.Logger) model.Mode {
	if explicit != "" {
		return explicit
	}
	if c.Mode != "" {
		return c.Mode
	}
	if logger != nil {
		logger.Warn("unrecognized "+EnvMode+"; using development",
			zap.String("value", c.ModeValue))
	}
	return model.ModeDevelopment
}

// RequireDatabaseURL returns the connection string or a *MissingEnvError.
func (c *Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", &MissingEnvError{Var: EnvDatabaseURL}
	}
	return c.DatabaseURL, nil
}
