package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// envPrefix is the prefix for environment overrides, e.g.
// STACKCTL_BACKUP_ROOT overrides backup.root.
const envPrefix = "STACKCTL"

// Config represents the top-level YAML configuration file. It is built once
// at process start and passed into each component; nothing mutates it after
// Load returns.
type Config struct {
	Dependencies []Dependency    `mapstructure:"dependencies" yaml:"dependencies"`
	Backup       BackupConfig    `mapstructure:"backup"       yaml:"backup"`
	Retention    RetentionConfig `mapstructure:"retention"    yaml:"retention"`
	Migrate      StepConfig      `mapstructure:"migrate"      yaml:"migrate"`
	Seed         SeedConfig      `mapstructure:"seed"         yaml:"seed"`
	Schedule     string          `mapstructure:"schedule"     yaml:"schedule,omitempty"`
	Vault        VaultConfig     `mapstructure:"vault"        yaml:"vault"`

	// Per-store groups
	Postgres StoreConfig `mapstructure:"postgres" yaml:"postgres"`
	MongoDB  StoreConfig `mapstructure:"mongodb"  yaml:"mongodb"`
	Redis    StoreConfig `mapstructure:"redis"    yaml:"redis"`
}

// Dependency declares one service endpoint the startup gate must see
// accepting connections before the application is allowed to start.
type Dependency struct {
	Name     string        `mapstructure:"name"     yaml:"name"`
	Host     string        `mapstructure:"host"     yaml:"host"`
	Port     string        `mapstructure:"port"     yaml:"port"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval,omitempty"`
	MaxWait  time.Duration `mapstructure:"max_wait" yaml:"max_wait,omitempty"`
}

// BackupConfig contains global backup options.
type BackupConfig struct {
	Root            string        `mapstructure:"root"             yaml:"root"`
	Compress        bool          `mapstructure:"compress"         yaml:"compress"`
	TimestampFormat string        `mapstructure:"timestamp_format" yaml:"timestamp_format"`
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout"`
}

// RetentionConfig specifies how long artifacts are kept, per store directory.
type RetentionConfig struct {
	MaxAgeDays int `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// StepConfig describes an opaque external command, e.g. the migration runner.
type StepConfig struct {
	Command string        `mapstructure:"command" yaml:"command"`
	Args    []string      `mapstructure:"args"    yaml:"args,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// SeedConfig gates and describes the optional initial-data seed step.
type SeedConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Command string   `mapstructure:"command" yaml:"command,omitempty"`
	Args    []string `mapstructure:"args"    yaml:"args,omitempty"`
}

// VaultConfig holds connection settings for HashiCorp Vault. When Address is
// empty, credentials come from the store groups directly.
type VaultConfig struct {
	Address  string `mapstructure:"address"   yaml:"address,omitempty"`
	RoleID   string `mapstructure:"role_id"   yaml:"role_id,omitempty"`
	RoleName string `mapstructure:"role_name" yaml:"role_name,omitempty"`
}

// StoreConfig holds connection settings for a single data store.
type StoreConfig struct {
	Host     string `mapstructure:"host"      yaml:"host"`
	Port     string `mapstructure:"port"      yaml:"port"`
	Username string `mapstructure:"username"  yaml:"username,omitempty"`
	Password string `mapstructure:"password"  yaml:"password,omitempty"`
	Database string `mapstructure:"database"  yaml:"database,omitempty"`
	Method   string `mapstructure:"method"    yaml:"method,omitempty"`
	// Vault paths: RolePath reads dynamic credentials from a database
	// secrets engine role, SecretPath reads a static KV entry.
	RolePath   string `mapstructure:"role_path"   yaml:"role_path,omitempty"`
	SecretPath string `mapstructure:"secret_path" yaml:"secret_path,omitempty"`
}

// Load reads the configuration from the given YAML file using Viper and
// unmarshals into the Config struct. Every key is overridable from the
// environment with the STACKCTL_ prefix.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about. Credentials
	// are normally kept out of the config file, so bind their keys
	// explicitly or the env overrides would be silently ignored.
	for _, group := range []string{"postgres", "mongodb", "redis"} {
		for _, key := range []string{"host", "port", "username", "password", "database"} {
			if err := v.BindEnv(group + "." + key); err != nil {
				return fmt.Errorf("%w: bind env %s.%s: %v", ErrLoadConfig, group, key, err)
			}
		}
	}
	for _, key := range []string{"vault.address", "vault.role_id", "vault.role_name"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("%w: bind env %s: %v", ErrLoadConfig, key, err)
		}
	}

	v.SetDefault("backup.root", "./backups")
	v.SetDefault("backup.compress", true)
	v.SetDefault("backup.timestamp_format", "20060102_150405")
	v.SetDefault("backup.timeout", 15*time.Minute)
	v.SetDefault("retention.max_age_days", 30)
	v.SetDefault("migrate.timeout", 10*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config %s: %v", ErrLoadConfig, path, err)
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	c.applyDependencyDefaults()

	return c.Validate()
}

const (
	defaultProbeInterval = 2 * time.Second
	defaultProbeMaxWait  = 60 * time.Second
)

func (c *Config) applyDependencyDefaults() {
	for i := range c.Dependencies {
		if c.Dependencies[i].Interval == 0 {
			c.Dependencies[i].Interval = defaultProbeInterval
		}
		if c.Dependencies[i].MaxWait == 0 {
			c.Dependencies[i].MaxWait = defaultProbeMaxWait
		}
	}
}

// Validate checks the invariants the rest of the tool relies on.
func (c *Config) Validate() error {
	for _, dep := range c.Dependencies {
		if dep.Name == "" || dep.Host == "" || dep.Port == "" {
			return fmt.Errorf(
				"%w: dependency %q needs name, host and port",
				ErrValidateConfig, dep.Name,
			)
		}
		if dep.Interval <= 0 {
			return fmt.Errorf(
				"%w: dependency %q: interval must be positive",
				ErrValidateConfig, dep.Name,
			)
		}
		if dep.MaxWait <= 0 {
			return fmt.Errorf(
				"%w: dependency %q: max_wait must be positive",
				ErrValidateConfig, dep.Name,
			)
		}
		if dep.Interval >= dep.MaxWait {
			return fmt.Errorf(
				"%w: dependency %q: interval must be shorter than max_wait",
				ErrValidateConfig, dep.Name,
			)
		}
	}
	if c.Backup.Root == "" {
		return fmt.Errorf("%w: backup.root is required", ErrValidateConfig)
	}
	if c.Retention.MaxAgeDays <= 0 {
		return fmt.Errorf(
			"%w: retention.max_age_days must be positive",
			ErrValidateConfig,
		)
	}
	return nil
}
