// Package config loads the particle CLI configuration.
//
// A configuration file is YAML or TOML, chosen by extension. ${VAR}
// references are expanded before parsing, then PARTICLE_* environment
// variables override whatever the file set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	particle "github.com/tj-smith47/particle-go"
)

// Config is the CLI configuration.
type Config struct {
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	AccessToken string `yaml:"access_token" toml:"access_token"`

	// BaseURL overrides the API host, e.g. for a local mock.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// Timeout is a Go duration string such as "15s".
	Timeout string `yaml:"timeout" toml:"timeout"`

	// TokenFile is where login saves the exchanged token.
	TokenFile string `yaml:"token_file" toml:"token_file"`

	LogLevel string `yaml:"log_level" toml:"log_level"`

	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" toml:"influxdb"`
}

// MQTTConfig configures the MQTT event relay.
type MQTTConfig struct {
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	QoS         int    `yaml:"qos" toml:"qos"`
	Retained    bool   `yaml:"retained" toml:"retained"`
}

// InfluxDBConfig configures the InfluxDB event relay.
type InfluxDBConfig struct {
	URL         string `yaml:"url" toml:"url"`
	Token       string `yaml:"token" toml:"token"`
	Org         string `yaml:"org" toml:"org"`
	Bucket      string `yaml:"bucket" toml:"bucket"`
	Measurement string `yaml:"measurement" toml:"measurement"`
}

var brokerPattern = regexp.MustCompile(`^(tcp|ssl|tls|ws|wss|mqtt|mqtts)://[^/]+$`)

// Validate implements validation.Validatable. An empty broker means the
// relay is not configured.
func (m MQTTConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Broker, validation.Match(brokerPattern).Error("must look like tcp://host:port")),
		validation.Field(&m.ClientID, validation.When(m.Broker != "", validation.Required)),
		validation.Field(&m.QoS, validation.Min(0), validation.Max(2)),
		validation.Field(&m.TopicPrefix, validation.When(m.Broker != "", validation.Required)),
	)
}

// Validate implements validation.Validatable. An empty URL means the relay
// is not configured.
func (i InfluxDBConfig) Validate() error {
	configured := i.URL != ""
	return validation.ValidateStruct(&i,
		validation.Field(&i.URL, is.URL),
		validation.Field(&i.Token, validation.When(configured, validation.Required)),
		validation.Field(&i.Org, validation.When(configured, validation.Required)),
		validation.Field(&i.Bucket, validation.When(configured, validation.Required)),
	)
}

// Validate checks the whole configuration. Credentials are not required
// here; a saved token may stand in for them, and a username alone is kept
// for login to prompt for the password.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, validation.When(c.Password != "", validation.Required)),
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.Timeout, validation.By(durationRule)),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error", "off")),
		validation.Field(&c.MQTT),
		validation.Field(&c.InfluxDB),
	)
}

func durationRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 15s")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// TimeoutDuration returns the parsed request timeout, or zero.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// HasCredentials reports whether the file or environment supplied a token
// or a username/password pair.
func (c *Config) HasCredentials() bool {
	return c.AccessToken != "" || (c.Username != "" && c.Password != "")
}

// Particle converts the configuration into a library Config.
func (c *Config) Particle() *particle.Config {
	return &particle.Config{
		Username:    c.Username,
		Password:    c.Password,
		AccessToken: c.AccessToken,
		Timeout:     c.TimeoutDuration(),
	}
}

// Dir returns the directory holding the default config and token files.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "particle")
}

// DefaultPath returns $XDG_CONFIG_HOME/particle/config.yaml.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		TokenFile: filepath.Join(Dir(), "token.json"),
		LogLevel:  "info",
		MQTT: MQTTConfig{
			ClientID:    "particle-go",
			TopicPrefix: "particle",
		},
		InfluxDB: InfluxDBConfig{
			Measurement: "particle_event",
		},
	}
}

// Load reads the configuration at path from the OS filesystem.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads the configuration at path from fs. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := decode(path, expandEnvVars(string(data)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func decode(path, data string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(data, cfg)
		return err
	default:
		return yaml.Unmarshal([]byte(data), cfg)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyEnvOverrides applies PARTICLE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"PARTICLE_USERNAME", &cfg.Username},
		{"PARTICLE_PASSWORD", &cfg.Password},
		{"PARTICLE_TOKEN", &cfg.AccessToken},
		{"PARTICLE_BASE_URL", &cfg.BaseURL},
		{"PARTICLE_TIMEOUT", &cfg.Timeout},
		{"PARTICLE_TOKEN_FILE", &cfg.TokenFile},
		{"PARTICLE_LOG_LEVEL", &cfg.LogLevel},
		{"PARTICLE_MQTT_BROKER", &cfg.MQTT.Broker},
		{"PARTICLE_MQTT_USERNAME", &cfg.MQTT.Username},
		{"PARTICLE_MQTT_PASSWORD", &cfg.MQTT.Password},
		{"PARTICLE_INFLUXDB_URL", &cfg.InfluxDB.URL},
		{"PARTICLE_INFLUXDB_TOKEN", &cfg.InfluxDB.Token},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}
