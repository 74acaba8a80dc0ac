package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PARTICLE_USERNAME", "PARTICLE_PASSWORD", "PARTICLE_TOKEN", "PARTICLE_BASE_URL",
		"PARTICLE_TIMEOUT", "PARTICLE_TOKEN_FILE", "PARTICLE_LOG_LEVEL",
		"PARTICLE_MQTT_BROKER", "PARTICLE_MQTT_USERNAME", "PARTICLE_MQTT_PASSWORD",
		"PARTICLE_INFLUXDB_URL", "PARTICLE_INFLUXDB_TOKEN",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/particle.yaml", `
username: john
password: doe
timeout: 15s
log_level: debug
mqtt:
  broker: tcp://localhost:1883
  topic_prefix: home/particle
  qos: 1
`)

	cfg, err := LoadFs(fs, "/etc/particle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "john", cfg.Username)
	assert.Equal(t, "doe", cfg.Password)
	assert.Equal(t, 15*time.Second, cfg.TimeoutDuration())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "home/particle", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 1, cfg.MQTT.QoS)
	// Defaults survive fields the file leaves out.
	assert.Equal(t, "particle-go", cfg.MQTT.ClientID)
	assert.Equal(t, "particle_event", cfg.InfluxDB.Measurement)
	assert.True(t, cfg.HasCredentials())

	pc := cfg.Particle()
	assert.Equal(t, "john", pc.Username)
	assert.Equal(t, 15*time.Second, pc.Timeout)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/cfg/particle.toml", `
access_token = "abc"
base_url = "http://localhost:9000"

[influxdb]
url = "http://localhost:8086"
token = "influx"
org = "home"
bucket = "events"
`)

	cfg, err := LoadFs(fs, "/cfg/particle.toml")
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.AccessToken)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, "events", cfg.InfluxDB.Bucket)
}

func TestLoad_expandsEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_PARTICLE_SECRET", "s3cret")

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "username: john\npassword: ${MY_PARTICLE_SECRET}\n")

	cfg, err := LoadFs(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Password)
}

func TestLoad_envOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARTICLE_TOKEN", "from-env")
	t.Setenv("PARTICLE_LOG_LEVEL", "warn")

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c.yaml", "access_token: from-file\nlog_level: debug\n")

	cfg, err := LoadFs(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AccessToken)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_missingFiles(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()

	_, err := LoadFs(fs, "/nonexistent/config.yaml")
	assert.Error(t, err, "explicit path must exist")

	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	cfg, err := LoadFs(fs, "")
	require.NoError(t, err, "missing default file falls back to defaults")
	assert.Equal(t, filepath.Join("/xdg", "particle", "token.json"), cfg.TokenFile)
	assert.False(t, cfg.HasCredentials())
}

func TestLoad_defaultPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/particle/config.yaml", DefaultPath())

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/xdg/particle/config.yaml", "access_token: t\n")

	cfg, err := LoadFs(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.AccessToken)
}

func TestLoad_invalidSyntax(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/bad.yaml", "username: [unclosed\n")

	_, err := LoadFs(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "parsing config file")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"username without password", func(c *Config) { c.Username = "john" }, false},
		{"password without username", func(c *Config) { c.Password = "doe" }, true},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = "-1s" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad base url", func(c *Config) { c.BaseURL = "not a url" }, true},
		{"mqtt broker", func(c *Config) { c.MQTT.Broker = "tcp://broker:1883" }, false},
		{"mqtt broker without scheme", func(c *Config) { c.MQTT.Broker = "broker:1883" }, true},
		{"mqtt qos", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"mqtt without client id", func(c *Config) {
			c.MQTT.Broker = "tcp://broker:1883"
			c.MQTT.ClientID = ""
		}, true},
		{"influx complete", func(c *Config) {
			c.InfluxDB = InfluxDBConfig{URL: "http://localhost:8086", Token: "t", Org: "o", Bucket: "b"}
		}, false},
		{"influx without bucket", func(c *Config) {
			c.InfluxDB = InfluxDBConfig{URL: "http://localhost:8086", Token: "t", Org: "o"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
