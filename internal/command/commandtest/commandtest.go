// Package commandtest has helpers for testing particle subcommands against a
// fake API server.
package commandtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/tj-smith47/particle-go/internal/command/base"
)

// Token is the access token written by Config.
const Token = "test-token"

var envVars = []string{
	"PARTICLE_USERNAME", "PARTICLE_PASSWORD", "PARTICLE_TOKEN", "PARTICLE_BASE_URL",
	"PARTICLE_TIMEOUT", "PARTICLE_TOKEN_FILE", "PARTICLE_LOG_LEVEL",
	"PARTICLE_MQTT_BROKER", "PARTICLE_MQTT_USERNAME", "PARTICLE_MQTT_PASSWORD",
	"PARTICLE_INFLUXDB_URL", "PARTICLE_INFLUXDB_TOKEN",
}

// ClearEnv blanks every PARTICLE_* override for the duration of t.
func ClearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

// NewCommand returns a base command writing to a mock UI.
func NewCommand(t *testing.T) (*base.Command, *cli.MockUi) {
	t.Helper()
	ui := cli.NewMockUi()
	return &base.Command{
		Log: hclog.New(&hclog.LoggerOptions{Name: t.Name(), Output: hclog.DefaultOutput, Level: hclog.Off}),
		UI:  ui,
	}, ui
}

// Server starts an API server for the duration of t.
func Server(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// TokenFile returns a token file path inside a temporary directory.
func TokenFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "token.json")
}

// WriteConfig writes a YAML config file and returns its path.
func WriteConfig(t *testing.T, content string) string {
	t.Helper()
	ClearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// Config writes a config pointing at serverURL with Token as the access
// token and returns its path. Extra YAML is appended verbatim.
func Config(t *testing.T, serverURL, extra string) string {
	t.Helper()
	return WriteConfig(t, fmt.Sprintf(
		"access_token: %s\nbase_url: %s\ntoken_file: %s\nlog_level: \"off\"\n%s",
		Token, serverURL, TokenFile(t), extra))
}
