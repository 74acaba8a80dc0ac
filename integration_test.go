//go:build integration

package particle

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration tests run against the live Particle cloud.
// Run with: go test -tags=integration -v
//
// Environment variables:
//   PARTICLE_TOKEN - access token (required unless username/password are set)
//   PARTICLE_USERNAME, PARTICLE_PASSWORD - account credentials (optional)
//   PARTICLE_DEVICE_ID - device for info and stream tests (optional)

func getTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := &Config{
		AccessToken: os.Getenv("PARTICLE_TOKEN"),
		Username:    os.Getenv("PARTICLE_USERNAME"),
		Password:    os.Getenv("PARTICLE_PASSWORD"),
	}
	if cfg.AccessToken == "" && (cfg.Username == "" || cfg.Password == "") {
		t.Skip("PARTICLE_TOKEN or PARTICLE_USERNAME/PARTICLE_PASSWORD not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClientFromConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	return client
}

func getTestDeviceID(t *testing.T) string {
	id := os.Getenv("PARTICLE_DEVICE_ID")
	if id == "" {
		t.Skip("PARTICLE_DEVICE_ID not set, skipping device test")
	}
	return id
}

func TestIntegration_ListDevices(t *testing.T) {
	client := getTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	devices, err := client.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}

	t.Logf("Found %d devices", len(devices))
	for _, d := range devices {
		t.Logf("  - %s (%s): connected=%v", d.Name, d.ID, d.Connected)
	}
}

func TestIntegration_DeviceInfo(t *testing.T) {
	client := getTestClient(t)
	id := getTestDeviceID(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := client.Device(id).Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}

	t.Logf("Device %s: functions=%v variables=%v", info.Name, info.Functions, info.Variables)
}

func TestIntegration_ListAccessTokens(t *testing.T) {
	client := getTestClient(t)
	if _, _, ok := client.creds.basic(); !ok {
		t.Skip("PARTICLE_USERNAME/PARTICLE_PASSWORD not set, skipping token list")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := client.ListAccessTokens(ctx)
	if err != nil {
		t.Fatalf("ListAccessTokens: %v", err)
	}
	t.Logf("Found %d access tokens", len(tokens))
}

func TestIntegration_PublishAndSubscribe(t *testing.T) {
	client := getTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := "particle-go-it-" + time.Now().Format("150405")
	stream := client.SubscribeEvents(ctx, name)
	defer stream.Close()

	for n := range stream.Notifications() {
		switch n.Kind {
		case NotifyOpen:
			if err := client.PublishEvent(ctx, &PublishEvent{Name: name, Data: `{"ok":true}`, Private: true}); err != nil {
				t.Fatalf("PublishEvent: %v", err)
			}
		case NotifyEvent:
			t.Logf("received %s: %v", n.Event.Name, n.Event.Data)
			return
		case NotifyError:
			t.Fatalf("stream error before event: %v", n.Err)
		}
	}
}
