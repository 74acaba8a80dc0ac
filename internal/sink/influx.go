package sink

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/config"
)

const influxPingTimeout = 5 * time.Second

// DefaultMeasurement is used when the configuration names none.
const DefaultMeasurement = "particle_event"

// InfluxSink writes one point per event.
type InfluxSink struct {
	client      influxdb2.Client
	writer      api.WriteAPIBlocking
	measurement string
	now         func() time.Time
}

// ConnectInflux creates a client for cfg and checks the server is healthy.
func ConnectInflux(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, influxPingTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb: ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb: server not healthy")
	}

	s := NewInfluxSink(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement)
	s.client = client
	return s, nil
}

// NewInfluxSink writes through w. An empty measurement means DefaultMeasurement.
func NewInfluxSink(w api.WriteAPIBlocking, measurement string) *InfluxSink {
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &InfluxSink{writer: w, measurement: measurement, now: time.Now}
}

// Write converts ev to a point and writes it.
func (s *InfluxSink) Write(ctx context.Context, ev particle.Event) error {
	if err := s.writer.WritePoint(ctx, s.Point(ev)); err != nil {
		return fmt.Errorf("influxdb: write %q: %w", ev.Name, err)
	}
	return nil
}

// Point builds the point for ev. Tags are the event name and, when known,
// the publishing device. Fields are the scalar leaves of the payload, keyed
// by their path joined with "_"; a scalar payload becomes the "value" field.
// The timestamp is published_at, or the current time.
func (s *InfluxSink) Point(ev particle.Event) *write.Point {
	tags := map[string]string{"name": ev.Name}
	fields := map[string]any{}
	ts := s.now()

	payload := ev.Data
	if env, ok := envelope(ev); ok {
		payload = env.Data
		if env.CoreID != "" {
			tags["coreid"] = env.CoreID
		}
		if !env.PublishedAt.IsZero() {
			ts = env.PublishedAt
		}
	}

	flatten("", payload, fields)
	if len(fields) == 0 {
		fields["value"] = ""
	}

	return write.NewPoint(s.measurement, tags, fields, ts)
}

// Close closes the underlying client, if this sink created it.
func (s *InfluxSink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func flatten(prefix string, v any, fields map[string]any) {
	key := prefix
	if key == "" {
		key = "value"
	}

	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			name := k
			if prefix != "" {
				name = prefix + "_" + k
			}
			flatten(name, child, fields)
		}
	case float64, bool, string:
		fields[key] = val
	case []any:
		for i, child := range val {
			flatten(fmt.Sprintf("%s_%d", key, i), child, fields)
		}
	}
}
