package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	particle "github.com/tj-smith47/particle-go"
	"github.com/tj-smith47/particle-go/internal/command/base"
	"github.com/tj-smith47/particle-go/internal/config"
	"github.com/tj-smith47/particle-go/internal/sink"
)

type Command struct {
	*base.Command

	flagDevice string
	flagPrefix string
	flagFollow bool
	flagSink   string

	// connect opens the named sink. Nil means connectSink.
	connect func(ctx context.Context, cfg *config.Config, name string) (sink.Sink, error)

	// newBackOff returns the reconnect policy for -follow. Nil means
	// exponential backoff without an overall deadline.
	newBackOff func() backoff.BackOff
}

func (c *Command) Synopsis() string {
	return "Stream events, optionally relaying them to MQTT or InfluxDB"
}

func (c *Command) Help() string {
	return `Usage: particle events [options]

  Subscribes to the account's event stream, or one device's, and prints each
  event as a line of JSON. Payloads holding JSON are decoded.

  With -sink, events are also relayed to the MQTT broker or InfluxDB bucket
  named in the config file. With -follow, a dropped stream is reopened with
  exponential backoff until interrupted.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("events")
	f.StringVar(
		&c.flagDevice, "device", "",
		"Only stream events published by this device `id`.",
	)
	f.StringVar(
		&c.flagPrefix, "prefix", "",
		"Only stream events whose name starts with this `prefix`.",
	)
	f.BoolVar(
		&c.flagFollow, "follow", false,
		"Reconnect when the stream ends.",
	)
	f.StringVar(
		&c.flagSink, "sink", "",
		"Comma-separated `sinks` to relay events to: mqtt, influx.",
	)
	return f
}

func (c *Command) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client := c.Setup(ctx, c.Flags(), args)
	if client == nil {
		return 1
	}

	out, err := c.openSinks(ctx, cfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening sink: %v", err))
		return 1
	}
	if out != nil {
		defer func() {
			if err := out.Close(); err != nil {
				c.Log.Warn("error closing sinks", "error", err)
			}
		}()
	}

	if c.flagFollow {
		err = c.follow(ctx, client, out)
	} else {
		err = c.consume(ctx, client, out, func() {})
	}

	switch {
	case ctx.Err() != nil:
		return 0
	case errors.Is(err, particle.ErrStreamClosed) && !c.flagFollow:
		c.UI.Info("Stream closed by the server.")
		return 0
	case err != nil:
		c.UI.Error(fmt.Sprintf("error streaming events: %v", err))
		return 1
	}
	return 0
}

func (c *Command) subscribe(ctx context.Context, client *particle.Client) *particle.EventStream {
	if c.flagDevice != "" {
		return client.Device(c.flagDevice).Subscribe(ctx, c.flagPrefix)
	}
	return client.SubscribeEvents(ctx, c.flagPrefix)
}

// consume reads one stream to its end and returns the reason it ended.
// onOpen runs once the stream is connected.
func (c *Command) consume(ctx context.Context, client *particle.Client, out sink.Sink, onOpen func()) error {
	stream := c.subscribe(ctx, client)
	for n := range stream.Notifications() {
		switch n.Kind {
		case particle.NotifyOpen:
			c.Log.Info("event stream open", "path", stream.Path())
			onOpen()
		case particle.NotifyEvent:
			c.emit(ctx, n.Event, out)
		case particle.NotifyError:
			return n.Err
		}
	}
	return nil
}

// follow reopens the stream until ctx ends or a failure retrying cannot
// fix. Backoff restarts from its initial interval after every successful
// connection; a rate-limited reply waits for Retry-After first.
func (c *Command) follow(ctx context.Context, client *particle.Client, out sink.Sink) error {
	b := c.backOff()

	op := func() error {
		err := c.consume(ctx, client, out, b.Reset)
		switch {
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case particle.IsUnauthorized(err), particle.IsNotFound(err), particle.IsNoCredentials(err):
			return backoff.Permanent(err)
		}
		if err == nil {
			err = particle.ErrStreamClosed
		}
		if werr := particle.WaitForRateLimit(ctx, err); werr != nil {
			return backoff.Permanent(werr)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		c.Log.Warn("event stream ended, reconnecting", "error", err, "retry_in", next)
	}

	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

func (c *Command) backOff() backoff.BackOff {
	if c.newBackOff != nil {
		return c.newBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = time.Minute
	return b
}

// emit prints ev and relays it. Relay failures are logged and the stream
// carries on.
func (c *Command) emit(ctx context.Context, ev particle.Event, out sink.Sink) {
	line, err := json.Marshal(ev)
	if err != nil {
		c.Log.Warn("cannot encode event", "name", ev.Name, "error", err)
		return
	}
	c.UI.Output(string(line))

	if out == nil {
		return
	}
	if err := out.Write(ctx, ev); err != nil {
		c.Log.Warn("relay failed", "name", ev.Name, "error", err)
	}
}

func (c *Command) openSinks(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	if c.flagSink == "" {
		return nil, nil
	}

	connect := c.connect
	if connect == nil {
		connect = connectSink
	}

	var out sink.Multi
	for _, name := range strings.Split(c.flagSink, ",") {
		s, err := connect(ctx, cfg, strings.TrimSpace(name))
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		c.Log.Info("relaying events", "sink", name)
		out = append(out, s)
	}
	return out, nil
}

func connectSink(ctx context.Context, cfg *config.Config, name string) (sink.Sink, error) {
	switch name {
	case "mqtt":
		if cfg.MQTT.Broker == "" {
			return nil, errors.New("mqtt: no broker configured (mqtt.broker or PARTICLE_MQTT_BROKER)")
		}
		s, err := sink.ConnectMQTT(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "influx", "influxdb":
		if cfg.InfluxDB.URL == "" {
			return nil, errors.New("influxdb: no server configured (influxdb.url or PARTICLE_INFLUXDB_URL)")
		}
		s, err := sink.ConnectInflux(ctx, cfg.InfluxDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink %q, want mqtt or influx", name)
	}
}
