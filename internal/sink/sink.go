// Package sink relays normalized Particle events to other systems.
package sink

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	particle "github.com/tj-smith47/particle-go"
)

// Sink receives events from a stream.
//
// Write is called from a single goroutine; implementations need not be
// safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, ev particle.Event) error
	Close() error
}

// Multi fans every event out to several sinks.
type Multi []Sink

// Write delivers ev to every sink and aggregates their failures.
func (m Multi) Write(ctx context.Context, ev particle.Event) error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Write(ctx, ev); err != nil {
			result = multierror.Append(result, fmt.Errorf("%T: %w", s, err))
		}
	}
	return result.ErrorOrNil()
}

// Close closes every sink.
func (m Multi) Close() error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// envelope returns the cloud envelope of ev. Payloads that are objects
// but carry neither coreid nor published_at are not envelopes.
func envelope(ev particle.Event) (*particle.Envelope, bool) {
	obj, ok := ev.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	_, hasCore := obj["coreid"]
	_, hasPublished := obj["published_at"]
	if !hasCore && !hasPublished {
		return nil, false
	}
	env, err := ev.Envelope()
	if err != nil {
		return nil, false
	}
	return env, true
}

// coreID returns the publishing device of ev, or "".
func coreID(ev particle.Event) string {
	if env, ok := envelope(ev); ok {
		return env.CoreID
	}
	return ""
}
