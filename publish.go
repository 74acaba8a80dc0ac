package particle

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultEventTTL is the ttl, in seconds, the cloud assigns when none is given.
const DefaultEventTTL = 60

// PublishEvent describes an event published to the account's event stream.
type PublishEvent struct {
	// Name is required. Subscribers filter on its prefix.
	Name string

	// Data is the payload, commonly JSON encoded by the publisher.
	Data string

	// Private limits delivery to the account's own devices and streams.
	Private bool

	// TTL in seconds. Zero leaves it to the cloud.
	TTL int
}

// PublishEvent publishes ev on the account's event stream.
func (c *Client) PublishEvent(ctx context.Context, ev *PublishEvent) error {
	if ev == nil || ev.Name == "" {
		return ErrEmptyEventName
	}

	form := url.Values{}
	form.Set("name", ev.Name)
	if ev.Data != "" {
		form.Set("data", ev.Data)
	}
	form.Set("private", strconv.FormatBool(ev.Private))
	if ev.TTL > 0 {
		form.Set("ttl", strconv.Itoa(ev.TTL))
	}

	_, err := c.dispatch(ctx, &Request{
		Method: http.MethodPost,
		Path:   "devices/events",
		Body:   form,
	})
	return err
}
