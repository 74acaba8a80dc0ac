package particle

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// RawEvent is one dispatched server-sent message before normalization.
type RawEvent struct {
	ID   string
	Name string
	Data string
}

// Event is a normalized stream message. Data holds the decoded JSON value
// when the payload was JSON, or the original string otherwise.
type Event struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Data any    `json:"data"`
}

// NormalizeEvent decodes raw.Data as JSON when possible. If the decoded value
// is an object whose "data" member is a string, that member is decoded one
// more level when possible. A failed decode at either level keeps the string.
func NormalizeEvent(raw RawEvent) Event {
	ev := Event{ID: raw.ID, Name: raw.Name, Data: raw.Data}

	decoded, ok := decodeJSONString(raw.Data)
	if !ok {
		return ev
	}

	if obj, isObj := decoded.(map[string]any); isObj {
		if inner, isStr := obj["data"].(string); isStr {
			if nested, ok := decodeJSONString(inner); ok {
				obj = maps.Clone(obj)
				obj["data"] = nested
				decoded = obj
			}
		}
	}

	ev.Data = decoded
	return ev
}

func decodeJSONString(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Envelope is the wrapper the cloud puts around every published event.
type Envelope struct {
	Data        any       `mapstructure:"data"`
	TTL         int       `mapstructure:"ttl"`
	PublishedAt time.Time `mapstructure:"published_at"`
	CoreID      string    `mapstructure:"coreid"`
}

// Envelope decodes the cloud envelope carried in e.Data. It fails when the
// payload was not a JSON object.
func (e Event) Envelope() (*Envelope, error) {
	if _, ok := e.Data.(map[string]any); !ok {
		return nil, fmt.Errorf("event %q: payload is not an object", e.Name)
	}

	var env Envelope
	if err := decodeInto(e.Data, &env, "mapstructure"); err != nil {
		return nil, fmt.Errorf("event %q: failed to decode envelope: %w", e.Name, err)
	}
	return &env, nil
}

// Decode decodes e.Data into v, a pointer to a struct or map. Struct fields
// are matched by their json tags; numeric strings convert to numbers and
// timestamps in any common layout convert to time.Time.
func (e Event) Decode(v any) error {
	if err := decodeInto(e.Data, v, "json"); err != nil {
		return fmt.Errorf("event %q: %w", e.Name, err)
	}
	return nil
}

func decodeInto(input, out any, tag string) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tag,
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       stringToTimeHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var timeType = reflect.TypeOf(time.Time{})

// stringToTimeHook converts strings in any layout dateparse knows, and unix
// seconds, to time.Time.
func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.String:
		s := reflect.ValueOf(data).String()
		if s == "" {
			return time.Time{}, nil
		}
		return dateparse.ParseAny(s)
	case reflect.Float64:
		return time.Unix(int64(reflect.ValueOf(data).Float()), 0).UTC(), nil
	default:
		return data, nil
	}
}
