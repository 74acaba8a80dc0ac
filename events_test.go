package particle

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{
			name: "object payload",
			in:   `{"a":1}`,
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "nested JSON string",
			in:   `{"data":"{\"x\":2}"}`,
			want: map[string]any{"data": map[string]any{"x": float64(2)}},
		},
		{
			name: "not JSON",
			in:   "not json",
			want: "not json",
		},
		{
			name: "nested string that is not JSON",
			in:   `{"data":"hello","ttl":60}`,
			want: map[string]any{"data": "hello", "ttl": float64(60)},
		},
		{
			name: "nested scalar JSON",
			in:   `{"data":"23.5"}`,
			want: map[string]any{"data": 23.5},
		},
		{
			name: "nested non-string data untouched",
			in:   `{"data":{"y":3}}`,
			want: map[string]any{"data": map[string]any{"y": float64(3)}},
		},
		{
			name: "top-level scalar",
			in:   `42`,
			want: float64(42),
		},
		{
			name: "empty string",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEvent(RawEvent{ID: "7", Name: "evt", Data: tt.in})
			assert.Equal(t, "7", got.ID)
			assert.Equal(t, "evt", got.Name)
			if diff := cmp.Diff(tt.want, got.Data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvent_Envelope(t *testing.T) {
	ev := NormalizeEvent(RawEvent{
		Name: "temperature",
		Data: `{"data":"{\"c\":21.5}","ttl":"60","published_at":"2024-03-04T05:06:07.000Z","coreid":"0123456789abcdef"}`,
	})

	env, err := ev.Envelope()
	require.NoError(t, err)
	assert.Equal(t, 60, env.TTL)
	assert.Equal(t, "0123456789abcdef", env.CoreID)
	assert.True(t, env.PublishedAt.Equal(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)), "published_at = %v", env.PublishedAt)
	assert.Equal(t, map[string]any{"c": 21.5}, env.Data)

	c, ok := GetFloat(env.Data, "c")
	assert.True(t, ok)
	assert.Equal(t, 21.5, c)
}

func TestEvent_Envelope_notObject(t *testing.T) {
	ev := NormalizeEvent(RawEvent{Name: "raw", Data: "plain"})
	_, err := ev.Envelope()
	assert.Error(t, err)
}

func TestEvent_Decode(t *testing.T) {
	type reading struct {
		CoreID      string    `json:"coreid"`
		TTL         int       `json:"ttl"`
		PublishedAt time.Time `json:"published_at"`
		Data        struct {
			Celsius float64 `json:"c"`
		} `json:"data"`
	}

	ev := NormalizeEvent(RawEvent{
		Name: "temperature",
		Data: `{"data":"{\"c\":\"19\"}","ttl":60,"published_at":"2024-03-04 05:06:07","coreid":"abc"}`,
	})

	var r reading
	require.NoError(t, ev.Decode(&r))
	assert.Equal(t, "abc", r.CoreID)
	assert.Equal(t, 60, r.TTL)
	assert.Equal(t, 19.0, r.Data.Celsius)
	assert.Equal(t, 2024, r.PublishedAt.Year())
}
