package particle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

func TestClient_ListDevices(t *testing.T) {
	t.Run("successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/devices" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/v1/devices")
			}
			w.Write([]byte(`[
				{"id":"dev-1","name":"garage","connected":true,"platform_id":6,"last_heard":"2024-01-02T03:04:05.000Z"},
				{"id":"dev-2","name":"porch","connected":false,"platform_id":13,"last_heard":null}
			]`))
		}))
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		devices, err := client.ListDevices(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(devices) != 2 {
			t.Fatalf("got %d devices, want 2", len(devices))
		}
		if devices[0].Name != "garage" || !devices[0].Connected || devices[0].PlatformID != PlatformPhoton {
			t.Errorf("devices[0] = %+v", devices[0])
		}
		if devices[0].LastHeard.Year() != 2024 {
			t.Errorf("devices[0].LastHeard = %v", devices[0].LastHeard)
		}
		if !devices[1].LastHeard.IsZero() {
			t.Errorf("devices[1].LastHeard = %v, want zero", devices[1].LastHeard)
		}
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_token","error_description":"The access token provided is invalid."}`))
		}))
		defer server.Close()

		client, _ := NewClient("bad", WithBaseURL(server.URL))
		devices, err := client.ListDevices(context.Background())
		if devices != nil {
			t.Errorf("devices = %v, want nil", devices)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("error = %v, want *APIError", err)
		}
		if apiErr.ErrorCode != "invalid_token" || apiErr.Description != "The access token provided is invalid." {
			t.Errorf("apiErr = %+v", apiErr)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		_, err := client.ListDevices(context.Background())
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("error = %v, want ErrInvalidResponse", err)
		}
	})
}

func TestDeviceHandle_Info(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/devices/dev-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":"dev-1","name":"garage","connected":true,"variables":{"temp":"double"},"functions":["led","reset"]}`))
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))
	info, err := client.GetDevice(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != "dev-1" || info.Name != "garage" {
		t.Errorf("info = %+v", info)
	}
	if !info.HasFunction("led") || info.HasFunction("nope") {
		t.Errorf("functions = %v", info.Functions)
	}
	if !info.HasVariable("temp") {
		t.Errorf("variables = %v", info.Variables)
	}
}

func TestDeviceHandle_Variable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v1/devices/dev-1/temp" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"cmd":"VarReturn","name":"temp","result":21.5,"coreInfo":{"deviceID":"dev-1","connected":true}}`))
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))
	v, err := client.Device("dev-1").Variable(context.Background(), "temp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, ok := GetFloat(v.Result); !ok || f != 21.5 {
		t.Errorf("result = %v", v.Result)
	}
	if v.CoreInfo.DeviceID != "dev-1" || !v.CoreInfo.Connected {
		t.Errorf("coreInfo = %+v", v.CoreInfo)
	}
}

// functionServer records the form of every function call it receives.
func functionServer(t *testing.T, reply string, forms chan<- url.Values) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/devices/dev-1/led" {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Errorf("body %q: %v", body, err)
		}
		forms <- form
		w.Write([]byte(reply))
	}))
}

func TestDeviceHandle_Call(t *testing.T) {
	t.Run("with argument sends args", func(t *testing.T) {
		forms := make(chan url.Values, 1)
		server := functionServer(t, `{"id":"dev-1","connected":true,"return_value":1}`, forms)
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		res, err := client.Device("dev-1").CallWithArg(context.Background(), "led", "on")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ReturnValue != 1 {
			t.Errorf("return_value = %d, want 1", res.ReturnValue)
		}
		form := <-forms
		if got := form["args"]; len(got) != 1 || got[0] != "on" {
			t.Errorf("args = %v, want [on]", got)
		}
	})

	t.Run("without argument sends no args field", func(t *testing.T) {
		forms := make(chan url.Values, 1)
		server := functionServer(t, `{"id":"dev-1","return_value":0}`, forms)
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		if _, err := client.Device("dev-1").Call(context.Background(), "led"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		form := <-forms
		if _, ok := form["args"]; ok {
			t.Errorf("args present: %v", form)
		}
	})

	t.Run("empty argument is still sent", func(t *testing.T) {
		forms := make(chan url.Values, 1)
		server := functionServer(t, `{"id":"dev-1","return_value":0}`, forms)
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		if _, err := client.Device("dev-1").CallWithArg(context.Background(), "led", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		form := <-forms
		if got, ok := form["args"]; !ok || got[0] != "" {
			t.Errorf("args = %v, want [\"\"]", got)
		}
	})

	t.Run("failure return value", func(t *testing.T) {
		forms := make(chan url.Values, 1)
		server := functionServer(t, `{"id":"dev-1","return_value":-1}`, forms)
		defer server.Close()

		client, _ := NewClient("token", WithBaseURL(server.URL))
		res, err := client.Device("dev-1").CallWithArg(context.Background(), "led", "bogus")
		if res != nil {
			t.Errorf("result = %+v, want nil", res)
		}
		var failed *ActionFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("error = %v, want *ActionFailedError", err)
		}
		if id, _ := GetString(failed.Data, "id"); id != "dev-1" {
			t.Errorf("payload = %v", failed.Data)
		}
	})
}

func TestClient_ClaimDevice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/devices" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("id"); got != "dev-9" {
			t.Errorf("id = %q", got)
		}
		w.Write([]byte(`{"ok":true,"id":"dev-9","user_id":"u1"}`))
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))
	res, err := client.ClaimDevice(context.Background(), "dev-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK || res.ID != "dev-9" {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_RenameAndRemove(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			r.ParseForm()
			if got := r.PostForm.Get("name"); got != "attic" {
				t.Errorf("name = %q", got)
			}
			w.Write([]byte(`{"id":"dev-1","name":"attic","updated_at":"2024-05-06T07:08:09Z"}`))
		case http.MethodDelete:
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))
	res, err := client.Device("dev-1").Rename(context.Background(), "attic")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if res.Name != "attic" {
		t.Errorf("name = %q", res.Name)
	}
	if err := client.Device("dev-1").Remove(context.Background()); err != nil {
		t.Fatalf("remove: %v", err)
	}

	want := []string{"PUT /v1/devices/dev-1", "DELETE /v1/devices/dev-1"}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestDevice_validation(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))
	ctx := context.Background()

	checks := []struct {
		name string
		err  error
		want error
	}{
		{"info", errOf(client.Device("").Info(ctx)), ErrEmptyDeviceID},
		{"variable id", errOf(client.Device("").Variable(ctx, "v")), ErrEmptyDeviceID},
		{"variable name", errOf(client.Device("d").Variable(ctx, "")), ErrEmptyVariable},
		{"call", errOf(client.Device("d").Call(ctx, "")), ErrEmptyFunction},
		{"claim", errOf(client.ClaimDevice(ctx, "")), ErrEmptyDeviceID},
		{"rename id", errOf(client.RenameDevice(ctx, "", "n")), ErrEmptyDeviceID},
		{"rename name", errOf(client.RenameDevice(ctx, "d", "")), ErrEmptyDeviceName},
		{"remove", client.RemoveDevice(ctx, ""), ErrEmptyDeviceID},
		{"publish", client.PublishEvent(ctx, &PublishEvent{}), ErrEmptyEventName},
		{"publish nil", client.PublishEvent(ctx, nil), ErrEmptyEventName},
		{"delete token", client.DeleteAccessToken(ctx, ""), ErrEmptyAccessToken},
	}
	for _, c := range checks {
		if !errors.Is(c.err, c.want) {
			t.Errorf("%s: error = %v, want %v", c.name, c.err, c.want)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func errOf[T any](_ T, err error) error { return err }

func TestDevicePath(t *testing.T) {
	if got := devicePath("a b", "x/y"); got != "devices/a%20b/x%2Fy" {
		t.Errorf("devicePath = %q", got)
	}
}

func TestClient_Devices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a"},{"id":"b"},{"id":"c"}]`))
	}))
	defer server.Close()

	client, _ := NewClient("token", WithBaseURL(server.URL))

	var ids []string
	for d, err := range client.Devices(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, d.ID)
		if len(ids) == 2 {
			break
		}
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v", ids)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range client.Devices(ctx) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	}
}

func TestDeviceFilters(t *testing.T) {
	devices := []Device{
		{ID: "1", Name: "Garage", Connected: true},
		{ID: "2", Name: "porch"},
	}

	if got := ConnectedDevices(devices); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("ConnectedDevices = %v", got)
	}
	if d := FindDeviceByName(devices, "garage"); d == nil || d.ID != "1" {
		t.Errorf("FindDeviceByName = %v", d)
	}
	if d := FindDeviceByID(devices, "2"); d == nil || d.Name != "porch" {
		t.Errorf("FindDeviceByID = %v", d)
	}
	if d := FindDeviceByID(devices, "3"); d != nil {
		t.Errorf("FindDeviceByID = %v, want nil", d)
	}
}
