package particle

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ListDevices returns all devices claimed by the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	resp, err := c.dispatch(ctx, &Request{Path: "devices"})
	if err != nil {
		return nil, err
	}

	devices, err := unmarshalResponse[[]Device](resp.body, "device list")
	if err != nil {
		return nil, err
	}
	return *devices, nil
}

// GetDevice returns the detailed view of a single device.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*DeviceInfo, error) {
	return c.Device(deviceID).Info(ctx)
}

// ClaimDevice adds an unclaimed device to the account.
func (c *Client) ClaimDevice(ctx context.Context, deviceID string) (*ClaimResult, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	resp, err := c.dispatch(ctx, &Request{
		Method: http.MethodPost,
		Path:   "devices",
		Body:   url.Values{"id": {deviceID}},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalResponse[ClaimResult](resp.body, "claim response")
}

// RenameDevice changes the device name.
func (c *Client) RenameDevice(ctx context.Context, deviceID, name string) (*RenameResult, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if name == "" {
		return nil, ErrEmptyDeviceName
	}

	resp, err := c.dispatch(ctx, &Request{
		Method: http.MethodPut,
		Path:   devicePath(deviceID),
		Body:   url.Values{"name": {name}},
	})
	if err != nil {
		return nil, err
	}
	return unmarshalResponse[RenameResult](resp.body, "rename response")
}

// RemoveDevice releases the device from the account.
func (c *Client) RemoveDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	_, err := c.dispatch(ctx, &Request{
		Method: http.MethodDelete,
		Path:   devicePath(deviceID),
	})
	return err
}

// DeviceHandle addresses the operations of one device. It holds no state
// besides the client and the id, so creating one is free.
type DeviceHandle struct {
	client *Client
	id     string
}

// Device returns a handle for the device with the given id.
func (c *Client) Device(deviceID string) *DeviceHandle {
	return &DeviceHandle{client: c, id: deviceID}
}

// ID returns the device id.
func (d *DeviceHandle) ID() string {
	return d.id
}

// Info returns the detailed view of the device.
func (d *DeviceHandle) Info(ctx context.Context) (*DeviceInfo, error) {
	if d.id == "" {
		return nil, ErrEmptyDeviceID
	}

	resp, err := d.client.dispatch(ctx, &Request{Path: devicePath(d.id)})
	if err != nil {
		return nil, err
	}
	return unmarshalResponse[DeviceInfo](resp.body, "device")
}

// Variable reads a cloud variable.
func (d *DeviceHandle) Variable(ctx context.Context, name string) (*VariableValue, error) {
	if d.id == "" {
		return nil, ErrEmptyDeviceID
	}
	if name == "" {
		return nil, ErrEmptyVariable
	}

	resp, err := d.client.dispatch(ctx, &Request{Path: devicePath(d.id, name)})
	if err != nil {
		return nil, err
	}
	return unmarshalResponse[VariableValue](resp.body, "variable")
}

// Call invokes a cloud function without an argument. The request carries no
// args field at all.
func (d *DeviceHandle) Call(ctx context.Context, fn string) (*FunctionResult, error) {
	return d.call(ctx, fn, nil)
}

// CallWithArg invokes a cloud function with arg sent as the args field.
// An empty arg is still sent.
func (d *DeviceHandle) CallWithArg(ctx context.Context, fn, arg string) (*FunctionResult, error) {
	return d.call(ctx, fn, &arg)
}

func (d *DeviceHandle) call(ctx context.Context, fn string, arg *string) (*FunctionResult, error) {
	if d.id == "" {
		return nil, ErrEmptyDeviceID
	}
	if fn == "" {
		return nil, ErrEmptyFunction
	}

	req := &Request{Method: http.MethodPost, Path: devicePath(d.id, fn)}
	if arg != nil {
		req.Body = url.Values{"args": {*arg}}
	}

	resp, err := d.client.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return unmarshalResponse[FunctionResult](resp.body, "function result")
}

// Rename changes the device name.
func (d *DeviceHandle) Rename(ctx context.Context, name string) (*RenameResult, error) {
	return d.client.RenameDevice(ctx, d.id, name)
}

// Remove releases the device from the account.
func (d *DeviceHandle) Remove(ctx context.Context) error {
	return d.client.RemoveDevice(ctx, d.id)
}

// devicePath builds "devices/<id>[/<segment>...]" with each part escaped.
func devicePath(deviceID string, segments ...string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, "devices", url.PathEscape(deviceID))
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

// FilterDevices returns devices that match the filter function.
func FilterDevices(devices []Device, filter func(Device) bool) []Device {
	var result []Device
	for _, d := range devices {
		if filter(d) {
			result = append(result, d)
		}
	}
	return result
}

// ConnectedDevices returns devices currently online.
func ConnectedDevices(devices []Device) []Device {
	return FilterDevices(devices, func(d Device) bool { return d.Connected })
}

// FindDeviceByName returns the first device with the given name (case-insensitive).
func FindDeviceByName(devices []Device, name string) *Device {
	for i := range devices {
		if strings.EqualFold(devices[i].Name, name) {
			return &devices[i]
		}
	}
	return nil
}

// FindDeviceByID returns the device with the given ID.
func FindDeviceByID(devices []Device, deviceID string) *Device {
	for i := range devices {
		if devices[i].ID == deviceID {
			return &devices[i]
		}
	}
	return nil
}
