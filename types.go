package particle

import "time"

// Platform IDs reported in Device.PlatformID.
const (
	PlatformCore     = 0
	PlatformPhoton   = 6
	PlatformP1       = 8
	PlatformElectron = 10
	PlatformArgon    = 12
	PlatformBoron    = 13
	PlatformXenon    = 14
)

// Device represents a device as returned by the device list.
type Device struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	LastApp               string    `json:"last_app,omitempty"`
	LastIPAddress         string    `json:"last_ip_address,omitempty"`
	LastHeard             time.Time `json:"last_heard"`
	ProductID             int       `json:"product_id"`
	PlatformID            int       `json:"platform_id"`
	Connected             bool      `json:"connected"`
	Cellular              bool      `json:"cellular,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	Status                string    `json:"status,omitempty"`
	SerialNumber          string    `json:"serial_number,omitempty"`
	SystemFirmwareVersion string    `json:"system_firmware_version,omitempty"`
}

// DeviceInfo is the detailed view of one device, including the cloud
// variables and functions its firmware registered.
type DeviceInfo struct {
	Device
	Variables          map[string]string `json:"variables,omitempty"`
	Functions          []string          `json:"functions,omitempty"`
	CC3000PatchVersion string            `json:"cc3000_patch_version,omitempty"`
	RequiresDeepUpdate bool              `json:"requires_deep_update,omitempty"`
}

// HasFunction reports whether the firmware registered fn.
func (d *DeviceInfo) HasFunction(fn string) bool {
	for _, f := range d.Functions {
		if f == fn {
			return true
		}
	}
	return false
}

// HasVariable reports whether the firmware registered a variable called name.
func (d *DeviceInfo) HasVariable(name string) bool {
	_, ok := d.Variables[name]
	return ok
}

// CoreInfo is the device summary attached to a variable read.
type CoreInfo struct {
	DeviceID  string    `json:"deviceID"`
	LastApp   string    `json:"last_app,omitempty"`
	LastHeard time.Time `json:"last_heard"`
	Connected bool      `json:"connected"`
}

// VariableValue is the reply to a variable read. Result keeps the JSON type
// the firmware declared (number, string or bool).
type VariableValue struct {
	Cmd      string   `json:"cmd"`
	Name     string   `json:"name"`
	Result   any      `json:"result"`
	CoreInfo CoreInfo `json:"coreInfo"`
}

// FunctionResult is the reply to a function call.
type FunctionResult struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	LastApp     string `json:"last_app,omitempty"`
	Connected   bool   `json:"connected"`
	ReturnValue int    `json:"return_value"`
}

// ClaimResult is the reply to a claim request.
type ClaimResult struct {
	OK        bool   `json:"ok"`
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Connected bool   `json:"connected,omitempty"`
}

// RenameResult is the reply to a rename request.
type RenameResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccessToken is one entry of the account's token list.
type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Client    string    `json:"client,omitempty"`
}
