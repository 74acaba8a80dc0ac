package particle

import (
	"context"
	"iter"

	"golang.org/x/oauth2"
)

// ParticleClient defines the interface for Particle cloud operations.
// Client implements it; depend on the interface to substitute a fake in tests.
type ParticleClient interface {
	// ============================================================================
	// Raw Dispatch
	// ============================================================================

	Do(ctx context.Context, req *Request) (any, error)
	DoAsync(ctx context.Context, req *Request) *Future

	// ============================================================================
	// Device Operations
	// ============================================================================

	ListDevices(ctx context.Context) ([]Device, error)
	GetDevice(ctx context.Context, deviceID string) (*DeviceInfo, error)
	Device(deviceID string) *DeviceHandle
	ClaimDevice(ctx context.Context, deviceID string) (*ClaimResult, error)
	RenameDevice(ctx context.Context, deviceID, name string) (*RenameResult, error)
	RemoveDevice(ctx context.Context, deviceID string) error
	Devices(ctx context.Context) iter.Seq2[Device, error]

	// ============================================================================
	// Batch Operations
	// ============================================================================

	CallBatch(ctx context.Context, deviceIDs []string, fn string, arg *string, cfg *BatchConfig) BatchResults[FunctionResult]
	VariableBatch(ctx context.Context, deviceIDs []string, name string, cfg *BatchConfig) BatchResults[VariableValue]

	// ============================================================================
	// Events
	// ============================================================================

	PublishEvent(ctx context.Context, ev *PublishEvent) error
	SubscribeEvents(ctx context.Context, prefix string) *EventStream

	// ============================================================================
	// Access Tokens
	// ============================================================================

	ListAccessTokens(ctx context.Context) ([]AccessToken, error)
	GenerateAccessToken(ctx context.Context) (*TokenResponse, error)
	DeleteAccessToken(ctx context.Context, token string) error
	AccessTokens(ctx context.Context) iter.Seq2[AccessToken, error]
	Login(ctx context.Context) (*TokenResponse, error)

	// ============================================================================
	// Credentials
	// ============================================================================

	Token() *oauth2.Token
	SetToken(token string)
	TokenSource() oauth2.TokenSource
}

// Ensure Client implements ParticleClient at compile time.
var _ ParticleClient = (*Client)(nil)
