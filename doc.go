// Package particle provides a Go client library for the Particle device cloud API.
//
// It covers device listing and details, cloud variables, cloud functions,
// device claiming, access-token management, event publishing and server-sent
// event streams, both account-wide and per device.
//
// # Authentication
//
// The library supports two ways to authenticate:
//
// Access token - simplest, for tokens created elsewhere:
//
//	client, err := particle.NewClient("your-access-token")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Username and password - exchanged once for a token before the client is returned:
//
//	client, err := particle.NewClientFromConfig(ctx, &particle.Config{
//	    Username: "john@example.com",
//	    Password: "secret",
//	}, particle.WithTokenStore(particle.NewFileTokenStore("/path/to/token.json")))
//
// The token endpoints (ListAccessTokens, GenerateAccessToken, DeleteAccessToken)
// always authenticate with the username/password pair.
//
// # Basic Usage
//
// List all devices:
//
//	devices, err := client.ListDevices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("Device: %s (%s) connected=%v\n", d.Name, d.ID, d.Connected)
//	}
//
// Read a variable and call a function:
//
//	v, err := client.Device(id).Variable(ctx, "temperature")
//	temp, ok := particle.GetFloat(v.Result)
//
//	res, err := client.Device(id).CallWithArg(ctx, "led", "on")
//
// # Event Streams
//
// Streams are lazy iterators. Nothing is sent until the loop starts, and
// breaking out of the loop closes the connection:
//
//	for ev, err := range client.SubscribeEvents(ctx, "temperature").Events() {
//	    if err != nil {
//	        log.Printf("stream ended: %v", err)
//	        break
//	    }
//	    fmt.Println(ev.Name, ev.Data)
//	}
//
// Event payloads are JSON-decoded when possible, including one nested level of
// JSON carried as a string in a "data" field.
//
// # Error Handling
//
// Every failure belongs to exactly one kind: no credentials, request failed,
// request timeout, invalid response, API error, or action failed. Use
// errors.Is with the Err* sentinels, errors.As with the typed errors, or KindOf:
//
//	_, err := client.Device(id).Call(ctx, "reset")
//	var apiErr *particle.APIError
//	if errors.As(err, &apiErr) {
//	    fmt.Println(apiErr.StatusCode, apiErr.ErrorCode)
//	}
//	if particle.IsActionFailed(err) {
//	    // the function ran and returned the failure value
//	}
//
// No call is ever retried by the library.
package particle
