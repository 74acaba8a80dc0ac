package particle

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// BatchResult contains the outcome of one device in a batch.
type BatchResult[T any] struct {
	DeviceID string // The device ID
	Value    *T     // Reply, nil on error
	Error    error  // Error if the call failed, nil on success
}

// BatchResults holds one BatchResult per requested device, in request order.
type BatchResults[T any] []BatchResult[T]

// Err aggregates every failure into a single error, or returns nil.
func (r BatchResults[T]) Err() error {
	var result *multierror.Error
	for _, res := range r {
		if res.Error != nil {
			result = multierror.Append(result, fmt.Errorf("device %s: %w", res.DeviceID, res.Error))
		}
	}
	return result.ErrorOrNil()
}

// Succeeded returns the results without an error.
func (r BatchResults[T]) Succeeded() BatchResults[T] {
	var out BatchResults[T]
	for _, res := range r {
		if res.Error == nil {
			out = append(out, res)
		}
	}
	return out
}

// BatchConfig configures batch execution behavior.
type BatchConfig struct {
	// MaxConcurrent is the maximum number of concurrent API calls.
	// Defaults to 10 if not specified.
	MaxConcurrent int

	// StopOnError skips devices not yet started once any call fails.
	// Skipped devices report context.Canceled.
	StopOnError bool
}

// DefaultBatchConfig returns sensible defaults for batch operations.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		MaxConcurrent: 10,
		StopOnError:   false,
	}
}

// CallBatch invokes the same function on several devices concurrently. A nil
// arg calls without an args field, as Call does.
//
// Example:
//
//	arg := "on"
//	results := client.CallBatch(ctx, []string{"dev1", "dev2"}, "led", &arg, nil)
//	if err := results.Err(); err != nil {
//	    log.Print(err)
//	}
func (c *Client) CallBatch(ctx context.Context, deviceIDs []string, fn string, arg *string, cfg *BatchConfig) BatchResults[FunctionResult] {
	return runBatch(ctx, deviceIDs, cfg, func(ctx context.Context, id string) (*FunctionResult, error) {
		return c.Device(id).call(ctx, fn, arg)
	})
}

// VariableBatch reads the same variable from several devices concurrently.
func (c *Client) VariableBatch(ctx context.Context, deviceIDs []string, name string, cfg *BatchConfig) BatchResults[VariableValue] {
	return runBatch(ctx, deviceIDs, cfg, func(ctx context.Context, id string) (*VariableValue, error) {
		return c.Device(id).Variable(ctx, name)
	})
}

// runBatch runs op for every id on a bounded worker pool.
func runBatch[T any](ctx context.Context, ids []string, cfg *BatchConfig, op func(context.Context, string) (*T, error)) BatchResults[T] {
	if len(ids) == 0 {
		return nil
	}

	maxConcurrent, stopOnError := 10, false
	if cfg != nil {
		stopOnError = cfg.StopOnError
		if cfg.MaxConcurrent > 0 {
			maxConcurrent = cfg.MaxConcurrent
		}
	}

	results := make(BatchResults[T], len(ids))
	var mu sync.Mutex
	var stopped bool

	isStopped := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return stopped
	}

	// Worker pool using semaphore pattern
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, id := range ids {
		if isStopped() {
			results[i] = BatchResult[T]{DeviceID: id, Error: context.Canceled}
			continue
		}

		select {
		case <-ctx.Done():
			results[i] = BatchResult[T]{DeviceID: id, Error: ctx.Err()}
			continue
		default:
		}

		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = BatchResult[T]{DeviceID: id, Error: ctx.Err()}
				return
			}

			if isStopped() {
				results[idx] = BatchResult[T]{DeviceID: id, Error: context.Canceled}
				return
			}

			value, err := op(ctx, id)
			results[idx] = BatchResult[T]{DeviceID: id, Value: value, Error: err}

			if err != nil && stopOnError {
				mu.Lock()
				stopped = true
				mu.Unlock()
			}
		}(i, id)
	}

	wg.Wait()
	return results
}
