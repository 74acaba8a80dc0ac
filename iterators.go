package particle

import (
	"context"
	"iter"
)

// Devices returns an iterator over the account's devices.
// The device list is not paginated; the iterator fetches it once.
func (c *Client) Devices(ctx context.Context) iter.Seq2[Device, error] {
	return sliceSeq(ctx, c.ListDevices)
}

// AccessTokens returns an iterator over the account's access tokens.
func (c *Client) AccessTokens(ctx context.Context) iter.Seq2[AccessToken, error] {
	return sliceSeq(ctx, c.ListAccessTokens)
}

// sliceSeq adapts a list call to an iterator. Errors, including a cancelled
// context, are yielded once and end the iteration.
func sliceSeq[T any](ctx context.Context, list func(context.Context) ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		select {
		case <-ctx.Done():
			yield(zero, ctx.Err())
			return
		default:
		}

		items, err := list(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
