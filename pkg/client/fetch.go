package client

import (
	"context"

	"bingx/pkg/async"
)

// Fetch executes req and converts the "data" member of the response into T.
func Fetch[T any](ctx context.Context, c *Client, req Request) (T, error) {
	payload, err := c.Execute(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return ConvertData[T](payload)
}

// FetchAsync is the non-blocking Fetch.
func FetchAsync[T any](ctx context.Context, c *Client, req Request) *async.Future[T] {
	pending := c.ExecuteAsync(ctx, req)
	return async.Go(ctx, func(ctx context.Context) (T, error) {
		payload, err := pending.Await(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return ConvertData[T](payload)
	})
}
