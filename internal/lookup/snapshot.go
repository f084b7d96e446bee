package lookup

import (
	"context"
	"fmt"
)

// Snapshot runs a single lookup of query against backend, waits for every
// request to settle, expands the entries listed in expand and returns the
// rendered document.
func Snapshot(ctx context.Context, backend Backend, query string, expand []int, opts ...Option) (string, error) {
	c := NewController(backend, opts...)
	runCtx, stop := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() { errc <- c.Run(runCtx) }()
	defer func() {
		stop()
		<-errc
	}()

	c.Submit(query)
	if err := c.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for lookup: %w", err)
	}
	for _, i := range expand {
		if err := c.Toggle(ctx, i); err != nil {
			return "", err
		}
	}
	return c.HTML(ctx)
}
