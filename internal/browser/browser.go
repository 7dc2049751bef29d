// Package browser opens URLs in the user's default web browser.
package browser

import (
	"context"
	"fmt"

	"github.com/skratchdot/open-golang/open"
)

// Opener opens a URL outside of this process, typically in a browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f(ctx, url).
func (f OpenerFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// launch starts the platform URL handler. Replaced in tests.
var launch = open.Start

// System opens URLs with the platform's default handler (xdg-open, open,
// or start). It does not wait for the browser to exit.
type System struct{}

// Open implements Opener.
func (System) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := launch(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
