// Package loopback provides the short-lived local HTTP listener that
// receives OAuth redirects on 127.0.0.1.
//
// A Server binds an ephemeral port when started and keeps serving until it
// is closed, so that assets requested by the browser after the redirect
// (the favicon, typically) can still be answered. Closing is the owner's
// responsibility; cancelling the context passed to Start closes it too.
package loopback
