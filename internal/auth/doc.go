// Package auth coordinates the authorization-code leg of the OAuth 2.0
// authorization-code grant.
//
// The browser returns from the identity provider out-of-band, through a
// loopback listener or a forwarded redirect URI, while the caller that
// started the sign-in is blocked elsewhere. CodeManager joins the two by a
// per-attempt nonce carried in the OAuth state parameter:
//
//	codes := auth.NewCodeManager()
//	defer codes.Dispose()
//
//	pending, err := codes.Expect(nonce)   // before opening the browser
//	...
//	code, err := pending.Wait(ctx)        // blocks until settled
//
//	// elsewhere, when the redirect arrives:
//	err := codes.ResolveCode(nonce, code)
//
// A wait ends with the code, ErrCancelledByUser, ErrTimeoutExceeded (after
// ExchangeTimeout), or ErrDisposed. Waits for different nonces are
// independent.
package auth
