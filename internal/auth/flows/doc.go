// Package flows implements the interchangeable strategies for obtaining an
// authorization code from the browser.
//
// Two flows exist:
//
//   - LoopbackFlow starts a listener on 127.0.0.1 and uses it as the
//     redirect URI. It needs a browser on the same machine.
//   - ProxiedFlow uses an externally hosted redirect URI that forwards the
//     code to a callback URI, delivered to a URIHandler. It works anywhere.
//
// Select orders them by preference for the detected Capabilities. Only one
// flow is triggered per sign-in attempt.
package flows
