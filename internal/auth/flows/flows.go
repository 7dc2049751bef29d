package flows

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"runtime"

	"golang.org/x/oauth2"

	"colabauth/internal/auth"
	"colabauth/internal/browser"
	"colabauth/pkg/logging"
)

// Flow names, as accepted by the CLI.
const (
	NameLoopback = "loopback"
	NameProxied  = "proxied"
)

//go:embed media
var mediaFS embed.FS

// DefaultMedia returns the embedded assets served by the loopback listener.
func DefaultMedia() fs.FS {
	sub, err := fs.Sub(mediaFS, "media")
	if err != nil {
		panic(err)
	}
	return sub
}

// TriggerOptions are the per-attempt inputs of a flow. The cancellation
// signal is the context passed to Trigger.
type TriggerOptions struct {
	// Nonce correlates the authorization request with its redirect.
	Nonce string

	// Scopes are the scopes the flow should authorize for.
	Scopes []string

	// PKCEChallenge is the S256 challenge to include, if any.
	PKCEChallenge string
}

// Result is the outcome of a successful flow.
type Result struct {
	// Code is the authorization code obtained from the redirect.
	Code string

	// RedirectURI is the redirect URI the code was issued for. It must be
	// sent again with the token exchange.
	RedirectURI string
}

// Flow is a strategy for completing the redirect leg of the
// authorization-code grant.
type Flow interface {
	// Name identifies the flow.
	Name() string

	// Trigger opens the authorization URL and waits for its code.
	Trigger(ctx context.Context, opts TriggerOptions) (*Result, error)

	// Close releases resources kept alive after Trigger returned.
	Close() error
}

// Capabilities describe what the host environment can do.
type Capabilities struct {
	// LocalListener is true when an inbound socket on 127.0.0.1 can be
	// opened and reached by the browser.
	LocalListener bool

	// SystemBrowser is true when a browser can be launched on the same
	// machine.
	SystemBrowser bool
}

// Desktop reports whether both loopback requirements are met.
func (c Capabilities) Desktop() bool {
	return c.LocalListener && c.SystemBrowser
}

// DetectCapabilities inspects the process environment.
func DetectCapabilities() Capabilities {
	return detectCapabilities(runtime.GOOS, os.Getenv)
}

func detectCapabilities(goos string, getenv func(string) string) Capabilities {
	caps := Capabilities{LocalListener: true, SystemBrowser: true}

	// The browser runs on the user's machine, not on this host, so a
	// loopback redirect would never arrive.
	if getenv("SSH_CONNECTION") != "" || getenv("SSH_TTY") != "" {
		caps.LocalListener = false
		caps.SystemBrowser = false
		return caps
	}

	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
			caps.SystemBrowser = false
		}
	}
	return caps
}

// Deps are the collaborators shared by all flows.
type Deps struct {
	// OAuth2 carries the client credentials and provider endpoints.
	OAuth2 *oauth2.Config

	// Opener launches the authorization URL.
	Opener browser.Opener

	// Notify, if set, is given every authorization URL before it is opened,
	// so it can be shown to the user in case the browser does not start.
	Notify func(authURL string)

	// Media holds the static assets served by the loopback listener.
	// Defaults to DefaultMedia.
	Media fs.FS

	// CodeOptions configure the code managers created by the flows.
	CodeOptions []auth.CodeManagerOption

	// ProxyRedirectURL is the externally hosted redirect URI used by the
	// proxied flow.
	ProxyRedirectURL string

	// CallbackURI is where the redirect proxy forwards the code to.
	CallbackURI string

	// URIs receives forwarded redirects for the proxied flow. When nil the
	// proxied flow creates its own.
	URIs *URIHandler
}

// Select returns the flows usable in an environment with caps, most
// preferred first. The loopback flow requires a desktop environment; the
// proxied flow is always available.
func Select(caps Capabilities, deps Deps) []Flow {
	var flows []Flow
	if caps.Desktop() {
		flows = append(flows, NewLoopbackFlow(deps))
	}
	flows = append(flows, NewProxiedFlow(deps))
	return flows
}

// Find returns the flow called name.
func Find(flows []Flow, name string) (Flow, bool) {
	for _, f := range flows {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// openAuthURL hands authURL to the user. A browser that fails to start is
// not fatal: the URL has been shown through notify and can be opened by hand.
func openAuthURL(ctx context.Context, subsystem string, deps Deps, authURL string) {
	if deps.Notify != nil {
		deps.Notify(authURL)
	}
	if deps.Opener == nil {
		return
	}
	if err := deps.Opener.Open(ctx, authURL); err != nil {
		logging.Warn(subsystem, "Failed to open browser, the authorization URL must be opened manually: %v", err)
	}
}
