package flows

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"colabauth/internal/auth"
	"colabauth/pkg/logging"
	"colabauth/pkg/oauth"
)

const (
	proxiedSubsystem = "ProxiedFlow"

	// stateCallbackKey carries the callback URI inside the state, telling
	// the redirect proxy where to forward the code.
	stateCallbackKey = "uri"
)

// ProxiedFlow sends the browser to an externally hosted redirect URI that
// forwards the code back to this process through a URIHandler. It needs no
// inbound listener and works in any environment.
type ProxiedFlow struct {
	deps Deps
	uris *URIHandler
}

// NewProxiedFlow creates a proxied flow.
func NewProxiedFlow(deps Deps) *ProxiedFlow {
	uris := deps.URIs
	if uris == nil {
		uris = NewURIHandler(auth.NewCodeManager(deps.CodeOptions...))
	}
	return &ProxiedFlow{deps: deps, uris: uris}
}

// Name implements Flow.
func (f *ProxiedFlow) Name() string {
	return NameProxied
}

// URIs returns the handler forwarded redirects must be delivered to.
func (f *ProxiedFlow) URIs() *URIHandler {
	return f.uris
}

// Trigger opens the authorization URL and waits for the forwarded redirect.
func (f *ProxiedFlow) Trigger(ctx context.Context, opts TriggerOptions) (*Result, error) {
	pending, err := f.uris.codes.Expect(opts.Nonce)
	if err != nil {
		return nil, err
	}

	state := oauth.EncodeState(opts.Nonce, url.Values{
		stateCallbackKey: {f.deps.CallbackURI},
	})
	authURL := oauth.AuthCodeURL(f.deps.OAuth2, oauth.AuthURLParams{
		RedirectURI:   f.deps.ProxyRedirectURL,
		State:         state,
		Scopes:        opts.Scopes,
		CodeChallenge: opts.PKCEChallenge,
	})

	logging.Debug(proxiedSubsystem, "Waiting for redirect forwarded to %s", f.deps.CallbackURI)
	openAuthURL(ctx, proxiedSubsystem, f.deps, authURL)

	code, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Code: code, RedirectURI: f.deps.ProxyRedirectURL}, nil
}

// Close implements Flow. The proxied flow holds no per-trigger resources.
func (f *ProxiedFlow) Close() error {
	return nil
}

// URIHandler accepts redirect URIs forwarded by the redirect proxy and
// resolves the matching pending wait.
type URIHandler struct {
	codes *auth.CodeManager
}

// NewURIHandler creates a handler resolving codes on codes.
func NewURIHandler(codes *auth.CodeManager) *URIHandler {
	return &URIHandler{codes: codes}
}

// HandleURI parses a forwarded URI of the form
// "<callback>?nonce=<nonce>&code=<code>" and resolves its wait. A forwarded
// "state" parameter is accepted in place of "nonce".
func (h *URIHandler) HandleURI(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", auth.ErrMalformedRedirect, err)
	}

	q := u.Query()
	nonce := q.Get(oauth.StateNonceKey)
	if nonce == "" {
		if state := q.Get("state"); state != "" {
			if nonce, err = oauth.ParseState(state); err != nil {
				err = fmt.Errorf("%w: %w", auth.ErrMalformedRedirect, err)
				logging.Error(proxiedSubsystem, err, "Rejected forwarded redirect")
				return err
			}
		}
	}
	code := q.Get("code")

	if nonce == "" || code == "" {
		err := fmt.Errorf("%w: missing nonce or code in redirect URI", auth.ErrMalformedRedirect)
		logging.Error(proxiedSubsystem, err, "Rejected forwarded redirect")
		return err
	}

	if err := h.codes.ResolveCode(nonce, code); err != nil {
		logging.Error(proxiedSubsystem, err, "Failed to resolve code for nonce %s", nonce)
		return err
	}
	return nil
}

// Dispose fails every wait still pending on the handler.
func (h *URIHandler) Dispose() {
	h.codes.Dispose()
}
