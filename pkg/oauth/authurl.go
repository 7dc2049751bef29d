package oauth

import (
	"errors"
	"net/url"

	"golang.org/x/oauth2"
)

// StateNonceKey is the key under which the nonce travels inside the
// form-encoded OAuth state parameter.
const StateNonceKey = "nonce"

// ErrMissingNonce is returned by ParseState when the state carries no nonce.
var ErrMissingNonce = errors.New("missing nonce in state")

// AuthURLParams are the per-attempt values of an authorization request.
type AuthURLParams struct {
	// RedirectURI is where the identity provider sends the browser back to.
	RedirectURI string

	// State is the opaque state parameter, see EncodeState.
	State string

	// Scopes are the scopes to authorize.
	Scopes []string

	// CodeChallenge is the optional PKCE S256 challenge.
	CodeChallenge string
}

// AuthCodeURL builds the authorization URL for the authorization-code grant.
//
// Every request asks for offline access and forces the consent prompt, so a
// refresh token is always returned. The challenge method is fixed to S256
// even when no challenge is supplied.
func AuthCodeURL(cfg *oauth2.Config, p AuthURLParams) string {
	c := *cfg
	c.RedirectURL = p.RedirectURI
	c.Scopes = p.Scopes

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("code_challenge_method", CodeChallengeMethodS256),
	}
	if p.CodeChallenge != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_challenge", p.CodeChallenge))
	}

	return c.AuthCodeURL(p.State, opts...)
}

// EncodeState encodes the nonce, plus any extra values, as a form-encoded
// state string ("nonce=<value>[&...]").
func EncodeState(nonce string, extra url.Values) string {
	v := url.Values{}
	for key, values := range extra {
		v[key] = append([]string(nil), values...)
	}
	v.Set(StateNonceKey, nonce)
	return v.Encode()
}

// ParseState extracts the nonce from a form-encoded state string.
func ParseState(state string) (string, error) {
	v, err := url.ParseQuery(state)
	if err != nil {
		return "", err
	}
	nonce := v.Get(StateNonceKey)
	if nonce == "" {
		return "", ErrMissingNonce
	}
	return nonce, nil
}
