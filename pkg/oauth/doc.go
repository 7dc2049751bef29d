// Package oauth provides the OAuth 2.0 wire helpers shared by the
// authorization flows and the sign-in orchestration.
//
// # Core Components
//
//   - PKCE: Proof Key for Code Exchange generation (RFC 7636)
//   - Nonce: per-attempt correlation nonce generation
//   - State: encoding and parsing of the "nonce=<value>" state parameter
//   - AuthCodeURL: authorization URL construction on top of golang.org/x/oauth2
//
// # Usage
//
//	pkce := oauth.GeneratePKCE()
//	nonce := oauth.GenerateNonce()
//	authURL := oauth.AuthCodeURL(cfg, oauth.AuthURLParams{
//	    RedirectURI:   "http://127.0.0.1:53211",
//	    State:         oauth.EncodeState(nonce, nil),
//	    Scopes:        []string{"email"},
//	    CodeChallenge: pkce.CodeChallenge,
//	})
package oauth
