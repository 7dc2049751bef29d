package config

import "golang.org/x/oauth2/google"

const (
	// DefaultCallbackURI is the custom-scheme URI the redirect proxy
	// forwards codes to.
	DefaultCallbackURI = "colab-auth://oauth/callback"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// DefaultScopes are requested when the configuration names none.
var DefaultScopes = []string{
	"profile",
	"email",
	"https://www.googleapis.com/auth/colaboratory",
}

// GetDefaultConfig returns the default configuration: Google endpoints, the
// default scopes and callback URI. A client ID must still be configured.
func GetDefaultConfig() Config {
	return Config{
		OAuth: OAuthConfig{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: google.Endpoint.TokenURL,
			Scopes:   append([]string(nil), DefaultScopes...),
		},
		Redirect: RedirectConfig{
			CallbackURI: DefaultCallbackURI,
		},
		LogLevel: DefaultLogLevel,
	}
}
