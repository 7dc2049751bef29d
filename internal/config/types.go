package config

import (
	"io/fs"
	"os"

	"golang.org/x/oauth2"
)

// Config is the top-level colab-auth configuration, read from config.yaml.
type Config struct {
	OAuth    OAuthConfig    `yaml:"oauth"`
	Redirect RedirectConfig `yaml:"redirect"`
	Loopback LoopbackConfig `yaml:"loopback"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// OAuthConfig identifies the OAuth client and the identity provider.
type OAuthConfig struct {
	ClientID     string   `yaml:"clientId"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	AuthURL      string   `yaml:"authUrl"`
	TokenURL     string   `yaml:"tokenUrl"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// RedirectConfig configures the proxied redirect flow.
type RedirectConfig struct {
	// ProxyURL is the externally hosted redirect URI registered with the
	// identity provider.
	ProxyURL string `yaml:"proxyUrl,omitempty"`

	// CallbackURI is where the proxy forwards the code to.
	CallbackURI string `yaml:"callbackUri,omitempty"`
}

// LoopbackConfig configures the loopback redirect flow.
type LoopbackConfig struct {
	// MediaDir replaces the embedded assets served by the listener.
	MediaDir string `yaml:"mediaDir,omitempty"`
}

// OAuth2Config builds the golang.org/x/oauth2 client configuration.
// Redirect URL and scopes are set per authorization attempt.
func (c Config) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.OAuth.AuthURL,
			TokenURL: c.OAuth.TokenURL,
		},
		Scopes: append([]string(nil), c.OAuth.Scopes...),
	}
}

// MediaFS returns the configured media directory, or nil when the embedded
// assets should be used.
func (c Config) MediaFS() fs.FS {
	if c.Loopback.MediaDir == "" {
		return nil
	}
	return os.DirFS(c.Loopback.MediaDir)
}
