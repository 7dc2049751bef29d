// Package config loads the colab-auth configuration.
//
// Configuration lives in a single YAML file, ~/.config/colab-auth/config.yaml,
// read over the built-in defaults:
//
//	oauth:
//	  clientId: 1234.apps.googleusercontent.com
//	  clientSecret: ...
//	  scopes: [profile, email]
//	redirect:
//	  proxyUrl: https://example.com/auth/redirect
//	  callbackUri: colab-auth://oauth/callback
//	loopback:
//	  mediaDir: /path/to/assets
//	logLevel: debug
//
// Endpoints default to Google's. A missing file yields the defaults, which
// do not validate until a client ID is set.
package config
