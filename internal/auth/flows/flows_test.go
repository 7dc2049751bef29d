package flows

import (
	"context"
	"io/fs"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"colabauth/internal/browser"
)

func testOAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/o/oauth2/auth",
			TokenURL: "https://oauth2.example.com/token",
		},
	}
}

// authRequest is what a browser would see when opening an authorization URL.
type authRequest struct {
	redirectURI string
	state       string
	query       url.Values
}

func parseAuthURL(t *testing.T, raw string) authRequest {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	return authRequest{
		redirectURI: q.Get("redirect_uri"),
		state:       q.Get("state"),
		query:       q,
	}
}

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		name string
		goos string
		vars map[string]string
		want Capabilities
	}{
		{
			name: "macOS desktop",
			goos: "darwin",
			want: Capabilities{LocalListener: true, SystemBrowser: true},
		},
		{
			name: "windows desktop",
			goos: "windows",
			want: Capabilities{LocalListener: true, SystemBrowser: true},
		},
		{
			name: "linux with X11",
			goos: "linux",
			vars: map[string]string{"DISPLAY": ":0"},
			want: Capabilities{LocalListener: true, SystemBrowser: true},
		},
		{
			name: "linux with wayland",
			goos: "linux",
			vars: map[string]string{"WAYLAND_DISPLAY": "wayland-0"},
			want: Capabilities{LocalListener: true, SystemBrowser: true},
		},
		{
			name: "headless linux",
			goos: "linux",
			want: Capabilities{LocalListener: true, SystemBrowser: false},
		},
		{
			name: "ssh session",
			goos: "linux",
			vars: map[string]string{"DISPLAY": ":0", "SSH_CONNECTION": "10.0.0.1 5555 10.0.0.2 22"},
			want: Capabilities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectCapabilities(tt.goos, env(tt.vars)))
		})
	}
}

func TestSelect_Desktop(t *testing.T) {
	flows := Select(Capabilities{LocalListener: true, SystemBrowser: true}, Deps{OAuth2: testOAuth2Config()})

	require.Len(t, flows, 2)
	assert.IsType(t, &LoopbackFlow{}, flows[0])
	assert.IsType(t, &ProxiedFlow{}, flows[1])
	assert.Equal(t, NameLoopback, flows[0].Name())
	assert.Equal(t, NameProxied, flows[1].Name())
}

func TestSelect_Restricted(t *testing.T) {
	for _, caps := range []Capabilities{
		{},
		{LocalListener: true},
		{SystemBrowser: true},
	} {
		flows := Select(caps, Deps{OAuth2: testOAuth2Config()})
		require.Len(t, flows, 1)
		assert.IsType(t, &ProxiedFlow{}, flows[0])
	}
}

func TestFind(t *testing.T) {
	flows := Select(Capabilities{LocalListener: true, SystemBrowser: true}, Deps{OAuth2: testOAuth2Config()})

	f, ok := Find(flows, NameProxied)
	require.True(t, ok)
	assert.Equal(t, NameProxied, f.Name())

	_, ok = Find(flows, "device")
	assert.False(t, ok)
}

func TestDefaultMedia(t *testing.T) {
	data, err := fs.ReadFile(DefaultMedia(), "favicon.ico")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestOpenAuthURL_NotifiesAndToleratesBrowserFailure(t *testing.T) {
	var notified string
	deps := Deps{
		Notify: func(u string) { notified = u },
		Opener: browser.OpenerFunc(func(context.Context, string) error {
			return assert.AnError
		}),
	}

	assert.NotPanics(t, func() {
		openAuthURL(context.Background(), "test", deps, "https://example.com/auth")
	})
	assert.Equal(t, "https://example.com/auth", notified)
}
