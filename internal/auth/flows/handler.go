package flows

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"colabauth/internal/auth"
	"colabauth/pkg/logging"
	"colabauth/pkg/oauth"
)

const (
	successMessage   = "You may now return to the application."
	handlerSubsystem = "RedirectHandler"
)

// RedirectHandler serves the loopback listener. GET / carries the OAuth
// redirect; any other GET path is a static asset.
type RedirectHandler struct {
	codes *auth.CodeManager
	media fs.FS
}

// NewRedirectHandler creates a handler that resolves codes on codes and
// serves assets from media.
func NewRedirectHandler(codes *auth.CodeManager, media fs.FS) *RedirectHandler {
	if media == nil {
		media = DefaultMedia()
	}
	return &RedirectHandler{codes: codes, media: media}
}

// ServeHTTP implements http.Handler.
func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/" {
		h.handleRedirect(w, r)
		return
	}
	h.serveAsset(w, r)
}

func (h *RedirectHandler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	nonce, code, err := parseRedirect(r.URL.Query())
	if err != nil {
		// The wait stays pending: a forged redirect must not fail a
		// legitimate sign-in. It still ends at the exchange timeout.
		logging.Error(handlerSubsystem, err, "Rejected redirect")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.codes.ResolveCode(nonce, code); err != nil {
		logging.Error(handlerSubsystem, err, "Failed to resolve code for nonce %s", nonce)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(successMessage))
}

// parseRedirect extracts the nonce, from the form-encoded state, and the
// authorization code from a redirect query.
func parseRedirect(q url.Values) (nonce, code string, err error) {
	state := q.Get("state")
	if state == "" {
		return "", "", fmt.Errorf("%w: missing state", auth.ErrMalformedRedirect)
	}
	nonce, err = oauth.ParseState(state)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", auth.ErrMalformedRedirect, err)
	}
	code = q.Get("code")
	if code == "" {
		if providerErr := q.Get("error"); providerErr != "" {
			return "", "", fmt.Errorf("%w: missing code (provider error %q)", auth.ErrMalformedRedirect, providerErr)
		}
		return "", "", fmt.Errorf("%w: missing code", auth.ErrMalformedRedirect)
	}
	return nonce, code, nil
}

func (h *RedirectHandler) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	body, err := fs.ReadFile(h.media, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Warn(handlerSubsystem, "Received unhandled request for %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		logging.Error(handlerSubsystem, err, "Failed to read asset %s", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
