package flows

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colabauth/internal/auth"
)

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRedirectHandler_ResolvesCode(t *testing.T) {
	codes := auth.NewCodeManager()
	defer codes.Dispose()
	pending, err := codes.Expect("abc")
	require.NoError(t, err)

	h := NewRedirectHandler(codes, nil)
	rec := serve(h, http.MethodGet, "/?state=nonce%3Dabc&code=XYZ")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, successMessage, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	code, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "XYZ", code)
}

func TestRedirectHandler_MalformedRedirectLeavesWaitPending(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "missing code", target: "/?state=nonce%3Dabc"},
		{name: "missing state", target: "/?code=XYZ"},
		{name: "state without nonce", target: "/?state=foo%3Dbar&code=XYZ"},
		{name: "provider error", target: "/?state=nonce%3Dabc&error=access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := auth.NewCodeManager()
			defer codes.Dispose()
			pending, err := codes.Expect("abc")
			require.NoError(t, err)

			rec := serve(NewRedirectHandler(codes, nil), http.MethodGet, tt.target)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, 1, codes.Pending())
			select {
			case <-pending.Done():
				t.Fatal("malformed redirect must not settle the wait")
			default:
			}
		})
	}
}

func TestRedirectHandler_UnexpectedExchange(t *testing.T) {
	codes := auth.NewCodeManager()
	defer codes.Dispose()

	rec := serve(NewRedirectHandler(codes, nil), http.MethodGet, "/?state=nonce%3Dunknown&code=XYZ")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unknown")
}

func TestRedirectHandler_MethodNotAllowed(t *testing.T) {
	h := NewRedirectHandler(auth.NewCodeManager(), nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := serve(h, method, "/?state=nonce%3Dabc&code=XYZ")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET", rec.Header().Get("Allow"), method)
	}
}

func TestRedirectHandler_ServesFavicon(t *testing.T) {
	h := NewRedirectHandler(auth.NewCodeManager(), nil)
	rec := serve(h, http.MethodGet, "/favicon.ico")

	want, err := fs.ReadFile(DefaultMedia(), "favicon.ico")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, rec.Body.Bytes())
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
}

func TestRedirectHandler_CustomMedia(t *testing.T) {
	media := fstest.MapFS{
		"logo.png": &fstest.MapFile{Data: []byte("\x89PNG\r\n\x1a\nlogo")},
	}
	h := NewRedirectHandler(auth.NewCodeManager(), media)

	rec := serve(h, http.MethodGet, "/logo.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "12", rec.Header().Get("Content-Length"))

	rec = serve(h, http.MethodGet, "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedirectHandler_NotFound(t *testing.T) {
	h := NewRedirectHandler(auth.NewCodeManager(), nil)

	for _, target := range []string{"/missing", "/../etc/passwd", "/media/favicon.ico"} {
		rec := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

type failingFS struct{}

func (failingFS) Open(string) (fs.File, error) {
	return nil, errors.New("disk on fire")
}

func TestRedirectHandler_AssetReadFailure(t *testing.T) {
	h := NewRedirectHandler(auth.NewCodeManager(), failingFS{})

	rec := serve(h, http.MethodGet, "/favicon.ico")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRedirectHandler_MalformedRedirectTimesOut(t *testing.T) {
	codes := auth.NewCodeManager(auth.WithExchangeTimeout(20 * time.Millisecond))
	defer codes.Dispose()
	pending, err := codes.Expect("abc")
	require.NoError(t, err)

	serve(NewRedirectHandler(codes, nil), http.MethodGet, "/?state=nonce%3Dabc")

	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, auth.ErrTimeoutExceeded)
}

func TestParseRedirect(t *testing.T) {
	q := map[string][]string{
		"state": {"nonce=abc"},
		"code":  {"XYZ"},
	}
	nonce, code, err := parseRedirect(q)
	require.NoError(t, err)
	assert.Equal(t, "abc", nonce)
	assert.Equal(t, "XYZ", code)

	_, _, err = parseRedirect(map[string][]string{"state": {"nonce=abc"}})
	assert.ErrorIs(t, err, auth.ErrMalformedRedirect)
}
