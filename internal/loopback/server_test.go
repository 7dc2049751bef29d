package loopback

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok "+r.URL.Path)
	})
}

func TestServer_Lifecycle(t *testing.T) {
	s := NewServer(okHandler())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 0, s.Port())

	port, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, port)
	assert.Equal(t, port, s.Port())
	assert.Equal(t, StateListening, s.State())
	assert.Equal(t, "http://127.0.0.1:"+strconv.Itoa(port), s.URL())

	resp, err := http.Get(s.URL() + "/hello")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok /hello", string(body))

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop serving")
	}

	_, err = http.Get(s.URL())
	assert.Error(t, err)
}

func TestServer_StartTwice(t *testing.T) {
	s := NewServer(okHandler())
	defer s.Close()

	_, err := s.Start(context.Background())
	require.NoError(t, err)

	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestServer_StartAfterClose(t *testing.T) {
	s := NewServer(okHandler())
	require.NoError(t, s.Close())

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestServer_CloseIdempotent(t *testing.T) {
	s := NewServer(okHandler())
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
}

func TestServer_CloseIdle(t *testing.T) {
	s := NewServer(okHandler())
	assert.NoError(t, s.Close())

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed for a server that never started")
	}
}

func TestServer_ContextCancellationCloses(t *testing.T) {
	s := NewServer(okHandler())
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.Start(ctx)
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool {
		return s.State() == StateClosed
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_DistinctPorts(t *testing.T) {
	s1 := NewServer(okHandler())
	defer s1.Close()
	s2 := NewServer(okHandler())
	defer s2.Close()

	p1, err := s1.Start(context.Background())
	require.NoError(t, err)
	p2, err := s2.Start(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
}

func TestServer_CloseWithoutErrorCallback(t *testing.T) {
	called := false
	s := NewServer(okHandler(), WithErrorHandler(func(error) { called = true }))

	_, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	<-s.Done()

	assert.False(t, called, "closing is not a serve failure")
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateIdle:      "idle",
		StateListening: "listening",
		StateClosed:    "closed",
		State(42):      "unknown",
	}
	for state, want := range tests {
		assert.Equal(t, want, state.String())
	}
	assert.True(t, strings.HasPrefix(Host, "127."))
}
