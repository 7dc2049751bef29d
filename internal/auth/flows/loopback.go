package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"colabauth/internal/auth"
	"colabauth/internal/loopback"
	"colabauth/pkg/logging"
	"colabauth/pkg/oauth"
)

const loopbackSubsystem = "LoopbackFlow"

// LoopbackFlow receives the redirect on a local listener bound to
// 127.0.0.1. It needs a browser on the same machine.
type LoopbackFlow struct {
	deps    Deps
	codes   *auth.CodeManager
	handler *RedirectHandler

	mu      sync.Mutex
	servers []*loopback.Server
}

// NewLoopbackFlow creates a loopback flow.
func NewLoopbackFlow(deps Deps) *LoopbackFlow {
	codes := auth.NewCodeManager(deps.CodeOptions...)
	return &LoopbackFlow{
		deps:    deps,
		codes:   codes,
		handler: NewRedirectHandler(codes, deps.Media),
	}
}

// Name implements Flow.
func (f *LoopbackFlow) Name() string {
	return NameLoopback
}

// Trigger starts a listener, opens the authorization URL with the listener
// as redirect URI, and waits for the code.
//
// On success the listener keeps running so the browser can still fetch
// assets; callers must Close the flow once the sign-in is complete. On
// failure the listener is closed before Trigger returns.
func (f *LoopbackFlow) Trigger(ctx context.Context, opts TriggerOptions) (*Result, error) {
	pending, err := f.codes.Expect(opts.Nonce)
	if err != nil {
		return nil, err
	}

	server := loopback.NewServer(f.handler, loopback.WithErrorHandler(func(err error) {
		pending.Reject(fmt.Errorf("loopback server failed: %w", err))
	}))
	f.track(server)

	if _, err := server.Start(ctx); err != nil {
		pending.Reject(err)
		_ = server.Close()
		return nil, err
	}

	redirectURI := server.URL()
	authURL := oauth.AuthCodeURL(f.deps.OAuth2, oauth.AuthURLParams{
		RedirectURI:   redirectURI,
		State:         oauth.EncodeState(opts.Nonce, nil),
		Scopes:        opts.Scopes,
		CodeChallenge: opts.PKCEChallenge,
	})

	logging.Debug(loopbackSubsystem, "Waiting for redirect on %s", redirectURI)
	openAuthURL(ctx, loopbackSubsystem, f.deps, authURL)

	code, err := pending.Wait(ctx)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	return &Result{Code: code, RedirectURI: redirectURI}, nil
}

func (f *LoopbackFlow) track(server *loopback.Server) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.servers = append(f.servers, server)
}

// Close shuts down every listener started by Trigger.
func (f *LoopbackFlow) Close() error {
	f.mu.Lock()
	servers := f.servers
	f.servers = nil
	f.mu.Unlock()

	var errs []error
	for _, s := range servers {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
