package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"colabauth/pkg/logging"
)

// ExchangeTimeout is how long a pending wait may stay unresolved before it
// fails with ErrTimeoutExceeded. The budget counts from registration in
// Expect, not from the first call to Wait.
const ExchangeTimeout = 60 * time.Second

const subsystem = "CodeManager"

// CodeManager correlates authorization codes delivered out-of-band with the
// callers waiting for them. Each wait is keyed by a single-use nonce.
//
// A pending wait is settled exactly once, by whichever of ResolveCode,
// RejectCode, context cancellation, the exchange timeout, or Dispose gets
// there first. Settlement removes the entry and stops its timer.
type CodeManager struct {
	mu       sync.Mutex
	inFlight map[string]*PendingCode
	timeout  time.Duration
	disposed bool
}

// CodeManagerOption configures a CodeManager.
type CodeManagerOption func(*CodeManager)

// WithExchangeTimeout overrides ExchangeTimeout.
func WithExchangeTimeout(d time.Duration) CodeManagerOption {
	return func(m *CodeManager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewCodeManager creates an empty CodeManager.
func NewCodeManager(opts ...CodeManagerOption) *CodeManager {
	m := &CodeManager{
		inFlight: make(map[string]*PendingCode),
		timeout:  ExchangeTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PendingCode is a registered wait for the code of one nonce.
type PendingCode struct {
	nonce   string
	manager *CodeManager
	timer   *time.Timer
	done    chan struct{}

	// Written once before done is closed.
	code string
	err  error
}

// Nonce returns the nonce this wait is keyed by.
func (p *PendingCode) Nonce() string {
	return p.nonce
}

// Done is closed once the wait has been settled.
func (p *PendingCode) Done() <-chan struct{} {
	return p.done
}

// Expect registers a wait for nonce and arms its exchange timer. It fails
// immediately with ErrDuplicateWait if nonce already has a pending wait and
// with ErrDisposed once the manager has been disposed.
//
// Registering before the authorization URL is opened guarantees a redirect
// can never arrive ahead of its wait.
func (m *CodeManager) Expect(nonce string) (*PendingCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return nil, ErrDisposed
	}
	if _, exists := m.inFlight[nonce]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateWait, nonce)
	}

	p := &PendingCode{
		nonce:   nonce,
		manager: m,
		done:    make(chan struct{}),
	}
	timeout := m.timeout
	p.timer = time.AfterFunc(timeout, func() {
		if m.settle(p, "", fmt.Errorf("%w after %s", ErrTimeoutExceeded, timeout)) {
			logging.Debug(subsystem, "Wait for nonce %s timed out after %s", p.nonce, timeout)
		}
	})
	m.inFlight[nonce] = p

	logging.Debug(subsystem, "Registered wait for nonce %s", nonce)
	return p, nil
}

// Wait blocks until the code arrives, ctx is cancelled, or the exchange
// timeout elapses, whichever happens first. Cancellation fails the wait with
// ErrCancelledByUser. Wait may be called more than once; every call returns
// the same outcome.
func (p *PendingCode) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.manager.settle(p, "", fmt.Errorf("%w: %w", ErrCancelledByUser, context.Cause(ctx)))
		// Either the cancellation or a settlement that raced it is now final.
		<-p.done
	}
	return p.code, p.err
}

// Reject fails the wait with err unless it has already been settled.
func (p *PendingCode) Reject(err error) {
	p.manager.settle(p, "", err)
}

// WaitForCode registers a wait for nonce and blocks until it is settled.
// It is Expect followed by Wait.
func (m *CodeManager) WaitForCode(ctx context.Context, nonce string) (string, error) {
	p, err := m.Expect(nonce)
	if err != nil {
		return "", err
	}
	return p.Wait(ctx)
}

// ResolveCode fulfills the pending wait for nonce with code. It returns
// ErrUnexpectedExchange when no wait is pending for nonce.
func (m *CodeManager) ResolveCode(nonce, code string) error {
	if !m.settleNonce(nonce, code, nil) {
		return ErrUnexpectedExchange
	}
	logging.Debug(subsystem, "Resolved code for nonce %s", nonce)
	return nil
}

// RejectCode fails the pending wait for nonce with err. It returns
// ErrUnexpectedExchange when no wait is pending for nonce.
func (m *CodeManager) RejectCode(nonce string, err error) error {
	if !m.settleNonce(nonce, "", err) {
		return ErrUnexpectedExchange
	}
	logging.Debug(subsystem, "Rejected wait for nonce %s: %v", nonce, err)
	return nil
}

// Pending returns the number of waits currently pending.
func (m *CodeManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

// Dispose fails every pending wait with ErrDisposed and clears the
// registry. The manager cannot be used afterwards; further calls to Dispose
// are no-ops.
func (m *CodeManager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return
	}
	m.disposed = true

	if n := len(m.inFlight); n > 0 {
		logging.Debug(subsystem, "Disposing with %d pending waits", n)
	}
	for _, p := range m.inFlight {
		m.settleLocked(p, "", ErrDisposed)
	}
}

func (m *CodeManager) settle(p *PendingCode, code string, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settleLocked(p, code, err)
}

func (m *CodeManager) settleNonce(nonce, code string, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.inFlight[nonce]
	if !ok {
		return false
	}
	return m.settleLocked(p, code, err)
}

// settleLocked records the outcome of p if p is still the pending wait for
// its nonce. Caller must hold m.mu.
func (m *CodeManager) settleLocked(p *PendingCode, code string, err error) bool {
	if m.inFlight[p.nonce] != p {
		return false
	}
	delete(m.inFlight, p.nonce)
	p.timer.Stop()
	p.code, p.err = code, err
	close(p.done)
	return true
}
