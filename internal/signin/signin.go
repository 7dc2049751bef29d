package signin

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/oauth2"

	"colabauth/internal/auth"
	"colabauth/internal/auth/flows"
	"colabauth/pkg/logging"
	pkgoauth "colabauth/pkg/oauth"
)

const subsystem = "SignIn"

var (
	// ErrNoFlows is returned when the Authenticator has no flow to run.
	ErrNoFlows = errors.New("no sign-in flow is available")

	// ErrUnknownFlow is returned when the requested flow is not among the
	// available ones.
	ErrUnknownFlow = errors.New("sign-in flow is not available")
)

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*oauth2.Token, error)
}

// OAuth2Exchanger exchanges codes at the token endpoint of Config.
type OAuth2Exchanger struct {
	Config *oauth2.Config
}

// Exchange redeems code with the PKCE verifier. The redirect URI must be the
// one the code was issued for.
func (e OAuth2Exchanger) Exchange(ctx context.Context, code, verifier, redirectURI string) (*oauth2.Token, error) {
	cfg := *e.Config
	cfg.RedirectURL = redirectURI
	return cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
}

// Request describes one sign-in attempt.
type Request struct {
	// Flow names the flow to use. Empty selects the most preferred one.
	Flow string

	// Scopes are the scopes to authorize. Duplicates are dropped.
	Scopes []string
}

// Authenticator runs complete sign-ins: it triggers a flow and exchanges
// the resulting code.
type Authenticator struct {
	flows     []flows.Flow
	exchanger Exchanger
}

// New creates an Authenticator over available, ordered by preference.
func New(available []flows.Flow, exchanger Exchanger) *Authenticator {
	return &Authenticator{
		flows:     available,
		exchanger: exchanger,
	}
}

// SignIn obtains a token for req. The flow is closed once the exchange has
// finished, successfully or not.
func (a *Authenticator) SignIn(ctx context.Context, req Request) (*oauth2.Token, error) {
	flow, err := a.flow(req.Flow)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := flow.Close(); cerr != nil {
			logging.Warn(subsystem, "Failed to close %s flow: %v", flow.Name(), cerr)
		}
	}()

	nonce := pkgoauth.GenerateNonce()
	pkce := pkgoauth.GeneratePKCE()
	scopes := NormalizeScopes(req.Scopes)

	logging.Debug(subsystem, "Starting %s flow for scopes %v", flow.Name(), scopes)
	result, err := flow.Trigger(ctx, flows.TriggerOptions{
		Nonce:         nonce,
		Scopes:        scopes,
		PKCEChallenge: pkce.CodeChallenge,
	})
	if err != nil {
		return nil, fmt.Errorf("%s flow: %w", flow.Name(), err)
	}

	token, err := a.exchanger.Exchange(ctx, result.Code, pkce.CodeVerifier, result.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	logging.Info(subsystem, "Signed in using the %s flow", flow.Name())
	return token, nil
}

// Close closes every flow.
func (a *Authenticator) Close() error {
	var errs []error
	for _, f := range a.flows {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Authenticator) flow(name string) (flows.Flow, error) {
	if len(a.flows) == 0 {
		return nil, ErrNoFlows
	}
	if name == "" {
		return a.flows[0], nil
	}
	f, ok := flows.Find(a.flows, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	return f, nil
}

// NormalizeScopes sorts scopes and drops blanks and duplicates.
func NormalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Outcome is the user-facing result of a failed sign-in.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCancelled
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "failed"
	}
}

// Classify maps a SignIn error to its outcome. A context deadline counts as
// a timeout even though it also cancels the wait.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, auth.ErrTimeoutExceeded), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimedOut
	case errors.Is(err, auth.ErrCancelledByUser), errors.Is(err, context.Canceled):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}
