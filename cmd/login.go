package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"colabauth/internal/auth"
	"colabauth/internal/auth/flows"
	"colabauth/internal/browser"
	"colabauth/internal/config"
	"colabauth/internal/signin"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// loginOptions holds the login flags.
type loginOptions struct {
	flow   string
	scopes []string
	json   bool
	quiet  bool
}

// lineReader reads the forwarded redirect URI typed by the user.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// loginEnv is what runLogin needs from the outside world. Tests replace it.
type loginEnv struct {
	caps      flows.Capabilities
	opener    browser.Opener
	exchanger signin.Exchanger
	newPrompt func(out io.Writer) (lineReader, error)
	out       io.Writer
	errOut    io.Writer
}

func newLoginCmd() *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the resulting token",
		Long: `Sign in with the OAuth2 authorization-code flow.

The consent page is opened in the default browser. On a desktop the
authorization code is received on a temporary listener on 127.0.0.1. On remote
or headless machines the provider redirects to the configured redirect proxy,
and the URI it forwards must be pasted at the prompt.

Examples:
  colab-auth login                    # Use the best flow for this machine
  colab-auth login --flow proxied     # Force the redirect proxy
  colab-auth login --json             # Print the token as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), cfg, opts, loginEnv{
				caps:      flows.DetectCapabilities(),
				opener:    browser.System{},
				newPrompt: newReadlinePrompt,
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&opts.flow, "flow", "", "sign-in flow to use (loopback or proxied); defaults to the best available")
	cmd.Flags().StringSliceVar(&opts.scopes, "scopes", nil, "scopes to request; defaults to the configured scopes")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the token as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

func runLogin(ctx context.Context, cfg config.Config, opts *loginOptions, env loginEnv) error {
	oauthConfig := cfg.OAuth2Config()

	uris := flows.NewURIHandler(auth.NewCodeManager())
	defer uris.Dispose()

	var s *spinner.Spinner
	if !opts.quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(env.errOut))
		s.Suffix = " Waiting for sign-in to complete..."
	}

	flowName := opts.flow
	deps := flows.Deps{
		OAuth2:           oauthConfig,
		Opener:           env.opener,
		Media:            cfg.MediaFS(),
		ProxyRedirectURL: cfg.Redirect.ProxyURL,
		CallbackURI:      cfg.Redirect.CallbackURI,
		URIs:             uris,
		Notify: func(authURL string) {
			fmt.Fprintf(env.errOut, "Opening browser for sign-in...\nIf the browser doesn't open, visit:\n  %s\n\n", authURL)
			// The proxied flow prompts for input, which a spinner would overwrite.
			if s != nil && flowName != flows.NameProxied {
				s.Start()
			}
		},
	}

	available := flows.Select(env.caps, deps)
	if flowName == "" {
		flowName = available[0].Name()
	}
	if _, ok := flows.Find(available, flowName); !ok {
		return fmt.Errorf("the %q flow is not available on this machine (available: %s)", flowName, flowNames(available))
	}
	if flowName == flows.NameProxied {
		if err := cfg.ValidateProxied(); err != nil {
			return fmt.Errorf("the proxied flow is not configured: %w", err)
		}
	}

	scopes := opts.scopes
	if len(scopes) == 0 {
		scopes = cfg.OAuth.Scopes
	}

	exchanger := env.exchanger
	if exchanger == nil {
		exchanger = signin.OAuth2Exchanger{Config: oauthConfig}
	}
	authenticator := signin.New(available, exchanger)
	defer authenticator.Close()

	g, gctx := errgroup.WithContext(ctx)
	promptCtx, stopPrompt := context.WithCancel(gctx)
	defer stopPrompt()

	var token *oauth2.Token
	g.Go(func() error {
		defer stopPrompt()
		var err error
		token, err = authenticator.SignIn(gctx, signin.Request{Flow: flowName, Scopes: scopes})
		return err
	})
	if flowName == flows.NameProxied {
		g.Go(func() error {
			return promptForRedirect(promptCtx, env, uris)
		})
	}

	err := g.Wait()
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return signInError(flowName, err)
	}

	return printToken(env.out, token, opts)
}

// promptForRedirect reads forwarded redirect URIs until one resolves the
// pending wait or ctx is done. Closing the prompt cancels the sign-in.
func promptForRedirect(ctx context.Context, env loginEnv, uris *flows.URIHandler) error {
	rl, err := env.newPrompt(env.errOut)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	for {
		line, err := rl.Readline()
		if ctx.Err() != nil {
			return nil
		}
		if err == readline.ErrInterrupt || err == io.EOF {
			return fmt.Errorf("%w: prompt closed", auth.ErrCancelledByUser)
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := uris.HandleURI(line); err != nil {
			fmt.Fprintf(env.errOut, "%s %v\n", text.FgYellow.Sprint("Could not use that URI:"), err)
			continue
		}
		return nil
	}
}

func newReadlinePrompt(out io.Writer) (lineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "Paste the redirect URI: ",
		Stdout:          out,
		Stderr:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return rl, nil
}

func printToken(out io.Writer, token *oauth2.Token, opts *loginOptions) error {
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	}
	if opts.quiet {
		fmt.Fprintln(out, token.AccessToken)
		return nil
	}

	fmt.Fprintf(out, "%s Signed in successfully\n", text.FgGreen.Sprint("✓"))
	if !token.Expiry.IsZero() {
		fmt.Fprintf(out, "  Access token expires at %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	if token.RefreshToken != "" {
		fmt.Fprintln(out, "  A refresh token was issued")
	}
	return nil
}

func flowNames(available []flows.Flow) string {
	names := make([]string, 0, len(available))
	for _, f := range available {
		names = append(names, f.Name())
	}
	return strings.Join(names, ", ")
}
