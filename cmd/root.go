package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"colabauth/internal/config"
	"colabauth/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthFailed indicates the sign-in flow or code exchange failed.
	ExitCodeAuthFailed = 3
	// ExitCodeAuthCancelled indicates the user cancelled the sign-in.
	ExitCodeAuthCancelled = 4
	// ExitCodeAuthTimeout indicates no authorization code arrived in time.
	ExitCodeAuthTimeout = 5
)

// Persistent flags
var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command for the colab-auth application.
var rootCmd = &cobra.Command{
	Use:   "colab-auth",
	Short: "Sign in to Google for Colab from the command line",
	Long: `colab-auth runs the OAuth2 authorization-code sign-in used by the Colab
integration. It opens the consent page in a browser and receives the
authorization code either on a temporary 127.0.0.1 listener or, on remote
and headless machines, through a redirect proxy.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// An interrupt cancels the running command.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "colab-auth version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authCancelled *AuthCancelledError
	if errors.As(err, &authCancelled) {
		return ExitCodeAuthCancelled
	}

	var authTimeout *AuthTimeoutError
	if errors.As(err, &authTimeout) {
		return ExitCodeAuthTimeout
	}

	var authFailed *AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	// Default to general error
	return ExitCodeError
}

// loadConfig reads the configuration from --config, or from the default
// location when the flag is not set. The configured logLevel replaces the
// flag default unless --log-level was given explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dir := configPath
	if dir == "" {
		var err error
		dir, err = config.GetDefaultConfigPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration in %s: %w", dir, err)
	}
	if err := applyConfigLogLevel(cmd, cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func applyConfigLogLevel(cmd *cobra.Command, cfg config.Config) error {
	if cfg.LogLevel == "" || cmd.Flags().Changed("log-level") {
		return nil
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	logging.Debug("CLI", "Log level %s taken from configuration", level)
	return nil
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newFlowsCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration directory (default is $HOME/.config/colab-auth)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
}
