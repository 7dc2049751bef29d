// Package logging provides subsystem-tagged structured logging for colab-auth.
//
// The package is a thin layer over log/slog. Every entry carries a
// "subsystem" attribute so that output from the code registry, the loopback
// listener and the sign-in orchestration can be told apart in one stream.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("SignIn", "Starting %s flow", flow.Name())
//	logging.Debug("LoopbackServer", "Listening on port %d", port)
//	logging.Warn("LoopbackFlow", "Unhandled request for %s", r.URL.Path)
//	logging.Error("CodeManager", err, "Failed to resolve code")
//
// Until InitForCLI is called, entries go to the slog default logger.
package logging
