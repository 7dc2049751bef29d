package cmd

import (
	"fmt"
	"io"

	"colabauth/internal/auth/flows"
	"colabauth/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newFlowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flows",
		Short: "Show the sign-in flows available on this machine",
		Long: `Show what the sign-in can use on this machine and the flows it will try,
most preferred first. The loopback flow needs a local listener and a browser
on the same machine; the proxied flow is always available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			renderFlows(cmd.OutOrStdout(), flows.DetectCapabilities(), cfg)
			return nil
		},
	}
}

// renderFlows prints the capabilities and the selected flows as tables.
// Flows are only inspected, never triggered.
func renderFlows(out io.Writer, caps flows.Capabilities, cfg config.Config) {
	capsTable := table.NewWriter()
	capsTable.SetOutputMirror(out)
	capsTable.SetStyle(table.StyleRounded)
	capsTable.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("CAPABILITY"),
		text.FgHiCyan.Sprint("AVAILABLE"),
	})
	capsTable.AppendRow(table.Row{"Local listener (127.0.0.1)", yesNo(caps.LocalListener)})
	capsTable.AppendRow(table.Row{"System browser", yesNo(caps.SystemBrowser)})
	capsTable.Render()

	available := flows.Select(caps, flows.Deps{
		OAuth2:           cfg.OAuth2Config(),
		ProxyRedirectURL: cfg.Redirect.ProxyURL,
		CallbackURI:      cfg.Redirect.CallbackURI,
	})
	defer func() {
		for _, f := range available {
			_ = f.Close()
		}
	}()

	flowsTable := table.NewWriter()
	flowsTable.SetOutputMirror(out)
	flowsTable.SetStyle(table.StyleRounded)
	flowsTable.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("#"),
		text.FgHiCyan.Sprint("FLOW"),
		text.FgHiCyan.Sprint("REDIRECT URI"),
	})
	for i, f := range available {
		flowsTable.AppendRow(table.Row{i + 1, f.Name(), redirectDescription(f.Name(), cfg)})
	}
	flowsTable.Render()

	fmt.Fprintf(out, "%s %s\n", text.FgHiBlue.Sprint("Default flow:"), text.FgHiWhite.Sprint(available[0].Name()))
}

func redirectDescription(name string, cfg config.Config) string {
	switch name {
	case flows.NameLoopback:
		return "http://127.0.0.1:<ephemeral port>"
	case flows.NameProxied:
		if cfg.Redirect.ProxyURL == "" {
			return text.FgYellow.Sprint("not configured (redirect.proxyUrl)")
		}
		return cfg.Redirect.ProxyURL
	default:
		return ""
	}
}

func yesNo(ok bool) string {
	if ok {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgRed.Sprint("no")
}
