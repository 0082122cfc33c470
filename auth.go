package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/minios-linux/transync/config"
	"github.com/minios-linux/transync/credentials"
	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/syncerr"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// auth (stored API token)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored API token",
		Long: `Store, inspect or remove the API token used for the translation service.

Tokens are kept per API URL in $XDG_DATA_HOME/transync/auth.json
(default ~/.local/share/transync/auth.json) with 0600 permissions.

Token lookup order:
  1. --token flag
  2. SMARTPMS_TRANSLATION_TOKEN or api_token in the project file
  3. The stored token for the API URL

Examples:
  transync auth login                     Prompt for a token and store it
  transync auth login --token TOKEN       Store TOKEN without prompting
  transync auth status                    Show which token would be used
  transync auth logout                    Remove the token for the API URL
  transync auth logout --all              Remove every stored token`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var token string
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token for the API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.Context(), cmd.InOrStdin(), token, !skipCheck)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token to store (prompted when omitted)")
	cmd.Flags().BoolVar(&skipCheck, "no-verify", false, "Store the token without testing it against the service")
	return cmd
}

func runAuthLogin(ctx context.Context, in io.Reader, token string, verify bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	existing := credentials.Token(cfg.APIURL)
	if token == "" {
		fmt.Fprintf(ui.Stderr, "\n%s\n", ui.Bold(cfg.APIURL))
		prompt := i18n.T("Enter API token: ")
		if existing != "" {
			fmt.Fprintf(ui.Stderr, "%s %s\n", i18n.T("Current token:"), ui.Highlight(credentials.MaskKey(existing)))
			prompt = i18n.T("Enter new token to replace, or press Enter to keep: ")
		}
		token, err = ui.ReadSecret(in, ui.Stderr, prompt)
		if err != nil {
			return err
		}
	}
	if token == "" {
		if existing != "" {
			ui.Info(i18n.T("Keeping existing token"))
			return nil
		}
		return fmt.Errorf("no API token provided")
	}

	if verify {
		cfg.APIToken = token
		ui.Info(i18n.T("Testing API connection..."))
		if err := newClient(cfg).TestConnection(ctx); err != nil {
			return syncerr.Wrap("auth", syncerr.PhaseFetch, err)
		}
	}

	if err := credentials.SetToken(cfg.APIURL, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	ui.Success(i18n.T("Token saved for %s"), cfg.APIURL)
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if err := credentials.RemoveAll(); err != nil {
					return err
				}
				ui.Success(i18n.T("All stored tokens removed"))
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			removed, err := credentials.Remove(cfg.APIURL)
			if err != nil {
				return err
			}
			if !removed {
				ui.Info(i18n.T("No stored token for %s"), cfg.APIURL)
				return nil
			}
			ui.Success(i18n.T("Token removed for %s"), cfg.APIURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove tokens for every API URL")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   "Show stored tokens and the one in use",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ui.Heading(out, i18n.T("Stored tokens"))
			store := credentials.Load()
			if len(store) == 0 {
				fmt.Fprintf(out, "  %s\n", ui.Dim(i18n.T("none")))
			} else {
				rows := make([][]string, 0, len(store))
				for _, url := range store.URLs() {
					rows = append(rows, []string{url, credentials.MaskKey(store[url].Token)})
				}
				fmt.Fprintln(out, ui.Table([]string{i18n.T("API URL"), i18n.T("Token")}, rows))
			}
			fmt.Fprintf(out, "  %s %s\n", i18n.T("File:"), credentials.FilePath())

			ui.Heading(out, i18n.T("In use"))
			fmt.Fprintf(out, "  %-12s %s\n", i18n.T("API URL"), cfg.APIURL)
			if cfg.APIToken == "" {
				fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Token"), i18n.T("not configured"))
			} else {
				fmt.Fprintf(out, "  %-12s %s (%s)\n", i18n.T("Token"), credentials.MaskKey(cfg.APIToken), tokenSource(cfg))
			}
			if env := os.Getenv(config.EnvToken); env != "" {
				fmt.Fprintf(out, "  %s %s\n", config.EnvToken, i18n.T("is set and overrides stored tokens"))
			}
			return nil
		},
	}
}
