// transync: bidirectional sync between a translation service and local
// Laravel-style language files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/minios-linux/transync/config"
	"github.com/minios-linux/transync/credentials"
	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/langmeta"
	"github.com/minios-linux/transync/logging"
	"github.com/minios-linux/transync/remote"
	"github.com/minios-linux/transync/syncerr"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

type globalFlags struct {
	root    string
	apiURL  string
	token   string
	timeout int
	verbose bool
	debug   bool
	noColor bool
}

var global globalFlags

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transync",
		Short: "Sync translations between the translation service and local language files",
		Long: `transync keeps a project's language files in sync with the translation
service.

Translations live locally as <output-dir>/<lang>/<file>.<ext>, where the
extension follows the configured format (php, json or yaml). Dotted keys
from the service become nested arrays in php and yaml files and stay flat
in json files.

Commands:
  pull        Download translations and write language files
  push        Upload local language files to the service
  status      Show configuration and local translation statistics
  init        Write a .transync.yaml project file
  auth        Manage the stored API token

Configuration (lowest to highest priority):
  built-in defaults, .transync.yaml or .transync.toml in --root,
  SMARTPMS_TRANSLATION_* environment variables, command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.Setup(global.noColor)
			logger, err := logging.New(logging.FromEnv(global.verbose, global.debug))
			if err != nil {
				return err
			}
			logging.SetGlobal(logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&global.root, "root", ".", "Project root directory")
	pf.StringVar(&global.apiURL, "api-url", "", "Translation API base URL (overrides config)")
	pf.StringVar(&global.token, "token", "", "API token (overrides config and stored token)")
	pf.IntVar(&global.timeout, "timeout", 0, "Request timeout in seconds (overrides config)")
	pf.BoolVarP(&global.verbose, "verbose", "v", false, "Log progress details to stderr")
	pf.BoolVar(&global.debug, "debug", false, "Log requests and file operations to stderr")
	pf.BoolVar(&global.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newPullCmd(),
		newPushCmd(),
		newStatusCmd(),
		newInitCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logging.L().Sync()

	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err under the heading matching its kind. Errors that
// never reached the service are printed as they are.
func reportError(err error) {
	if _, ok := syncerr.PhaseOf(err); ok || errors.Is(err, syncerr.ErrAuthentication) || errors.Is(err, syncerr.ErrService) {
		ui.Error("%s: %v", i18n.T(syncerr.Describe(err)), err)
		if errors.Is(err, syncerr.ErrAuthentication) {
			ui.Info(i18n.T("Check %s or run 'transync auth login'"), config.EnvToken)
		}
		return
	}
	ui.Error("%v", err)
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// loadConfig resolves settings for --root and applies the global flag
// overrides. A missing token falls back to the credential store.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(global.root)
	if err != nil {
		return cfg, err
	}
	if global.apiURL != "" {
		cfg.APIURL = global.apiURL
	}
	if global.token != "" {
		cfg.APIToken = global.token
	}
	if global.timeout != 0 {
		cfg.Timeout = global.timeout
	}
	if cfg.APIToken == "" {
		cfg.APIToken = credentials.Token(cfg.APIURL)
	}
	return cfg, nil
}

func newClient(cfg config.Config) *remote.Client {
	return remote.NewClient(cfg.APIURL, cfg.APIToken,
		remote.WithTimeout(cfg.TimeoutDuration()),
		remote.WithLogger(logging.L()),
		remote.WithUserAgent("transync/"+version),
	)
}

// checkLanguage rejects a --language value that is not a language code.
func checkLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	if _, err := langmeta.Parse(lang); err != nil {
		return fmt.Errorf("--language: %w", err)
	}
	return nil
}

// addFormatFlags registers --format and --status, which override the
// configured values when set.
func addFormatFlags(f *pflag.FlagSet, format, status *string) {
	f.StringVarP(format, "format", "f", "", "Output format: "+strings.Join(config.Formats, ", ")+" (overrides config)")
	f.StringVarP(status, "status", "s", "", "Status filter: "+strings.Join(config.Statuses, ", ")+" (overrides config)")
}

func registerFormatCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(config.Formats))
	_ = cmd.RegisterFlagCompletionFunc("status", fixedCompletion(config.Statuses))
}

func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
