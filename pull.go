package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/minios-linux/transync/config"
	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/logging"
	"github.com/minios-linux/transync/remote"
	"github.com/minios-linux/transync/store"
	"github.com/minios-linux/transync/syncer"
	"github.com/minios-linux/transync/syncerr"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// pull (service → local files)
// ---------------------------------------------------------------------------

type pullArgs struct {
	language string
	format   string
	status   string
	filename string
	missing  bool
	dryRun   bool
	test     bool
}

func newPullCmd() *cobra.Command {
	var a pullArgs

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download translations and write language files",
		Long: `Fetch translations from the service and write one file per language and
resource file under the output directory.

Formats:
  php    <?php return [...]; arrays, dotted keys nested (default)
  raw    same as php
  json   flat JSON object, dotted keys kept as they are
  yaml   nested YAML mapping

Files whose content would not change are left untouched.

Examples:
  transync pull                           Pull approved translations
  transync pull --language de             Pull German only
  transync pull --format json --status all
  transync pull --dry-run                 Show which files would be written
  transync pull --test                    Check the API connection and token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.language, "language", "l", "", "Pull only this language")
	addFormatFlags(f, &a.format, &a.status)
	f.StringVar(&a.filename, "filename", "", "Pull only this resource file")
	f.BoolVar(&a.missing, "missing", false, "Pull only keys missing a translation")
	f.BoolVar(&a.dryRun, "dry-run", false, "Show what would be written without writing")
	f.BoolVar(&a.test, "test", false, "Test the API connection and exit")
	registerFormatCompletions(cmd)

	return cmd
}

func runPull(ctx context.Context, out io.Writer, a pullArgs) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if a.format != "" {
		cfg.Format = a.format
	}
	if a.status != "" {
		cfg.StatusFilter = a.status
	}
	// --test reports a missing token instead of refusing to run.
	if err := cfg.Validate(!a.test); err != nil {
		return err
	}
	if err := checkLanguage(a.language); err != nil {
		return err
	}

	client := newClient(cfg)
	if a.test {
		return runConnectionTest(ctx, out, client, cfg)
	}

	ui.Info(i18n.T("Fetching translations from %s"), cfg.APIURL)

	st := store.New(cfg.OutputDir, logging.L())
	svc := syncer.New(client, logging.L())

	var bar *ui.Progress
	opts := syncer.PullOptions{
		Format:   cfg.Format,
		Language: a.language,
		Status:   cfg.StatusFilter,
		Filename: a.filename,
		Missing:  a.missing,
		DryRun:   a.dryRun,
		Start: func(n int) {
			if !a.dryRun {
				bar = ui.NewProgress(ui.Stderr, n, i18n.T("Writing"))
			}
		},
		Progress: func(fr syncer.FileResult) {
			if bar != nil {
				bar.Step(fr.Language + "/" + fr.File)
			}
		},
	}

	res, err := svc.Pull(ctx, st, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if res.Empty() {
		ui.Warn(i18n.T("No translations found."))
		return nil
	}

	if res.DryRun {
		for _, f := range res.Files {
			fmt.Fprintf(out, "%s %s\n", i18n.T("Would create:"), f.Path)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, pullSummary(res))

	if res.DryRun {
		ui.Info(i18n.T("This was a dry run. No files were written."))
		return nil
	}
	ui.Success(i18n.N("Translations pulled into %d file", "Translations pulled into %d files", len(res.Files)), len(res.Files))
	return nil
}

func pullSummary(res *syncer.PullResult) string {
	rows := [][]string{
		{i18n.T("Files"), strconv.Itoa(len(res.Files))},
	}
	if !res.DryRun {
		rows = append(rows,
			[]string{i18n.T("Created"), strconv.Itoa(res.Count(store.Created))},
			[]string{i18n.T("Updated"), strconv.Itoa(res.Count(store.Updated))},
			[]string{i18n.T("Unchanged"), strconv.Itoa(res.Count(store.Unchanged))},
		)
	}
	rows = append(rows,
		[]string{i18n.T("Translation keys"), strconv.Itoa(res.Keys)},
		[]string{i18n.T("Languages"), strconv.Itoa(len(res.Languages))},
	)
	return ui.Table([]string{i18n.T("Metric"), i18n.T("Value")}, rows, 1)
}

// runConnectionTest checks that the service answers and accepts the token.
func runConnectionTest(ctx context.Context, out io.Writer, client *remote.Client, cfg config.Config) error {
	ui.Info(i18n.T("Testing API connection..."))

	token := i18n.T("No")
	if cfg.APIToken != "" {
		token = i18n.T("Yes")
	}
	fmt.Fprintln(out, ui.Table(
		[]string{i18n.T("Setting"), i18n.T("Value")},
		[][]string{
			{i18n.T("API URL"), client.BaseURL()},
			{i18n.T("Token configured"), token},
		},
	))

	if err := client.TestConnection(ctx); err != nil {
		return syncerr.Wrap("pull", syncerr.PhaseFetch, err)
	}
	ui.Success(i18n.T("Connection successful"))
	return nil
}
