package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/logging"
	"github.com/minios-linux/transync/reconcile"
	"github.com/minios-linux/transync/store"
	"github.com/minios-linux/transync/syncer"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// push (local files → service)
// ---------------------------------------------------------------------------

type pushArgs struct {
	language  string
	file      string
	dir       string
	overwrite bool
	dryRun    bool
	yes       bool
}

func newPushCmd() *cobra.Command {
	var a pushArgs

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload local language files to the service",
		Long: `Read language files from <dir>/<lang>/<file>.{php,json,yaml} and send them
to the service. Nested arrays are flattened back to dotted keys.

Without --overwrite the service only fills in keys that have no
translation yet. Files that cannot be parsed are reported and skipped.

Examples:
  transync push                           Push every language
  transync push --language de             Push German only
  transync push --language de --file auth Push lang/de/auth.php only
  transync push --dry-run                 Show what would be pushed
  transync push --overwrite --yes         Replace existing translations without asking`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&a.language, "language", "l", "", "Push only this language")
	f.StringVar(&a.file, "file", "", "Push only this resource file (name without extension)")
	f.StringVar(&a.dir, "dir", "", "Directory holding the language folders (default: output dir)")
	f.BoolVar(&a.overwrite, "overwrite", false, "Overwrite translations that already exist on the service")
	f.BoolVar(&a.dryRun, "dry-run", false, "Show what would be pushed without pushing")
	f.BoolVarP(&a.yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runPush(ctx context.Context, in io.Reader, out io.Writer, a pushArgs) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(!a.dryRun); err != nil {
		return err
	}
	if err := checkLanguage(a.language); err != nil {
		return err
	}

	dir := cfg.OutputDir
	if a.dir != "" {
		dir = a.dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(global.root, dir)
		}
	}

	ui.Info(i18n.T("Reading translations from %s"), dir)

	svc := syncer.New(newClient(cfg), logging.L())
	plan, err := svc.PlanPush(store.New(dir, logging.L()), store.Filter{Language: a.language, File: a.file})
	if err != nil {
		return err
	}
	for _, s := range plan.Skipped {
		ui.Warn(i18n.T("Skipping %s: %v"), s.Path, s.Err)
	}
	if plan.Empty() {
		ui.Warn(i18n.T("No translations found to push."))
		return nil
	}

	fmt.Fprintln(out, planTable(plan))
	fmt.Fprintf(out, "%s %s, %s\n\n",
		i18n.T("Total:"),
		fmt.Sprintf(i18n.N("%d file", "%d files", len(plan.Files)), len(plan.Files)),
		fmt.Sprintf(i18n.N("%d key", "%d keys", plan.Keys()), plan.Keys()),
	)

	if a.dryRun {
		ui.Info(i18n.T("This was a dry run. No translations were pushed."))
		return nil
	}

	if !a.yes {
		ok, err := ui.Confirm(in, ui.Stderr, i18n.T("Do you want to push these translations?"), true)
		if errors.Is(err, ui.ErrNoInput) {
			return fmt.Errorf("%w; use --yes to push without confirmation", err)
		}
		if err != nil {
			return err
		}
		if !ok {
			ui.Info(i18n.T("Push cancelled."))
			return nil
		}
	}

	ui.Info(i18n.T("Pushing translations (%s scope)..."), plan.Scope.Kind())
	outcome, err := svc.Push(ctx, plan, a.overwrite)
	if err != nil {
		return err
	}

	ui.Success(i18n.T("Translations pushed successfully!"))
	fmt.Fprintln(out, outcomeTable(outcome))
	if outcome.Message != "" {
		ui.Info("%s", outcome.Message)
	}
	return nil
}

func planTable(plan *syncer.PushPlan) string {
	rows := make([][]string, 0, len(plan.Files))
	for _, f := range plan.Files {
		rows = append(rows, []string{f.Language, f.Name, strconv.Itoa(f.Keys)})
	}
	return ui.Table([]string{i18n.T("Language"), i18n.T("File"), i18n.T("Keys")}, rows, 2)
}

func outcomeTable(o reconcile.Outcome) string {
	return ui.Table(
		[]string{i18n.T("Created"), i18n.T("Updated"), i18n.T("Skipped"), i18n.T("Total")},
		[][]string{{strconv.Itoa(o.Created), strconv.Itoa(o.Updated), strconv.Itoa(o.Skipped), strconv.Itoa(o.Total)}},
		0, 1, 2, 3,
	)
}
