package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/minios-linux/transync/config"
	"github.com/minios-linux/transync/credentials"
	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/langmeta"
	"github.com/minios-linux/transync/logging"
	"github.com/minios-linux/transync/store"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// status (read-only: configuration + local translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and local translation statistics",
		Long: `Show the resolved configuration and the language files found in the
output directory, with per-language file and key counts. Does not contact
the service and does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.Heading(out, i18n.T("Configuration"))
	fmt.Fprintln(out, configTable(cfg))
	if err := cfg.Validate(false); err != nil {
		ui.Warn("%v", err)
	}

	ui.Heading(out, i18n.T("Local translations"))
	res, err := store.New(cfg.OutputDir, logging.L()).Load(store.Filter{})
	if err != nil {
		ui.Warn("%v", err)
		return nil
	}
	for _, s := range res.Skipped {
		ui.Warn(i18n.T("Skipping %s: %v"), s.Path, s.Err)
	}
	if len(res.Files) == 0 {
		ui.Info(i18n.T("No translation files found in %s"), cfg.OutputDir)
		return nil
	}

	fmt.Fprintln(out, languageTable(res))
	fmt.Fprintf(out, "%s %s, %s, %s\n",
		i18n.T("Total:"),
		fmt.Sprintf(i18n.N("%d language", "%d languages", len(res.Catalog)), len(res.Catalog)),
		fmt.Sprintf(i18n.N("%d file", "%d files", len(res.Files)), len(res.Files)),
		fmt.Sprintf(i18n.N("%d key", "%d keys", res.Catalog.KeyCount()), res.Catalog.KeyCount()),
	)
	for _, lang := range res.Catalog.Languages() {
		if !langmeta.Valid(lang) {
			ui.Warn(i18n.T("Directory %q is not a language code; its files are still pushed"), lang)
		}
	}
	return nil
}

func configTable(cfg config.Config) string {
	source := cfg.Source
	if source == "" {
		source = i18n.T("(none, defaults and environment)")
	}
	token := i18n.T("not configured")
	if cfg.APIToken != "" {
		token = fmt.Sprintf("%s (%s)", credentials.MaskKey(cfg.APIToken), tokenSource(cfg))
	}
	return ui.Table(
		[]string{i18n.T("Setting"), i18n.T("Value")},
		[][]string{
			{i18n.T("Project file"), source},
			{i18n.T("API URL"), cfg.APIURL},
			{i18n.T("API token"), token},
			{i18n.T("Output dir"), cfg.OutputDir},
			{i18n.T("Format"), cfg.Format},
			{i18n.T("Status filter"), cfg.StatusFilter},
			{i18n.T("Timeout"), strconv.Itoa(cfg.Timeout) + "s"},
		},
	)
}

// tokenSource names where the resolved token came from.
func tokenSource(cfg config.Config) string {
	switch {
	case global.token != "":
		return i18n.T("flag")
	case os.Getenv(config.EnvToken) != "":
		return config.EnvToken
	case cfg.APIToken == credentials.Token(cfg.APIURL):
		return i18n.T("credential store")
	default:
		return i18n.T("project file")
	}
}

func languageTable(res *store.LoadResult) string {
	files := make(map[string]int)
	for _, f := range res.Files {
		files[f.Language]++
	}

	rows := make([][]string, 0, len(res.Catalog))
	for _, lang := range res.Catalog.Languages() {
		keys := 0
		for _, t := range res.Catalog[lang] {
			keys += t.Count()
		}
		rows = append(rows, []string{langmeta.Resolve(lang).Label(), strconv.Itoa(files[lang]), strconv.Itoa(keys)})
	}
	return ui.Table([]string{i18n.T("Language"), i18n.T("Files"), i18n.T("Keys")}, rows, 1, 2)
}
