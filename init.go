package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/minios-linux/transync/config"
	"github.com/minios-linux/transync/i18n"
	"github.com/minios-linux/transync/ui"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// init (write .transync.yaml)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool
	var format, status, outputDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .transync.yaml project file",
		Long: `Write the resolved settings (API URL, output directory, format, status
filter and timeout) to .transync.yaml in the project root so later runs
do not need flags or environment variables. The API token is never
written; use 'transync auth login' or SMARTPMS_TRANSLATION_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{config.YAMLFileName, config.TOMLFileName} {
				path := filepath.Join(global.root, name)
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Format = format
			}
			if status != "" {
				cfg.StatusFilter = status
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if err := cfg.Validate(false); err != nil {
				return err
			}

			// Store the output directory relative to the project root.
			if rel, err := filepath.Rel(global.root, cfg.OutputDir); err == nil && filepath.IsLocal(rel) {
				cfg.OutputDir = rel
			}

			path, err := config.WriteProjectFile(global.root, cfg)
			if err != nil {
				return err
			}
			ui.Success(i18n.T("Created %s"), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing project file")
	addFormatFlags(cmd.Flags(), &format, &status)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Language directory, relative to the project root")
	registerFormatCompletions(cmd)
	return cmd
}
