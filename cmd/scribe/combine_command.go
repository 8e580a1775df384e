package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/export"
	"scribe/internal/segment"
)

func newCombineCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var outFlag string

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Concatenate one section across all archived videos",
		Long: "Reads every structured record in the archive and writes a single\n" +
			"markdown document holding the chosen section's text from each video,\n" +
			"ordered by date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			cat, err := segment.ParseCategory(categoryFlag)
			if err != nil {
				names := make([]string, 0, len(segment.Categories()))
				for _, c := range segment.Categories() {
					names = append(names, string(c))
				}
				return fmt.Errorf("unknown category %q (one of: %s)", categoryFlag, strings.Join(names, ", "))
			}

			records, err := export.LoadArchive(cfg.Paths.ArchiveDir)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("archive %s holds no structured records", cfg.Paths.ArchiveDir)
			}

			target := strings.TrimSpace(outFlag)
			if target == "" {
				target = filepath.Join(cfg.Paths.ArchiveDir, cat.Key()+"_combined.md")
			}
			if err := export.CombineSection(records, cat, target); err != nil {
				return err
			}

			texts := export.SectionTexts(records, cat)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d of %d videos have %s)\n",
				target, len(texts), len(records), cat)
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "", "Section category to combine")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output path (default <archive>/<category>_combined.md)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}
