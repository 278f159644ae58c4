package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hankey/dedupe"
)

func newMergeCmd(a *app) *cobra.Command {
	var (
		execute   bool
		minCount  int
		htmlOut   string
		canonical map[string]string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Collapse keys that share one default-language value",
		Long: `Group default-language keys with identical values, pick one canonical key
per group and list every source reference to the others. Nothing changes
unless --execute is given; then references are rewritten and the discarded
keys are removed from every language file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store := a.store(cfg)
			lo, err := store.Load(cfg.DefaultLanguage, cfg.Languages)
			if err != nil {
				return err
			}

			ws := a.workspace(cfg)
			paths, err := ws.Files()
			if err != nil {
				return err
			}
			files := make([]dedupe.SourceFile, 0, len(paths))
			for _, path := range paths {
				text, err := ws.Read(path) // #nosec G304 - paths come from the workspace walk
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				files = append(files, dedupe.SourceFile{Path: path, Content: text})
			}

			if minCount == 0 {
				minCount = cfg.MergeMinCount
			}
			opts := []dedupe.Option{
				dedupe.WithMinCount(minCount),
				dedupe.WithCallNames(cfg.TransformOptions().CallNames()...),
				dedupe.WithLogger(a.log),
			}
			for value, key := range canonical {
				opts = append(opts, dedupe.WithCanonical(value, key))
			}
			merger := dedupe.New(opts...)

			plan := merger.Preview(lo.Lang(cfg.DefaultLanguage), files)
			if len(plan.Groups) == 0 {
				a.info("No duplicate values found")
				return nil
			}

			for _, g := range plan.Groups {
				fmt.Fprintf(a.out, "%q -> %s (drops %s, %d reference(s))\n",
					g.Value, g.Canonical, strings.Join(g.Discarded, ", "), g.Occurrences)
			}
			for _, f := range plan.Files {
				for _, o := range f.Occurrences {
					fmt.Fprintf(a.out, "  %s:%d  %s -> %s\n", ws.Rel(o.File), o.Line, o.OldKey, o.NewKey)
				}
			}
			s := plan.Summary
			a.info("%d group(s), %d key(s) saved, %d reference(s) in %d file(s)",
				s.Groups, s.KeysSaved, s.Occurrences, s.FilesAffected)

			if htmlOut != "" {
				doc, err := dedupe.RenderHTML(plan, cfg.DefaultLanguage)
				if err != nil {
					return fmt.Errorf("rendering report: %w", err)
				}
				if err := os.WriteFile(htmlOut, []byte(doc), 0o644); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				a.info("Report written to %s", htmlOut)
			}

			if !execute {
				a.info("Preview only; run with --execute to apply")
				return nil
			}

			out, err := merger.Execute(plan, files, lo)
			if err != nil {
				return err
			}
			for path, content := range out.Files {
				if err := ws.Write(path, content); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
			}
			if err := store.Save(out.Object); err != nil {
				return err
			}
			for _, miss := range out.Skipped {
				a.warn("%v", miss)
			}
			a.success("Rewrote %d reference(s) in %d file(s), removed %d entries", out.Rewritten, len(out.Files), out.Removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "Apply the merge")
	cmd.Flags().IntVar(&minCount, "min-count", 0, "Smallest group size to merge (default from config)")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Write an HTML preview report")
	cmd.Flags().StringToStringVar(&canonical, "canonical", nil, "Preferred key per value (value=key)")
	return cmd
}
