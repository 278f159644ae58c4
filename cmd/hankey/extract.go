package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/config"
	"github.com/ZaguanLabs/hankey/langfile"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		tf     translateFlags
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Rewrite sources and update the language files",
		Long: `Replace CJK literals in the configured sources with translation calls and
merge the generated keys into the language files. Text already present in the
default-language file reuses its key. With --translate the new entries are
translated file by file behind one progress bar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store := a.store(cfg)
			lo, err := loadOrEmpty(store, cfg)
			if err != nil {
				return err
			}
			defaults := lo.Lang(cfg.DefaultLanguage)
			before := defaults.Clone()

			ws := a.workspace(cfg)
			paths, err := ws.Files()
			if err != nil {
				return err
			}

			eng := a.engine()
			var (
				units     []hankey.LanguageObject
				rewritten int
			)
			for _, path := range paths {
				if !eng.Supports(path) {
					continue
				}
				text, err := ws.Read(path) // #nosec G304 - paths come from the workspace walk
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				opts := cfg.TransformOptions()
				opts.Existing = defaults
				opts.KeyOffset = nextOffset(defaults, cfg.KeyPrefix)

				res, err := eng.Transform(cmd.Context(), path, text, opts)
				if err != nil {
					return fmt.Errorf("transforming %s: %w", ws.Rel(path), err)
				}
				if len(res.Unhandled) > 0 {
					a.warn("%s: parse failed, %d literal(s) left in place", ws.Rel(path), len(res.Unhandled))
				}
				if res.Count() == 0 {
					continue
				}

				langfile.Merge(lo, res.Object)
				units = append(units, res.Object)

				if !res.Changed(text) {
					continue
				}
				rewritten++
				if dryRun {
					fmt.Fprintf(a.out, "%s: %d literal(s)\n", ws.Rel(path), res.Count())
					continue
				}
				if err := ws.Write(path, res.Content); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				a.log.Debug().Str("path", ws.Rel(path)).Int("literals", res.Count()).Msg("file rewritten")
			}

			diff := hankey.DiffMessages(before, defaults)
			if dryRun {
				for _, key := range diff.Added {
					v, _ := defaults.Get(key)
					fmt.Fprintf(a.out, "  + %s = %q\n", key, v)
				}
				a.info("Dry run: %d file(s) would change, %d new key(s)", rewritten, len(diff.Added))
				return nil
			}

			var runErr error
			if tf.enabled && len(units) > 0 {
				runErr = a.translateUnits(cmd, cfg, lo, units, tf)
			}

			if err := store.Save(lo); err != nil {
				return err
			}
			a.success("Rewrote %d file(s), %d new key(s), %d total", rewritten, len(diff.Added), defaults.Len())
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing files")
	cmd.Flags().BoolVar(&tf.enabled, "translate", false, "Translate new entries after extraction")
	tf.register(cmd)
	return cmd
}

// loadOrEmpty loads the language files, starting from an empty object when
// the default-language file does not exist yet.
func loadOrEmpty(store *langfile.Store, cfg *config.Config) (hankey.LanguageObject, error) {
	if _, err := os.Stat(store.Path(cfg.DefaultLanguage)); errors.Is(err, fs.ErrNotExist) {
		lo := make(hankey.LanguageObject)
		for _, lang := range cfg.Languages {
			lo.Lang(lang)
		}
		return lo, nil
	}
	return store.Load(cfg.DefaultLanguage, cfg.Languages)
}

// nextOffset returns the first index free under prefix and under the
// component namespaces, which share one offset.
func nextOffset(m *hankey.Messages, prefix string) int {
	next := 0
	for _, p := range []string{prefix, prefix + hankey.NamespaceTemplate, prefix + hankey.NamespaceScript} {
		if n := langfile.NextOffset(m, p); n > next {
			next = n
		}
	}
	return next
}
