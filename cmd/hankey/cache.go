package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/cache"
	"github.com/ZaguanLabs/hankey/config"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Export or import the translation cache",
		Long: `Move translation cache entries between machines. Entries outlive a
single run only with cache.redis_url or cache.file configured.`,
	}

	var (
		langs     []string
		overwrite bool
	)

	export := &cobra.Command{
		Use:   "export FILE",
		Short: "Write cache entries to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()
			n, err := cache.NewExporter(c).ExportToFile(args[0], langs, map[string]string{"tool": hankey.Name, "version": hankey.Version})
			if err != nil {
				return fmt.Errorf("exporting cache: %w", err)
			}
			a.success("Exported %d entries to %s", n, args[0])
			return nil
		},
	}
	export.Flags().StringSliceVar(&langs, "lang", nil, "only export these target languages")

	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Load cache entries from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			importer := cache.NewImporter(c)
			importer.Targets = langs
			importer.Overwrite = overwrite
			res, err := importer.ImportFromFile(args[0])
			if err != nil {
				return fmt.Errorf("importing cache: %w", err)
			}
			if err := c.Close(); err != nil {
				return fmt.Errorf("saving cache: %w", err)
			}
			if res.Failed > 0 {
				a.warn("%d entries could not be stored", res.Failed)
			}
			a.success("Imported %d entries (%d skipped)", res.Imported, res.Skipped)
			return nil
		},
	}
	imp.Flags().StringSliceVar(&langs, "lang", nil, "only import these target languages")
	imp.Flags().BoolVar(&overwrite, "overwrite", false, "replace translations that are already cached")

	cmd.AddCommand(export, imp)
	return cmd
}

func (a *app) openCache() (cache.Enumerable, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return openCache(cfg, a.root)
}

func openCache(cfg *config.Config, root string) (cache.Enumerable, error) {
	return cache.New(cache.Config{
		RedisURL:  cfg.Cache.RedisURL,
		File:      cfg.CachePath(root),
		TTL:       cfg.Cache.TTL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
}
