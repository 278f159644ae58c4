package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type scanFile struct {
	File     string   `json:"file"`
	Literals []string `json:"literals"`
}

func newScanCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List CJK literals without changing anything",
		Long: `Walk the configured source directories and print every CJK literal the
classifier finds, per file. Nothing is rewritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			ws := a.workspace(cfg)
			paths, err := ws.Files()
			if err != nil {
				return err
			}

			eng := a.engine()
			var found []scanFile
			total := 0
			for _, path := range paths {
				if !eng.Supports(path) {
					continue
				}
				text, err := ws.Read(path) // #nosec G304 - paths come from the workspace walk
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				lits := eng.Scan(text)
				if len(lits) == 0 {
					continue
				}
				found = append(found, scanFile{File: ws.Rel(path), Literals: lits})
				total += len(lits)
			}

			if jsonOut {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(found)
			}

			for _, f := range found {
				fmt.Fprintf(a.out, "%s (%d)\n", f.File, len(f.Literals))
				for _, lit := range f.Literals {
					fmt.Fprintf(a.out, "  %q\n", lit)
				}
			}
			a.info("Found %d literal(s) in %d of %d file(s)", total, len(found), len(paths))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
