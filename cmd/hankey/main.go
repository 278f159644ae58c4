// Command hankey rewrites CJK literals into i18n calls and manages the
// resulting language files.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/component"
	"github.com/ZaguanLabs/hankey/config"
	"github.com/ZaguanLabs/hankey/internal/logging"
	"github.com/ZaguanLabs/hankey/langfile"
	"github.com/ZaguanLabs/hankey/script"
)

// app carries the global flags and the state shared by subcommands.
type app struct {
	root      string
	verbose   bool
	quiet     bool
	noColor   bool
	logFormat string

	out    io.Writer
	errOut io.Writer
	log    zerolog.Logger
}

func (a *app) info(format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(a.errOut, "%s %s\n", color.BlueString("[INFO]"), fmt.Sprintf(format, args...))
}

func (a *app) success(format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(a.errOut, "%s %s\n", color.GreenString("[OK]"), fmt.Sprintf(format, args...))
}

func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.errOut, "%s %s\n", color.YellowString("[WARN]"), fmt.Sprintf(format, args...))
}

// config loads .hankey.yaml from the project root.
func (a *app) config() (*config.Config, error) {
	cfg, err := config.Load(a.root)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("root", a.root).Strs("languages", cfg.Languages).Msg("config loaded")
	return cfg, nil
}

func (a *app) engine() *hankey.Engine {
	return hankey.NewEngine(
		hankey.WithTransformer(script.NewTransformer()),
		hankey.WithTransformer(component.NewTransformer()),
		hankey.WithLogger(a.log),
	)
}

func (a *app) store(cfg *config.Config) *langfile.Store {
	return langfile.NewStore(cfg.LangPath(a.root), langfile.Format(cfg.LangFormat), langfile.WithLogger(a.log))
}

func (a *app) workspace(cfg *config.Config) langfile.Workspace {
	return langfile.Workspace{Root: a.root, Sources: cfg.Sources, Extensions: cfg.Extensions}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hankey",
		Short: "Rewrite CJK literals into i18n calls and translate them",
		Long: `hankey finds CJK text in JavaScript, TypeScript, JSX and Vue sources,
replaces it with translation calls such as i18n.t('I18N_0') and keeps one
key/value file per language.

Commands:
  init        Write a default .hankey.yaml
  scan        List CJK literals without changing anything
  extract     Rewrite sources and update the language files
  translate   Fill empty translations through the configured backend
  merge       Collapse keys that share one default-language value
  cache       Export or import the translation cache`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			if a.noColor {
				color.NoColor = true
			}
			a.log = logging.New(a.errOut, logging.Level(a.verbose, a.quiet), a.logFormat != "json")
		},
	}

	root.PersistentFlags().StringVar(&a.root, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Only print warnings and errors")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable coloured output")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "Log format: console or json")

	root.AddCommand(
		newInitCmd(a),
		newScanCmd(a),
		newExtractCmd(a),
		newTranslateCmd(a),
		newMergeCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("[ERROR]"), err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			b := hankey.Build()
			fmt.Fprintf(a.out, "%s %s\n", hankey.Name, hankey.FullVersion())
			if b.Commit != "" {
				fmt.Fprintf(a.out, "  commit:  %s\n", b.Commit)
			}
			if b.Date != "" {
				fmt.Fprintf(a.out, "  built:   %s\n", b.Date)
			}
			if b.GoVersion != "" {
				fmt.Fprintf(a.out, "  go:      %s\n", b.GoVersion)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd(a *app) *cobra.Command {
	var (
		langs []string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .hankey.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.root, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if len(langs) > 0 {
				cfg.Languages = langs
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Write(a.root); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			a.success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&langs, "languages", nil, "Language codes, default language included")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
