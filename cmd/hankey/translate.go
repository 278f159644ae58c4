package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/hankey"
	"github.com/ZaguanLabs/hankey/config"
	"github.com/ZaguanLabs/hankey/langfile"
	"github.com/ZaguanLabs/hankey/provider"
	"github.com/ZaguanLabs/hankey/schedule"
)

// translateFlags are shared by translate and extract --translate.
type translateFlags struct {
	enabled    bool
	mock       bool
	noCache    bool
	metricsOut string
}

func (f *translateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.mock, "mock", false, "Use the offline mock backend")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Do not consult or fill the translation cache")
	cmd.Flags().StringVar(&f.metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
}

func newTranslateCmd(a *app) *cobra.Command {
	var tf translateFlags

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill empty translations through the configured backend",
		Long: `Send every empty non-default entry of the language files to the translation
backend in batches and write the results back. Batches that fail leave their
entries empty; the command then exits with an error after saving the rest.`,
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

			runErr := a.translateUnits(cmd, cfg, lo, []hankey.LanguageObject{lo}, tf)
			if err := store.Save(lo); err != nil {
				return err
			}
			return runErr
		},
	}

	tf.register(cmd)
	return cmd
}

// backend builds the translation backend with the configured wrappers.
func (a *app) backend(cfg *config.Config, mock bool) (hankey.Backend, error) {
	var b hankey.Backend
	if mock || cfg.Provider.Name == "mock" {
		b = provider.NewMockProvider()
	} else {
		key := os.Getenv(cfg.Provider.APIKeyEnv)
		if key == "" {
			return nil, &hankey.ConfigError{
				Field:   "provider.api_key_env",
				Message: fmt.Sprintf("%s is not set", cfg.Provider.APIKeyEnv),
			}
		}
		b = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  key,
			Model:   cfg.Provider.Model,
			BaseURL: cfg.Provider.BaseURL,
		})
	}

	if p := cfg.Provider; p.RequestsPerMinute > 0 || p.TextsPerMinute > 0 {
		b = hankey.NewRateLimitedBackend(b, hankey.RateLimitConfig{
			RequestsPerMinute: p.RequestsPerMinute,
			TextsPerMinute:    p.TextsPerMinute,
		})
	}
	if cfg.Provider.MaxRetries > 0 {
		rc := hankey.DefaultRetryConfig()
		rc.MaxRetries = cfg.Provider.MaxRetries
		rc.RetryIncomplete = cfg.Provider.RetryIncomplete
		rc.OnRetry = func(attempt int, err error, delay time.Duration) {
			a.log.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying batch")
		}
		b = hankey.NewRetryableBackend(b, rc)
	}
	return b, nil
}

// translateUnits runs one scheduler pass per unit behind a shared progress
// bar and merges the results into lo. Each key is translated with the first
// unit that contains it.
func (a *app) translateUnits(cmd *cobra.Command, cfg *config.Config, lo hankey.LanguageObject, units []hankey.LanguageObject, tf translateFlags) error {
	backend, err := a.backend(cfg, tf.mock)
	if err != nil {
		return err
	}

	opts := []schedule.Option{
		schedule.WithBatchSize(cfg.BatchSize),
		schedule.WithConcurrency(cfg.Concurrency),
		schedule.WithLogger(a.log),
		schedule.WithContext(cfg.Context),
		schedule.WithGlossary(cfg.Glossary),
	}
	if !tf.noCache {
		c, err := openCache(cfg, a.root)
		if err != nil {
			a.warn("translation cache unavailable: %v", err)
		} else {
			defer func() {
				if err := c.Close(); err != nil {
					a.warn("saving translation cache: %v", err)
				}
			}()
			opts = append(opts, schedule.WithCache(c))
		}
	}

	var reg *prometheus.Registry
	if tf.metricsOut != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, schedule.WithMetrics(schedule.NewMetrics(reg)))
	}

	def := cfg.DefaultLanguage
	seen := make(map[string]bool)
	subs := make([]hankey.LanguageObject, len(units))
	planned := make([]int, len(units))
	total := 0
	for i, u := range units {
		subs[i] = restrict(lo, u.Lang(def).Keys(), def, seen)
		planned[i] = len(schedule.Plan(subs[i], def, cfg.BatchSize))
		total += planned[i]
	}
	if total == 0 {
		a.info("Nothing to translate")
		return nil
	}

	var bar *schedule.BarReporter
	var reporter schedule.Reporter
	if !a.quiet {
		bar = schedule.NewBarReporter(a.errOut, total, "Translating")
		reporter = bar
	}
	opts = append(opts, schedule.WithTracker(schedule.NewTracker(total, reporter)))
	sched := schedule.New(backend, opts...)

	var batches, failed, translated, hits, offset int
	for i, sub := range subs {
		if planned[i] == 0 {
			continue
		}
		res, err := sched.Run(cmd.Context(), schedule.Request{Object: sub, DefaultLang: def, Offset: offset})
		offset += planned[i]
		if err != nil {
			return err
		}

		langfile.Merge(lo, res.Object)
		batches += res.Batches
		translated += res.Translated
		hits += res.CacheHits
		for _, f := range res.Failures {
			failed++
			if !errors.Is(f, hankey.ErrCancelled) {
				a.warn("%v", f)
			}
		}
		if res.Message != "" {
			a.log.Warn().Str("run", res.RunID).Msg(res.Message)
		}
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(a.errOut)
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(tf.metricsOut, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	a.success("Translated %d entries in %d batch(es), %d from cache", translated, batches, hits)
	if failed > 0 {
		return fmt.Errorf("%d of %d batch(es) failed", failed, batches)
	}
	return nil
}

// restrict copies the entries of keys out of lo. Keys already in seen are
// left out; the rest are added to seen.
func restrict(lo hankey.LanguageObject, keys []string, defaultLang string, seen map[string]bool) hankey.LanguageObject {
	out := make(hankey.LanguageObject)
	for _, lang := range lo.Languages() {
		out.Lang(lang)
	}
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		for _, lang := range lo.Languages() {
			v, ok := lo[lang].Get(key)
			if !ok && lang == defaultLang {
				continue
			}
			out[lang].Set(key, v)
		}
	}
	return out
}
