// Package app wires the stores and services of one process from a Config.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"options-trade-lab/internal/config"
	"options-trade-lab/internal/decision"
	"options-trade-lab/internal/domain"
	"options-trade-lab/internal/lifecycle"
	"options-trade-lab/internal/logging"
	"options-trade-lab/internal/observability"
	"options-trade-lab/internal/ranking"
	"options-trade-lab/internal/reporting"
	"options-trade-lab/internal/strategy"
	"options-trade-lab/internal/validation"
)

// App holds every service built for one storage root.
// All services share one validation sink, one resolver and one metrics registry.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Sink      *validation.Sink
	Resolver  *strategy.Resolver
	Ledger    *lifecycle.Ledger
	Decisions *decision.Store
	Scorer    *ranking.Scorer
	Reports   *reporting.Generator
}

// Options for creating an App.
type Options struct {
	// Required
	Config *config.Config

	// Optional
	LogOutput    io.Writer    // defaults to os.Stderr
	Clock        domain.Clock // defaults to domain.SystemClock
	SkipSelfTest bool
}

// New builds the logger, metrics and services described by opts.Config and runs
// the startup self-test. A failed self-test is returned as an error wrapping
// ErrSelfTest; callers treat it as fatal.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	clock := opts.Clock
	if clock == nil {
		clock = domain.SystemClock
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, out)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, reg)

	aliases, err := MergeAliases(strategy.DefaultAliases(), cfg.StrategyAliases)
	if err != nil {
		return nil, err
	}

	sink := validation.NewFileSink(cfg.ValidationLogPath(), logging.Component(logger, "validation"),
		validation.WithClock(clock), validation.WithMetrics(metrics))

	resolver, err := strategy.NewResolver(aliases, sink, logging.Component(logger, "strategy"),
		strategy.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSelfTest, err)
	}

	if !opts.SkipSelfTest {
		if err := RunSelfTest(resolver).Err(); err != nil {
			return nil, err
		}
	}

	ledger := lifecycle.NewFileLedger(cfg.LifecycleLogPath(), resolver, sink, logging.Component(logger, "lifecycle"),
		lifecycle.WithClock(clock), lifecycle.WithMetrics(metrics))

	decisions := decision.NewFileStore(cfg.DecisionsPath(), resolver, logging.Component(logger, "decision"),
		decision.WithClock(clock), decision.WithMetrics(metrics), decision.WithEmitter(sink))

	scorer, err := ranking.NewScorer(cfg.Ranking, ranking.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	reports := reporting.NewGenerator(scorer, resolver, decisions, logging.Component(logger, "reporting")).
		WithClock(func() time.Time { return clock().UTC() })

	logger.Debug().
		Str("data_dir", cfg.DataDir).
		Int("aliases", len(aliases)).
		Msg("Application initialized")

	return &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Metrics:   metrics,
		Sink:      sink,
		Resolver:  resolver,
		Ledger:    ledger,
		Decisions: decisions,
		Scorer:    scorer,
		Reports:   reports,
	}, nil
}

// Close flushes the metrics textfile when one is configured.
func (a *App) Close() error {
	path := a.Config.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// MergeAliases overlays configured aliases on base. Keys are put in lookup form;
// targets must be canonical ids. The merged table is not validated here.
func MergeAliases(base map[string]domain.StrategyID, extra map[string]string) (map[string]domain.StrategyID, error) {
	out := make(map[string]domain.StrategyID, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for alias, target := range extra {
		id := domain.StrategyID(strings.ToLower(strings.TrimSpace(target)))
		if !id.IsCanonical() {
			return nil, fmt.Errorf("%w: strategy_aliases: %q targets non-canonical %q", config.ErrInvalidConfig, alias, target)
		}
		out[strings.ToLower(strings.TrimSpace(alias))] = id
	}
	return out, nil
}
